// Package http provides the HTTP handlers and router for the accounts and
// breeds API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/catsapi/internal/common"
	"github.com/atinyakov/catsapi/internal/middleware"
	"github.com/atinyakov/catsapi/internal/models"
	"github.com/go-chi/chi/v5"
)

// AccountService defines the account operations required by the HTTP handlers.
type AccountService interface {
	// CreateAccount registers a new account under a generated username.
	CreateAccount(ctx context.Context, in models.NewAccount) (*models.Account, error)
	// Login checks credentials and issues a bearer token.
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	// GetAccount returns the account or common.ErrNotFound.
	GetAccount(ctx context.Context, username string) (*models.Account, error)
	// ListAccounts returns every account.
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

// AccountHandler handles HTTP requests for account registration, login and lookup.
type AccountHandler struct {
	// AccountService performs the underlying account operations.
	AccountService AccountService
}

// Register handles account creation.
// It expects a JSON NewAccount body and responds 201 with the public
// projection of the created account, including its generated username.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.NewAccount
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	acc, err := h.AccountService.CreateAccount(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, acc.Public())
}

// Login exchanges a username and password for a bearer token.
// Unknown usernames and wrong passwords get the same 401 response.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.AccountService.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, common.ErrNotFound) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, "invalid username or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// List returns every account.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.AccountService.ListAccounts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]models.AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, accounts[i].Public())
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns the account named by the {username} path parameter.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.writeAccount(w, r, chi.URLParam(r, "username"))
}

// Me returns the account of the authenticated caller.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	name := middleware.GetUsernameFromContext(r.Context())
	if name == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	h.writeAccount(w, r, name)
}

func (h *AccountHandler) writeAccount(w http.ResponseWriter, r *http.Request, name string) {
	acc, err := h.AccountService.GetAccount(r.Context(), name)
	if errors.Is(err, common.ErrNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc.Public())
}

// writeServiceError maps service sentinels onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, common.ErrResolutionExhausted):
		http.Error(w, common.ErrResolutionExhausted.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
