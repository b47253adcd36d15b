package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/atinyakov/catsapi/internal/breeds"
	"github.com/atinyakov/catsapi/internal/common"
	"github.com/atinyakov/catsapi/internal/models"
	"github.com/go-chi/chi/v5"
)

// BreedService defines the breed catalog operations used by BreedHandler.
type BreedService interface {
	All(ctx context.Context) ([]models.Breed, error)
	ByID(ctx context.Context, id string) (*models.Breed, error)
	Search(ctx context.Context, p breeds.SearchParams) ([]models.Breed, error)
}

// BreedHandler serves the read-only breed catalog.
type BreedHandler struct {
	BreedService BreedService
}

// List returns every breed.
func (h *BreedHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.BreedService.All(r.Context())
	if err != nil {
		http.Error(w, "failed to fetch breeds", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns the breed named by the {id} path parameter.
func (h *BreedHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.BreedService.ByID(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		http.Error(w, fmt.Sprintf("breed with ID '%s' not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to fetch breed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Search filters breeds by the q, limit and attach_breed query parameters.
// limit must be within 1..100 and defaults to 10.
func (h *BreedHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	p := breeds.SearchParams{
		Query: query.Get("q"),
		Limit: breeds.DefaultSearchLimit,
	}

	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > breeds.MaxSearchLimit {
			http.Error(w, fmt.Sprintf("limit must be between 1 and %d", breeds.MaxSearchLimit), http.StatusBadRequest)
			return
		}
		p.Limit = n
	}
	if v := query.Get("attach_breed"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "attach_breed must be an integer", http.StatusBadRequest)
			return
		}
		p.AttachBreed = n
	}

	out, err := h.BreedService.Search(r.Context(), p)
	if err != nil {
		http.Error(w, "failed to search breeds", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
