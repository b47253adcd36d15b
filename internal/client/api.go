// Package client is a small HTTP client for the accounts and breeds API, used
// by the interactive command-line client.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/catsapi/internal/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// NewHTTPClient returns an HTTP client. When caFile is set the server
// certificate must chain to that CA.
func NewHTTPClient(caFile string) (*http.Client, error) {
	c := &http.Client{Timeout: 10 * time.Second}
	if caFile == "" {
		return c, nil
	}

	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	c.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12},
	}
	return c, nil
}

// API calls the server at baseURL.
type API struct {
	baseURL string
	http    *http.Client
}

// New returns an API for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Register creates an account and returns it with its generated username.
func (a *API) Register(ctx context.Context, in models.NewAccount) (*models.AccountResponse, error) {
	var out models.AccountResponse
	if err := a.do(ctx, http.MethodPost, "/api/v1/user", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for an access token.
func (a *API) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := a.do(ctx, http.MethodPost, "/api/v1/login", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account the token was issued for.
func (a *API) Me(ctx context.Context, token string) (*models.AccountResponse, error) {
	var out models.AccountResponse
	if err := a.do(ctx, http.MethodGet, "/api/v1/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchBreeds searches the breed catalog. limit <= 0 uses the server default.
func (a *API) SearchBreeds(ctx context.Context, query string, limit int) ([]models.Breed, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/breeds/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []models.Breed
	if err := a.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) do(ctx context.Context, method, path, token string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
