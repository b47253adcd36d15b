package client

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atinyakov/catsapi/internal/breeds"
	"github.com/atinyakov/catsapi/internal/certgen"
	"github.com/atinyakov/catsapi/internal/models"
	"github.com/atinyakov/catsapi/internal/password"
	"github.com/atinyakov/catsapi/internal/repository"
	handler "github.com/atinyakov/catsapi/internal/server/handler/http"
	"github.com/atinyakov/catsapi/internal/service"
	"github.com/atinyakov/catsapi/internal/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// newTestServer runs the full API over an in-memory store and a fake
// breed upstream.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"sibe","name":"Siberian","reference_image_id":"3bkZAjRh1"}]`))
	}))
	t.Cleanup(upstream.Close)

	tokens := token.NewService([]byte("test-key"))
	accounts := service.NewAccountService(
		repository.NewMemoryAccountRepository(),
		password.NewHasher(bcrypt.MinCost),
		tokens,
	)
	router := handler.NewRouter(
		&handler.AccountHandler{AccountService: accounts},
		&handler.BreedHandler{BreedService: breeds.NewClient(upstream.URL, "key", upstream.Client())},
		tokens,
		zap.NewNop(),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestAPI_RegisterLoginMe(t *testing.T) {
	srv := newTestServer(t)
	api := New(srv.URL, srv.Client())
	ctx := context.Background()

	acc, err := api.Register(ctx, models.NewAccount{FirstName: "José", LastName: "García", Password: "123456"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if acc.Username != "jose.garcia" {
		t.Errorf("Username = %q; want jose.garcia", acc.Username)
	}

	second, err := api.Register(ctx, models.NewAccount{FirstName: "Jose", LastName: "Garcia", Password: "123456"})
	if err != nil {
		t.Fatalf("second Register error: %v", err)
	}
	if second.Username != "jose.garcia1" {
		t.Errorf("second Username = %q; want jose.garcia1", second.Username)
	}

	login, err := api.Login(ctx, "jose.garcia", "123456")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if login.TokenType != "bearer" || login.AccessToken == "" {
		t.Errorf("unexpected login response: %+v", login)
	}

	me, err := api.Me(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("Me error: %v", err)
	}
	if me.Username != "jose.garcia" {
		t.Errorf("Me username = %q", me.Username)
	}
}

func TestAPI_Errors(t *testing.T) {
	srv := newTestServer(t)
	api := New(srv.URL, srv.Client())
	ctx := context.Background()

	_, err := api.Login(ctx, "nobody", "whatever")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}

	_, err = api.Register(ctx, models.NewAccount{FirstName: "A", LastName: "B", Password: "123"})
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 APIError, got %v", err)
	}

	_, err = api.Me(ctx, "not-a-token")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
}

func TestAPI_SearchBreeds(t *testing.T) {
	srv := newTestServer(t)
	out, err := New(srv.URL, srv.Client()).SearchBreeds(context.Background(), "sib", 5)
	if err != nil {
		t.Fatalf("SearchBreeds error: %v", err)
	}
	if len(out) != 1 || out[0].ID != "sibe" {
		t.Fatalf("unexpected breeds: %+v", out)
	}
	if out[0].ImageURL != "https://cdn2.thecatapi.com/images/3bkZAjRh1.jpg" {
		t.Errorf("ImageURL = %q", out[0].ImageURL)
	}
}

func TestNewHTTPClient(t *testing.T) {
	c, err := NewHTTPClient("")
	if err != nil || c == nil {
		t.Fatalf("plain client: %v", err)
	}

	if _, err := NewHTTPClient(filepath.Join(t.TempDir(), "missing.crt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.crt")
	_ = os.WriteFile(bad, []byte("garbage"), 0o600)
	if _, err := NewHTTPClient(bad); err == nil {
		t.Error("expected error for invalid CA")
	}
}

func TestNewHTTPClient_TrustsCA(t *testing.T) {
	caCert, caKey, caPair, err := certgen.GenerateCA("Test CA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	serverPair, err := certgen.GenerateServerCertificate([]string{"127.0.0.1"}, caCert, caKey, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	caPath, _, err := certgen.WriteKeyPair(dir, "ca", caPair)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := tls.X509KeyPair(serverPair.CertPEM, serverPair.KeyPEM)
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{cert}}
	srv.StartTLS()
	defer srv.Close()

	hc, err := NewHTTPClient(caPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(srv.URL, hc).SearchBreeds(context.Background(), "", 0); err != nil {
		t.Errorf("request over TLS failed: %v", err)
	}
}
