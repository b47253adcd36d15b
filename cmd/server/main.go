// Package main initializes and starts the Cats API server, setting up
// configuration, logging, the account store, services, handlers and,
// optionally, TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/catsapi/internal/breeds"
	"github.com/atinyakov/catsapi/internal/config"
	"github.com/atinyakov/catsapi/internal/db"
	"github.com/atinyakov/catsapi/internal/logger"
	"github.com/atinyakov/catsapi/internal/password"
	"github.com/atinyakov/catsapi/internal/repository"
	"github.com/atinyakov/catsapi/internal/server/handler/http"
	"github.com/atinyakov/catsapi/internal/service"
	"github.com/atinyakov/catsapi/internal/token"
	"github.com/atinyakov/catsapi/internal/username"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	// Select the account store.
	var repo service.AccountRepository
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()
		repo = repository.NewPostgresAccountRepository(postgresDB)
	} else {
		zapLogger.Warn("no database configured, accounts are kept in memory")
		repo = repository.NewMemoryAccountRepository()
	}

	// Initialize business-logic services.
	tokens := token.NewService([]byte(options.SecretKey))
	accountService := service.NewAccountService(
		repo,
		password.NewHasher(options.BcryptCost),
		tokens,
		service.WithTokenTTL(options.TokenTTL()),
		service.WithUsernameGenerator(username.New()),
		service.WithLogger(zapLogger),
	)
	breedClient := breeds.NewClient(options.CatsAPIBaseURL, options.CatsAPIKey, nil)

	// Build the router with middleware and routes.
	router := http.NewRouter(
		&http.AccountHandler{AccountService: accountService},
		&http.BreedHandler{BreedService: breedClient},
		tokens,
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("starting server",
			zap.String("addr", options.Port),
			zap.Bool("tls", options.TLSEnabled()),
		)
		if options.TLSEnabled() {
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
