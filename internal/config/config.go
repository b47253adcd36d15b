// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file and environment
// variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address" env:"SERVER_ADDRESS"`

	// DatabaseDSN holds the PostgreSQL connection string. Empty selects the
	// in-memory account store.
	DatabaseDSN string `json:"database_dsn" env:"DATABASE_URL"`

	// Config is the path to the Config file.
	Config string `json:"-" env:"CONFIG"`

	// SecretKey signs access tokens.
	SecretKey string `json:"secret_key" env:"SECRET_KEY"`

	// TokenTTLMinutes is the access token lifetime.
	TokenTTLMinutes int `json:"access_token_expire_minutes" env:"ACCESS_TOKEN_EXPIRE_MINUTES"`

	// CatsAPIBaseURL and CatsAPIKey configure the breed catalog upstream.
	CatsAPIBaseURL string `json:"cats_api_base_url" env:"BASE_URL"`
	CatsAPIKey     string `json:"cats_api_key" env:"CATS_API_KEY"`

	LogLevel   string `json:"log_level" env:"LOG_LEVEL"`
	BcryptCost int    `json:"bcrypt_cost" env:"BCRYPT_COST"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert" env:"TLS_CERT"`
	TLSKey  string `json:"tls_key" env:"TLS_KEY"`
}

// TokenTTL returns the access token lifetime as a duration.
func (o *Options) TokenTTL() time.Duration {
	return time.Duration(o.TokenTTLMinutes) * time.Minute
}

// TLSEnabled reports whether both certificate and key are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

func defaults() *Options {
	return &Options{
		Port:            "localhost:8001",
		Config:          "config.json",
		SecretKey:       "your-secret-key-here",
		TokenTTLMinutes: 30,
		CatsAPIBaseURL:  "https://api.thecatapi.com/v1",
		LogLevel:        "info",
		BcryptCost:      bcrypt.DefaultCost,
	}
}

// Load builds Options from defaults, then args, then the JSON config file,
// then environment variables. Later sources win.
func Load(args []string) (*Options, error) {
	options := defaults()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", options.Port, "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", options.DatabaseDSN, "db address")
	fs.StringVar(&options.SecretKey, "s", options.SecretKey, "token signing key")
	fs.IntVar(&options.TokenTTLMinutes, "t", options.TokenTTLMinutes, "access token lifetime (in minutes)")
	fs.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	fs.StringVar(&options.Config, "config", options.Config, "path to config file")
	fs.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		data, err := os.ReadFile(options.Config)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := env.Parse(options); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if options.TokenTTLMinutes <= 0 {
		return nil, fmt.Errorf("access token lifetime must be positive, got %d", options.TokenTTLMinutes)
	}

	return options, nil
}

// Parse loads Options from the process arguments and environment. It exits
// the process if the configuration is invalid.
func Parse() *Options {
	options, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	return options
}
