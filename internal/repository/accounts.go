// Package repository provides persistence implementations for accounts.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/catsapi/internal/common"
	"github.com/atinyakov/catsapi/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation pq.ErrorCode = "23505"

// PostgresAccountRepository implements account persistence using a PostgreSQL database.
type PostgresAccountRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

// UsernameExists checks whether an account with the specified username exists.
func (r *PostgresAccountRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`,
		username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("UsernameExists: %w", err)
	}
	return exists, nil
}

// InsertAccount stores a new account and returns it with the database-assigned ID.
// A unique violation on username is reported as common.ErrDuplicateUsername.
func (r *PostgresAccountRepository) InsertAccount(ctx context.Context, acc *models.Account) (*models.Account, error) {
	var id string
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO accounts (first_name, last_name, username, password_hash, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, acc.FirstName, acc.LastName, acc.Username, acc.PasswordHash, nullString(acc.Email), acc.CreatedAt, acc.UpdatedAt).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert %q: %w", acc.Username, common.ErrDuplicateUsername)
		}
		return nil, fmt.Errorf("InsertAccount: %w", err)
	}

	created := *acc
	created.ID = id
	return &created, nil
}

// FindByUsername fetches a single account. A miss is reported as common.ErrNotFound.
func (r *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, username, password_hash, email, created_at, updated_at
		FROM accounts WHERE username = $1
	`, username)

	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("FindByUsername: %w", err)
	}
	return acc, nil
}

// ListAccounts returns every stored account ordered by creation time.
func (r *PostgresAccountRepository) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, first_name, last_name, username, password_hash, email, created_at, updated_at
		FROM accounts ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*models.Account, error) {
	var (
		acc   models.Account
		email sql.NullString
	)
	if err := s.Scan(&acc.ID, &acc.FirstName, &acc.LastName, &acc.Username,
		&acc.PasswordHash, &email, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		return nil, err
	}
	acc.Email = email.String
	return &acc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
