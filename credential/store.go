// Package credential implements the engine's UserStore on PostgreSQL.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tasknest/tasknest"
)

// DB is the subset of pgxpool.Pool the store uses. pgxmock satisfies it for
// tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists user records in the users table. Uniqueness of email and
// username is enforced by case-insensitive unique indexes; Create relies on
// those, not on any pre-check, to decide concurrent races.
type Store struct {
	db DB
}

// NewStore creates a Store on the given connection pool.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const userColumns = "id, name, email, username, password_hash"

// Create inserts a new user in a single statement. A unique-index violation
// is mapped to a [tasknest.DuplicateKeyError] carrying the offending field.
func (s *Store) Create(ctx context.Context, input tasknest.CreateUserInput) (tasknest.UserRecord, error) {
	id := uuid.NewString()

	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, name, email, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		id,
		input.Name,
		input.Email,
		input.Username,
		input.PasswordHash,
		time.Now().UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return tasknest.UserRecord{}, &tasknest.DuplicateKeyError{
				Field: duplicateField(pgErr.ConstraintName),
			}
		}
		return tasknest.UserRecord{}, fmt.Errorf("insert user: %w", err)
	}

	return tasknest.UserRecord{
		UserID:       id,
		Name:         input.Name,
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
	}, nil
}

// FindByEmail retrieves a user by email, case-insensitively.
func (s *Store) FindByEmail(ctx context.Context, email string) (tasknest.UserRecord, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)
	return s.scanUser(row)
}

// FindByUsername retrieves a user by username, case-insensitively.
func (s *Store) FindByUsername(ctx context.Context, username string) (tasknest.UserRecord, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`, username)
	return s.scanUser(row)
}

func (s *Store) scanUser(row pgx.Row) (tasknest.UserRecord, error) {
	var user tasknest.UserRecord
	err := row.Scan(&user.UserID, &user.Name, &user.Email, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tasknest.UserRecord{}, tasknest.ErrNotFound
		}
		return tasknest.UserRecord{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func duplicateField(constraint string) string {
	switch {
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "username"):
		return "username"
	default:
		return ""
	}
}

// Compile-time interface check.
var _ tasknest.UserStore = (*Store)(nil)
