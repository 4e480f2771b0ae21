package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

// ErrEmailTaken is returned when registering an email that already has a
// user.
var ErrEmailTaken = errors.New("email already registered")

// CreateUser inserts a new user and returns it with server-assigned id and
// creation timestamp. The password hash is opaque to the store.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, displayName string) (core.User, error) {
	u := core.User{
		ID:          uuid.NewString(),
		Email:       strings.ToLower(strings.TrimSpace(email)),
		DisplayName: displayName,
		CreatedAt:   time.Now(),
	}

	const q = `INSERT INTO users (id, email, password_hash, display_name, created_at)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, u.ID, u.Email, passwordHash, u.DisplayName, u.CreatedAt.UnixMilli())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

// GetUserByEmail returns the user and its password hash for credential
// checks.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, string, error) {
	const q = `SELECT id, email, password_hash, display_name, created_at FROM users WHERE email = ?`

	var (
		u         core.User
		hash      string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, q, strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.ID, &u.Email, &hash, &u.DisplayName, &createdAt)
	if err == sql.ErrNoRows {
		return core.User{}, "", core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("get user by email: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return u, hash, nil
}

// GetUser returns the user for a known id.
func (s *Store) GetUser(ctx context.Context, id string) (core.User, error) {
	const q = `SELECT id, email, display_name, created_at FROM users WHERE id = ?`

	var (
		u         core.User
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Email, &u.DisplayName, &createdAt)
	if err == sql.ErrNoRows {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return u, nil
}
