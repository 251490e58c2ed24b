package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"taskmind/internal/types"
)

const createdAtLayout = "2006-01-02 15:04:05"

// ErrDuplicate is returned when a username or email is already registered.
var ErrDuplicate = fmt.Errorf("already registered")

// CreateUser persists a new user and returns it with its assigned id.
func (s *Store) CreateUser(ctx context.Context, user types.User) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	var email any
	if user.Email != "" {
		email = user.Email
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, hashed_password, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Username, email, user.HashedPassword,
		boolToInt(user.IsActive), user.CreatedAt.Format(createdAtLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return types.User{}, fmt.Errorf("failed to read user id: %w", err)
	}
	user.ID = id
	return user, nil
}

// GetUserByUsername returns the user with the given username, or ErrNotFound.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userBy(ctx, "username = ?", username)
}

// GetUserByEmail returns the user with the given email, or ErrNotFound.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userBy(ctx, "email = ?", email)
}

// GetUser returns the user with the given id, or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id int64) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userBy(ctx, "id = ?", id)
}

func (s *Store) userBy(ctx context.Context, cond string, arg any) (types.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, hashed_password, is_active, created_at FROM users WHERE `+cond, arg)

	var (
		user      types.User
		email     sql.NullString
		isActive  int
		createdAt string
	)
	err := row.Scan(&user.ID, &user.Username, &email, &user.HashedPassword, &isActive, &createdAt)
	if err == sql.ErrNoRows {
		return types.User{}, ErrNotFound
	}
	if err != nil {
		return types.User{}, fmt.Errorf("failed to scan user: %w", err)
	}

	user.Email = email.String
	user.IsActive = isActive != 0
	if t, err := time.ParseInLocation(createdAtLayout, createdAt, time.Local); err == nil {
		user.CreatedAt = t
	}
	return user, nil
}
