// Package users stores accounts and checks their credentials.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/models"
)

// RegisterInput is what a new customer submits.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Store persists users.
type Store struct {
	DB *sql.DB
}

const userColumns = "SELECT id, first_name, last_name, email, password_hash, role, created_at, updated_at FROM users"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create registers a customer. Emails are unique, case-insensitively.
func (s *Store) Create(ctx context.Context, in RegisterInput) (*models.User, error) {
	// 1. --- Normalize ---
	email := strings.ToLower(strings.TrimSpace(in.Email))

	// 2. --- Check Duplicates ---
	var id int64
	err := s.DB.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&id)
	if err == nil {
		return nil, fmt.Errorf("email %s is already registered: %w", email, models.ErrConflict)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	// 3. --- Hash the Password ---
	var password models.Password
	if err := password.Set(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 4. --- Insert ---
	now := time.Now().UTC()
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.FirstName, in.LastName, email, password.Hash, models.RoleCustomer, now, now)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return s.ByID(ctx, id)
}

func (s *Store) ByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, userColumns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *Store) ByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(s.DB.QueryRowContext(ctx, userColumns+" WHERE email = ?", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", email, err)
	}
	return u, nil
}

// Authenticate returns the user owning email when password matches. Unknown
// emails and wrong passwords both yield models.ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.ByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := (&models.Password{Hash: u.PasswordHash}).Matches(password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, models.ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Store) ChangePassword(ctx context.Context, p models.Principal, current, next string) error {
	u, err := s.ByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	ok, err := (&models.Password{Hash: u.PasswordHash}).Matches(current)
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return models.NewValidationError("current_password", "The current password is incorrect.")
	}

	var password models.Password
	if err := password.Set(next); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		password.Hash, time.Now().UTC(), p.UserID)
	if err != nil {
		return fmt.Errorf("change password of user %d: %w", p.UserID, err)
	}
	return nil
}

// Promote makes a user an admin.
func (s *Store) Promote(ctx context.Context, id int64) (*models.User, error) {
	if _, err := s.ByID(ctx, id); err != nil {
		return nil, err
	}
	_, err := s.DB.ExecContext(ctx, "UPDATE users SET role = ?, updated_at = ? WHERE id = ?",
		models.RoleAdmin, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("promote user %d: %w", id, err)
	}
	return s.ByID(ctx, id)
}

// Role reads a user's current role.
func (s *Store) Role(ctx context.Context, id int64) (string, error) {
	var role string
	err := s.DB.QueryRowContext(ctx, "SELECT role FROM users WHERE id = ?", id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get role of user %d: %w", id, err)
	}
	return role, nil
}

// Count returns the number of registered customers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = ?", models.RoleCustomer).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
