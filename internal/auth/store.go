package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrAdminNotFound = errors.New("admin not found")

// Admin is a back-office account row.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
}

// AdminStore reads admin accounts from the admins table.
type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	var a Admin
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM admins WHERE email = $1`, email,
	).Scan(&a.ID, &a.Email, &a.PasswordHash)
	if err == sql.ErrNoRows {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &a, nil
}
