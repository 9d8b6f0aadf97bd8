package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     *string    `db:"full_name" json:"full_name,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

func (s *Storage) CreateUser(email, passwordHash string, fullName *string) (*User, error) {
	userID := nanoid.Must()
	now := time.Now()

	query := `
		INSERT INTO users (id, email, password_hash, full_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, userID, email, passwordHash, fullName, now, now)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return &User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Storage) GetUserByEmail(email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, full_name, created_at, updated_at, deleted_at
		FROM users
		WHERE email = ? AND deleted_at IS NULL
	`

	var user User
	err := s.db.QueryRow(query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting user by email: %w", err)
	}

	return &user, nil
}

func (s *Storage) GetUserByID(userID string) (*User, error) {
	query := `
		SELECT id, email, password_hash, full_name, created_at, updated_at, deleted_at
		FROM users
		WHERE id = ? AND deleted_at IS NULL
	`

	var user User
	err := s.db.QueryRow(query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	return &user, nil
}
