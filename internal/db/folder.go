package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

type Folder struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

func (s *Storage) CreateFolder(userID, name, description string) (*Folder, error) {
	folderID := nanoid.Must()
	now := time.Now()

	query := `
		INSERT INTO folders (id, user_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, folderID, userID, name, description, now, now)
	if err != nil {
		return nil, fmt.Errorf("error creating folder: %w", err)
	}

	return &Folder{
		ID:          folderID,
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Storage) GetFolders(userID string) ([]Folder, error) {
	query := `
		SELECT id, user_id, name, description, created_at, updated_at, deleted_at
		FROM folders
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting folders: %w", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var folder Folder
		if err := rows.Scan(
			&folder.ID,
			&folder.UserID,
			&folder.Name,
			&folder.Description,
			&folder.CreatedAt,
			&folder.UpdatedAt,
			&folder.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning folder: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folder rows: %w", err)
	}

	return folders, nil
}

func (s *Storage) GetFolder(folderID string) (*Folder, error) {
	query := `
		SELECT id, user_id, name, description, created_at, updated_at, deleted_at
		FROM folders
		WHERE id = ? AND deleted_at IS NULL
	`

	var folder Folder
	err := s.db.QueryRow(query, folderID).Scan(
		&folder.ID,
		&folder.UserID,
		&folder.Name,
		&folder.Description,
		&folder.CreatedAt,
		&folder.UpdatedAt,
		&folder.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting folder: %w", err)
	}

	return &folder, nil
}

func (s *Storage) UpdateFolder(folderID, name, description string) error {
	query := `
		UPDATE folders
		SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	_, err := s.db.Exec(query, name, description, time.Now(), folderID)
	if err != nil {
		return fmt.Errorf("error updating folder: %w", err)
	}

	return nil
}

func (s *Storage) DeleteFolder(folderID string) error {
	now := time.Now()

	// Decks keep existing, they just leave the folder.
	if _, err := s.db.Exec(`UPDATE decks SET folder_id = NULL, updated_at = ? WHERE folder_id = ?`, now, folderID); err != nil {
		return fmt.Errorf("error detaching decks from folder: %w", err)
	}

	if _, err := s.db.Exec(`UPDATE folders SET deleted_at = ? WHERE id = ?`, now, folderID); err != nil {
		return fmt.Errorf("error deleting folder: %w", err)
	}

	return nil
}
