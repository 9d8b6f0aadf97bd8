package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

type Deck struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	FolderID    *string    `db:"folder_id" json:"folder_id,omitempty"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

type DeckWithCount struct {
	Deck
	CardCount int `db:"card_count" json:"card_count"`
}

func (s *Storage) CreateDeck(userID, title, description string, folderID *string) (*Deck, error) {
	deckID := nanoid.Must()
	now := time.Now()

	query := `
		INSERT INTO decks (id, user_id, folder_id, title, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, deckID, userID, folderID, title, description, now, now)
	if err != nil {
		return nil, fmt.Errorf("error creating deck: %w", err)
	}

	return &Deck{
		ID:          deckID,
		UserID:      userID,
		FolderID:    folderID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Storage) GetDecks(userID string) ([]DeckWithCount, error) {
	query := `
		SELECT d.id, d.user_id, d.folder_id, d.title, d.description,
		       d.created_at, d.updated_at, d.deleted_at,
		       COUNT(f.id) AS card_count
		FROM decks d
		LEFT JOIN flashcards f ON f.deck_id = d.id AND f.deleted_at IS NULL
		WHERE d.user_id = ? AND d.deleted_at IS NULL
		GROUP BY d.id
		ORDER BY d.created_at DESC
	`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting decks: %w", err)
	}
	defer rows.Close()

	var decks []DeckWithCount
	for rows.Next() {
		var deck DeckWithCount
		if err := rows.Scan(
			&deck.ID,
			&deck.UserID,
			&deck.FolderID,
			&deck.Title,
			&deck.Description,
			&deck.CreatedAt,
			&deck.UpdatedAt,
			&deck.DeletedAt,
			&deck.CardCount,
		); err != nil {
			return nil, fmt.Errorf("error scanning deck: %w", err)
		}
		decks = append(decks, deck)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deck rows: %w", err)
	}

	return decks, nil
}

func (s *Storage) GetDeck(deckID string) (*Deck, error) {
	query := `
		SELECT id, user_id, folder_id, title, description, created_at, updated_at, deleted_at
		FROM decks
		WHERE id = ? AND deleted_at IS NULL
	`

	var deck Deck
	err := s.db.QueryRow(query, deckID).Scan(
		&deck.ID,
		&deck.UserID,
		&deck.FolderID,
		&deck.Title,
		&deck.Description,
		&deck.CreatedAt,
		&deck.UpdatedAt,
		&deck.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting deck: %w", err)
	}

	return &deck, nil
}

func (s *Storage) UpdateDeck(deckID, title, description string, folderID *string) error {
	query := `
		UPDATE decks
		SET title = ?, description = ?, folder_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	_, err := s.db.Exec(query, title, description, folderID, time.Now(), deckID)
	if err != nil {
		return fmt.Errorf("error updating deck: %w", err)
	}

	return nil
}

func (s *Storage) DeleteDeck(deckID string) error {
	now := time.Now()

	if _, err := s.db.Exec(`UPDATE flashcards SET deleted_at = ? WHERE deck_id = ?`, now, deckID); err != nil {
		return fmt.Errorf("error deleting deck flashcards: %w", err)
	}

	if _, err := s.db.Exec(`UPDATE decks SET deleted_at = ? WHERE id = ?`, now, deckID); err != nil {
		return fmt.Errorf("error deleting deck: %w", err)
	}

	return nil
}
