package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EmbeddingRecord is a cached embedding vector keyed by a content hash.
// Records are written once and never updated; concurrent writers for the
// same hash are harmless because the row content is identical.
type EmbeddingRecord struct {
	TextHash    string    `db:"text_hash" json:"text_hash"`
	TextContent string    `db:"text_content" json:"text_content"`
	Vector      []float64 `json:"embedding"`
	ModelName   string    `db:"model_name" json:"model_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (s *Storage) GetEmbeddingByHash(textHash string) (*EmbeddingRecord, error) {
	query := `
		SELECT text_hash, text_content, embedding, model_name, created_at
		FROM embeddings
		WHERE text_hash = ?
	`

	var record EmbeddingRecord
	var rawVector string
	err := s.db.QueryRow(query, textHash).Scan(
		&record.TextHash,
		&record.TextContent,
		&rawVector,
		&record.ModelName,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting embedding: %w", err)
	}

	if err := json.Unmarshal([]byte(rawVector), &record.Vector); err != nil {
		return nil, fmt.Errorf("error unmarshaling embedding vector: %w", err)
	}

	return &record, nil
}

func (s *Storage) SaveEmbedding(record *EmbeddingRecord) error {
	rawVector, err := json.Marshal(record.Vector)
	if err != nil {
		return fmt.Errorf("error marshaling embedding vector: %w", err)
	}

	// Last write wins; entries for the same hash are identical anyway.
	query := `
		INSERT OR REPLACE INTO embeddings (text_hash, text_content, embedding, model_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query, record.TextHash, record.TextContent, string(rawVector), record.ModelName, time.Now())
	if err != nil {
		return fmt.Errorf("error saving embedding: %w", err)
	}

	return nil
}
