package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type QuestionType string

const (
	QuestionTypeMCQ          QuestionType = "mcq"
	QuestionTypeTrueFalse    QuestionType = "true_false"
	QuestionTypeFreeResponse QuestionType = "free_response"
)

func ValidDifficulty(d Difficulty) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

func ValidQuestionType(q QuestionType) bool {
	return q == QuestionTypeMCQ || q == QuestionTypeTrueFalse || q == QuestionTypeFreeResponse
}

// Flashcard is a single question/answer card. Options and CorrectIndex are
// both set for mcq (4 options) and true_false (2 options) cards, and both
// absent for free_response.
type Flashcard struct {
	ID           string       `db:"id" json:"id"`
	DeckID       string       `db:"deck_id" json:"deck_id"`
	Question     string       `db:"question" json:"question"`
	Answer       string       `db:"answer" json:"answer"`
	Difficulty   Difficulty   `db:"difficulty" json:"difficulty"`
	QuestionType QuestionType `db:"question_type" json:"question_type"`
	Options      []string     `json:"options,omitempty"`
	CorrectIndex *int         `db:"correct_index" json:"correct_index,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time   `db:"deleted_at" json:"deleted_at,omitempty"`
}

func marshalStrings(values []string) (*string, error) {
	if values == nil {
		return nil, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("error marshaling string list: %w", err)
	}
	s := string(raw)
	return &s, nil
}

func unmarshalStrings(raw *string) ([]string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(*raw), &values); err != nil {
		return nil, fmt.Errorf("error unmarshaling string list: %w", err)
	}
	return values, nil
}

func (s *Storage) AddFlashcard(card *Flashcard) (*Flashcard, error) {
	card.ID = nanoid.Must()
	now := time.Now()
	card.CreatedAt = now
	card.UpdatedAt = now

	options, err := marshalStrings(card.Options)
	if err != nil {
		return nil, err
	}
	tags, err := marshalStrings(card.Tags)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO flashcards (id, deck_id, question, answer, difficulty, question_type, options, correct_index, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		card.ID, card.DeckID, card.Question, card.Answer,
		card.Difficulty, card.QuestionType, options, card.CorrectIndex, tags,
		now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("error adding flashcard: %w", err)
	}

	return card, nil
}

func (s *Storage) AddFlashcardsInBatch(deckID string, cards []Flashcard) ([]Flashcard, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT INTO flashcards (id, deck_id, question, answer, difficulty, question_type, options, correct_index, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	saved := make([]Flashcard, 0, len(cards))
	for i := range cards {
		card := cards[i]
		card.ID = nanoid.Must()
		card.DeckID = deckID
		card.CreatedAt = now
		card.UpdatedAt = now

		var options, tags *string
		options, err = marshalStrings(card.Options)
		if err != nil {
			return nil, err
		}
		tags, err = marshalStrings(card.Tags)
		if err != nil {
			return nil, err
		}

		_, err = stmt.Exec(
			card.ID, card.DeckID, card.Question, card.Answer,
			card.Difficulty, card.QuestionType, options, card.CorrectIndex, tags,
			now, now,
		)
		if err != nil {
			return nil, fmt.Errorf("error inserting flashcard %d: %w", i, err)
		}
		saved = append(saved, card)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	return saved, nil
}

func scanFlashcard(scan func(dest ...any) error) (*Flashcard, error) {
	var card Flashcard
	var options, tags *string

	if err := scan(
		&card.ID,
		&card.DeckID,
		&card.Question,
		&card.Answer,
		&card.Difficulty,
		&card.QuestionType,
		&options,
		&card.CorrectIndex,
		&tags,
		&card.CreatedAt,
		&card.UpdatedAt,
		&card.DeletedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if card.Options, err = unmarshalStrings(options); err != nil {
		return nil, err
	}
	if card.Tags, err = unmarshalStrings(tags); err != nil {
		return nil, err
	}

	return &card, nil
}

func (s *Storage) GetFlashcard(cardID string) (*Flashcard, error) {
	query := `
		SELECT id, deck_id, question, answer, difficulty, question_type, options, correct_index, tags, created_at, updated_at, deleted_at
		FROM flashcards
		WHERE id = ? AND deleted_at IS NULL
	`

	row := s.db.QueryRow(query, cardID)
	card, err := scanFlashcard(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting flashcard: %w", err)
	}

	return card, nil
}

func (s *Storage) GetDeckFlashcards(deckID string) ([]Flashcard, error) {
	query := `
		SELECT id, deck_id, question, answer, difficulty, question_type, options, correct_index, tags, created_at, updated_at, deleted_at
		FROM flashcards
		WHERE deck_id = ? AND deleted_at IS NULL
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.Query(query, deckID)
	if err != nil {
		return nil, fmt.Errorf("error getting deck flashcards: %w", err)
	}
	defer rows.Close()

	var cards []Flashcard
	for rows.Next() {
		card, err := scanFlashcard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning flashcard: %w", err)
		}
		cards = append(cards, *card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flashcard rows: %w", err)
	}

	return cards, nil
}

func (s *Storage) UpdateFlashcard(card *Flashcard) error {
	options, err := marshalStrings(card.Options)
	if err != nil {
		return err
	}
	tags, err := marshalStrings(card.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE flashcards
		SET question = ?, answer = ?, difficulty = ?, question_type = ?, options = ?, correct_index = ?, tags = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	_, err = s.db.Exec(query,
		card.Question, card.Answer, card.Difficulty, card.QuestionType,
		options, card.CorrectIndex, tags, time.Now(), card.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating flashcard: %w", err)
	}

	return nil
}

func (s *Storage) DeleteFlashcard(cardID string) error {
	_, err := s.db.Exec(`UPDATE flashcards SET deleted_at = ? WHERE id = ?`, time.Now(), cardID)
	if err != nil {
		return fmt.Errorf("error deleting flashcard: %w", err)
	}

	return nil
}
