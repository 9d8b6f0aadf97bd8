package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

type Session struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	DeckID           string     `db:"deck_id" json:"deck_id"`
	StartedAt        time.Time  `db:"started_at" json:"started_at"`
	EndedAt          *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	TotalCards       int        `db:"total_cards" json:"total_cards"`
	CorrectAnswers   int        `db:"correct_answers" json:"correct_answers"`
	IncorrectAnswers int        `db:"incorrect_answers" json:"incorrect_answers"`
}

func (s *Storage) CreateSession(userID, deckID string) (*Session, error) {
	sessionID := nanoid.Must()
	now := time.Now()

	query := `
		INSERT INTO sessions (id, user_id, deck_id, started_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, sessionID, userID, deckID, now)
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return &Session{
		ID:        sessionID,
		UserID:    userID,
		DeckID:    deckID,
		StartedAt: now,
	}, nil
}

func (s *Storage) GetSession(sessionID string) (*Session, error) {
	query := `
		SELECT id, user_id, deck_id, started_at, ended_at, total_cards, correct_answers, incorrect_answers
		FROM sessions
		WHERE id = ?
	`

	var session Session
	err := s.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.DeckID,
		&session.StartedAt,
		&session.EndedAt,
		&session.TotalCards,
		&session.CorrectAnswers,
		&session.IncorrectAnswers,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	return &session, nil
}

func (s *Storage) GetUserSessions(userID string) ([]Session, error) {
	query := `
		SELECT id, user_id, deck_id, started_at, ended_at, total_cards, correct_answers, incorrect_answers
		FROM sessions
		WHERE user_id = ?
		ORDER BY started_at DESC
	`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.DeckID,
			&session.StartedAt,
			&session.EndedAt,
			&session.TotalCards,
			&session.CorrectAnswers,
			&session.IncorrectAnswers,
		); err != nil {
			return nil, fmt.Errorf("error scanning session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return sessions, nil
}

// RecordSessionAnswer bumps the session counters for one submitted answer.
func (s *Storage) RecordSessionAnswer(sessionID string, isCorrect bool) error {
	column := "incorrect_answers"
	if isCorrect {
		column = "correct_answers"
	}

	query := fmt.Sprintf(`
		UPDATE sessions
		SET total_cards = total_cards + 1, %s = %s + 1
		WHERE id = ?
	`, column, column)

	_, err := s.db.Exec(query, sessionID)
	if err != nil {
		return fmt.Errorf("error recording session answer: %w", err)
	}

	return nil
}

func (s *Storage) EndSession(sessionID string) (*Session, error) {
	_, err := s.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, time.Now(), sessionID)
	if err != nil {
		return nil, fmt.Errorf("error ending session: %w", err)
	}

	return s.GetSession(sessionID)
}
