package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

type PodcastStatus string

const (
	PodcastStatusPending    PodcastStatus = "pending"
	PodcastStatusProcessing PodcastStatus = "processing"
	PodcastStatusReady      PodcastStatus = "ready"
	PodcastStatusFailed     PodcastStatus = "failed"
)

type Podcast struct {
	ID           string        `db:"id" json:"id"`
	UserID       string        `db:"user_id" json:"user_id"`
	DeckID       string        `db:"deck_id" json:"deck_id"`
	Status       PodcastStatus `db:"status" json:"status"`
	AudioURL     *string       `db:"audio_url" json:"audio_url,omitempty"`
	SegmentCount int           `db:"segment_count" json:"segment_count"`
	Error        *string       `db:"error" json:"error,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

func (s *Storage) CreatePodcast(userID, deckID string) (*Podcast, error) {
	podcastID := nanoid.Must()
	now := time.Now()

	query := `
		INSERT INTO podcasts (id, user_id, deck_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, podcastID, userID, deckID, PodcastStatusPending, now, now)
	if err != nil {
		return nil, fmt.Errorf("error creating podcast: %w", err)
	}

	return &Podcast{
		ID:        podcastID,
		UserID:    userID,
		DeckID:    deckID,
		Status:    PodcastStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Storage) GetPodcast(podcastID string) (*Podcast, error) {
	query := `
		SELECT id, user_id, deck_id, status, audio_url, segment_count, error, created_at, updated_at
		FROM podcasts
		WHERE id = ?
	`

	var podcast Podcast
	err := s.db.QueryRow(query, podcastID).Scan(
		&podcast.ID,
		&podcast.UserID,
		&podcast.DeckID,
		&podcast.Status,
		&podcast.AudioURL,
		&podcast.SegmentCount,
		&podcast.Error,
		&podcast.CreatedAt,
		&podcast.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting podcast: %w", err)
	}

	return &podcast, nil
}

// ClaimPendingPodcast atomically moves the oldest pending podcast to
// processing and returns it, or ErrNotFound when nothing is queued.
func (s *Storage) ClaimPendingPodcast() (*Podcast, error) {
	var podcastID string
	err := s.db.QueryRow(`
		SELECT id FROM podcasts
		WHERE status = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT 1
	`, PodcastStatusPending).Scan(&podcastID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding pending podcast: %w", err)
	}

	result, err := s.db.Exec(`
		UPDATE podcasts SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, PodcastStatusProcessing, time.Now(), podcastID, PodcastStatusPending)
	if err != nil {
		return nil, fmt.Errorf("error claiming podcast: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("error checking claim result: %w", err)
	}
	if affected == 0 {
		// Someone else claimed it between the select and the update.
		return nil, ErrNotFound
	}

	return s.GetPodcast(podcastID)
}

func (s *Storage) MarkPodcastReady(podcastID, audioURL string, segmentCount int) error {
	_, err := s.db.Exec(`
		UPDATE podcasts SET status = ?, audio_url = ?, segment_count = ?, error = NULL, updated_at = ?
		WHERE id = ?
	`, PodcastStatusReady, audioURL, segmentCount, time.Now(), podcastID)
	if err != nil {
		return fmt.Errorf("error marking podcast ready: %w", err)
	}

	return nil
}

func (s *Storage) MarkPodcastFailed(podcastID, message string) error {
	_, err := s.db.Exec(`
		UPDATE podcasts SET status = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, PodcastStatusFailed, message, time.Now(), podcastID)
	if err != nil {
		return fmt.Errorf("error marking podcast failed: %w", err)
	}

	return nil
}
