package job

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quizly/internal/db"
	"quizly/internal/podcast"
	"quizly/internal/storage"
)

// PodcastBuildInterval is how often the builder polls for pending episodes.
const PodcastBuildInterval = 30 * time.Second

// buildTimeout bounds one full episode build, including all TTS calls.
const buildTimeout = 10 * time.Minute

// PodcastBuilder drains the pending podcast queue in the background. One
// build loop runs at a time; overlapping ticks are skipped.
type PodcastBuilder struct {
	storage         *db.Storage
	assembler       *podcast.Assembler
	storageProvider storage.Provider
	logger          *slog.Logger
	stopCh          chan struct{}
	runningLock     chan struct{}
}

func NewPodcastBuilder(storage *db.Storage, assembler *podcast.Assembler, storageProvider storage.Provider, logger *slog.Logger) *PodcastBuilder {
	return &PodcastBuilder{
		storage:         storage,
		assembler:       assembler,
		storageProvider: storageProvider,
		logger:          logger,
		stopCh:          make(chan struct{}),
		runningLock:     make(chan struct{}, 1),
	}
}

func (pb *PodcastBuilder) Start() {
	pb.logger.Info("starting podcast builder job")

	ticker := time.NewTicker(PodcastBuildInterval)
	defer ticker.Stop()

	go pb.buildPending()

	for {
		select {
		case <-ticker.C:
			go pb.buildPending()
		case <-pb.stopCh:
			pb.logger.Info("podcast builder job stopped")
			return
		}
	}
}

func (pb *PodcastBuilder) Stop() {
	close(pb.stopCh)
}

// buildPending claims and builds queued episodes until the queue is empty.
func (pb *PodcastBuilder) buildPending() {
	select {
	case pb.runningLock <- struct{}{}:
		defer func() { <-pb.runningLock }()
	default:
		return
	}

	for {
		record, err := pb.storage.ClaimPendingPodcast()
		if err != nil {
			if !errors.Is(err, db.ErrNotFound) {
				pb.logger.Error("failed to claim pending podcast", "error", err)
			}
			return
		}

		pb.build(record)
	}
}

func (pb *PodcastBuilder) build(record *db.Podcast) {
	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	logger := pb.logger.With("podcast_id", record.ID, "deck_id", record.DeckID)
	logger.Info("building podcast episode")

	cards, err := pb.storage.GetDeckFlashcards(record.DeckID)
	if err != nil {
		pb.fail(record, fmt.Sprintf("loading cards: %v", err), logger)
		return
	}
	if len(cards) == 0 {
		pb.fail(record, "deck has no cards", logger)
		return
	}

	cardPtrs := make([]*db.Flashcard, len(cards))
	for i := range cards {
		cardPtrs[i] = &cards[i]
	}

	result, err := pb.assembler.Assemble(ctx, cardPtrs)
	if err != nil {
		pb.fail(record, err.Error(), logger)
		return
	}

	if pb.storageProvider == nil {
		pb.fail(record, "blob storage is not configured", logger)
		return
	}

	path := fmt.Sprintf("podcasts/%s.wav", record.ID)
	audioURL, err := pb.storageProvider.UploadFile(ctx, bytes.NewReader(result.Audio), path, result.ContentType)
	if err != nil {
		pb.fail(record, fmt.Sprintf("uploading audio: %v", err), logger)
		return
	}

	if err := pb.storage.MarkPodcastReady(record.ID, audioURL, result.SegmentCount); err != nil {
		logger.Error("failed to mark podcast ready", "error", err)
		return
	}

	logger.Info("podcast episode ready", "segments", result.SegmentCount, "bytes", len(result.Audio))
}

func (pb *PodcastBuilder) fail(record *db.Podcast, message string, logger *slog.Logger) {
	logger.Error("podcast build failed", "reason", message)
	if err := pb.storage.MarkPodcastFailed(record.ID, message); err != nil {
		logger.Error("failed to mark podcast failed", "error", err)
	}
}
