package grading

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"quizly/internal/ai"
	"quizly/internal/db"
	"quizly/internal/textnorm"
)

const DefaultSimilarityThreshold = 0.8

// Feedback tier boundaries for the embedding grading path.
const (
	partialCreditFloor = 0.55
	someCreditFloor    = 0.40
)

// EmbeddingCache is the persistence slice the scorer needs; *db.Storage
// satisfies it.
type EmbeddingCache interface {
	GetEmbeddingByHash(textHash string) (*db.EmbeddingRecord, error)
	SaveEmbedding(record *db.EmbeddingRecord) error
}

// Scorer grades free-text answers by cosine similarity of their embeddings.
// Embeddings are cached by a hash of the normalized text, so minor phrasing
// variants of the same answer share one cache entry.
type Scorer struct {
	embedder  ai.Embedder
	cache     EmbeddingCache
	threshold float64
	logger    *slog.Logger
}

func NewScorer(embedder ai.Embedder, cache EmbeddingCache, threshold float64, logger *slog.Logger) *Scorer {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	return &Scorer{
		embedder:  embedder,
		cache:     cache,
		threshold: threshold,
		logger:    logger,
	}
}

func hashText(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Embed returns the embedding for text, consulting the cache first. Cache
// writes are best-effort: a failed write is logged and the fresh vector is
// returned anyway.
func (s *Scorer) Embed(ctx context.Context, text string) ([]float64, error) {
	textHash := hashText(text)

	if s.cache != nil {
		record, err := s.cache.GetEmbeddingByHash(textHash)
		if err == nil {
			return record.Vector, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("embedding cache lookup failed", "hash", textHash[:8], "error", err)
		}
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}

	if s.cache != nil {
		record := &db.EmbeddingRecord{
			TextHash:    textHash,
			TextContent: text,
			Vector:      vector,
			ModelName:   s.embedder.ModelName(),
		}
		if err := s.cache.SaveEmbedding(record); err != nil {
			s.logger.Warn("embedding cache write failed", "hash", textHash[:8], "error", err)
		}
	}

	return vector, nil
}

// Score computes the cosine similarity of the normalized user and reference
// answers, in [-1,1].
func (s *Scorer) Score(ctx context.Context, userText, referenceText string) (float64, error) {
	userVector, err := s.Embed(ctx, textnorm.Normalize(userText))
	if err != nil {
		return 0, err
	}

	referenceVector, err := s.Embed(ctx, textnorm.Normalize(referenceText))
	if err != nil {
		return 0, err
	}

	return CosineSimilarity(userVector, referenceVector), nil
}

func (s *Scorer) IsCorrect(score float64) bool {
	return score >= s.threshold
}

// Feedback maps a similarity score to a study hint, independent of the
// correctness threshold comparison.
func (s *Scorer) Feedback(score float64) string {
	switch {
	case score >= s.threshold:
		return "Great job! Your answer is correct."
	case score >= partialCreditFloor:
		return "Close! Your answer is partially correct but could be more specific."
	case score >= someCreditFloor:
		return "You show some understanding, but your answer needs improvement."
	default:
		return "Incorrect. Please review the material and try again."
	}
}

// CosineSimilarity returns the cosine of the angle between two vectors, or 0
// when either vector is empty or zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
