package grading

import (
	"context"
	"log/slog"
	"math"
	"testing"

	"quizly/internal/db"
)

// fakeEmbedder returns canned vectors and counts provider calls so tests can
// assert the cache short-circuits repeat lookups.
type fakeEmbedder struct {
	vectors map[string][]float64
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.calls++
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float64{1, 0, 0}, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embedding-model" }

type memoryCache struct {
	records map[string]*db.EmbeddingRecord
}

func newMemoryCache() *memoryCache {
	return &memoryCache{records: make(map[string]*db.EmbeddingRecord)}
}

func (m *memoryCache) GetEmbeddingByHash(textHash string) (*db.EmbeddingRecord, error) {
	if r, ok := m.records[textHash]; ok {
		return r, nil
	}
	return nil, db.ErrNotFound
}

func (m *memoryCache) SaveEmbedding(record *db.EmbeddingRecord) error {
	m.records[record.TextHash] = record
	return nil
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"empty", nil, nil, 0.0},
		{"length mismatch", []float64{1, 2}, []float64{1}, 0.0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := []float64{0.3, -0.7, 0.2, 0.9}
	b := []float64{0.1, 0.5, -0.4, 0.8}

	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Error("cosine similarity is not symmetric")
	}
}

func TestEmbedUsesCacheOnRepeat(t *testing.T) {
	embedder := &fakeEmbedder{}
	cache := newMemoryCache()
	scorer := NewScorer(embedder, cache, 0, slog.Default())

	ctx := context.Background()

	first, err := scorer.Embed(ctx, "the capital of france is paris")
	if err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if embedder.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", embedder.calls)
	}

	second, err := scorer.Embed(ctx, "the capital of france is paris")
	if err != nil {
		t.Fatalf("second embed: %v", err)
	}
	if embedder.calls != 1 {
		t.Errorf("expected cache hit to avoid a second provider call, got %d calls", embedder.calls)
	}

	if len(first) != len(second) {
		t.Fatalf("cached vector has different length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cached vector differs at index %d", i)
		}
	}
}

func TestScoreNormalizesBeforeCaching(t *testing.T) {
	embedder := &fakeEmbedder{}
	cache := newMemoryCache()
	scorer := NewScorer(embedder, cache, 0, slog.Default())

	ctx := context.Background()

	// Same answer once clean, once with filler and casing noise. After
	// normalization both map to one cache key, so four embeds cost two
	// provider calls.
	if _, err := scorer.Score(ctx, "paris is the capital", "paris is the capital of france"); err != nil {
		t.Fatalf("first score: %v", err)
	}
	if _, err := scorer.Score(ctx, "Um, Paris is like the capital", "Paris is the capital of France"); err != nil {
		t.Fatalf("second score: %v", err)
	}

	if embedder.calls != 2 {
		t.Errorf("expected 2 provider calls across both scores, got %d", embedder.calls)
	}
}

func TestScorerThresholdDefault(t *testing.T) {
	scorer := NewScorer(&fakeEmbedder{}, nil, 0, slog.Default())
	if scorer.threshold != DefaultSimilarityThreshold {
		t.Errorf("expected default threshold %v, got %v", DefaultSimilarityThreshold, scorer.threshold)
	}

	if !scorer.IsCorrect(0.8) {
		t.Error("score at threshold should be correct")
	}
	if scorer.IsCorrect(0.79) {
		t.Error("score below threshold should not be correct")
	}
}

func TestScorerFeedbackTiers(t *testing.T) {
	scorer := NewScorer(&fakeEmbedder{}, nil, 0, slog.Default())

	tests := []struct {
		score float64
		want  string
	}{
		{0.95, "Great job! Your answer is correct."},
		{0.60, "Close! Your answer is partially correct but could be more specific."},
		{0.45, "You show some understanding, but your answer needs improvement."},
		{0.10, "Incorrect. Please review the material and try again."},
	}

	for _, tt := range tests {
		if got := scorer.Feedback(tt.score); got != tt.want {
			t.Errorf("Feedback(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
