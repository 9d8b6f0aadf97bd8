package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := ConnectDB(":memory:")
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		assert.NoError(t, storage.Close())
	})
	return storage
}

func seedUserAndDeck(t *testing.T, s *Storage) (*User, *Deck) {
	t.Helper()
	user, err := s.CreateUser("test@example.com", "hash", nil)
	require.NoError(t, err)
	deck, err := s.CreateDeck(user.ID, "Test deck", "", nil)
	require.NoError(t, err)
	return user, deck
}

func TestAddFlashcardsInBatchPreservesOrderAndFields(t *testing.T) {
	s := newTestStorage(t)
	_, deck := seedUserAndDeck(t, s)

	two := 2
	cards := []Flashcard{
		{
			Question:     "Which unit measures force?",
			Answer:       "Newton",
			Difficulty:   DifficultyEasy,
			QuestionType: QuestionTypeMCQ,
			Options:      []string{"Joule", "Watt", "Newton", "Pascal"},
			CorrectIndex: &two,
			Tags:         []string{"physics"},
		},
		{
			Question:     "Define inertia.",
			Answer:       "Resistance of an object to changes in its motion.",
			Difficulty:   DifficultyMedium,
			QuestionType: QuestionTypeFreeResponse,
		},
	}

	saved, err := s.AddFlashcardsInBatch(deck.ID, cards)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	loaded, err := s.GetDeckFlashcards(deck.ID)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "Which unit measures force?", loaded[0].Question)
	assert.Equal(t, []string{"Joule", "Watt", "Newton", "Pascal"}, loaded[0].Options)
	require.NotNil(t, loaded[0].CorrectIndex)
	assert.Equal(t, 2, *loaded[0].CorrectIndex)
	assert.Equal(t, []string{"physics"}, loaded[0].Tags)

	assert.Nil(t, loaded[1].Options)
	assert.Nil(t, loaded[1].CorrectIndex)
}

func TestSoftDeleteHidesRecords(t *testing.T) {
	s := newTestStorage(t)
	_, deck := seedUserAndDeck(t, s)

	card, err := s.AddFlashcard(&Flashcard{
		DeckID:       deck.ID,
		Question:     "q",
		Answer:       "a",
		Difficulty:   DifficultyEasy,
		QuestionType: QuestionTypeFreeResponse,
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteDeck(deck.ID))

	_, err = s.GetDeck(deck.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a deck soft-deletes its cards too.
	_, err = s.GetFlashcard(card.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmbeddingCacheRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	record := &EmbeddingRecord{
		TextHash:    "abc123",
		TextContent: "the capital of france is paris",
		Vector:      []float64{0.1, -0.2, 0.3},
		ModelName:   "text-embedding-3-small",
	}

	require.NoError(t, s.SaveEmbedding(record))

	loaded, err := s.GetEmbeddingByHash("abc123")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, -0.2, 0.3}, loaded.Vector)
	assert.Equal(t, "text-embedding-3-small", loaded.ModelName)

	_, err = s.GetEmbeddingByHash("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// Saving the same hash again replaces the record.
	record.Vector = []float64{1, 1, 1}
	require.NoError(t, s.SaveEmbedding(record))

	loaded, err = s.GetEmbeddingByHash("abc123")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, loaded.Vector)
}

func TestPodcastClaimQueue(t *testing.T) {
	s := newTestStorage(t)
	user, deck := seedUserAndDeck(t, s)

	_, err := s.ClaimPendingPodcast()
	assert.ErrorIs(t, err, ErrNotFound, "empty queue should have nothing to claim")

	first, err := s.CreatePodcast(user.ID, deck.ID)
	require.NoError(t, err)
	second, err := s.CreatePodcast(user.ID, deck.ID)
	require.NoError(t, err)

	claimed, err := s.ClaimPendingPodcast()
	require.NoError(t, err)
	assert.Equal(t, first.ID, claimed.ID, "oldest pending episode should be claimed first")
	assert.Equal(t, PodcastStatusProcessing, claimed.Status)

	require.NoError(t, s.MarkPodcastReady(claimed.ID, "https://cdn.example.com/podcasts/ep1.wav", 12))
	ready, err := s.GetPodcast(claimed.ID)
	require.NoError(t, err)
	assert.Equal(t, PodcastStatusReady, ready.Status)
	require.NotNil(t, ready.AudioURL)
	assert.Equal(t, 12, ready.SegmentCount)

	claimed, err = s.ClaimPendingPodcast()
	require.NoError(t, err)
	assert.Equal(t, second.ID, claimed.ID)

	require.NoError(t, s.MarkPodcastFailed(claimed.ID, "tts unavailable"))
	failed, err := s.GetPodcast(claimed.ID)
	require.NoError(t, err)
	assert.Equal(t, PodcastStatusFailed, failed.Status)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "tts unavailable", *failed.Error)
}

func TestSessionCounters(t *testing.T) {
	s := newTestStorage(t)
	user, deck := seedUserAndDeck(t, s)

	session, err := s.CreateSession(user.ID, deck.ID)
	require.NoError(t, err)

	require.NoError(t, s.RecordSessionAnswer(session.ID, true))
	require.NoError(t, s.RecordSessionAnswer(session.ID, false))
	require.NoError(t, s.RecordSessionAnswer(session.ID, true))

	ended, err := s.EndSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, ended.TotalCards)
	assert.Equal(t, 2, ended.CorrectAnswers)
	assert.Equal(t, 1, ended.IncorrectAnswers)
	assert.NotNil(t, ended.EndedAt)
}
