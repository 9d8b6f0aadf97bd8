package podcast

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"quizly/internal/ai"
	"quizly/internal/apperr"
	"quizly/internal/db"
)

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, _ ai.ChatRequest) (*ai.ChatResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ai.ChatResult{Text: f.response}, nil
}

// markerSynthesizer returns a WAV whose single sample encodes the segment
// text's trailing number, with randomized latency so completion order never
// matches dispatch order.
type markerSynthesizer struct {
	failTexts map[string]bool
	rng       *rand.Rand
}

func (m *markerSynthesizer) Synthesize(_ context.Context, text string, _ ai.Voice) ([]byte, error) {
	if m.rng != nil {
		time.Sleep(time.Duration(m.rng.Intn(20)) * time.Millisecond)
	}
	if m.failTexts[text] {
		return nil, fmt.Errorf("%w: synthetic failure", apperr.ErrProvider)
	}

	fields := strings.Fields(text)
	marker, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return nil, fmt.Errorf("test segment text must end with a number: %q", text)
	}

	return encodeWAV(&wavData{
		sampleRate:  1000,
		numChannels: 1,
		samples:     []int16{int16(marker)},
	}), nil
}

func scriptJSON(n int) string {
	var parts []string
	for i := 0; i < n; i++ {
		speaker := SpeakerQuestioner
		if i%2 == 1 {
			speaker = SpeakerAnswerer
		}
		parts = append(parts, fmt.Sprintf(`{"speaker": %q, "text": "segment %d"}`, speaker, i+1))
	}
	return `{"segments": [` + strings.Join(parts, ",") + `]}`
}

func testCards(n int) []*db.Flashcard {
	cards := make([]*db.Flashcard, n)
	for i := range cards {
		cards[i] = &db.Flashcard{
			Question: fmt.Sprintf("question %d", i+1),
			Answer:   fmt.Sprintf("answer %d", i+1),
		}
	}
	return cards
}

// extractMarkers pulls the non-silence samples out of an assembled episode in
// playback order.
func extractMarkers(t *testing.T, audio []byte) []int {
	t.Helper()
	parsed, err := parseWAV(audio)
	if err != nil {
		t.Fatalf("parsing assembled audio: %v", err)
	}
	var markers []int
	for _, s := range parsed.samples {
		if s != 0 {
			markers = append(markers, int(s))
		}
	}
	return markers
}

func TestAssembleOrderUnderRandomizedLatency(t *testing.T) {
	const n = 12
	assembler := NewAssembler(
		&fakeCompleter{response: scriptJSON(n)},
		&markerSynthesizer{rng: rand.New(rand.NewSource(42))},
		slog.Default(),
	)

	result, err := assembler.Assemble(context.Background(), testCards(4))
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}
	if result.SegmentCount != n {
		t.Errorf("segment count = %d, want %d", result.SegmentCount, n)
	}

	markers := extractMarkers(t, result.Audio)
	if len(markers) != n {
		t.Fatalf("got %d markers, want %d", len(markers), n)
	}
	for i, m := range markers {
		if m != i+1 {
			t.Fatalf("marker order %v does not match script order", markers)
		}
	}
}

func TestAssemblePartialSynthesisKeepsRelativeOrder(t *testing.T) {
	const n = 10
	assembler := NewAssembler(
		&fakeCompleter{response: scriptJSON(n)},
		&markerSynthesizer{
			rng:       rand.New(rand.NewSource(7)),
			failTexts: map[string]bool{"segment 3": true, "segment 8": true},
		},
		slog.Default(),
	)

	result, err := assembler.Assemble(context.Background(), testCards(3))
	if err != nil {
		t.Fatalf("Assemble() should tolerate partial synthesis, got error: %v", err)
	}
	if result.SegmentCount != 8 {
		t.Errorf("segment count = %d, want 8", result.SegmentCount)
	}

	markers := extractMarkers(t, result.Audio)
	want := []int{1, 2, 4, 5, 6, 7, 9, 10}
	if len(markers) != len(want) {
		t.Fatalf("got markers %v, want %v", markers, want)
	}
	for i := range want {
		if markers[i] != want[i] {
			t.Fatalf("got markers %v, want %v", markers, want)
		}
	}
}

func TestAssembleScriptFailureIsFatal(t *testing.T) {
	assembler := NewAssembler(
		&fakeCompleter{err: errors.New("provider down")},
		&markerSynthesizer{},
		slog.Default(),
	)

	_, err := assembler.Assemble(context.Background(), testCards(2))
	if !errors.Is(err, apperr.ErrScriptGeneration) {
		t.Errorf("expected ErrScriptGeneration, got %v", err)
	}
}

func TestAssembleTotalSynthesisFailureIsFatal(t *testing.T) {
	assembler := NewAssembler(
		&fakeCompleter{response: scriptJSON(3)},
		&markerSynthesizer{failTexts: map[string]bool{
			"segment 1": true, "segment 2": true, "segment 3": true,
		}},
		slog.Default(),
	)

	_, err := assembler.Assemble(context.Background(), testCards(1))
	if !errors.Is(err, apperr.ErrSynthesis) {
		t.Errorf("expected ErrSynthesis, got %v", err)
	}
}

func TestAssembleAmbientFailureIsSkipped(t *testing.T) {
	assembler := NewAssembler(
		&fakeCompleter{response: scriptJSON(2)},
		&markerSynthesizer{},
		slog.Default(),
	).WithAmbient([]byte("not valid audio at all"))

	result, err := assembler.Assemble(context.Background(), testCards(1))
	if err != nil {
		t.Fatalf("ambient failure must not abort assembly: %v", err)
	}

	markers := extractMarkers(t, result.Audio)
	if len(markers) != 2 || markers[0] != 1 || markers[1] != 2 {
		t.Errorf("got markers %v, want [1 2] without ambient overlay", markers)
	}
}

func TestAssembleAmbientOverlayApplied(t *testing.T) {
	ambient := encodeWAV(&wavData{sampleRate: 1000, numChannels: 1, samples: []int16{100}})
	assembler := NewAssembler(
		&fakeCompleter{response: scriptJSON(1)},
		&markerSynthesizer{},
		slog.Default(),
	).WithAmbient(ambient)

	result, err := assembler.Assemble(context.Background(), testCards(1))
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}

	parsed, err := parseWAV(result.Audio)
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	// Speech marker 1 plus ambient 100*0.15 = 16.
	if parsed.samples[0] != 16 {
		t.Errorf("sample = %d, want 16 (speech + attenuated ambient)", parsed.samples[0])
	}
}

// brokenSynthesizer returns blobs that are not valid WAV, forcing the raw
// byte concatenation fallback.
type brokenSynthesizer struct{}

func (brokenSynthesizer) Synthesize(_ context.Context, text string, _ ai.Voice) ([]byte, error) {
	return []byte("OPAQUE:" + text + ";"), nil
}

func TestAssembleFallsBackToRawConcat(t *testing.T) {
	assembler := NewAssembler(
		&fakeCompleter{response: scriptJSON(3)},
		brokenSynthesizer{},
		slog.Default(),
	)

	result, err := assembler.Assemble(context.Background(), testCards(1))
	if err != nil {
		t.Fatalf("raw concat fallback should succeed: %v", err)
	}

	want := []byte("OPAQUE:segment 1;OPAQUE:segment 2;OPAQUE:segment 3;")
	if !bytes.Equal(result.Audio, want) {
		t.Errorf("raw concat output = %q, want %q", result.Audio, want)
	}
}
