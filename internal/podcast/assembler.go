package podcast

import (
	"context"
	"fmt"
	"log/slog"

	"quizly/internal/ai"
	"quizly/internal/db"
)

// Assembler runs the podcast pipeline: script generation, parallel synthesis,
// ordered concatenation, optional ambient overlay, export.
type Assembler struct {
	completer   ai.ChatCompleter
	synthesizer ai.SpeechSynthesizer
	voices      map[Speaker]ai.Voice
	ambient     []byte
	logger      *slog.Logger
}

func NewAssembler(completer ai.ChatCompleter, synthesizer ai.SpeechSynthesizer, logger *slog.Logger) *Assembler {
	return &Assembler{
		completer:   completer,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// WithVoices overrides the default speaker voices.
func (a *Assembler) WithVoices(voices map[Speaker]ai.Voice) *Assembler {
	a.voices = voices
	return a
}

// WithAmbient sets a background audio bed to overlay on the finished episode.
// Overlay failures are logged and skipped, never fatal.
func (a *Assembler) WithAmbient(ambient []byte) *Assembler {
	a.ambient = ambient
	return a
}

// Result is a finished episode.
type Result struct {
	Audio        []byte
	SegmentCount int
	ContentType  string
}

// Assemble builds one podcast episode from a deck's flashcards. Script
// failure is fatal, individual synthesis failures degrade completeness, and
// structured concatenation failure degrades to raw byte concatenation.
func (a *Assembler) Assemble(ctx context.Context, cards []*db.Flashcard) (*Result, error) {
	segments, err := GenerateScript(ctx, a.completer, cards, a.logger)
	if err != nil {
		return nil, fmt.Errorf("generating script: %w", err)
	}
	a.logger.Info("podcast script generated", "segments", len(segments), "cards", len(cards))

	audioSegments, err := SynthesizeSegments(ctx, a.synthesizer, segments, a.voices, a.logger)
	if err != nil {
		return nil, fmt.Errorf("synthesizing segments: %w", err)
	}

	succeeded := 0
	for _, s := range audioSegments {
		if s != nil {
			succeeded++
		}
	}

	audio, err := concatWAV(audioSegments)
	if err != nil {
		a.logger.Warn("structured concatenation failed, falling back to raw byte concat", "error", err)
		audio = rawConcat(audioSegments)
		if len(audio) == 0 {
			return nil, fmt.Errorf("assembling audio: %w", err)
		}
		return &Result{Audio: audio, SegmentCount: succeeded, ContentType: "audio/wav"}, nil
	}

	if len(a.ambient) > 0 {
		mixed, err := mixAmbient(audio, a.ambient)
		if err != nil {
			a.logger.Warn("ambient overlay failed, exporting without it", "error", err)
		} else {
			audio = mixed
		}
	}

	return &Result{Audio: audio, SegmentCount: succeeded, ContentType: "audio/wav"}, nil
}
