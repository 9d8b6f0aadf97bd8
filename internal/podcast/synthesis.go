package podcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quizly/internal/ai"
	"quizly/internal/apperr"
)

// maxConcurrentSynthesis bounds in-flight TTS calls.
const maxConcurrentSynthesis = 10

// perSegmentTimeout is generous; TTS of a single dialogue line should be far
// quicker.
const perSegmentTimeout = 60 * time.Second

var defaultVoices = map[Speaker]ai.Voice{
	SpeakerQuestioner: {LanguageCode: "en-US", Name: "en-US-Neural2-D"},
	SpeakerAnswerer:   {LanguageCode: "en-US", Name: "en-US-Neural2-F"},
}

// SynthesizeSegments converts each segment to audio concurrently. Results are
// keyed by original script position so downstream concatenation never depends
// on completion order. Failed segments come back nil; only a fully failed
// batch is an error.
func SynthesizeSegments(ctx context.Context, synth ai.SpeechSynthesizer, segments []Segment, voices map[Speaker]ai.Voice, logger *slog.Logger) ([][]byte, error) {
	if voices == nil {
		voices = defaultVoices
	}

	results := make([][]byte, len(segments))
	sem := make(chan struct{}, maxConcurrentSynthesis)

	var wg sync.WaitGroup
	for i, seg := range segments {
		if seg.Text == "" {
			continue
		}

		wg.Add(1)
		go func(idx int, seg Segment) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, perSegmentTimeout)
			defer cancel()

			voice, ok := voices[seg.Speaker]
			if !ok {
				voice = voices[SpeakerAnswerer]
			}

			audio, err := synth.Synthesize(callCtx, seg.Text, voice)
			if err != nil {
				logger.Warn("segment synthesis failed, dropping segment",
					"index", idx,
					"speaker", seg.Speaker,
					"error", err)
				return
			}
			results[idx] = audio
		}(i, seg)
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r != nil {
			succeeded++
		}
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("%w: no segments could be synthesized", apperr.ErrSynthesis)
	}
	if succeeded < len(segments) {
		logger.Warn("partial synthesis", "succeeded", succeeded, "total", len(segments))
	}

	return results, nil
}
