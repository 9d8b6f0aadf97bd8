package apperr

import "errors"

// Coarse error categories surfaced to callers. Internals wrap these with
// fmt.Errorf("...: %w", ...) so handlers can map them to HTTP statuses
// with errors.Is while logs keep the full chain.
var (
	// ErrInvalidInput marks malformed caller input, e.g. a non-integer
	// option index for a multiple-choice answer.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProvider marks an AI provider call that failed after all of a
	// component's own fallbacks were exhausted.
	ErrProvider = errors.New("provider request failed")

	// ErrStore marks a record or blob store failure.
	ErrStore = errors.New("store operation failed")

	// ErrGeneration marks a generation run that produced zero usable flashcards.
	ErrGeneration = errors.New("no flashcards generated")

	// ErrScriptGeneration marks a podcast script stage failure.
	ErrScriptGeneration = errors.New("script generation failed")

	// ErrSynthesis marks a podcast synthesis stage where no segment succeeded.
	ErrSynthesis = errors.New("audio synthesis failed")
)
