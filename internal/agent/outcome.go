package agent

import (
	"errors"

	"github.com/rahul/papersum/internal/extract"
)

var (
	// ErrExtraction marks a run halted because the document could not be read.
	ErrExtraction = errors.New("extraction failed")
	// ErrGeneration marks a run halted because the model call failed.
	ErrGeneration = errors.New("generation failed")
	// ErrStepPanic marks a run halted by a panic inside a step.
	ErrStepPanic = errors.New("step panicked")
	// ErrMissingInput means a step ran without its predecessor's result.
	ErrMissingInput = errors.New("missing step input")
	// ErrIncompletePlan means the plan ended before the output was formatted.
	ErrIncompletePlan = errors.New("plan ended before output was formatted")
)

// State says how far a run got. Results only accumulate: a later state
// carries every field set by the earlier ones.
type State int

const (
	StatePending State = iota
	StateExtracted
	StateCleaned
	StateSummarized
	StateFormatted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateExtracted:
		return "extracted"
	case StateCleaned:
		return "cleaned"
	case StateSummarized:
		return "summarized"
	case StateFormatted:
		return "formatted"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Result keys, as exposed by Outcome.Has and Outcome.Keys.
const (
	KeyExtracted    = "extracted"
	KeyCleanText    = "clean_text"
	KeySummary      = "summary"
	KeyFinalSummary = "final_summary"
	KeyError        = "error"
)

// Outcome is the result of executing a plan.
type Outcome struct {
	State State

	Extracted    *extract.Result
	CleanText    string
	Summary      string
	FinalSummary string

	// Err and FailedAt are set only in StateFailed.
	Err      error
	FailedAt Stage

	reached State // furthest successful state, kept when the run fails
}

// OK reports whether every step completed.
func (o Outcome) OK() bool {
	return o.State == StateFormatted
}

// Error returns the failure message, or "" for successful runs.
func (o Outcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Has reports whether the result key is present.
func (o Outcome) Has(key string) bool {
	switch key {
	case KeyExtracted:
		return o.Extracted != nil
	case KeyCleanText:
		return o.reached >= StateCleaned
	case KeySummary:
		return o.reached >= StateSummarized
	case KeyFinalSummary:
		return o.State == StateFormatted
	case KeyError:
		return o.State == StateFailed
	}
	return false
}

// Keys lists the present result keys in the order they were produced.
func (o Outcome) Keys() []string {
	var keys []string
	for _, k := range []string{KeyExtracted, KeyCleanText, KeySummary, KeyFinalSummary, KeyError} {
		if o.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (o Outcome) advanceTo(s State) Outcome {
	o.State = s
	o.reached = s
	return o
}

func (o Outcome) fail(stage Stage, err error) Outcome {
	o.State = StateFailed
	o.FailedAt = stage
	o.Err = err
	return o
}
