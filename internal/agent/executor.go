package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rahul/papersum/internal/extract"
	"github.com/rahul/papersum/internal/observability"
)

// Summarizer turns an isolated section into a summary. Implementations may
// be stochastic.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Executor runs a plan one stage at a time and stops at the first failure.
// Nothing is retried.
type Executor struct {
	Extractor  extract.Extractor
	Summarizer Summarizer
	Logger     *observability.Logger
	Metrics    *observability.Metrics
}

// ExecutePlan runs plan and returns a Formatted or a Failed outcome.
func (e *Executor) ExecutePlan(ctx context.Context, plan Plan) Outcome {
	runID := observability.RunID(ctx)
	out := Outcome{State: StatePending}

	for _, step := range plan.Steps() {
		observability.SetStatus(runID, plan.input(), step.Action.String())
		start := time.Now()

		out = e.advance(ctx, step, out)

		e.Metrics.ObserveStage(step.Action.String(), time.Since(start), out.State == StateFailed)
		if out.State == StateFailed {
			e.logger().LogStepError(runID, step.Action.String(), out.Err)
			return out
		}
	}

	if out.State != StateFormatted {
		return out.fail(0, ErrIncompletePlan)
	}
	return out
}

// advance performs a single step. A panic is confined to the step that
// raised it and becomes the run's error.
func (e *Executor) advance(ctx context.Context, step Step, out Outcome) (next Outcome) {
	runID := observability.RunID(ctx)
	defer func() {
		if r := recover(); r != nil {
			next = out.fail(step.Action, fmt.Errorf("%w: step %d (%s): %v", ErrStepPanic, step.Ordinal, step.Action, r))
		}
	}()

	switch step.Action {
	case StageExtract:
		res := e.Extractor.Extract(ctx, step.Input)
		out.Extracted = &res
		if !res.Success {
			return out.fail(step.Action, fmt.Errorf("%w: %s", ErrExtraction, res.Error))
		}
		e.logger().LogStep(runID, step.Action.String(),
			fmt.Sprintf("extracted %d characters from %d pages", len([]rune(res.Text)), res.Metadata.NumPages))
		return out.advanceTo(StateExtracted)

	case StageClean:
		if out.reached < StateExtracted {
			return out.fail(step.Action, fmt.Errorf("%w: %s", ErrMissingInput, step.Input))
		}
		clean, info := isolateSection(out.Extracted.Text)
		out.CleanText = clean
		switch {
		case info.Fallback:
			e.logger().LogFallback(runID, "extracted text too short, using document head")
		case info.Start == "":
			e.logger().LogFallback(runID, "no start marker found, using beginning of document")
		}
		e.logger().LogStep(runID, step.Action.String(),
			fmt.Sprintf("cleaned text: %d chars (start %q, end %q)", len([]rune(clean)), info.Start, info.End))
		return out.advanceTo(StateCleaned)

	case StageSummarize:
		if out.reached < StateCleaned {
			return out.fail(step.Action, fmt.Errorf("%w: %s", ErrMissingInput, step.Input))
		}
		summary, err := e.Summarizer.Summarize(ctx, out.CleanText)
		if err != nil {
			return out.fail(step.Action, fmt.Errorf("%w: %w", ErrGeneration, err))
		}
		out.Summary = summary
		e.logger().LogStep(runID, step.Action.String(), fmt.Sprintf("generated summary (%d chars)", len([]rune(summary))))
		return out.advanceTo(StateSummarized)

	case StageFormat:
		if out.reached < StateSummarized {
			return out.fail(step.Action, fmt.Errorf("%w: %s", ErrMissingInput, step.Input))
		}
		out.FinalSummary = out.Summary
		e.logger().LogStep(runID, step.Action.String(), "output formatted")
		return out.advanceTo(StateFormatted)
	}

	return out.fail(step.Action, fmt.Errorf("unknown action %s", step.Action))
}

func (e *Executor) logger() *observability.Logger {
	if e.Logger == nil {
		return observability.NopLogger()
	}
	return e.Logger
}
