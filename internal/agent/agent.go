package agent

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rahul/papersum/internal/extract"
	"github.com/rahul/papersum/internal/observability"
)

// Agent plans and executes the summarization of one document per call.
// It holds no per-document state, so one Agent can serve many callers; the
// Summarizer is responsible for serialising access to its model.
type Agent struct {
	Executor *Executor
	Logger   *observability.Logger
	Metrics  *observability.Metrics
}

func NewAgent(extractor extract.Extractor, summarizer Summarizer, logger *observability.Logger, metrics *observability.Metrics) *Agent {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Agent{
		Executor: &Executor{
			Extractor:  extractor,
			Summarizer: summarizer,
			Logger:     logger,
			Metrics:    metrics,
		},
		Logger:  logger,
		Metrics: metrics,
	}
}

// CreatePlan builds and logs the plan for ref.
func (a *Agent) CreatePlan(ctx context.Context, ref string) Plan {
	plan := CreatePlan(ref)
	a.Logger.LogPlan(observability.RunID(ctx), ref, plan.Descriptions())
	return plan
}

// ExecutePlan runs plan. See Executor.ExecutePlan.
func (a *Agent) ExecutePlan(ctx context.Context, plan Plan) Outcome {
	return a.Executor.ExecutePlan(ctx, plan)
}

// RunOutcome plans and executes a run for ref under a fresh run ID and
// returns the full outcome.
func (a *Agent) RunOutcome(ctx context.Context, ref string) Outcome {
	ctx = observability.WithRunID(ctx, uuid.NewString())
	start := time.Now()

	plan := a.CreatePlan(ctx, ref)
	out := a.ExecutePlan(ctx, plan)

	status := "success"
	if !out.OK() {
		status = "failure"
	}
	a.Logger.LogRun(observability.RunID(ctx), ref, status, time.Since(start))
	a.Metrics.ObserveRun(out.OK())
	observability.FinishRun(observability.RunID(ctx), out.OK())
	return out
}

// Run summarizes ref. On failure the summary is "" and the error says which
// stage halted the run.
func (a *Agent) Run(ctx context.Context, ref string) (string, error) {
	out := a.RunOutcome(ctx, ref)
	if !out.OK() {
		return "", out.Err
	}
	return out.FinalSummary, nil
}
