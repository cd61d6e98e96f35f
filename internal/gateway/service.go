package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rahul/papersum/internal/agent"
	"github.com/rahul/papersum/internal/governance"
	"github.com/rahul/papersum/internal/observability"
	"github.com/rahul/papersum/internal/store"
)

var (
	// ErrRejected is returned when policy refuses a document.
	ErrRejected = errors.New("document rejected")
	// ErrNoSummary is returned when a run finished without summary text.
	ErrNoSummary = errors.New("failed to generate summary")
)

// Runner executes one summarization run.
type Runner interface {
	RunOutcome(ctx context.Context, ref string) agent.Outcome
}

// Result is what a front end shows for a document.
type Result struct {
	Hash     string `json:"hash,omitempty"`
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
	NumPages int    `json:"num_pages,omitempty"`
	Summary  string `json:"summary"`
	Cached   bool   `json:"cached"`
}

// Service is the front-end side of a run: policy, cache, temp files and
// history. Store may be nil, which disables caching and history.
type Service struct {
	Runner  Runner
	Store   *store.HistoryStore
	Policy  governance.PolicyEngine
	Metrics *observability.Metrics
	Logger  *observability.Logger
}

func (s *Service) logger() *observability.Logger {
	if s.Logger == nil {
		return observability.NopLogger()
	}
	return s.Logger
}

func (s *Service) check(ctx context.Context, req governance.Request) error {
	if s.Policy == nil {
		return nil
	}
	res, err := s.Policy.Evaluate(ctx, req)
	if err != nil {
		return fmt.Errorf("policy evaluation failed: %w", err)
	}
	if res.Effect == governance.EffectDeny {
		if s.Metrics != nil {
			s.Metrics.UploadsRejected.WithLabelValues(req.Source).Inc()
		}
		s.logger().Log(observability.Event{
			Type: observability.EventTypeUpload,
			Data: map[string]string{"source": req.Source, "reference": req.Reference, "error": res.Reason},
		})
		return fmt.Errorf("%w: %s", ErrRejected, res.Reason)
	}
	return nil
}

// SummarizeBytes summarizes an uploaded document. A cached summary for the
// same bytes is returned without running the agent. The upload is written
// to a temporary file that is removed before SummarizeBytes returns.
func (s *Service) SummarizeBytes(ctx context.Context, source, filename string, data []byte) (*Result, error) {
	head := data
	if len(head) > 8 {
		head = head[:8]
	}
	if err := s.check(ctx, governance.Request{
		Source:    source,
		Reference: filename,
		Size:      int64(len(data)),
		Head:      head,
	}); err != nil {
		return nil, err
	}

	hash := store.HashDocument(data)
	if cached := s.lookup(hash); cached != nil {
		return cached, nil
	}

	tmp, err := os.CreateTemp("", "papersum-*"+filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	return s.run(ctx, source, tmp.Name(), filename, hash)
}

// SummarizeReference summarizes a path or URL the caller already has.
// Results are recorded in the history but not cached.
func (s *Service) SummarizeReference(ctx context.Context, source, ref string) (*Result, error) {
	if err := s.check(ctx, governance.Request{Source: source, Reference: ref}); err != nil {
		return nil, err
	}
	return s.run(ctx, source, ref, filepath.Base(ref), "")
}

func (s *Service) lookup(hash string) *Result {
	if s.Store == nil {
		return nil
	}
	cached, ok, err := s.Store.GetSummary(hash)
	if err != nil {
		s.logger().Zerolog().Warn().Err(err).Msg("summary cache lookup failed")
		return nil
	}
	if !ok {
		return nil
	}
	if s.Metrics != nil {
		s.Metrics.CacheHitsTotal.Inc()
	}
	s.logger().Log(observability.Event{
		Type: observability.EventTypeCache,
		Data: map[string]string{"hash": hash, "filename": cached.Filename},
	})
	return &Result{
		Hash:     cached.Hash,
		Filename: cached.Filename,
		Title:    cached.Title,
		NumPages: cached.NumPages,
		Summary:  cached.Text,
		Cached:   true,
	}
}

func (s *Service) run(ctx context.Context, source, ref, filename, hash string) (*Result, error) {
	out := s.Runner.RunOutcome(ctx, ref)

	var err error
	switch {
	case !out.OK():
		err = out.Err
	case strings.TrimSpace(out.FinalSummary) == "":
		err = ErrNoSummary
	}

	run := store.Run{Source: source, Reference: filename, Hash: hash, Status: "success"}
	if err != nil {
		run.Status = "failure"
		run.Error = err.Error()
	}
	s.record(run)

	if err != nil {
		return nil, err
	}

	res := &Result{Hash: hash, Filename: filename, Summary: out.FinalSummary}
	if out.Extracted != nil {
		res.Title = out.Extracted.Metadata.Title
		res.NumPages = out.Extracted.Metadata.NumPages
	}

	if s.Store != nil && hash != "" {
		err := s.Store.PutSummary(store.Summary{
			Hash:     hash,
			Filename: filename,
			Title:    res.Title,
			NumPages: res.NumPages,
			Text:     res.Summary,
		})
		if err != nil {
			s.logger().Zerolog().Warn().Err(err).Str("hash", hash).Msg("failed to cache summary")
		}
	}
	return res, nil
}

func (s *Service) record(r store.Run) {
	if s.Store == nil {
		return
	}
	if err := s.Store.RecordRun(r); err != nil {
		s.logger().Zerolog().Warn().Err(err).Msg("failed to record run")
	}
}
