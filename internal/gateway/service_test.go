package gateway

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/papersum/internal/agent"
	"github.com/rahul/papersum/internal/extract"
	"github.com/rahul/papersum/internal/governance"
	"github.com/rahul/papersum/internal/observability"
	"github.com/rahul/papersum/internal/store"
)

var samplePDF = []byte("%PDF-1.4\nfake paper body")

// fakeRunner records what it was asked to summarize and whether the file
// existed at that moment.
type fakeRunner struct {
	summary  string
	err      error
	refs     []string
	contents [][]byte
	ctxs     []context.Context
}

func (f *fakeRunner) RunOutcome(ctx context.Context, ref string) agent.Outcome {
	f.refs = append(f.refs, ref)
	f.ctxs = append(f.ctxs, ctx)
	data, _ := os.ReadFile(ref)
	f.contents = append(f.contents, data)

	if f.err != nil {
		return agent.Outcome{State: agent.StateFailed, FailedAt: agent.StageSummarize, Err: f.err}
	}
	return agent.Outcome{
		State:        agent.StateFormatted,
		Extracted:    &extract.Result{Success: true, Metadata: extract.Metadata{NumPages: 7, Title: "Fake Paper"}},
		FinalSummary: f.summary,
	}
}

func newTestService(t *testing.T, runner Runner) *Service {
	t.Helper()
	st, err := store.NewHistoryStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	policy := governance.NewDefaultPolicyEngine()
	policy.MaxBytes = 1 << 20
	return &Service{
		Runner:  runner,
		Store:   st,
		Policy:  policy,
		Metrics: observability.NewMetrics(),
	}
}

func TestService_SummarizeBytes(t *testing.T) {
	runner := &fakeRunner{summary: "A fake paper about fakes."}
	svc := newTestService(t, runner)

	res, err := svc.SummarizeBytes(context.Background(), "web", "paper.pdf", samplePDF)
	require.NoError(t, err)

	assert.Equal(t, "A fake paper about fakes.", res.Summary)
	assert.Equal(t, "Fake Paper", res.Title)
	assert.Equal(t, 7, res.NumPages)
	assert.False(t, res.Cached)
	assert.Equal(t, store.HashDocument(samplePDF), res.Hash)

	// the agent read the upload from a temp file that is gone now
	require.Len(t, runner.refs, 1)
	assert.Equal(t, samplePDF, runner.contents[0])
	assert.Equal(t, ".pdf", filepath.Ext(runner.refs[0]))
	_, err = os.Stat(runner.refs[0])
	assert.True(t, os.IsNotExist(err))
}

func TestService_CachesOnlySuccess(t *testing.T) {
	runner := &fakeRunner{err: errors.New("generation failed: model offline")}
	svc := newTestService(t, runner)
	ctx := context.Background()

	_, err := svc.SummarizeBytes(ctx, "web", "paper.pdf", samplePDF)
	require.Error(t, err)

	// failure is not cached: the second attempt runs again
	runner.err = nil
	runner.summary = "Recovered."
	res, err := svc.SummarizeBytes(ctx, "web", "paper.pdf", samplePDF)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Len(t, runner.refs, 2)

	// success is cached: the third attempt does not run
	res, err = svc.SummarizeBytes(ctx, "web", "renamed.pdf", samplePDF)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, "Recovered.", res.Summary)
	assert.Len(t, runner.refs, 2)

	runs, err := svc.Store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "success", runs[0].Status)
	assert.Equal(t, "failure", runs[1].Status)
	assert.Contains(t, runs[1].Error, "model offline")
}

func TestService_TempFileRemovedOnFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	svc := newTestService(t, runner)

	_, err := svc.SummarizeBytes(context.Background(), "web", "paper.pdf", samplePDF)
	require.Error(t, err)
	_, statErr := os.Stat(runner.refs[0])
	assert.True(t, os.IsNotExist(statErr))
}

func TestService_PolicyRejects(t *testing.T) {
	runner := &fakeRunner{summary: "x"}
	svc := newTestService(t, runner)

	_, err := svc.SummarizeBytes(context.Background(), "web", "notes.txt", []byte("plain text notes"))
	assert.ErrorIs(t, err, ErrRejected)
	assert.Empty(t, runner.refs)
}

func TestService_WithoutStore(t *testing.T) {
	runner := &fakeRunner{summary: "No cache."}
	svc := &Service{Runner: runner}

	res, err := svc.SummarizeBytes(context.Background(), "web", "paper.pdf", samplePDF)
	require.NoError(t, err)
	assert.Equal(t, "No cache.", res.Summary)

	res, err = svc.SummarizeReference(context.Background(), "telegram", "https://example.org/paper.pdf")
	require.NoError(t, err)
	assert.Equal(t, "paper.pdf", res.Filename)
	assert.Equal(t, "https://example.org/paper.pdf", runner.refs[1])
}

func TestService_EmptySummaryIsFailure(t *testing.T) {
	runner := &fakeRunner{summary: "  \n "}
	svc := newTestService(t, runner)

	res, err := svc.SummarizeBytes(context.Background(), "web", "paper.pdf", samplePDF)
	assert.ErrorIs(t, err, ErrNoSummary)
	assert.Nil(t, res)

	_, ok, err := svc.Store.GetSummary(store.HashDocument(samplePDF))
	require.NoError(t, err)
	assert.False(t, ok)

	runs, err := svc.Store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "failure", runs[0].Status)
	assert.Equal(t, ErrNoSummary.Error(), runs[0].Error)
}
