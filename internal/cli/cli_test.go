package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/papersum/internal/agent"
	"github.com/rahul/papersum/internal/extract"
)

type fixedExtractor struct{}

func (fixedExtractor) Extract(ctx context.Context, ref string) extract.Result {
	return extract.Result{
		Success: true,
		Text:    "Title\nAbstract\n" + strings.Repeat("Transformers replace recurrence with attention. ", 3) + "\nKeywords: attention",
	}
}

type fixedSummarizer struct{ summary string }

func (f fixedSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	return f.summary, nil
}

// useAgent replaces the real model wiring for the duration of a test.
func useAgent(t *testing.T, ex extract.Extractor, summary string) {
	t.Helper()
	orig := newAgent
	newAgent = func(a *app) (*agent.Agent, error) {
		return agent.NewAgent(ex, fixedSummarizer{summary: summary}, a.logger, a.metrics), nil
	}
	t.Cleanup(func() { newAgent = orig })
}

func writeConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	path := filepath.Join(dir, "papersum.yaml")
	content := fmt.Sprintf(`app:
  output_file: %s
log:
  level: error
  pretty: false
  llm_log: ""
%s`, filepath.Join(dir, "summary_output.txt"), extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	t.Run("subcommands exist", func(t *testing.T) {
		names := map[string]bool{}
		for _, c := range NewRootCmd().Commands() {
			names[c.Name()] = true
		}
		assert.True(t, names["serve"])
		assert.True(t, names["prepare-data"])
	})

	t.Run("help text", func(t *testing.T) {
		out, err := execute(t, "serve", "--help")
		require.NoError(t, err)
		assert.Contains(t, out, "Start the single-page web UI")
	})

	t.Run("version", func(t *testing.T) {
		out, err := execute(t, "--version")
		require.NoError(t, err)
		assert.Equal(t, "papersum version "+version+"\n", out)
	})

	t.Run("pdf is required", func(t *testing.T) {
		_, err := execute(t)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"pdf"`)
	})
}

func TestSummarize_WritesOutputFile(t *testing.T) {
	useAgent(t, fixedExtractor{}, "Attention is all you need.")
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")

	out, err := execute(t, "--config", cfg, "--pdf", "paper.pdf")
	require.NoError(t, err)

	assert.Contains(t, out, "PAPER SUMMARIZER AGENT")
	assert.Contains(t, out, "Input: paper.pdf")
	assert.Contains(t, out, "SUMMARIZATION COMPLETE")
	assert.Contains(t, out, "Attention is all you need.")
	assert.Contains(t, out, "Summary saved to:")

	saved, err := os.ReadFile(filepath.Join(dir, "summary_output.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Attention is all you need.", string(saved))
}

func TestSummarize_MissingPDF(t *testing.T) {
	useAgent(t, extract.NewPDFExtractor(), "unused")
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")

	out, err := execute(t, "--config", cfg, "--pdf", filepath.Join(dir, "nope.pdf"))
	require.ErrorIs(t, err, ErrNoSummary)
	assert.ErrorIs(t, err, agent.ErrExtraction)
	assert.Contains(t, out, "Summarization failed")
	assert.Contains(t, out, "No summary generated")

	_, statErr := os.Stat(filepath.Join(dir, "summary_output.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSummarize_EmptySummary(t *testing.T) {
	useAgent(t, fixedExtractor{}, "")
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")

	out, err := execute(t, "--config", cfg, "--pdf", "paper.pdf")
	assert.ErrorIs(t, err, ErrNoSummary)
	assert.Contains(t, out, "No summary generated")
	assert.NoFileExists(t, filepath.Join(dir, "summary_output.txt"))
}

func TestPrepareData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/splits", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"splits":[{"dataset":"papers","config":"default","split":"train"}]}`)
	})
	mux.HandleFunc("/rows", func(w http.ResponseWriter, r *http.Request) {
		rows := make([]map[string]any, 0, 10)
		for i := 0; i < 10; i++ {
			rows = append(rows, map[string]any{
				"row_idx": i,
				"row":     map[string]string{"article": fmt.Sprintf("paper %d", i), "abstract": "abstract"},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"rows": rows, "num_rows_total": 10})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	cfg := writeConfig(t, dir, fmt.Sprintf("dataset:\n  endpoint: %s\n  primary: papers\n", srv.URL))
	outDir := filepath.Join(dir, "data")

	out, err := execute(t, "--config", cfg, "prepare-data", "--out", outDir, "--limit", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Training: 9 samples")
	assert.Contains(t, out, "Validation: 1 samples")

	assert.FileExists(t, filepath.Join(outDir, "train.jsonl"))
	assert.FileExists(t, filepath.Join(outDir, "val.jsonl"))
}
