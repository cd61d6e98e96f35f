// Package dataset builds the instruction-tuning files used to fine-tune the
// summarizer model: train.jsonl and val.jsonl, one {"text": ...} per line.
package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
)

const (
	// DefaultLimit caps how many source rows are read.
	DefaultLimit = 1000
	// MaxArticleChars is how much of each article goes into an example.
	MaxArticleChars = 3000
	// TrainFraction of the records go to train.jsonl, the rest to val.jsonl.
	TrainFraction = 0.9
)

// DefaultTemplate renders one training example.
const DefaultTemplate = `Summarize this academic paper concisely.

Paper:
{{.Article}}

Summary:
{{.Abstract}}`

// Example is one line of the output files.
type Example struct {
	Text string `json:"text"`
}

// Options configures Prepare.
type Options struct {
	OutDir   string
	Limit    int
	Primary  string // tried first
	Fallback string // used when Primary cannot be fetched
	Split    string
	Template string
}

func (o Options) withDefaults() Options {
	if o.OutDir == "" {
		o.OutDir = "data"
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Primary == "" {
		o.Primary = "ccdv/arxiv-summarization"
	}
	if o.Split == "" {
		o.Split = "train"
	}
	if o.Template == "" {
		o.Template = DefaultTemplate
	}
	return o
}

// Source fetches raw rows for a dataset.
type Source interface {
	Rows(ctx context.Context, dataset, split string, limit int) ([]Row, error)
}

// Report describes a finished preparation.
type Report struct {
	Dataset   string
	Rows      int
	Skipped   int
	Train     int
	Val       int
	TrainPath string
	ValPath   string
}

// Prepare fetches rows, formats them and writes the split files.
func Prepare(ctx context.Context, src Source, opts Options, log zerolog.Logger) (*Report, error) {
	opts = opts.withDefaults()

	tmpl, err := template.New("example").Parse(opts.Template)
	if err != nil {
		return nil, fmt.Errorf("invalid training template: %w", err)
	}

	name := opts.Primary
	rows, err := src.Rows(ctx, name, opts.Split, opts.Limit)
	if err != nil {
		if opts.Fallback == "" {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		log.Warn().Err(err).Str("dataset", name).Str("fallback", opts.Fallback).Msg("primary dataset failed")
		name = opts.Fallback
		rows, err = src.Rows(ctx, name, opts.Split, opts.Limit)
		if err != nil {
			return nil, fmt.Errorf("all datasets failed: %w", err)
		}
	}
	log.Info().Str("dataset", name).Int("rows", len(rows)).Msg("dataset loaded")

	report := &Report{Dataset: name, Rows: len(rows)}
	examples := make([]Example, 0, len(rows))
	for i, row := range rows {
		if i >= opts.Limit {
			break
		}
		ex, ok, err := Format(tmpl, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Skipped++
			continue
		}
		examples = append(examples, ex)
		if (i+1)%100 == 0 {
			log.Debug().Int("processed", i+1).Msg("processing papers")
		}
	}

	train, val := Split(examples, TrainFraction)
	report.Train, report.Val = len(train), len(val)

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", opts.OutDir, err)
	}
	report.TrainPath = filepath.Join(opts.OutDir, "train.jsonl")
	report.ValPath = filepath.Join(opts.OutDir, "val.jsonl")
	if err := WriteJSONL(report.TrainPath, train); err != nil {
		return nil, err
	}
	if err := WriteJSONL(report.ValPath, val); err != nil {
		return nil, err
	}

	log.Info().
		Str("dataset", name).
		Int("train", report.Train).
		Int("val", report.Val).
		Int("skipped", report.Skipped).
		Msg("dataset prepared")
	return report, nil
}

// Format turns a row into an example. Rows carrying neither
// article/abstract nor document/summary string fields are skipped.
func Format(tmpl *template.Template, row Row) (Example, bool, error) {
	article, abstract, ok := fields(row, "article", "abstract")
	if !ok {
		article, abstract, ok = fields(row, "document", "summary")
	}
	if !ok {
		return Example{}, false, nil
	}

	var b strings.Builder
	err := tmpl.Execute(&b, struct{ Article, Abstract string }{
		Article:  truncate(article, MaxArticleChars),
		Abstract: abstract,
	})
	if err != nil {
		return Example{}, false, fmt.Errorf("failed to render example: %w", err)
	}
	return Example{Text: b.String()}, true, nil
}

func fields(row Row, a, b string) (string, string, bool) {
	x, ok1 := row[a].(string)
	y, ok2 := row[b].(string)
	return x, y, ok1 && ok2
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Split cuts examples at int(fraction*len).
func Split(examples []Example, fraction float64) (train, val []Example) {
	idx := int(fraction * float64(len(examples)))
	return examples[:idx], examples[idx:]
}

// WriteJSONL writes one JSON object per line, replacing path.
func WriteJSONL(path string, examples []Example) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, ex := range examples {
		if err := enc.Encode(ex); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
