// Package extract turns a document reference into plain text.
//
// Extractors never return Go errors: every failure is reported through
// Result.Success and Result.Error so the caller can decide whether the run
// continues.
package extract

import (
	"context"
	"fmt"
	"strings"
)

const unknownTitle = "Unknown"

// Metadata describes the source document.
type Metadata struct {
	NumPages int    `json:"num_pages"`
	Title    string `json:"title"`
}

// Result is the outcome of a single extraction.
type Result struct {
	Success  bool     `json:"success"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Error    string   `json:"error,omitempty"`
}

// Failed builds an unsuccessful Result.
func Failed(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// Extractor pulls text out of a document reference (a path or URL).
type Extractor interface {
	Extract(ctx context.Context, ref string) Result
}

// Router sends http(s) references to Web and everything else to PDF.
type Router struct {
	PDF Extractor
	Web Extractor
}

func NewRouter() *Router {
	return &Router{
		PDF: NewPDFExtractor(),
		Web: NewWebExtractor(),
	}
}

func (r *Router) Extract(ctx context.Context, ref string) Result {
	if IsURL(ref) {
		if r.Web == nil {
			return Failed("web extraction is not enabled: %s", ref)
		}
		return r.Web.Extract(ctx, ref)
	}
	return r.PDF.Extract(ctx, ref)
}

// IsURL reports whether ref looks like an http(s) URL.
func IsURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// normalize applies the basic cleanup shared by all extractors: blank-line
// pairs folded into single newlines, then trimmed.
func normalize(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n\n", "\n"))
}
