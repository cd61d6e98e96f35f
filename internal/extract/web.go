package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultMaxBytes bounds how much of a response body is read.
const DefaultMaxBytes = 50 << 20

// WebExtractor fetches a paper landing page (or a PDF behind a URL) and
// extracts its main content.
type WebExtractor struct {
	UserAgent string
	Client    *http.Client
	PDF       Extractor
	MaxChars  int
	MaxBytes  int64 // response bodies larger than this fail the extraction
}

func NewWebExtractor() *WebExtractor {
	return &WebExtractor{
		UserAgent: "Mozilla/5.0 (compatible; papersum/1.0; +https://github.com/rahul/papersum)",
		Client:    &http.Client{Timeout: 30 * time.Second},
		PDF:       NewPDFExtractor(),
		MaxChars:  50000,
		MaxBytes:  DefaultMaxBytes,
	}
}

func (w *WebExtractor) Extract(ctx context.Context, rawURL string) Result {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Failed("failed to parse URL: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Failed("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", w.UserAgent)

	resp, err := w.Client.Do(req)
	if err != nil {
		return Failed("failed to fetch URL: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Failed("failed to fetch URL: status code %d", resp.StatusCode)
	}

	limit := w.limit()
	if resp.ContentLength > limit {
		return Failed("document is %d bytes, limit is %d", resp.ContentLength, limit)
	}
	body := io.LimitReader(resp.Body, limit+1)

	if strings.Contains(resp.Header.Get("Content-Type"), "application/pdf") {
		return w.extractPDF(ctx, body, limit)
	}

	page, err := io.ReadAll(body)
	if err != nil {
		return Failed("failed to read page: %v", err)
	}
	if int64(len(page)) > limit {
		return Failed("page exceeds %d bytes", limit)
	}

	article, err := readability.FromReader(bytes.NewReader(page), parsedURL)
	if err != nil {
		return Failed("failed to parse article: %v", err)
	}

	// Strip any markup readability left behind
	p := bluemonday.StrictPolicy()
	text := truncate(normalize(p.Sanitize(article.TextContent)), w.MaxChars)

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = unknownTitle
	}
	return Result{
		Success:  true,
		Text:     text,
		Metadata: Metadata{NumPages: 1, Title: title},
	}
}

func (w *WebExtractor) limit() int64 {
	if w.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return w.MaxBytes
}

func (w *WebExtractor) extractPDF(ctx context.Context, body io.Reader, limit int64) Result {
	tmp, err := os.CreateTemp("", "papersum-*.pdf")
	if err != nil {
		return Failed("failed to create temp file: %v", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return Failed("failed to download PDF: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return Failed("failed to download PDF: %v", err)
	}
	if n > limit {
		return Failed("PDF exceeds %d bytes", limit)
	}

	res := w.PDF.Extract(ctx, tmp.Name())
	if !res.Success {
		res.Error = fmt.Sprintf("%s (downloaded as %s)", res.Error, filepath.Base(tmp.Name()))
	}
	return res
}

// truncate cuts text to at most n runes, backing up to the last whitespace
// so no word is split. Line breaks before the cut are kept.
func truncate(text string, n int) string {
	if n <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	cut := string(r[:n])
	if i := strings.LastIndexFunc(cut, unicode.IsSpace); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
