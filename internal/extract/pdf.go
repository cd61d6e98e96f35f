package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// PDFExtractor reads text and metadata from PDF files on disk.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (p *PDFExtractor) Extract(ctx context.Context, path string) (res Result) {
	// the pdf package panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			res = Failed("malformed PDF %s: %v", path, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return Failed("%v", err)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Failed("File not found: %s", path)
		}
		return Failed("%v", err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return Failed("%v", err)
	}
	defer f.Close()

	meta := Metadata{
		NumPages: r.NumPage(),
		Title:    unknownTitle,
	}
	if info := r.Trailer().Key("Info"); !info.IsNull() {
		if title := strings.TrimSpace(info.Key("Title").Text()); title != "" {
			meta.Title = title
		}
	}

	var buf bytes.Buffer
	b, err := r.GetPlainText()
	if err != nil {
		return Failed("%v", err)
	}
	if _, err := io.Copy(&buf, b); err != nil {
		return Failed("%v", err)
	}

	return Result{
		Success:  true,
		Text:     normalize(buf.String()),
		Metadata: meta,
	}
}
