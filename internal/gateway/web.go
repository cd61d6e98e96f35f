package gateway

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/rahul/papersum/internal/observability"
)

//go:embed templates/index.html
var templateFS embed.FS

// textOnly strips any markup the model emitted; its output is escaped text
// and safe to embed as HTML.
var textOnly = bluemonday.StrictPolicy()

var indexTmpl = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"textonly": func(s string) template.HTML { return template.HTML(textOnly.Sanitize(s)) },
}).ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Model  string
	Result *Result
	Error  string
}

// WebGateway serves the single-page upload UI and a small JSON API.
type WebGateway struct {
	Service   *Service
	Metrics   *observability.Metrics
	Model     string
	MaxUpload int64

	server *http.Server
}

func NewWebGateway(addr string, svc *Service, metrics *observability.Metrics, model string, maxUpload int64) *WebGateway {
	w := &WebGateway{
		Service:   svc,
		Metrics:   metrics,
		Model:     model,
		MaxUpload: maxUpload,
	}
	w.server = &http.Server{
		Addr:              addr,
		Handler:           w.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return w
}

// Handler returns the routes; exposed for tests.
func (w *WebGateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", w.handleIndex)
	mux.HandleFunc("POST /summarize", w.handleSummarize)
	mux.HandleFunc("GET /download/{hash}", w.handleDownload)
	mux.HandleFunc("GET /status", w.handleStatus)
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	if w.Metrics != nil {
		mux.Handle("GET /metrics", w.Metrics.Handler())
	}
	return mux
}

func (w *WebGateway) Start() error {
	w.Service.logger().Zerolog().Info().Str("addr", w.server.Addr).Msg("web UI listening")
	if err := w.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (w *WebGateway) Stop(ctx context.Context) error {
	return w.server.Shutdown(ctx)
}

func (w *WebGateway) handleIndex(rw http.ResponseWriter, r *http.Request) {
	w.render(rw, http.StatusOK, pageData{Model: w.Model})
}

func (w *WebGateway) handleSummarize(rw http.ResponseWriter, r *http.Request) {
	wantsJSON := strings.Contains(r.Header.Get("Accept"), "application/json")

	fail := func(status int, err error) {
		if wantsJSON {
			writeJSON(rw, status, map[string]string{"error": err.Error()})
			return
		}
		w.render(rw, status, pageData{Model: w.Model, Error: err.Error()})
	}

	if w.MaxUpload > 0 {
		if r.ContentLength > w.MaxUpload {
			fail(http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", w.MaxUpload))
			return
		}
		r.Body = http.MaxBytesReader(rw, r.Body, w.MaxUpload)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", w.MaxUpload))
			return
		}
		fail(http.StatusBadRequest, fmt.Errorf("missing PDF upload: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		fail(http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	res, err := w.Service.SummarizeBytes(r.Context(), "web", header.Filename, data)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, ErrRejected) {
			status = http.StatusBadRequest
		}
		fail(status, err)
		return
	}

	if wantsJSON {
		writeJSON(rw, http.StatusOK, res)
		return
	}
	w.render(rw, http.StatusOK, pageData{Model: w.Model, Result: res})
}

func (w *WebGateway) handleDownload(rw http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if w.Service.Store == nil {
		http.NotFound(rw, r)
		return
	}
	s, ok, err := w.Service.Store.GetSummary(hash)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(rw, r)
		return
	}
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.Filename+"_summary.txt"))
	_, _ = io.WriteString(rw, s.Text)
}

func (w *WebGateway) handleStatus(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, observability.GetStatus())
}

func (w *WebGateway) render(rw http.ResponseWriter, status int, data pageData) {
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(status)
	if err := indexTmpl.Execute(rw, data); err != nil {
		w.Service.logger().Zerolog().Error().Err(err).Msg("failed to render page")
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}
