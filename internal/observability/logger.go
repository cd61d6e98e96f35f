package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan     EventType = "plan"
	EventTypeStep     EventType = "step"
	EventTypeFallback EventType = "fallback"
	EventTypeLLM      EventType = "llm"
	EventTypeRun      EventType = "run"
	EventTypeUpload   EventType = "upload"
	EventTypeCache    EventType = "cache"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// LogOptions configures NewLogger.
type LogOptions struct {
	Level  string // debug, info, warn, error
	File   string // optional log file, appended to
	Pretty bool   // console writer instead of JSON on stderr
	LLMLog string // jsonl file receiving prompt/response pairs
}

// Logger handles structured logging.
type Logger struct {
	zl         zerolog.Logger
	file       *os.File
	llmLogPath string
	maxSize    int64
	mu         sync.Mutex
}

func NewLogger(opts LogOptions) (*Logger, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var console io.Writer = NewTermWriter()
	if opts.Pretty {
		console = zerolog.ConsoleWriter{Out: NewTermWriter(), TimeFormat: time.Kitchen}
	}

	writers := []io.Writer{console}
	var file *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, file)
	}

	return &Logger{
		zl:         zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger(),
		file:       file,
		llmLogPath: opts.LLMLog,
		maxSize:    10 * 1024 * 1024, // 10MB
	}, nil
}

// NewTestLogger writes JSON events to w. Used by tests in other packages.
func NewTestLogger(w io.Writer) *Logger {
	return &Logger{zl: zerolog.New(w).Level(zerolog.DebugLevel)}
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Zerolog exposes the underlying logger for packages that log free-form.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// Log emits a structured event. Events carrying an error go out at error
// level, fallbacks at debug, everything else at info.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	var e *zerolog.Event
	switch {
	case evt.Type == EventTypeFallback:
		e = l.zl.Debug()
	case hasError(evt.Data):
		e = l.zl.Error()
	default:
		e = l.zl.Info()
	}
	e.Str("type", string(evt.Type))
	if evt.RunID != "" {
		e.Str("run_id", evt.RunID)
	}
	if evt.Stage != "" {
		e.Str("stage", evt.Stage)
	}
	e.Interface("data", evt.Data).Send()

	if evt.Type == EventTypeLLM && l.llmLogPath != "" {
		data, err := json.Marshal(evt)
		if err != nil {
			l.zl.Error().Err(err).Msg("failed to marshal llm event")
			return
		}
		l.writeToFile(data)
	}
}

func hasError(data any) bool {
	switch d := data.(type) {
	case map[string]string:
		return d["error"] != ""
	case map[string]any:
		_, ok := d["error"]
		return ok
	}
	return false
}

func (l *Logger) writeToFile(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		l.zl.Error().Err(err).Msg("failed to create log directory")
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		l.zl.Error().Err(err).Msg("failed to open llm log file")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		l.zl.Error().Err(err).Msg("failed to write llm log file")
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogPlan(runID, ref string, steps []string) {
	l.Log(Event{
		Type:  EventTypePlan,
		RunID: runID,
		Data: map[string]any{
			"input": ref,
			"steps": steps,
		},
	})
}

func (l *Logger) LogStep(runID, stage, detail string) {
	l.Log(Event{
		Type:  EventTypeStep,
		RunID: runID,
		Stage: stage,
		Data:  map[string]string{"detail": detail},
	})
}

func (l *Logger) LogStepError(runID, stage string, err error) {
	l.Log(Event{
		Type:  EventTypeStep,
		RunID: runID,
		Stage: stage,
		Data:  map[string]string{"error": err.Error()},
	})
}

func (l *Logger) LogFallback(runID, reason string) {
	l.Log(Event{
		Type:  EventTypeFallback,
		RunID: runID,
		Stage: "clean_text",
		Data:  map[string]string{"reason": reason},
	})
}

func (l *Logger) LogRun(runID, ref, status string, elapsed time.Duration) {
	l.Log(Event{
		Type:  EventTypeRun,
		RunID: runID,
		Data: map[string]any{
			"input":      ref,
			"status":     status,
			"elapsed_ms": elapsed.Milliseconds(),
		},
	})
}

func (l *Logger) LogLLM(runID, model, prompt, response string) {
	l.Log(Event{
		Type:  EventTypeLLM,
		RunID: runID,
		Data: map[string]any{
			"model":    model,
			"prompt":   prompt,
			"response": response,
		},
	})
}
