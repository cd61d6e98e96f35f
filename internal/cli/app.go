package cli

import (
	"fmt"

	"github.com/rahul/papersum/internal/agent"
	"github.com/rahul/papersum/internal/extract"
	"github.com/rahul/papersum/internal/observability"
	"github.com/rahul/papersum/internal/summarize"
	"github.com/rahul/papersum/pkg/config"
)

// app is what every subcommand needs before it does anything.
type app struct {
	cfg     *config.Config
	logger  *observability.Logger
	metrics *observability.Metrics
	prompts agent.Prompts
}

func loadApp(o *rootOptions) (*app, error) {
	cfg, err := config.LoadConfig(o.cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger, err := observability.NewLogger(observability.LogOptions{
		Level:  level,
		File:   cfg.Log.File,
		Pretty: cfg.Log.Pretty,
		LLMLog: cfg.Log.LLMLog,
	})
	if err != nil {
		return nil, err
	}

	prompts, err := agent.NewPromptManager(cfg.App.Prompts).Load()
	if err != nil {
		logger.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
		prompts: prompts,
	}, nil
}

// newAgent wires the extractor, the configured model and the summarizer.
// Tests swap it for an agent over fakes.
var newAgent = func(a *app) (*agent.Agent, error) {
	name, p := a.cfg.GetDefaultProvider()
	model, err := summarize.NewModel(name, p)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %q provider: %w", name, err)
	}

	g := a.cfg.Generation
	s, err := summarize.New(model, p.Model, summarize.Options{
		MaxNewTokens:  g.MaxNewTokens,
		Temperature:   g.Temperature,
		TopP:          g.TopP,
		MaxInputChars: g.MaxInputChars,
	}, a.prompts.Summarizer, a.logger)
	if err != nil {
		return nil, err
	}

	a.logger.Zerolog().Debug().Str("provider", name).Str("model", p.Model).Msg("summarizer ready")
	return agent.NewAgent(newExtractor(a.cfg), s, a.logger, a.metrics), nil
}

// newExtractor bounds URL downloads by the same limit as uploads.
func newExtractor(cfg *config.Config) *extract.Router {
	web := extract.NewWebExtractor()
	if cfg.Server.MaxUploadMB > 0 {
		web.MaxBytes = cfg.Server.MaxUploadMB << 20
	}
	return &extract.Router{PDF: extract.NewPDFExtractor(), Web: web}
}
