package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rahul/papersum/internal/gateway"
	"github.com/rahul/papersum/internal/governance"
	"github.com/rahul/papersum/internal/store"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Long: `Start the single-page web UI for uploading papers. When a Telegram token is
configured under gateways.telegram the bot is started alongside it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, o, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, o *rootOptions, addr string) error {
	a, err := loadApp(o)
	if err != nil {
		return err
	}
	defer a.logger.Close()
	log := a.logger.Zerolog()

	ag, err := newAgent(a)
	if err != nil {
		return err
	}

	history, err := store.NewHistoryStore(a.cfg.Memory.Path)
	if err != nil {
		return fmt.Errorf("failed to open summary store: %w", err)
	}
	defer history.Close()

	maxBytes := a.cfg.Server.MaxUploadMB << 20
	gov := governance.NewDefaultPolicyEngine()
	gov.MaxBytes = maxBytes
	gov.DenyPrivateHosts()

	svc := &gateway.Service{
		Runner:  ag,
		Store:   history,
		Policy:  gov,
		Metrics: a.metrics,
		Logger:  a.logger,
	}

	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	_, provider := a.cfg.GetDefaultProvider()
	web := gateway.NewWebGateway(addr, svc, a.metrics, provider.Model, maxBytes)

	var chats []gateway.Messenger
	if tgCfg, ok := a.cfg.GetTelegramConfig(); ok {
		tg, err := gateway.NewTelegramGateway(tgCfg.Token, svc, maxBytes)
		if err != nil {
			return fmt.Errorf("failed to start telegram gateway: %w", err)
		}
		chats = append(chats, tg)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1+len(chats))
	go func() { errCh <- web.Start() }()
	for _, m := range chats {
		go func() { errCh <- m.Start(ctx) }()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Paper summarizer UI on %s\n", addr)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		if runErr != nil {
			log.Error().Err(runErr).Msg("gateway stopped")
		}
	}

	for _, m := range chats {
		_ = m.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := web.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	log.Info().Msg("shut down")
	return runErr
}
