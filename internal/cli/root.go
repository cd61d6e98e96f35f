package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rahul/papersum/internal/observability"
)

const version = "0.1.0"

// ErrNoSummary is returned when a run produced no summary.
var ErrNoSummary = errors.New("no summary generated")

type rootOptions struct {
	cfgFile  string
	logLevel string
	pdf      string
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "papersum",
		Short: "AI agent for academic paper summarization",
		Long: `papersum extracts the text of a research paper, isolates its abstract or
introduction and asks a language model for a short summary.

Run it on a single PDF with --pdf, or start the web UI with "papersum serve".`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, o)
		},
	}

	cmd.PersistentFlags().StringVar(&o.cfgFile, "config", "papersum.yaml", "config file (yaml or json)")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides log.level")
	cmd.Flags().StringVar(&o.pdf, "pdf", "", "path to PDF file")
	_ = cmd.MarkFlagRequired("pdf")

	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	cmd.AddCommand(newServeCmd(o), newPrepareCmd(o))
	return cmd
}

// Execute runs the CLI. This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

func runSummarize(cmd *cobra.Command, o *rootOptions) error {
	a, err := loadApp(o)
	if err != nil {
		return err
	}
	defer a.logger.Close()

	ag, err := newAgent(a)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	observability.PrintBanner(out, o.pdf)

	summary, err := ag.Run(cmd.Context(), o.pdf)
	if err != nil {
		fmt.Fprintf(out, "\nSummarization failed: %v\n", err)
		fmt.Fprintln(out, "\nNo summary generated")
		return fmt.Errorf("%w: %w", ErrNoSummary, err)
	}
	if summary == "" {
		fmt.Fprintln(out, "\nNo summary generated")
		return ErrNoSummary
	}
	observability.PrintComplete(out)

	observability.PrintSection(out, "SUMMARY", summary)

	if err := os.WriteFile(a.cfg.App.OutputFile, []byte(summary), 0644); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	fmt.Fprintf(out, "\nSummary saved to: %s\n", a.cfg.App.OutputFile)
	return nil
}
