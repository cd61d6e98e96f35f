package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rahul/papersum/internal/dataset"
)

func newPrepareCmd(o *rootOptions) *cobra.Command {
	var (
		outDir string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "prepare-data",
		Short: "Prepare a fine-tuning dataset",
		Long: `Download academic papers with their abstracts and write them as
instruction examples to train.jsonl and val.jsonl (90/10 split).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(o)
			if err != nil {
				return err
			}
			defer a.logger.Close()

			d := a.cfg.Dataset
			opts := dataset.Options{
				OutDir:   d.OutDir,
				Limit:    d.Limit,
				Primary:  d.Primary,
				Fallback: d.Fallback,
				Template: a.prompts.Training,
			}
			if cmd.Flags().Changed("out") {
				opts.OutDir = outDir
			}
			if cmd.Flags().Changed("limit") {
				opts.Limit = limit
			}

			report, err := dataset.Prepare(cmd.Context(), dataset.NewRowsClient(d.Endpoint), opts, *a.logger.Zerolog())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dataset: %s\n", report.Dataset)
			fmt.Fprintf(out, "  Training: %d samples\n", report.Train)
			fmt.Fprintf(out, "  Validation: %d samples\n", report.Val)
			fmt.Fprintf(out, "  Saved: %s\n", report.TrainPath)
			fmt.Fprintf(out, "  Saved: %s\n", report.ValPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "data", "output directory")
	cmd.Flags().IntVar(&limit, "limit", dataset.DefaultLimit, "maximum number of papers")
	return cmd
}
