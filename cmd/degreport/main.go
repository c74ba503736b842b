package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"degreport/adapters/engine"
	"degreport/adapters/tabular"
	"degreport/app"
	"degreport/internal"
	"degreport/internal/config"
	"degreport/internal/errors"
	"degreport/ui"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional; environment stays authoritative
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "degreport",
		Short: "Differential gene-expression report generator",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the differential expression pipeline and render the report",
		Long: `Load a count matrix and sample metadata, fit the differential
expression model, and write DEG_results.csv plus report.html to the output
directory.

Example:
  degreport run --counts counts.tsv --metadata samples.tsv \
    --condition condition --control untreated --treatment treated \
    --covariate batch --alpha 0.05 --lfc-threshold 1 --out results/`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := internal.NewDefaultLogger()

			renderer, err := ui.NewRenderer(log)
			if err != nil {
				return err
			}
			pipeline := app.NewPipelineService(
				tabular.NewLoader(log),
				engine.NewWelchEngine(),
				app.NewResultFormatter(log),
				renderer,
				log,
			)

			result, err := pipeline.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			fmt.Printf("run %s finished in %dms\n", result.RunID, result.RuntimeMs)
			fmt.Printf("  formula:  %s\n", result.Formula)
			fmt.Printf("  genes:    %d tested, %d reported\n", result.GenesTested, result.GenesReported)
			fmt.Printf("  results:  %s\n", result.ResultsPath)
			fmt.Printf("  report:   %s\n", result.ReportPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.DataFile, "counts", cfg.DataFile, "Count matrix (TSV, CSV or XLSX; genes x samples)")
	cmd.Flags().StringVar(&cfg.MetadataFile, "metadata", cfg.MetadataFile, "Sample metadata table")
	cmd.Flags().StringVar(&cfg.ConditionColumn, "condition", cfg.ConditionColumn, "Metadata column holding the condition")
	cmd.Flags().StringVar(&cfg.Covariate, "covariate", cfg.Covariate, "Optional additive covariate column")
	cmd.Flags().StringVar(&cfg.ControlGroup, "control", cfg.ControlGroup, "Condition label used as baseline")
	cmd.Flags().StringVar(&cfg.TreatmentGroup, "treatment", cfg.TreatmentGroup, "Condition label whose effect is reported")
	cmd.Flags().Float64Var(&cfg.Alpha, "alpha", cfg.Alpha, "Adjusted p-value significance threshold")
	cmd.Flags().Float64Var(&cfg.LFCThreshold, "lfc-threshold", cfg.LFCThreshold, "Minimum log2 fold-change threshold")
	cmd.Flags().StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Output directory for artifacts")
	cmd.Flags().BoolVar(&cfg.PlotVolcano, "volcano", cfg.PlotVolcano, "Render the volcano plot")
	cmd.Flags().IntVar(&cfg.TopGenes, "top-genes", cfg.TopGenes, "Genes to label on the volcano plot")
	cmd.Flags().StringVar(&cfg.NotesFile, "notes", cfg.NotesFile, "Optional markdown notes embedded in the report")

	return cmd
}

func newServeCmd() *cobra.Command {
	var dir, port string

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve a rendered report directory over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(dir); err != nil {
				return errors.IOError(fmt.Errorf("report directory %s: %w", dir, err))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := ui.NewServer(dir, port, internal.NewDefaultLogger())
			return server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "out", "Report directory to serve")
	cmd.Flags().StringVar(&port, "port", "8077", "Listen port")

	return cmd
}
