package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"killcurve/domain/assay"
	"killcurve/internal/batch"
	"killcurve/internal/container"
	"killcurve/internal/report"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Analyze one or more instrument workbooks",
	Long: `Analyzes xCELLigence workbooks and writes one results workbook covering all
of them. Each file is analyzed on its own; a failing file is reported and the
others still complete.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzePC       string
	analyzeOutDir   string
	analyzeNoExport bool
	analyzeJSON     bool
	analyzeMarkdown bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzePC, "pc", "",
		"positive control sample name (overrides automatic detection)")
	analyzeCmd.Flags().StringVar(&analyzeOutDir, "out", ".",
		"directory for the results workbook")
	analyzeCmd.Flags().BoolVar(&analyzeNoExport, "no-export", false,
		"skip writing the results workbook")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false,
		"print the reports as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeMarkdown, "markdown", false,
		"print a markdown summary per file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := container.Open(ctx, cfg, log, version)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer c.Shutdown(ctx)

	results := c.AnalysisService.AnalyzeFiles(ctx, args, analyzePC)
	for _, r := range results {
		if r.Err != nil {
			log.WithField("file", r.Path).WithError(r.Err).Error("Analysis failed")
		}
	}

	reports := batch.Reports(results)
	if len(reports) == 0 {
		return fmt.Errorf("no file could be analyzed")
	}

	if err := printReports(reports); err != nil {
		return err
	}

	if !analyzeNoExport {
		path, err := c.Exporter.WriteFile(analyzeOutDir, time.Now(), reports...)
		if err != nil {
			return fmt.Errorf("exporting results: %w", err)
		}
		log.WithField("output", path).Info("Results workbook written")
	}

	if failed := batch.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func printReports(reports []*assay.Report) error {
	switch {
	case analyzeJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("encoding reports: %w", err)
		}
	case analyzeMarkdown:
		for _, r := range reports {
			fmt.Println(report.Markdown(r))
		}
	default:
		for _, r := range reports {
			pc := r.Outcome.PositiveControl
			if pc == "" {
				pc = "-"
			}
			fmt.Printf("%-40s %-5s %-8s pc=%s warnings=%d run=%s\n",
				r.FileName, r.AssayType, r.Outcome.Status, pc, len(r.Warnings), r.RunID)
		}
	}
	return nil
}
