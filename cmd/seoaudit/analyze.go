package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/seoaudit/analyzer"
	"github.com/seo-optimizer/seoaudit/history"
	"github.com/seo-optimizer/seoaudit/report"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [url...]",
		Short: "Audit pages and write per-site reports",
		Long: `Analyze fetches every URL, scores it and writes <site>_report.json and
<site>_report.md into the output directory. Every audit is also appended to
the history database.

Examples:
  # Audit two competitors into ./reports
  seoaudit analyze -o reports https://silverautokool.ee/ https://www.autokool.ee/

  # Audit every site listed in a competitor file
  seoaudit analyze -c sites.yaml`,
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Report directory (default: $REPORT_DIR or .)")
	cmd.Flags().Bool("no-history", false, "Do not record the audits in the history database")

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, logger := setup(cmd)

	sites, err := loadSites(cmd)
	if err != nil {
		return err
	}
	urls := args
	if len(urls) == 0 && sites != nil {
		urls = sites.URLs()
	}
	if len(urls) == 0 {
		return errors.New("no URLs provided (pass them as arguments or use --config)")
	}

	outDir, _ := cmd.Flags().GetString("output")
	if outDir == "" {
		outDir = cfg.ReportDir
	}

	a, err := analyzer.New(cfg.AnalyzerOptions(logger))
	if err != nil {
		return err
	}
	defer a.Shutdown()

	var store *history.Store
	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		store, err = history.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	audits, failures, err := a.AnalyzeAll(ctx, urls)
	if err != nil {
		return err
	}
	for _, f := range failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", f.URL, f.Err)
	}
	if len(audits) == 0 {
		return errors.New("no site could be analyzed")
	}

	namer := newNamer(sites)
	out := cmd.OutOrStdout()
	for _, audit := range audits {
		name := namer.Name(audit.Features.URL)
		path, err := writeSiteReports(outDir, name, audit)
		if err != nil {
			return err
		}
		if store != nil {
			if _, err := store.Save(ctx, name, audit.Features, audit.Score.Total); err != nil {
				logger.Warn("failed to record history", "url", audit.Features.URL, "error", err)
			}
		}
		fmt.Fprintf(out, "%-25s %2d/%d  %s\n", name, audit.Score.Total, audit.Score.Max, path)
		for _, rec := range audit.Recommendations {
			fmt.Fprintf(out, "    - %s\n", rec)
		}
	}

	return nil
}

// writeSiteReports writes the JSON and Markdown reports of audit and returns
// the JSON path.
func writeSiteReports(dir, name string, audit *analyzer.Audit) (string, error) {
	sr := report.NewSiteReport(audit.Features, audit.FetchedAt)
	jsonPath, err := report.Save(dir, sr)
	if err != nil {
		return "", err
	}

	mdPath := strings.TrimSuffix(jsonPath, ".json") + ".md"
	f, err := os.Create(filepath.Clean(mdPath))
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", mdPath, err)
	}
	defer f.Close()

	if err := report.NewMarkdownWriter(f).WriteSite(sr, name); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", mdPath, err)
	}
	return jsonPath, nil
}

