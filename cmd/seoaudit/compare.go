package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/seoaudit/compare"
	"github.com/seo-optimizer/seoaudit/report"
)

// Comparative report file names written into the report directory.
const (
	comparisonMarkdown = "comparative_seo_analysis.md"
	comparisonJSON     = "comparative_seo_analysis.json"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [dir]",
		Short: "Rank previously analyzed sites",
		Long: `Compare loads every *_report.json in dir (default: $REPORT_DIR or .),
ranks the sites by SEO score and writes comparative_seo_analysis.md.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Also write comparative_seo_analysis.json")

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	cfg, logger := setup(cmd)

	dir := cfg.ReportDir
	if len(args) == 1 {
		dir = args[0]
	}

	sites, err := loadSites(cmd)
	if err != nil {
		return err
	}

	records, err := report.LoadDir(dir)
	if err != nil {
		return err
	}

	rep, err := compare.NewEngine(newNamer(sites)).Build(records)
	if errors.Is(err, compare.ErrEmptyBatch) {
		return fmt.Errorf("no reports found in %s (run 'seoaudit analyze' first)", dir)
	}
	if err != nil {
		return err
	}

	mdPath := filepath.Join(dir, comparisonMarkdown)
	if err := writeComparison(mdPath, rep); err != nil {
		return err
	}
	logger.Debug("comparison written", "path", mdPath, "sites", len(rep.Entries))

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, comparisonJSON), append(data, '\n'), 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", comparisonJSON, err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "SEO ranking")
	for i, e := range rep.Entries {
		fmt.Fprintf(out, "%2d. %-25s %2d/%d\n", i+1, e.SiteName, e.Score, e.Breakdown.Max)
	}
	fmt.Fprintf(out, "\nWinner: %s with %d/%d\n", rep.Winner.SiteName, rep.Winner.Score, rep.Winner.Breakdown.Max)
	fmt.Fprintf(out, "Report: %s\n", mdPath)

	return nil
}

func writeComparison(path string, rep *compare.Report) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := report.NewMarkdownWriter(f).WriteComparison(rep); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
