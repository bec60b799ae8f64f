package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/seoaudit/compare"
	"github.com/seo-optimizer/seoaudit/config"
	"github.com/seo-optimizer/seoaudit/logging"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seoaudit",
		Short: "On-page SEO audits and competitor comparison",
		Long: `seoaudit fetches web pages, scores their on-page SEO signals on a
0-10 rubric and ranks competing sites against each other.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("data-dir", "", "Directory for history and statistics (default: $DATA_DIR or the XDG data home)")
	cmd.PersistentFlags().StringP("config", "c", "", "YAML competitor list (sites: [{url, name}])")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// setup loads the configuration, applies the global flags and installs the
// logger as the slog default.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger) {
	cfg := config.Load()
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}

	logger := logging.NewLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	slog.SetDefault(logger)
	return cfg, logger
}

// loadSites reads the competitor list named by --config. It returns nil when
// the flag is unset.
func loadSites(cmd *cobra.Command) (*config.SitesFile, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil, nil
	}
	sites, err := config.LoadSites(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return sites, nil
}

func newNamer(sites *config.SitesFile) *compare.Namer {
	if sites == nil {
		return compare.NewNamer()
	}
	return compare.NewNamer(sites.Aliases()...)
}
