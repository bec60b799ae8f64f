package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/seoaudit/analyzer"
	"github.com/seo-optimizer/seoaudit/history"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <url>",
		Short: "List stored audits of a URL, newest first",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of audits to list (0 for all)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, _ := setup(cmd)
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), args[0], limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No audits recorded for %s\n", args[0])
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %2d/%d  %-25s words=%d\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Score, analyzer.MaxScore, e.SiteName, e.Features.WordCount)
	}
	return nil
}
