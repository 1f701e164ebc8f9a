package cmd

import (
	"fmt"

	"bookmark-organizer/internal/stats"

	"github.com/spf13/cobra"
)

var metaCmd = &cobra.Command{
	Use:   "meta [url...]",
	Short: "Fetch and print the title and description of pages",
	Long: `Meta runs the metadata fetcher against the given URLs and prints what it
found, using the same strategies, retries and limits as organize. Pages that
yield nothing print as "untitled" / "no description".

Examples:
  bookmark-organizer meta https://go.dev https://github.com`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMeta,
}

func init() {
	rootCmd.AddCommand(metaCmd)
}

func runMeta(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateNetwork(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	tracker := stats.NewStatTracker(len(args))
	results := newFetcher(cfg, tracker).FetchAll(cmd.Context(), args)

	out := cmd.OutOrStdout()
	for _, url := range args {
		meta := results[url]
		fmt.Fprintf(out, "%s\n  title:       %s\n  description: %s\n", url, meta.Title, meta.Description)
	}

	if !cfg.Quiet {
		s := tracker.GetStats()
		fmt.Fprintf(out, "Fetched metadata for %d of %d URLs\n", s.MetadataFetched, len(args))
	}
	return nil
}
