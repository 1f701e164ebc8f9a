package cmd

import (
	"fmt"
	"sort"

	"bookmark-organizer/internal/exporter"
	"bookmark-organizer/internal/parser"
	"bookmark-organizer/internal/pipeline"
	"bookmark-organizer/internal/stats"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var organizeCmd = &cobra.Command{
	Use:   "organize [bookmarks file]",
	Short: "Classify a bookmark export and write a sorted bookmark file",
	Long: `Organize reads a NETSCAPE bookmark export, fetches metadata for every link,
classifies each bookmark with a language model and writes a bookmark file
grouped by category.

The organize process:
1. Parses the bookmark file and keeps every http(s) link
2. Fetches page titles and descriptions (with caching and retries)
3. Classifies bookmarks from their content, then retries the failures from their URL alone
4. Groups sub-pages under their site's homepage and writes the output file

Examples:
  # Organize into the default sorted_bookmarks.html
  bookmark-organizer organize bookmarks.html

  # Use another OpenAI-compatible endpoint and model
  bookmark-organizer organize bookmarks.html --api-base-url https://api.openai.com/v1 --model gpt-4o-mini

  # Write to a custom output file
  bookmark-organizer organize bookmarks.html --output sorted/bookmarks.html`,
	Args: cobra.ExactArgs(1),
	RunE: runOrganize,
}

func init() {
	// Add organize command to root
	rootCmd.AddCommand(organizeCmd)

	// Organize-specific flags
	organizeCmd.Flags().StringP("output", "o", "", "Output file path (default: sorted_bookmarks.html)")
	organizeCmd.Flags().String("api-key", "", "API key for the completion endpoint (required)")
	organizeCmd.Flags().String("api-base-url", "", "Base URL of an OpenAI-compatible endpoint (default: https://api.deepseek.com/v1)")
	organizeCmd.Flags().String("model", "", "Model name (default: deepseek-chat)")

	// Bind flags to viper
	viper.BindPFlag("output", organizeCmd.Flags().Lookup("output"))
	viper.BindPFlag("api.key", organizeCmd.Flags().Lookup("api-key"))
	viper.BindPFlag("api.base_url", organizeCmd.Flags().Lookup("api-base-url"))
	viper.BindPFlag("ai.model", organizeCmd.Flags().Lookup("model"))
}

func runOrganize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Missing credentials are fatal before any work starts
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logrus.Info("Starting bookmark-organizer run")

	// Step 1: Parse the bookmark file
	bookmarks, err := parser.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse bookmark file: %w", err)
	}

	if len(bookmarks) == 0 {
		logrus.Warn("No bookmarks with http(s) links found")
		if !cfg.Quiet {
			fmt.Println("No bookmarks found. Nothing to organize.")
		}
		return nil
	}

	// Step 2: Build the fetch and classify stages
	tracker := stats.NewStatTracker(len(bookmarks))
	if cfg.Verbose || cfg.Debug {
		tracker.SetProgressCallback(func(stage string, processed, total int64, url string, success bool) {
			logrus.Info(stats.FormatProgressUpdate(stage, processed, total, url, success))
		})
	}

	cls, err := newClassifier(cfg, tracker)
	if err != nil {
		return err
	}

	// Step 3: Fetch metadata and classify
	out, err := pipeline.Run(ctx, bookmarks, newFetcher(cfg, tracker), cls)
	if err != nil {
		return fmt.Errorf("organize run failed: %w", err)
	}
	tracker.Finish()

	if len(out.Items) == 0 {
		logrus.Warn("No bookmarks could be classified")
		if !cfg.Quiet {
			fmt.Println("No bookmarks could be classified. No output file will be created.")
		}
		return nil
	}

	// Step 4: Group and validate
	if err := exporter.Validate(out.Items); err != nil {
		return fmt.Errorf("classified bookmarks are invalid: %w", err)
	}
	groups := exporter.Group(out.Items)

	// Step 5: Write the output file
	if err := exporter.WriteFile(cfg.Output, exporter.Render(groups, exporter.Options{})); err != nil {
		return fmt.Errorf("failed to write bookmark file: %w", err)
	}

	// Step 6: Display summary statistics
	if !cfg.Quiet {
		fmt.Println(tracker.FormatSummary(false))
		printStatistics(exporter.Statistics(groups))
		fmt.Printf("Bookmark file written to: %s\n", cfg.Output)
	}

	logrus.Info("Organize run completed successfully")
	return nil
}

func printStatistics(counts map[string]int) {
	categories := make([]string, 0, len(counts))
	for category := range counts {
		if category != exporter.TotalKey {
			categories = append(categories, category)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if counts[categories[i]] != counts[categories[j]] {
			return counts[categories[i]] > counts[categories[j]]
		}
		return categories[i] < categories[j]
	})

	for _, category := range categories {
		fmt.Printf("  %-15s %d\n", category, counts[category])
	}
	fmt.Printf("  %-15s %d\n", exporter.TotalKey, counts[exporter.TotalKey])
}
