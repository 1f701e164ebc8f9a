package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "bookmark-organizer",
	Short: "Sort a browser bookmark export into categories with an AI model",
	Long: `bookmark-organizer reads a browser bookmark export (NETSCAPE bookmark file),
fetches the title and description of every linked page, asks a language model
to file each bookmark under one of a fixed set of categories, and writes a new
bookmark file grouped by category and by site.

Features:
• Concurrent metadata fetching with several anti-bot strategies
• Two-tier classification: content-based first, URL-only for the rest
• Any OpenAI-compatible completion endpoint (DeepSeek by default)
• Sub-pages nested under their site's homepage in the output
• Per-run metadata cache, retries with backoff, structured logging

Examples:
  # Organize an export into sorted_bookmarks.html
  bookmark-organizer organize bookmarks.html --api-key sk-...

  # Write somewhere else with fewer concurrent requests
  bookmark-organizer organize bookmarks.html -o out/sorted.html -c 20

  # List the URLs of an export
  bookmark-organizer urls bookmarks.html

  # Check what metadata a page yields
  bookmark-organizer meta https://go.dev https://github.com

Configuration:
  Create a bookmark-organizer.yaml file in your current directory with:

  api:
    key: "your-api-key"
    base_url: "https://api.deepseek.com/v1"
  ai:
    model: "deepseek-chat"

  Every key can also be set as BOOKMARK_ORGANIZER_<KEY> (dots become
  underscores); the API key is also read from DEEPSEEK_API_KEY.`,
	Version: "1.0.0",
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Configuration file path (default: ./bookmark-organizer.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress summary output (errors/warnings still shown)")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file")

	// Network flags shared by every command that fetches pages
	rootCmd.PersistentFlags().IntP("concurrency", "c", 0, "Maximum concurrent requests (default: 100)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "HTTP request timeout (default: 8s)")
	rootCmd.PersistentFlags().Int("max-retries", -1, "HTTP retries per request on retryable status codes (default: 2)")

	// Bind global flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("network.max_concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
	viper.BindPFlag("network.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("network.max_retries", rootCmd.PersistentFlags().Lookup("max-retries"))
}

// Execute runs the root command; SIGINT and SIGTERM cancel the run
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
