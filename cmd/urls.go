package cmd

import (
	"fmt"

	"bookmark-organizer/internal/parser"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var urlsCmd = &cobra.Command{
	Use:   "urls [bookmarks file]",
	Short: "Print the http(s) links of a bookmark export",
	Long: `Urls parses a NETSCAPE bookmark export and prints one URL per line. Links
without an http or https scheme are skipped.

Examples:
  bookmark-organizer urls bookmarks.html > urls.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runURLs,
}

func init() {
	rootCmd.AddCommand(urlsCmd)
}

func runURLs(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	bookmarks, err := parser.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse bookmark file: %w", err)
	}

	for _, url := range parser.URLs(bookmarks) {
		fmt.Fprintln(cmd.OutOrStdout(), url)
	}

	logrus.WithField("url_count", len(bookmarks)).Info("Listed bookmark URLs")
	return nil
}
