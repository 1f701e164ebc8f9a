package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bookmark-organizer/internal/model"
	"bookmark-organizer/internal/urlutil"

	"github.com/sirupsen/logrus"
)

// TotalKey is the Statistics entry holding the overall count
const TotalKey = "Total"

// Options controls document rendering
type Options struct {
	Title       string
	ToolbarName string
	// Now supplies ADD_DATE; defaults to time.Now
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Bookmarks"
	}
	if o.ToolbarName == "" {
		o.ToolbarName = "Bookmarks bar"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Render produces a NETSCAPE-Bookmark-file-1 document with one folder per
// category. Domains with more than one bookmark become a nested folder
// holding the home entry first and then the sub-pages.
func Render(groups []CategoryGroup, opts Options) string {
	opts = opts.withDefaults()
	stamp := strconv.FormatInt(opts.Now().Unix(), 10)

	w := &docWriter{}
	w.line(0, "<!DOCTYPE NETSCAPE-Bookmark-file-1>")
	w.line(0, "<!-- This is an automatically generated file.")
	w.line(0, "     It will be read and overwritten.")
	w.line(0, "     DO NOT EDIT! -->")
	w.line(0, `<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">`)
	w.line(0, "<TITLE>%s</TITLE>", html.EscapeString(opts.Title))
	w.line(0, "<H1>%s</H1>", html.EscapeString(opts.Title))
	w.line(0, "<DL><p>")
	w.line(1, `<DT><H3 ADD_DATE="%s" PERSONAL_TOOLBAR_FOLDER="true">%s</H3>`, stamp, html.EscapeString(opts.ToolbarName))
	w.line(1, "<DL><p>")

	for _, category := range groups {
		if category.Len() == 0 {
			continue
		}

		w.folder(2, category.Category, stamp)
		for _, domain := range category.Domains {
			if domain.Len() == 1 {
				w.link(3, domain.Items()[0], stamp)
				continue
			}

			w.folder(3, domain.Title(), stamp)
			for _, item := range domain.Items() {
				w.link(4, item, stamp)
			}
			w.line(3, "</DL><p>")
		}
		w.line(2, "</DL><p>")
	}

	w.line(1, "</DL><p>")
	w.line(0, "</DL><p>")

	return w.String()
}

type docWriter struct {
	strings.Builder
}

func (w *docWriter) line(depth int, format string, args ...interface{}) {
	w.WriteString(strings.Repeat("    ", depth))
	if len(args) == 0 {
		w.WriteString(format)
	} else {
		fmt.Fprintf(w, format, args...)
	}
	w.WriteString("\n")
}

func (w *docWriter) folder(depth int, name, stamp string) {
	w.line(depth, `<DT><H3 ADD_DATE="%s">%s</H3>`, stamp, html.EscapeString(name))
	w.line(depth, "<DL><p>")
}

func (w *docWriter) link(depth int, item model.ClassifiedBookmark, stamp string) {
	w.line(depth, `<DT><A HREF="%s" ADD_DATE="%s">%s</A>`, html.EscapeString(item.URL), stamp, html.EscapeString(item.Key()))
}

// Validate checks that there is something to export and every URL is a web URL
func Validate(items []model.ClassifiedBookmark) error {
	if len(items) == 0 {
		return fmt.Errorf("no classified bookmarks to export")
	}

	for i, item := range items {
		if !urlutil.IsWebURL(item.URL) {
			return fmt.Errorf("item %d has an invalid URL %q", i, item.URL)
		}
		if item.Name == "" {
			logrus.WithField("url", item.URL).Warn("Classified bookmark has no name")
		}
	}

	logrus.WithField("item_count", len(items)).Debug("Export validation passed")
	return nil
}

// WriteFile writes content to path through a temporary file in the same directory
func WriteFile(path, content string) error {
	logrus.WithField("file_path", path).Info("Writing bookmark file")

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".bookmarks-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write bookmark file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close bookmark file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move bookmark file into place: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"file_path": path,
		"bytes":     len(content),
	}).Info("Successfully wrote bookmark file")

	return nil
}

// Statistics returns the number of bookmarks per category plus a Total entry
func Statistics(groups []CategoryGroup) map[string]int {
	stats := make(map[string]int, len(groups)+1)
	total := 0
	for _, g := range groups {
		stats[g.Category] = g.Len()
		total += g.Len()
	}
	stats[TotalKey] = total
	return stats
}
