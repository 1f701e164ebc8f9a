package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"bookmark-organizer/internal/model"
	"bookmark-organizer/internal/urlutil"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// ParseFile reads a NETSCAPE bookmark export from disk
func ParseFile(path string) ([]model.Bookmark, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("bookmark file does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to open bookmark file: %w", err)
	}
	defer file.Close()

	bookmarks, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"file":      path,
		"bookmarks": len(bookmarks),
	}).Info("Parsed bookmark file")

	return bookmarks, nil
}

// Parse extracts every http(s) link from a NETSCAPE bookmark document.
// Folder names come from the <H3> heading preceding each <DL> list.
func Parse(r io.Reader) ([]model.Bookmark, error) {
	z := html.NewTokenizer(r)

	var (
		bookmarks     []model.Bookmark
		folders       []string
		pendingFolder string
		current       *model.Bookmark
		text          strings.Builder
		inAnchor      bool
		inHeading     bool
		inDescription bool
		dropped       int
		describes     = -1
	)

	finishDescription := func() {
		if inDescription && describes >= 0 {
			bookmarks[describes].Description = collapse(text.String())
		}
		inDescription = false
		text.Reset()
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				finishDescription()
				logrus.WithFields(logrus.Fields{
					"bookmarks": len(bookmarks),
					"dropped":   dropped,
				}).Debug("Finished parsing bookmark document")
				return bookmarks, nil
			}
			return nil, fmt.Errorf("failed to tokenize bookmark document: %w", z.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)

			switch tag {
			case "dt", "dl", "a", "h3":
				finishDescription()
			}

			switch tag {
			case "a":
				attrs := readAttrs(z, hasAttr)
				href := strings.TrimSpace(attrs["href"])
				if !urlutil.IsWebURL(href) {
					logrus.WithField("href", href).Debug("Skipping non-web link")
					dropped++
					current = nil
					describes = -1
					continue
				}
				current = &model.Bookmark{
					URL:     href,
					Folder:  strings.Join(nonEmpty(folders), "/"),
					AddDate: parseUnix(attrs["add_date"]),
				}
				inAnchor = true
				text.Reset()
			case "h3":
				inHeading = true
				describes = -1
				text.Reset()
			case "dl":
				folders = append(folders, pendingFolder)
				pendingFolder = ""
			case "dd":
				inDescription = true
				text.Reset()
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "a":
				if inAnchor && current != nil {
					current.Title = collapse(text.String())
					bookmarks = append(bookmarks, *current)
					describes = len(bookmarks) - 1
				}
				inAnchor = false
				current = nil
				text.Reset()
			case "h3":
				if inHeading {
					pendingFolder = collapse(text.String())
				}
				inHeading = false
				text.Reset()
			case "dl":
				finishDescription()
				if len(folders) > 0 {
					folders = folders[:len(folders)-1]
				}
			}

		case html.TextToken:
			if inAnchor || inHeading || inDescription {
				text.Write(z.Text())
			}
		}
	}
}

// URLs returns the URL of every bookmark in order
func URLs(bookmarks []model.Bookmark) []string {
	urls := make([]string, len(bookmarks))
	for i, b := range bookmarks {
		urls[i] = b.URL
	}
	return urls
}

func readAttrs(z *html.Tokenizer, hasAttr bool) map[string]string {
	attrs := make(map[string]string)
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		attrs[strings.ToLower(string(key))] = string(val)
	}
	return attrs
}

func parseUnix(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
