package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bookmark-organizer/internal/model"
)

func item(name, category, url string) model.ClassifiedBookmark {
	return model.ClassifiedBookmark{Name: name, Description: name + " desc", Category: category, URL: url}
}

func fixedClock() time.Time {
	return time.Unix(1700000000, 0)
}

func TestGroup_HomepageNestsSubPages(t *testing.T) {
	groups := Group([]model.ClassifiedBookmark{
		item("Docs", "Programming", "https://example.com/docs"),
		item("Example", "Design", "https://example.com/"),
		item("Blog", "News", "https://example.com/blog"),
	})

	if len(groups) != 1 || groups[0].Category != "Design" {
		t.Fatalf("expected a single Design category from the home entry, got %+v", groups)
	}
	domain := groups[0].Domains[0]
	if domain.Home == nil || domain.Home.Name != "Example" {
		t.Fatalf("expected Example as home, got %+v", domain.Home)
	}
	if len(domain.Pages) != 2 || domain.Pages[0].Name != "Docs" || domain.Pages[1].Name != "Blog" {
		t.Errorf("unexpected pages %+v", domain.Pages)
	}

	doc := Render(groups, Options{Now: fixedClock})

	home := strings.Index(doc, `<DT><H3 ADD_DATE="1700000000">Example</H3>`)
	homeLink := strings.Index(doc, `<A HREF="https://example.com/"`)
	docs := strings.Index(doc, `<A HREF="https://example.com/docs"`)
	blog := strings.Index(doc, `<A HREF="https://example.com/blog"`)
	if home < 0 || homeLink < home || docs < homeLink || blog < docs {
		t.Errorf("expected docs and blog nested after the home entry:\n%s", doc)
	}
	if !strings.Contains(doc, "                <DT><A HREF=\"https://example.com/docs\"") {
		t.Errorf("expected sub-pages one level below the category:\n%s", doc)
	}
}

func TestGroup_MajorityCategoryWithoutHome(t *testing.T) {
	groups := Group([]model.ClassifiedBookmark{
		item("A", "News", "https://site.test/a"),
		item("B", "Social", "https://site.test/b"),
		item("C", "Social", "https://www.site.test/c"),
	})

	if len(groups) != 1 || groups[0].Category != "Social" {
		t.Fatalf("expected Social by majority, got %+v", groups)
	}
	if groups[0].Domains[0].Title() != "site.test" {
		t.Errorf("expected domain title, got %q", groups[0].Domains[0].Title())
	}
}

func TestGroup_TieGoesToFirstSeen(t *testing.T) {
	groups := Group([]model.ClassifiedBookmark{
		item("A", "News", "https://site.test/a"),
		item("B", "Social", "https://site.test/b"),
	})

	if groups[0].Category != "News" {
		t.Errorf("expected first-seen category on a tie, got %q", groups[0].Category)
	}
}

func TestGroup_CategoryOrderFollowsFirstAppearance(t *testing.T) {
	groups := Group([]model.ClassifiedBookmark{
		item("Go", "Programming", "https://go.dev/"),
		item("HN", "News", "https://news.ycombinator.com/"),
		item("Rust", "Programming", "https://rust-lang.org/"),
	})

	if len(groups) != 2 || groups[0].Category != "Programming" || groups[1].Category != "News" {
		t.Fatalf("unexpected category order %+v", groups)
	}
	if len(groups[0].Domains) != 2 {
		t.Errorf("expected two Programming domains, got %d", len(groups[0].Domains))
	}
}

func TestRender_EscapesAndUsesClock(t *testing.T) {
	groups := Group([]model.ClassifiedBookmark{
		{Name: "Tom & Jerry", Description: "<cartoons>", Category: "Entertainment", URL: `https://tv.test/?a=1&b="2"`},
	})
	doc := Render(groups, Options{Now: fixedClock})

	for _, want := range []string{
		"<!DOCTYPE NETSCAPE-Bookmark-file-1>",
		`PERSONAL_TOOLBAR_FOLDER="true">Bookmarks bar</H3>`,
		`<DT><H3 ADD_DATE="1700000000">Entertainment</H3>`,
		`HREF="https://tv.test/?a=1&amp;b=&#34;2&#34;"`,
		">Tom &amp; Jerry - &lt;cartoons&gt;</A>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
	if strings.Count(doc, "<DL><p>") != strings.Count(doc, "</DL><p>") {
		t.Error("unbalanced folder markup")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("expected an error for no items")
	}
	if err := Validate([]model.ClassifiedBookmark{item("x", "AI", "ftp://x.test")}); err == nil {
		t.Error("expected an error for a non-web URL")
	}
	if err := Validate([]model.ClassifiedBookmark{item("x", "AI", "https://x.test")}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStatistics(t *testing.T) {
	groups := Group([]model.ClassifiedBookmark{
		item("Go", "Programming", "https://go.dev/"),
		item("Go docs", "Programming", "https://go.dev/doc"),
		item("HN", "News", "https://news.ycombinator.com/"),
	})

	stats := Statistics(groups)
	if stats["Programming"] != 2 || stats["News"] != 1 || stats[TotalKey] != 3 {
		t.Errorf("unexpected statistics %v", stats)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.html")

	if err := WriteFile(path, "first"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := WriteFile(path, "second"); err != nil {
		t.Fatalf("WriteFile overwrite: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("unexpected content %q", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected temporary files to be cleaned up, found %d entries", len(entries))
	}
}
