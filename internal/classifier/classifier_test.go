package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bookmark-organizer/internal/model"
	"bookmark-organizer/internal/retry"
	"bookmark-organizer/internal/stats"
)

// fakeCompleter answers prompts with a user-supplied function and records them
type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(prompt)
}

func (f *fakeCompleter) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func reply(name, description, category, url string) string {
	return fmt.Sprintf("Name: %s\nDescription: %s\nCategory: %s\nUrl: %s", name, description, category, url)
}

// urlFromPrompt pulls the URL out of either tier's prompt
func urlFromPrompt(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		for _, prefix := range []string{"URL: ", "- Full URL: "} {
			if strings.HasPrefix(line, prefix) {
				return strings.TrimPrefix(line, prefix)
			}
		}
	}
	return ""
}

func isBackupPrompt(prompt string) bool {
	return strings.Contains(prompt, "URL analysis:")
}

func testConfig() Config {
	return Config{
		MaxConcurrency: 3,
		Retry:          retry.Policy{Attempts: 2},
		Categories:     model.DefaultCategorySet(),
	}
}

func bookmarks(n int) []model.Bookmark {
	out := make([]model.Bookmark, n)
	for i := range out {
		out[i] = model.Bookmark{
			Title:       fmt.Sprintf("Site %d", i),
			Description: fmt.Sprintf("Description %d", i),
			URL:         fmt.Sprintf("https://site%d.test/", i),
		}
	}
	return out
}

func assertConsistent(t *testing.T, c *Classifier) {
	t.Helper()

	items := c.GetItems()
	grouped := c.GetResult()

	total := 0
	for category, entries := range grouped {
		if !model.DefaultCategorySet().Contains(category) {
			t.Errorf("category %q is not in the category set", category)
		}
		total += len(entries)
	}
	if total != len(items) {
		t.Fatalf("grouped result has %d entries, item list has %d", total, len(items))
	}
	for _, item := range items {
		if grouped[item.Category][item.Key()] != item.URL {
			t.Errorf("item %+v missing from grouped result", item)
		}
	}
}

func TestClassifyAll_AllPrimarySucceed(t *testing.T) {
	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		url := urlFromPrompt(prompt)
		return reply("Name "+url, "Desc", "Programming", url), nil
	}}

	input := bookmarks(10)
	tracker := stats.NewStatTracker(len(input))
	c := New(testConfig(), completer, tracker)

	report := c.ClassifyAll(context.Background(), input)

	if report.PrimarySucceeded != 10 || report.BackupAttempted != 0 {
		t.Errorf("unexpected report %+v", report)
	}
	if len(c.GetItems()) != 10 {
		t.Fatalf("expected 10 items, got %d", len(c.GetItems()))
	}
	if c.GetStatistics()["Programming"] != 10 {
		t.Errorf("unexpected statistics %v", c.GetStatistics())
	}
	if got := tracker.GetStats().PrimarySucceeded; got != 10 {
		t.Errorf("tracker recorded %d primary successes", got)
	}
	for _, p := range completer.Prompts() {
		if isBackupPrompt(p) {
			t.Fatal("backup tier should not run when primary succeeds")
		}
	}
	assertConsistent(t, c)
}

func TestClassifyAll_FailuresRouteToBackupOnce(t *testing.T) {
	input := bookmarks(6)
	// bookmarks 0-2 have no metadata, 3 gets a malformed primary reply
	for i := 0; i < 3; i++ {
		input[i] = input[i].WithMetadata(model.SentinelMetadata)
	}

	var mu sync.Mutex
	backupCalls := map[string]int{}

	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		url := urlFromPrompt(prompt)
		if isBackupPrompt(prompt) {
			mu.Lock()
			backupCalls[url]++
			mu.Unlock()
			if url == input[0].URL {
				return "", errors.New("upstream unavailable")
			}
			return reply("Backup "+url, "From URL", "Online-Tools", url), nil
		}
		if url == input[3].URL {
			return "Name: only a name", nil
		}
		return reply("Primary "+url, "From content", "News", url), nil
	}}

	tracker := stats.NewStatTracker(len(input))
	c := New(testConfig(), completer, tracker)
	report := c.ClassifyAll(context.Background(), input)

	if report.PrimarySucceeded != 2 {
		t.Errorf("expected 2 primary successes, got %d", report.PrimarySucceeded)
	}
	if report.BackupAttempted != 4 || report.BackupSucceeded != 3 {
		t.Errorf("unexpected backup counts %+v", report)
	}
	if report.Classified() != 5 || len(c.GetItems()) != 5 {
		t.Errorf("expected 5 classified, got %d (%d items)", report.Classified(), len(c.GetItems()))
	}
	if len(report.Dropped) != 1 || report.Dropped[0] != input[0].URL {
		t.Errorf("unexpected dropped list %v", report.Dropped)
	}

	// each failed bookmark reaches backup exactly once; retries happen inside one call
	for _, b := range input[:4] {
		want := 1
		if b.URL == input[0].URL {
			want = 2
		}
		if backupCalls[b.URL] != want {
			t.Errorf("backup saw %s %d times, want %d", b.URL, backupCalls[b.URL], want)
		}
	}
	for _, b := range input[4:] {
		if backupCalls[b.URL] != 0 {
			t.Errorf("primary success %s reached backup", b.URL)
		}
	}

	// sentinel bookmarks never reach the model in the primary tier
	for _, p := range completer.Prompts() {
		if isBackupPrompt(p) {
			continue
		}
		for _, b := range input[:3] {
			if urlFromPrompt(p) == b.URL {
				t.Errorf("primary prompt sent for sentinel bookmark %s", b.URL)
			}
		}
	}

	s := tracker.GetStats()
	if s.PrimaryFailed != 4 || s.BackupSucceeded != 3 || s.Dropped() != 1 {
		t.Errorf("unexpected tracker counters %+v", s)
	}
	assertConsistent(t, c)
}

func TestClassifyAll_BackupUsesURLNotTitle(t *testing.T) {
	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		if !isBackupPrompt(prompt) {
			return "I cannot tell what asdf is.", nil
		}
		if strings.Contains(prompt, "github.com") {
			return reply("GitHub", "Code hosting", "Programming", "https://github.com/foo"), nil
		}
		return reply("Unknown", "Unknown", "Entertainment", "https://unknown.test"), nil
	}}

	c := New(testConfig(), completer, nil)
	report := c.ClassifyAll(context.Background(), []model.Bookmark{
		{Title: "asdf", Description: model.SentinelDescription, URL: "https://github.com/foo"},
	})

	if report.BackupSucceeded != 1 {
		t.Fatalf("expected backup to classify the bookmark, got %+v", report)
	}
	items := c.GetItems()
	if len(items) != 1 || items[0].Category != "Programming" {
		t.Fatalf("expected a Programming item, got %+v", items)
	}
	if items[0].URL != "https://github.com/foo" {
		t.Errorf("expected the bookmark URL to be kept, got %q", items[0].URL)
	}

	for _, p := range completer.Prompts() {
		if isBackupPrompt(p) && strings.Contains(p, "asdf") {
			t.Errorf("backup prompt must not include the title:\n%s", p)
		}
	}
}

func TestClassifyAll_UnknownCategoryClamped(t *testing.T) {
	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		url := urlFromPrompt(prompt)
		return reply("Name", "Desc", "Cooking", url), nil
	}}

	c := New(testConfig(), completer, nil)
	c.ClassifyAll(context.Background(), bookmarks(1))

	items := c.GetItems()
	if len(items) != 1 || items[0].Category != model.DefaultCategory {
		t.Fatalf("expected clamped category, got %+v", items)
	}
}

func TestClassifyAll_KeyCollisionKeepsLater(t *testing.T) {
	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		return reply("Same", "Same", "AI", urlFromPrompt(prompt)), nil
	}}

	c := New(testConfig(), completer, nil)
	report := c.ClassifyAll(context.Background(), bookmarks(3))

	if report.Classified() != 3 {
		t.Errorf("expected 3 classifications, got %d", report.Classified())
	}
	if len(c.GetItems()) != 1 {
		t.Fatalf("expected a single surviving item, got %d", len(c.GetItems()))
	}
	assertConsistent(t, c)
}

func TestClassifyAll_CanceledContextDropsEverything(t *testing.T) {
	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		return reply("Name", "Desc", "AI", urlFromPrompt(prompt)), nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(testConfig(), completer, nil)
	report := c.ClassifyAll(ctx, bookmarks(4))

	if report.Classified() != 0 || len(report.Dropped) != 4 {
		t.Errorf("unexpected report after cancel %+v", report)
	}
	if len(completer.Prompts()) != 0 {
		t.Errorf("expected no model calls, got %d", len(completer.Prompts()))
	}
}

func TestClassify_PanicBecomesFailure(t *testing.T) {
	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		panic("model client exploded")
	}}

	p := NewPrimary(completer, testConfig())
	outcomes := p.classifyAll(context.Background(), bookmarks(2), nil)

	for _, o := range outcomes {
		if o.OK() || o.Err == nil {
			t.Errorf("expected failure outcome, got %+v", o)
		}
	}
}

func TestPrimaryPrompt(t *testing.T) {
	set := model.DefaultCategorySet()
	b := model.Bookmark{Title: "Go", Description: "The Go language", URL: "https://go.dev"}

	prompt, err := primaryPrompt(b, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Title: Go", "Description: The Go language", "URL: https://go.dev", "Programming, AI, VPN", "Url: xxx"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if _, err := primaryPrompt(b.WithMetadata(model.SentinelMetadata), set); !errors.Is(err, ErrNoMetadata) {
		t.Errorf("expected ErrNoMetadata, got %v", err)
	}
}

func TestBackupPrompt(t *testing.T) {
	b := model.Bookmark{Title: "misleading", Description: "nonsense", URL: "https://docs.example.co/guide/setup?lang=go"}

	prompt, err := backupPrompt(b, model.DefaultCategorySet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Main domain: example.co", "Subdomain: docs", "guide, setup, lang=go"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	for _, unwanted := range []string{"misleading", "nonsense"} {
		if strings.Contains(prompt, unwanted) {
			t.Errorf("prompt leaks %q", unwanted)
		}
	}
}

func TestPrimaryClassify(t *testing.T) {
	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		url := urlFromPrompt(prompt)
		if url == "https://broken.test/" {
			return "Category: Programming", nil
		}
		return reply("Go", "The Go language", "Programming", "https://echoed.test/"), nil
	}}
	p := NewPrimary(completer, testConfig())

	out := p.Classify(context.Background(), model.Bookmark{Title: "Go", Description: "Docs", URL: "https://go.dev/"})
	if !out.OK() || out.Tier != TierPrimary {
		t.Fatalf("expected primary success, got %+v", out)
	}
	if out.Item.URL != "https://go.dev/" {
		t.Errorf("expected the bookmark URL to be kept, got %q", out.Item.URL)
	}

	sentinel := model.Bookmark{URL: "https://blocked.test/"}.WithMetadata(model.SentinelMetadata)
	calls := len(completer.Prompts())
	if out := p.Classify(context.Background(), sentinel); !errors.Is(out.Err, ErrNoMetadata) {
		t.Errorf("expected ErrNoMetadata, got %v", out.Err)
	}
	if len(completer.Prompts()) != calls {
		t.Error("bookmark without metadata reached the model")
	}

	out = p.Classify(context.Background(), model.Bookmark{Title: "Broken", Description: "Reply", URL: "https://broken.test/"})
	if out.OK() || !errors.Is(out.Err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %+v", out)
	}
}

func TestBackupClassify_UsesURLOnly(t *testing.T) {
	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		return reply("GitHub", "Code hosting", "Programming", urlFromPrompt(prompt)), nil
	}}
	b := NewBackup(completer, testConfig())

	out := b.Classify(context.Background(), model.Bookmark{Title: "asdf", URL: "https://github.com/foo"})
	if !out.OK() || out.Tier != TierBackup || out.Item.Category != "Programming" {
		t.Fatalf("expected backup success, got %+v", out)
	}

	prompts := completer.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("expected one model call, got %d", len(prompts))
	}
	if strings.Contains(prompts[0], "asdf") {
		t.Errorf("backup prompt contains the bookmark title:\n%s", prompts[0])
	}
	if !strings.Contains(prompts[0], "Main domain: github.com") {
		t.Errorf("backup prompt missing the domain:\n%s", prompts[0])
	}
}

func TestBackupClassifyFailed_ReportsEachOutcome(t *testing.T) {
	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		url := urlFromPrompt(prompt)
		if url == "https://site1.test/" {
			return "", errors.New("upstream unavailable")
		}
		return reply("Site", "From URL", "Online-Tools", url), nil
	}}
	b := NewBackup(completer, testConfig())

	var mu sync.Mutex
	seen := map[string]bool{}
	outcomes := b.ClassifyFailed(context.Background(), bookmarks(3), func(o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		seen[o.Bookmark.URL] = o.OK()
	})

	if len(outcomes) != 3 || len(seen) != 3 {
		t.Fatalf("expected 3 outcomes and callbacks, got %d and %d", len(outcomes), len(seen))
	}
	if seen["https://site1.test/"] || !seen["https://site0.test/"] || !seen["https://site2.test/"] {
		t.Errorf("unexpected outcomes %v", seen)
	}
}

func TestTier_RespectsMaxConcurrency(t *testing.T) {
	const limit = 2

	var inFlight, peak int32
	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return reply("Name", "Desc", "AI", urlFromPrompt(prompt)), nil
	}}

	config := testConfig()
	config.MaxConcurrency = limit
	p := NewPrimary(completer, config)

	for _, o := range p.classifyAll(context.Background(), bookmarks(12), nil) {
		if !o.OK() {
			t.Errorf("unexpected failure %+v", o)
		}
	}
	if got := atomic.LoadInt32(&peak); got > limit {
		t.Errorf("peak in-flight model calls %d exceeds limit %d", got, limit)
	}
	if got := atomic.LoadInt32(&peak); got < 2 {
		t.Errorf("expected model calls to overlap, peak was %d", got)
	}
}

func TestTier_RetryDelayReleasesPermit(t *testing.T) {
	slow := model.Bookmark{Title: "Slow", Description: "Flaky", URL: "https://slow.test/"}
	fast := model.Bookmark{Title: "Fast", Description: "Fine", URL: "https://fast.test/"}

	firstAttempt := make(chan struct{})
	var slowCalls int32
	completer := &fakeCompleter{respond: func(prompt string) (string, error) {
		url := urlFromPrompt(prompt)
		if url == slow.URL && atomic.AddInt32(&slowCalls, 1) == 1 {
			close(firstAttempt)
			return "", errors.New("temporary failure")
		}
		return reply("Name", "Desc", "AI", url), nil
	}}

	config := testConfig()
	config.MaxConcurrency = 1
	config.Retry = retry.Policy{Attempts: 2, Delay: 500 * time.Millisecond}
	p := NewPrimary(completer, config)

	slowDone := make(chan Outcome, 1)
	go func() { slowDone <- p.Classify(context.Background(), slow) }()

	<-firstAttempt
	if out := p.Classify(context.Background(), fast); !out.OK() {
		t.Fatalf("expected success, got %+v", out)
	}

	select {
	case <-slowDone:
		t.Fatal("second bookmark waited for the first one's retry delay")
	default:
	}

	if out := <-slowDone; !out.OK() {
		t.Errorf("expected retry to succeed, got %+v", out)
	}
}
