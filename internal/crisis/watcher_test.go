package crisis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const watchedKeywords = `version: "%s"
categories:
  - category: SUICIDE_RISK
    keywords: ["не хочу жить"]
    thresholds:
      - { min_matches: 1, severity: HIGH }
`

func writeKeywords(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write keyword file: %v", err)
	}
}

func waitForVersion(h *Holder, want string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if h.Load().Version() == want {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestWatchFile_ReloadsAndKeepsLastGoodConfig(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watcher test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	writeKeywords(t, path, fmt.Sprintf(watchedKeywords, "v1"))

	cfg, err := LoadKeywordsFile(path)
	if err != nil {
		t.Fatalf("initial load: %v", err)
	}
	holder := NewHolder(MustNewScreener(cfg))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w, err := watchFile(context.Background(), path, holder, logger, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("watchFile: %v", err)
	}
	defer w.Close()

	writeKeywords(t, path, fmt.Sprintf(watchedKeywords, "v2"))
	if !waitForVersion(holder, "v2", 5*time.Second) {
		t.Fatalf("keyword file change was not picked up, version is %s", holder.Load().Version())
	}

	writeKeywords(t, path, "categories: [")
	time.Sleep(200 * time.Millisecond)
	if got := holder.Load().Version(); got != "v2" {
		t.Errorf("broken file should keep v2, got %s", got)
	}
}

func TestHolder_StoreIgnoresNil(t *testing.T) {
	initial := MustNewScreener(nil)
	h := NewHolder(initial)

	h.Store(nil)

	if h.Load() != initial {
		t.Errorf("nil store replaced the active screener")
	}
}
