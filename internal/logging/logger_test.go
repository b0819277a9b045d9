package logging_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elsanchez/vidqueue/internal/logging"
)

func newFileLogger(t *testing.T, format, level string) (func(), string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "vidqueued.log")
	noColor := false

	logger, closer, err := logging.New(logging.Options{
		Level:       level,
		Format:      format,
		OutputPaths: []string{path},
		Color:       &noColor,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	write := func() {
		l := logger.With("component", "engine")
		l.Debug("debug detail", "video_id", 7)
		l.Info("download started", "video_id", 12, "invocation", "abc", "args", "with space")
		l.Error("yt-dlp failed", "error", errors.New("exit status 1"))
		closer.Close()
	}
	return write, path
}

func TestConsoleFormat(t *testing.T) {
	write, path := newFileLogger(t, "console", "info")
	write()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)

	if strings.Contains(out, "debug detail") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(out, "INFO [engine] video #12 – download started") {
		t.Errorf("unexpected header in %q", out)
	}
	if !strings.Contains(out, `args="with space"`) {
		t.Errorf("values with spaces must be quoted: %q", out)
	}
	if !strings.Contains(out, `error="exit status 1"`) {
		t.Errorf("error attribute missing: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("colour codes written to a file")
	}
}

func TestJSONFormat(t *testing.T) {
	write, path := newFileLogger(t, "json", "debug")
	write()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 records, got %d", len(lines))
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &record); err != nil {
		t.Fatalf("invalid json record: %v", err)
	}
	if record["level"] != "info" || record["msg"] != "download started" || record["component"] != "engine" {
		t.Errorf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Error("expected ts key")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
