package main

import (
	"strings"
	"testing"
	"time"

	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/pkg/client"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		args    []string
		want    []int64
		wantErr bool
	}{
		{[]string{"1", "#2", "30"}, []int64{1, 2, 30}, false},
		{[]string{"0"}, nil, true},
		{[]string{"abc"}, nil, true},
		{[]string{"-4"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, ","), func(t *testing.T) {
			got, err := parseIDs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseIDs(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseIDs(%v) = %v, want %v", tt.args, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseIDs(%v)[%d] = %d, want %d", tt.args, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  uint32
		expected string
	}{
		{0, "-"},
		{59, "0:59"},
		{61, "1:01"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.expected {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.seconds, got, tt.expected)
		}
	}
}

func TestFormatSelectionAndProgress(t *testing.T) {
	v := domain.VideoSnapshot{
		Info: domain.VideoInfo{
			Formats: []domain.VideoFormat{{FormatID: "137", Container: "mp4", Width: 1920, Height: 1080, FPS: 30}},
		},
		SelectedFormat: "137",
		State:          domain.StateDownloading,
		Progress:       0.425,
	}

	if got := formatSelection(v); got != "137 mp4 1920x1080@30" {
		t.Errorf("unexpected selection label %q", got)
	}
	if got := formatProgress(v); got != " 42.5%" {
		t.Errorf("unexpected progress %q", got)
	}

	v.SelectedFormat = ""
	v.State = domain.StateAdded
	if got := formatSelection(v); got != "audio only" {
		t.Errorf("unexpected selection label %q", got)
	}
	if got := formatProgress(v); got != "-" {
		t.Errorf("unexpected progress %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  short  ", 10); got != "short" {
		t.Errorf("truncate kept spaces: %q", got)
	}
	if got := truncate("ñandú con plumas", 6); got != "ñandú…" {
		t.Errorf("truncate must count runes, got %q", got)
	}
}

func TestFormatEvent(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)

	warning := formatEvent(client.Event{Seq: 7, Time: ts, Kind: "process_error", VideoID: 3, Message: "yt-dlp download exited with code 1\n"})
	if !strings.Contains(warning, "#3") || !strings.HasSuffix(warning, "exited with code 1") {
		t.Errorf("unexpected event line %q", warning)
	}

	flag := formatEvent(client.Event{Seq: 8, Time: ts, Kind: "downloading_changed", Flag: true})
	if !strings.HasSuffix(flag, " yes") {
		t.Errorf("expected flag value in %q", flag)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "Title"}, [][]string{{"1"}, {"2", "clip"}}, []columnAlignment{alignRight})
	if !strings.Contains(out, "clip") || !strings.Contains(strings.ToUpper(out), "TITLE") {
		t.Errorf("unexpected table:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("expected empty output without headers")
	}
}
