package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/elsanchez/vidqueue/internal/domain"
)

const titleWidth = 48

func formatDuration(seconds uint32) string {
	if seconds == 0 {
		return "-"
	}
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatProgress(v domain.VideoSnapshot) string {
	switch v.State {
	case domain.StateDownloading:
		return fmt.Sprintf("%5.1f%%", v.Progress*100)
	case domain.StateComplete:
		return "100%"
	default:
		return "-"
	}
}

func formatSelection(v domain.VideoSnapshot) string {
	if v.SelectedFormat == "" {
		return "audio only"
	}
	if f, ok := v.Info.FindFormat(v.SelectedFormat); ok {
		return f.String()
	}
	return v.SelectedFormat
}

func formatAdded(createdAtMillis int64, now time.Time) string {
	if createdAtMillis <= 0 {
		return "-"
	}
	return humanize.RelTime(time.UnixMilli(createdAtMillis), now, "ago", "from now")
}

func truncate(s string, width int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

func videoTitle(v domain.VideoSnapshot) string {
	switch {
	case v.Info.Title != "":
		return v.Info.Title
	case v.Info.VideoID != "":
		return v.Info.VideoID
	default:
		return v.Info.SourceURL
	}
}

func videoRows(videos []domain.VideoSnapshot, now time.Time) [][]string {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []string{
			fmt.Sprintf("%d", v.ID),
			truncate(videoTitle(v), titleWidth),
			formatDuration(v.Info.DurationSeconds),
			formatSelection(v),
			v.State.String(),
			formatProgress(v),
			formatAdded(v.CreatedAt, now),
		})
	}
	return rows
}
