package tui

import (
	"fmt"
	"strings"

	"github.com/elsanchez/vidqueue/internal/domain"
)

const titleWidth = 50

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("vidqueue"))
	b.WriteString("  ")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")

	if m.adding {
		b.WriteString(" Add URL: ")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	if len(m.videos) == 0 {
		b.WriteString(m.styles.muted.Render(" No videos yet. Press a to add a URL."))
		b.WriteString("\n")
	} else {
		start, end := m.visibleRange()
		for i := start; i < end; i++ {
			b.WriteString(m.renderRow(i, m.videos[i]))
			b.WriteString("\n")
		}
		if !m.exhausted {
			b.WriteString(m.styles.muted.Render(" m: load older videos"))
			b.WriteString("\n")
		}
	}

	if len(m.notices) > 0 {
		b.WriteString("\n")
		for _, ev := range m.notices {
			b.WriteString(m.styles.warn.Render(" ! " + noticeText(ev.Kind, ev.Message)))
			b.WriteString("\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.err.Render(" Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.success.Render(" " + m.statusMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderStatus() string {
	if m.status == nil {
		return m.styles.muted.Render("connecting...")
	}
	var parts []string
	if !m.status.ProgramExists {
		parts = append(parts, m.styles.err.Render("yt-dlp not found"))
	}
	if m.status.Fetching {
		parts = append(parts, m.spinner.View()+" fetching")
	}
	if m.status.Downloading {
		parts = append(parts, m.spinner.View()+" downloading")
	}
	parts = append(parts, m.styles.muted.Render(fmt.Sprintf("%d videos, %d pending", m.status.Videos, m.status.Pending)))
	return strings.Join(parts, "  ")
}

func (m Model) renderRow(i int, v domain.VideoSnapshot) string {
	cursor := "  "
	title := fmt.Sprintf("%-*s", titleWidth, truncate(v.Info.Title, titleWidth))
	if i == m.cursor {
		cursor = m.styles.cursor.Render("> ")
		title = m.styles.selected.Render(title)
	}

	badge := m.styles.badges[v.State.String()].Render(v.State.String())

	var extra string
	switch v.State {
	case domain.StateDownloading:
		extra = m.progress.ViewAs(v.Progress) + fmt.Sprintf(" %3.0f%%", v.Progress*100)
	default:
		extra = m.styles.muted.Render(selectionLabel(v))
	}
	if v.DownloadThumbnail {
		extra += m.styles.muted.Render(" +thumb")
	}

	return cursor + badge + " " + title + "  " + extra
}

// visibleRange keeps the cursor on screen when the list is taller than the terminal
func (m Model) visibleRange() (int, int) {
	rows := m.height - 10
	if m.height == 0 || rows >= len(m.videos) {
		return 0, len(m.videos)
	}
	if rows < 1 {
		rows = 1
	}
	start := m.cursor - rows/2
	if start < 0 {
		start = 0
	}
	end := start + rows
	if end > len(m.videos) {
		end = len(m.videos)
		start = end - rows
	}
	return start, end
}

func selectionLabel(v domain.VideoSnapshot) string {
	if v.SelectedFormat == "" {
		if v.Info.AudioAvailable {
			return "audio only"
		}
		return "-"
	}
	if f, ok := v.Info.FindFormat(v.SelectedFormat); ok {
		return f.String()
	}
	return v.SelectedFormat
}

func noticeText(kind, message string) string {
	switch kind {
	case "fetch_bad_parse":
		return "unparsable metadata line: " + truncate(message, 60)
	case "process_error":
		return "yt-dlp failed: " + message
	default:
		return message
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
