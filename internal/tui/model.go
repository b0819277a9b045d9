// Package tui implements the interactive queue view served by vq tui.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/vidqueue/internal/config"
	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/pkg/client"
)

const (
	defaultRefresh = 500 * time.Millisecond
	maxNotices     = 5
)

// Model is the bubbletea model for the download queue.
type Model struct {
	client   Client
	keys     keyMap
	styles   styles
	interval time.Duration

	help     help.Model
	spinner  spinner.Model
	input    textinput.Model
	progress progress.Model

	videos    []domain.VideoSnapshot
	exhausted bool
	status    *client.Status
	cursor    int
	adding    bool
	lastSeq   uint64
	notices   []client.Event

	statusMsg string
	err       error
	width     int
	height    int
}

// NewModel creates the queue view backed by c.
func NewModel(c Client, ui config.UI) Model {
	ti := textinput.New()
	ti.Placeholder = "https://..."
	ti.CharLimit = 2048
	ti.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot

	st := newStyles(ui.Theme)
	s.Style = st.spinner

	interval := time.Duration(ui.RefreshMillis) * time.Millisecond
	if interval <= 0 {
		interval = defaultRefresh
	}

	return Model{
		client:   c,
		keys:     defaultKeyMap(),
		styles:   st,
		interval: interval,
		help:     help.New(),
		spinner:  s,
		input:    ti,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(20), progress.WithoutPercentage()),
	}
}

// Init starts polling and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		refresh(m.client, m.lastSeq),
		m.spinner.Tick,
	)
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, c Client, ui config.UI) error {
	p := tea.NewProgram(NewModel(c, ui), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// selected returns the video under the cursor
func (m Model) selected() (domain.VideoSnapshot, bool) {
	if m.cursor < 0 || m.cursor >= len(m.videos) {
		return domain.VideoSnapshot{}, false
	}
	return m.videos[m.cursor], true
}

// nextFormat returns the selection that follows the current one: every
// selectable format in reported order, then audio only when available.
func nextFormat(v domain.VideoSnapshot) (string, bool) {
	var choices []string
	for _, f := range v.Info.Formats {
		if f.FormatID != "" {
			choices = append(choices, f.FormatID)
		}
	}
	if v.Info.AudioAvailable {
		choices = append(choices, "")
	}
	if len(choices) < 2 {
		return "", false
	}
	for i, c := range choices {
		if c == v.SelectedFormat {
			return choices[(i+1)%len(choices)], true
		}
	}
	return choices[0], true
}

// keepCursor moves the cursor to the video with id after a refresh
func (m *Model) keepCursor(id int64) {
	for i, v := range m.videos {
		if v.ID == id {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(m.videos) {
		m.cursor = len(m.videos) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
