package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/vidqueue/pkg/client"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.handleInputKey(msg)
		}
		return m.handleKeyPress(msg)

	case tickMsg:
		return m, refresh(m.client, m.lastSeq)

	case refreshMsg:
		return m.handleRefresh(msg), tick(m.interval)

	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
			m.statusMsg = ""
		} else {
			m.err = nil
			m.statusMsg = msg.status
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		if p, ok := pm.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd
	}

	return m, nil
}

func (m Model) handleRefresh(msg refreshMsg) Model {
	if msg.err != nil {
		m.err = msg.err
		return m
	}

	var current int64 = -1
	if v, ok := m.selected(); ok {
		current = v.ID
	}

	m.status = msg.status
	m.videos = msg.videos
	m.exhausted = msg.exhausted
	m.keepCursor(current)

	for _, ev := range msg.events {
		if ev.Seq > m.lastSeq {
			m.lastSeq = ev.Seq
		}
		switch ev.Kind {
		case "warning", "process_error", "standard_error", "fetch_bad_parse":
			m.notices = append(m.notices, ev)
		}
	}
	if n := len(m.notices); n > maxNotices {
		m.notices = m.notices[n-maxNotices:]
	}
	return m
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.input.Blur()
		m.input.SetValue("")
		return m, nil
	case tea.KeyEnter:
		url := strings.TrimSpace(m.input.Value())
		m.adding = false
		m.input.Blur()
		m.input.SetValue("")
		if url == "" {
			return m, nil
		}
		return m, fetchURL(m.client, url)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.videos)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Add):
		m.adding = true
		m.err = nil
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.More):
		if m.exhausted {
			m.statusMsg = "History fully loaded"
			return m, nil
		}
		return m, loadMore(m.client)
	}

	v, ok := m.selected()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Download):
		return m, action(m.client, "Queued "+v.Info.Title, func(ctx context.Context, c Client) error {
			_, err := c.Download(ctx, v.ID)
			return err
		})

	case key.Matches(msg, m.keys.Cancel):
		return m, action(m.client, "Cancelled "+v.Info.Title, func(ctx context.Context, c Client) error {
			_, err := c.Cancel(ctx, v.ID)
			return err
		})

	case key.Matches(msg, m.keys.Format):
		format, ok := nextFormat(v)
		if !ok {
			m.statusMsg = "No other format available"
			return m, nil
		}
		// Shown right away, the next refresh confirms it
		m.videos[m.cursor].SelectedFormat = format
		return m, action(m.client, "", func(ctx context.Context, c Client) error {
			_, err := c.Select(ctx, client.SelectOptions{ID: v.ID, Format: &format})
			return err
		})

	case key.Matches(msg, m.keys.Thumbnail):
		thumbnail := !v.DownloadThumbnail
		m.videos[m.cursor].DownloadThumbnail = thumbnail
		return m, action(m.client, "", func(ctx context.Context, c Client) error {
			_, err := c.Select(ctx, client.SelectOptions{ID: v.ID, Thumbnail: &thumbnail})
			return err
		})

	case key.Matches(msg, m.keys.Remove):
		return m, action(m.client, "Removed "+v.Info.Title, func(ctx context.Context, c Client) error {
			return c.Remove(ctx, v.ID)
		})
	}

	return m, nil
}
