package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/pkg/client"
)

const requestTimeout = 5 * time.Second

// Client is the part of the daemon client the UI uses.
type Client interface {
	Status(ctx context.Context) (*client.Status, error)
	List(ctx context.Context) ([]domain.VideoSnapshot, bool, error)
	Events(ctx context.Context, after uint64) ([]client.Event, error)
	Fetch(ctx context.Context, url string) (*client.FetchResult, error)
	Download(ctx context.Context, id int64) (*domain.VideoSnapshot, error)
	Cancel(ctx context.Context, id int64) (*domain.VideoSnapshot, error)
	Select(ctx context.Context, opts client.SelectOptions) (*domain.VideoSnapshot, error)
	Remove(ctx context.Context, id int64) error
	More(ctx context.Context) (int, bool, error)
}

var _ Client = (*client.Client)(nil)

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func refresh(c Client, after uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		status, err := c.Status(ctx)
		if err != nil {
			return refreshMsg{err: err}
		}
		videos, exhausted, err := c.List(ctx)
		if err != nil {
			return refreshMsg{err: err}
		}
		events, err := c.Events(ctx, after)
		if err != nil {
			return refreshMsg{err: err}
		}
		return refreshMsg{status: status, videos: videos, exhausted: exhausted, events: events}
	}
}

// action runs fn against the daemon and reports done on success
func action(c Client, done string, fn func(context.Context, Client) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := fn(ctx, c); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: done}
	}
}

func fetchURL(c Client, url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := c.Fetch(ctx, url)
		if err != nil {
			return actionMsg{err: err}
		}
		if !result.Started {
			return actionMsg{err: fmt.Errorf("fetch not started: another fetch is running or yt-dlp is missing")}
		}
		return actionMsg{status: "Fetching " + url}
	}
}

func loadMore(c Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		loaded, exhausted, err := c.More(ctx)
		if err != nil {
			return actionMsg{err: err}
		}
		msg := fmt.Sprintf("Loaded %d older video(s)", loaded)
		if exhausted {
			msg += "; history fully loaded"
		}
		return actionMsg{status: msg}
	}
}
