package tui

import (
	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/pkg/client"
)

type tickMsg struct{}

// refreshMsg carries one poll of the daemon
type refreshMsg struct {
	status    *client.Status
	videos    []domain.VideoSnapshot
	exhausted bool
	events    []client.Event
	err       error
}

// actionMsg reports the outcome of a user action
type actionMsg struct {
	status string
	err    error
}
