package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/elsanchez/vidqueue/internal/ytdlp"
)

// invocation is one supervised tool run.
type invocation struct {
	id      string
	kind    string
	videoID int64
	spec    ytdlp.Invocation

	// onStdout runs on the reader goroutine; it must only parse and Post.
	onStdout func(data []byte)
	// onExit runs on the loop after all output has been delivered.
	onExit func(status ytdlp.ExitStatus)
}

// supervise starts inv. Stderr is relayed as EventStandardError and a launch
// failure as EventProcessError; in that case no callback ever fires and nil
// is returned.
func (e *Engine) supervise(inv *invocation) ytdlp.Process {
	inv.id = uuid.NewString()
	logger := e.logger.With("invocation", inv.id, "kind", inv.kind)
	if inv.videoID != 0 {
		logger = logger.With("video_id", inv.videoID)
	}

	proc, err := e.starter.Start(inv.spec, ytdlp.Callbacks{
		OnStdout: inv.onStdout,
		OnStderr: func(data []byte) {
			text := string(data)
			e.loop.Post(func() {
				logger.Debug("yt-dlp stderr", "text", text)
				e.emit(Event{
					Kind:       EventStandardError,
					VideoID:    inv.videoID,
					Invocation: inv.id,
					Message:    text,
				})
			})
		},
		OnExit: func(status ytdlp.ExitStatus) {
			e.loop.Post(func() {
				logger.Info("yt-dlp exited", "exit_code", status.Code, "normal", status.Normal)
				inv.onExit(status)
			})
		},
	})
	if err != nil {
		logger.Error("yt-dlp failed to start", "error", err)
		e.emit(Event{
			Kind:       EventProcessError,
			VideoID:    inv.videoID,
			Invocation: inv.id,
			Message:    err.Error(),
		})
		return nil
	}

	logger.Info("yt-dlp started", "args", inv.spec.Args, "dir", inv.spec.Dir)
	return proc
}

func (e *Engine) exitError(inv *invocation, status ytdlp.ExitStatus) {
	var msg string
	switch {
	case status.Err != nil:
		msg = fmt.Sprintf("yt-dlp %s failed: %v", inv.kind, status.Err)
	case !status.Normal:
		msg = fmt.Sprintf("yt-dlp %s terminated abnormally", inv.kind)
	default:
		msg = fmt.Sprintf("yt-dlp %s exited with code %d", inv.kind, status.Code)
	}
	e.emit(Event{
		Kind:       EventProcessError,
		VideoID:    inv.videoID,
		Invocation: inv.id,
		Message:    msg,
	})
}
