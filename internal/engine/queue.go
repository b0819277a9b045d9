package engine

import (
	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/internal/ytdlp"
)

type queuedVideo struct {
	video       *domain.ManagedVideo
	unsubscribe func()
}

type activeDownload struct {
	video       *domain.ManagedVideo
	unsubscribe func()
	proc        ytdlp.Process
	cancelled   bool
}

// Enqueue appends video to the download queue. Videos already Queued or
// Downloading are left alone.
func (e *Engine) Enqueue(video *domain.ManagedVideo) {
	switch video.State() {
	case domain.StateQueued, domain.StateDownloading:
		return
	}
	if !video.RequestState(domain.StateQueued) {
		return
	}
	video.SetProgress(0)

	entry := &queuedVideo{video: video}
	entry.unsubscribe = video.OnCancelRequested(func() { e.cancel(video) })
	e.queue = append(e.queue, entry)

	e.logger.Info("video queued", "video_id", video.ID(), "pending", len(e.queue))
	e.loop.Post(e.tryStartNext)
}

// cancel runs synchronously inside RequestCancel, on the loop.
func (e *Engine) cancel(video *domain.ManagedVideo) {
	if unsubscribe, ok := e.failed[video]; ok {
		delete(e.failed, video)
		unsubscribe()
		video.RequestState(domain.StateAdded)
		video.SetProgress(0)
		e.logger.Info("failed download released", "video_id", video.ID())
		return
	}

	if a := e.active; a != nil && a.video == video {
		if !a.cancelled {
			e.logger.Info("cancelling download", "video_id", video.ID())
			a.cancelled = true
			a.proc.Kill()
		}
		return
	}

	for i, q := range e.queue {
		if q.video != video {
			continue
		}
		e.queue = append(e.queue[:i:i], e.queue[i+1:]...)
		q.unsubscribe()
		video.RequestState(domain.StateAdded)
		video.SetProgress(0)
		e.logger.Info("queued video cancelled", "video_id", video.ID())
		return
	}
}

// tryStartNext always runs as its own loop task, never from inside an exit
// handler.
func (e *Engine) tryStartNext() {
	if e.active != nil || len(e.queue) == 0 {
		return
	}
	program, ok := e.resolveTool()
	if !ok {
		return
	}

	next := e.queue[0]
	e.queue = e.queue[1:]
	video := next.video

	url := video.Info().SourceURL
	inv := &invocation{
		kind:    "download",
		videoID: video.ID(),
		spec: ytdlp.Invocation{
			Program: program,
			Args: ytdlp.DownloadArgs(url, video.SelectedFormat(),
				video.DownloadThumbnail(), e.invocationOptions(url)),
			Dir: e.workingDir(),
		},
	}

	active := &activeDownload{video: video, unsubscribe: next.unsubscribe}
	inv.onStdout = func(chunk []byte) {
		fraction, ok := ytdlp.ParseProgress(string(chunk))
		if !ok {
			return
		}
		e.loop.Post(func() {
			if !active.cancelled {
				video.SetProgress(fraction)
			}
		})
	}
	inv.onExit = func(status ytdlp.ExitStatus) {
		e.finishDownload(inv, active, status)
	}

	proc := e.supervise(inv)
	if proc == nil {
		// Never started: undo the dequeue and let the queue move on
		next.unsubscribe()
		video.RequestState(domain.StateAdded)
		video.SetProgress(0)
		e.loop.Post(e.tryStartNext)
		return
	}

	active.proc = proc
	e.active = active
	video.RequestState(domain.StateDownloading)
	e.setFlag(&e.downloading, EventDownloadingChanged, true)
}

func (e *Engine) finishDownload(inv *invocation, active *activeDownload, status ytdlp.ExitStatus) {
	video := active.video
	e.active = nil

	switch {
	case active.cancelled:
		active.unsubscribe()
		video.RequestState(domain.StateAdded)
		video.SetProgress(0)
	case status.Success():
		active.unsubscribe()
		video.SetProgress(1)
		video.RequestState(domain.StateComplete)
	default:
		// Stays Downloading with no process; a cancel moves it back to Added
		e.failed[video] = active.unsubscribe
		e.exitError(inv, status)
	}

	e.setFlag(&e.downloading, EventDownloadingChanged, false)
	e.loop.Post(e.tryStartNext)
}
