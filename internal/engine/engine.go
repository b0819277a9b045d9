package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/internal/ytdlp"
)

// Settings supplies the values the engine reads at every invocation, so
// configuration changes apply to the next process without a restart.
type Settings interface {
	DownloadDir() string
	YtDlpPath() string
	FFmpegDir() string
}

// CookieSource resolves the cookie file of the active account for a platform.
type CookieSource interface {
	CookieFile(platform string) (path string, ok bool)
}

// Option configures the engine.
type Option func(*Engine)

// WithStarter injects a process starter (primarily for tests).
func WithStarter(starter ytdlp.Starter) Option {
	return func(e *Engine) {
		if starter != nil {
			e.starter = starter
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCookieSource enables --cookies for platforms with an active account.
func WithCookieSource(src CookieSource) Option {
	return func(e *Engine) {
		e.cookies = src
	}
}

// WithLookPath replaces binary resolution (primarily for tests).
func WithLookPath(fn func(string) (string, error)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.lookPath = fn
		}
	}
}

// Engine orchestrates metadata fetches and the sequential download queue.
//
// Fetch, Enqueue and the accessors returning videos must be called on the
// loop. The flag accessors are safe from any goroutine.
type Engine struct {
	loop     *Loop
	settings Settings
	cookies  CookieSource
	starter  ytdlp.Starter
	lookPath func(string) (string, error)
	logger   *slog.Logger
	bus      eventBus

	fetching      atomic.Bool
	downloading   atomic.Bool
	programExists atomic.Bool

	queue  []*queuedVideo
	active *activeDownload
	// failed holds the cancel subscriptions of videos whose download exited
	// unsuccessfully
	failed map[*domain.ManagedVideo]func()
}

// New constructs an engine bound to loop.
func New(loop *Loop, settings Settings, opts ...Option) *Engine {
	e := &Engine{
		loop:     loop,
		settings: settings,
		starter:  ytdlp.ExecStarter{},
		lookPath: ytdlp.Resolve,
		logger:   slog.Default(),
		failed:   make(map[*domain.ManagedVideo]func()),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "engine")

	_, err := e.lookPath(settings.YtDlpPath())
	e.programExists.Store(err == nil)
	return e
}

// Subscribe registers fn for every engine event. Events are delivered on the
// loop goroutine.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	return e.bus.subscribe(fn)
}

// IsFetching reports whether a metadata fetch is in flight.
func (e *Engine) IsFetching() bool { return e.fetching.Load() }

// IsDownloading reports whether a download process is active.
func (e *Engine) IsDownloading() bool { return e.downloading.Load() }

// ProgramExists reports the result of the last tool resolution.
func (e *Engine) ProgramExists() bool { return e.programExists.Load() }

// CheckProgram re-resolves the tool and updates the availability flag. A
// queue stalled by a missing tool resumes once it is found. Loop only.
func (e *Engine) CheckProgram() bool {
	_, ok := e.resolveTool()
	if ok {
		e.loop.Post(e.tryStartNext)
	}
	return ok
}

// Active returns the video being downloaded, or nil.
func (e *Engine) Active() *domain.ManagedVideo {
	if e.active == nil {
		return nil
	}
	return e.active.video
}

// Pending returns the queued videos in start order.
func (e *Engine) Pending() []*domain.ManagedVideo {
	out := make([]*domain.ManagedVideo, 0, len(e.queue))
	for _, q := range e.queue {
		out = append(out, q.video)
	}
	return out
}

func (e *Engine) emit(ev Event) {
	e.bus.publish(ev)
}

func (e *Engine) setFlag(flag *atomic.Bool, kind EventKind, value bool) {
	if flag.Swap(value) == value {
		return
	}
	e.emit(Event{Kind: kind, Flag: value})
}

func (e *Engine) resolveTool() (string, bool) {
	program := e.settings.YtDlpPath()
	path, err := e.lookPath(program)
	if err != nil {
		e.logger.Warn("yt-dlp not available", "program", program, "error", err)
		e.setFlag(&e.programExists, EventProgramExistsChanged, false)
		return "", false
	}
	e.setFlag(&e.programExists, EventProgramExistsChanged, true)
	return path, true
}

// invocationOptions resolves cookies and ffmpeg for url
func (e *Engine) invocationOptions(url string) ytdlp.Options {
	opts := ytdlp.Options{FFmpegDir: e.settings.FFmpegDir()}
	if e.cookies == nil {
		return opts
	}
	platform := ytdlp.DetectPlatform(url)
	if path, ok := e.cookies.CookieFile(platform); ok {
		opts.CookieFile = path
	}
	return opts
}

// workingDir validates the configured download directory, falling back to
// ~/Downloads and then the process working directory.
func (e *Engine) workingDir() string {
	dir, warning := ResolveDownloadDir(e.settings.DownloadDir())
	if warning != "" {
		e.logger.Warn("download directory fallback", "dir", dir, "reason", warning)
		e.emit(Event{Kind: EventWarning, Message: warning})
	}
	return dir
}

// ResolveDownloadDir returns dir when it is an existing directory, otherwise
// the first usable fallback and a warning describing the substitution.
func ResolveDownloadDir(dir string) (resolved string, warning string) {
	if dir != "" && isDir(dir) {
		return dir, ""
	}

	reason := fmt.Sprintf("download directory %q does not exist", dir)
	if dir == "" {
		reason = "download directory not configured"
	}

	if home, err := os.UserHomeDir(); err == nil {
		fallback := filepath.Join(home, "Downloads")
		if isDir(fallback) {
			return fallback, fmt.Sprintf("%s, using %s", reason, fallback)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return wd, fmt.Sprintf("%s, using %s", reason, wd)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
