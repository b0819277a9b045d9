package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/internal/ytdlp"
)

type stubSettings struct {
	dir string
}

func (s stubSettings) DownloadDir() string { return s.dir }
func (s stubSettings) YtDlpPath() string   { return "yt-dlp" }
func (s stubSettings) FFmpegDir() string   { return "" }

type stubCookies map[string]string

func (c stubCookies) CookieFile(platform string) (string, bool) {
	path, ok := c[platform]
	return path, ok
}

type fakeProcess struct {
	inv ytdlp.Invocation
	cb  ytdlp.Callbacks

	mu     sync.Mutex
	killed int
}

func (p *fakeProcess) Kill() {
	p.mu.Lock()
	p.killed++
	p.mu.Unlock()
}

func (p *fakeProcess) killCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

func (p *fakeProcess) stdout(s string) { p.cb.OnStdout([]byte(s)) }
func (p *fakeProcess) stderr(s string) { p.cb.OnStderr([]byte(s)) }
func (p *fakeProcess) exit(code int)   { p.cb.OnExit(ytdlp.ExitStatus{Code: code, Normal: true}) }

type fakeStarter struct {
	mu    sync.Mutex
	procs []*fakeProcess
	err   error
}

func (s *fakeStarter) Start(inv ytdlp.Invocation, cb ytdlp.Callbacks) (ytdlp.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p := &fakeProcess{inv: inv, cb: cb}
	s.procs = append(s.procs, p)
	return p, nil
}

func (s *fakeStarter) started() []*fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeProcess(nil), s.procs...)
}

type harness struct {
	t       *testing.T
	loop    *Loop
	engine  *Engine
	starter *fakeStarter
	missing atomic.Bool

	mu     sync.Mutex
	events []Event
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{t: t, loop: NewLoop(nil), starter: &fakeStarter{}}

	lookPath := func(name string) (string, error) {
		if h.missing.Load() {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	all := append([]Option{WithStarter(h.starter), WithLookPath(lookPath)}, opts...)
	h.engine = New(h.loop, stubSettings{dir: t.TempDir()}, all...)
	h.engine.Subscribe(func(ev Event) {
		h.mu.Lock()
		h.events = append(h.events, ev)
		h.mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.loop.Run(ctx)
	return h
}

// do runs fn on the loop and waits for every task it chains to settle
func (h *harness) do(fn func()) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.loop.Do(ctx, fn); err != nil {
		h.t.Fatalf("loop.Do: %v", err)
	}
	h.settle()
}

func (h *harness) settle() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		if err := h.loop.Do(ctx, func() {}); err != nil {
			h.t.Fatalf("settle: %v", err)
		}
	}
}

func (h *harness) eventsOf(kind EventKind) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for _, ev := range h.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func newVideo(id int64) *domain.ManagedVideo {
	return domain.NewManagedVideo(id, id*1000, domain.VideoInfo{
		VideoID:   fmt.Sprintf("v%d", id),
		SourceURL: fmt.Sprintf("https://example.com/watch/%d", id),
		Formats:   []domain.VideoFormat{{FormatID: "f1"}, {FormatID: "f2"}},
	}, false)
}

func recordStates(v *domain.ManagedVideo) func() []domain.DownloadState {
	var mu sync.Mutex
	var states []domain.DownloadState
	v.Subscribe(func(mv *domain.ManagedVideo, f domain.Field) {
		if f == domain.FieldState {
			mu.Lock()
			states = append(states, mv.State())
			mu.Unlock()
		}
	})
	return func() []domain.DownloadState {
		mu.Lock()
		defer mu.Unlock()
		return append([]domain.DownloadState(nil), states...)
	}
}

const usableLine = `{"id":"%s","formats":[{"format_id":"f1","vcodec":"avc1"}]}`

func TestFetch_EmitsRecordsInOrder(t *testing.T) {
	h := newHarness(t)
	h.do(func() { h.engine.Fetch("https://www.youtube.com/playlist?list=x") })

	procs := h.starter.started()
	if len(procs) != 1 {
		t.Fatalf("expected 1 process, got %d", len(procs))
	}
	p := procs[0]
	if !p.inv.SplitLines || !slices.Contains(p.inv.Args, "--dump-json") || !slices.Contains(p.inv.Args, "--playlist-reverse") {
		t.Errorf("unexpected fetch invocation %+v", p.inv)
	}
	if !h.engine.IsFetching() {
		t.Error("expected fetching flag set")
	}

	p.stdout(fmt.Sprintf(usableLine, "a"))
	p.stdout(`{"broken`)
	p.stdout(fmt.Sprintf(usableLine, "b"))
	p.exit(0)
	h.settle()

	pushed := h.eventsOf(EventInfoPushed)
	if len(pushed) != 2 || pushed[0].Info.VideoID != "a" || pushed[1].Info.VideoID != "b" {
		t.Fatalf("unexpected pushed events %+v", pushed)
	}
	if n := len(h.eventsOf(EventFetchBadParse)); n != 1 {
		t.Errorf("expected 1 bad parse, got %d", n)
	}
	if h.engine.IsFetching() {
		t.Error("fetching flag not cleared on exit")
	}

	changes := h.eventsOf(EventFetchingChanged)
	if len(changes) != 2 || !changes[0].Flag || changes[1].Flag {
		t.Errorf("unexpected fetching changes %+v", changes)
	}
}

func TestFetch_SingleFlight(t *testing.T) {
	h := newHarness(t)
	h.do(func() {
		h.engine.Fetch("https://example.com/1")
		h.engine.Fetch("https://example.com/2")
	})

	if n := len(h.starter.started()); n != 1 {
		t.Fatalf("expected 1 process while in flight, got %d", n)
	}

	h.starter.started()[0].exit(0)
	h.settle()
	h.do(func() { h.engine.Fetch("https://example.com/3") })

	if n := len(h.starter.started()); n != 2 {
		t.Fatalf("expected a new fetch after exit, got %d processes", n)
	}
}

func TestFetch_FlagClearedOnFailure(t *testing.T) {
	h := newHarness(t)
	h.do(func() { h.engine.Fetch("https://example.com/1") })

	p := h.starter.started()[0]
	p.stderr("ERROR: Unsupported URL\n")
	p.exit(1)
	h.settle()

	if h.engine.IsFetching() {
		t.Error("fetching flag stuck after failed exit")
	}
	if len(h.eventsOf(EventProcessError)) != 1 {
		t.Error("expected a process error for the failed fetch")
	}
	stderr := h.eventsOf(EventStandardError)
	if len(stderr) != 1 || stderr[0].Message != "ERROR: Unsupported URL\n" {
		t.Errorf("stderr not relayed verbatim: %+v", stderr)
	}
}

func TestFetch_LaunchFailure(t *testing.T) {
	h := newHarness(t)
	h.starter.err = errors.New("exec format error")

	h.do(func() { h.engine.Fetch("https://example.com/1") })

	if h.engine.IsFetching() {
		t.Error("fetching flag stuck after launch failure")
	}
	if len(h.eventsOf(EventProcessError)) != 1 {
		t.Error("expected a process error for the launch failure")
	}
}

func TestFetch_ToolMissing(t *testing.T) {
	h := newHarness(t)
	h.missing.Store(true)

	h.do(func() { h.engine.Fetch("https://example.com/1") })

	if n := len(h.starter.started()); n != 0 {
		t.Fatalf("expected no process, got %d", n)
	}
	if h.engine.ProgramExists() {
		t.Error("expected program flag cleared")
	}
	changes := h.eventsOf(EventProgramExistsChanged)
	if len(changes) != 1 || changes[0].Flag {
		t.Errorf("unexpected program changes %+v", changes)
	}
	if h.engine.IsFetching() {
		t.Error("fetching flag must not be set when the tool is missing")
	}
}

func TestFetch_CookiesForPlatform(t *testing.T) {
	h := newHarness(t, WithCookieSource(stubCookies{"youtube": "/cookies/yt.txt"}))

	h.do(func() { h.engine.Fetch("https://youtu.be/abc") })
	h.starter.started()[0].exit(0)
	h.settle()
	h.do(func() { h.engine.Fetch("https://x.com/user/status/1") })

	procs := h.starter.started()
	if !slices.Contains(procs[0].inv.Args, "/cookies/yt.txt") {
		t.Errorf("expected cookies for youtube, got %q", procs[0].inv.Args)
	}
	if slices.Contains(procs[1].inv.Args, "--cookies") {
		t.Errorf("unexpected cookies for twitter: %q", procs[1].inv.Args)
	}
	if len(h.eventsOf(EventWarning)) != 1 {
		t.Error("expected a warning about missing twitter cookies")
	}
}

func TestQueue_FIFOWithoutOverlap(t *testing.T) {
	h := newHarness(t)
	videos := []*domain.ManagedVideo{newVideo(1), newVideo(2), newVideo(3)}

	h.do(func() {
		for _, v := range videos {
			h.engine.Enqueue(v)
		}
	})

	for i, v := range videos {
		procs := h.starter.started()
		if len(procs) != i+1 {
			t.Fatalf("step %d: expected %d processes, got %d", i, i+1, len(procs))
		}
		p := procs[i]
		if last := p.inv.Args[len(p.inv.Args)-1]; last != v.Info().SourceURL {
			t.Fatalf("step %d: started %s, want %s", i, last, v.Info().SourceURL)
		}
		if v.State() != domain.StateDownloading {
			t.Fatalf("step %d: expected downloading, got %s", i, v.State())
		}
		if !h.engine.IsDownloading() {
			t.Fatalf("step %d: downloading flag not set", i)
		}

		p.stdout(" 42.50%\n")
		h.settle()
		if v.Progress() != 0.425 {
			t.Errorf("step %d: expected progress 0.425, got %v", i, v.Progress())
		}

		p.exit(0)
		h.settle()
		if v.State() != domain.StateComplete || v.Progress() != 1 {
			t.Errorf("step %d: expected complete at 1.0, got %s at %v", i, v.State(), v.Progress())
		}
	}

	if h.engine.IsDownloading() {
		t.Error("downloading flag still set with an empty queue")
	}
}

func TestQueue_DownloadArgs(t *testing.T) {
	h := newHarness(t)
	v := newVideo(1)
	v.SetSelectedFormat("f1")
	v.SetDownloadThumbnail(true)

	h.do(func() { h.engine.Enqueue(v) })

	p := h.starter.started()[0]
	if p.inv.SplitLines {
		t.Error("download mode must deliver raw chunks")
	}
	if !slices.Contains(p.inv.Args, "f1+ba") || !slices.Contains(p.inv.Args, "--write-thumbnail") {
		t.Errorf("unexpected download args %q", p.inv.Args)
	}
	if p.inv.Dir == "" {
		t.Error("working directory not set")
	}
}

func TestEnqueue_Idempotent(t *testing.T) {
	h := newHarness(t)
	a, b := newVideo(1), newVideo(2)

	h.do(func() {
		h.engine.Enqueue(a)
		h.engine.Enqueue(b)
		h.engine.Enqueue(b)
		h.engine.Enqueue(a)
	})

	if n := len(h.engine.Pending()); n != 1 {
		t.Fatalf("expected 1 pending, got %d", n)
	}
	h.starter.started()[0].exit(0)
	h.settle()
	h.starter.started()[1].exit(0)
	h.settle()

	if n := len(h.starter.started()); n != 2 {
		t.Errorf("expected exactly 2 downloads, got %d", n)
	}
}

func TestEnqueue_CompleteCanBeRequeued(t *testing.T) {
	h := newHarness(t)
	v := newVideo(1)

	h.do(func() { h.engine.Enqueue(v) })
	h.starter.started()[0].exit(0)
	h.settle()

	h.do(func() { h.engine.Enqueue(v) })
	if v.State() != domain.StateDownloading || v.Progress() != 0 {
		t.Errorf("expected re-download from 0, got %s at %v", v.State(), v.Progress())
	}
}

func TestCancel_WhileQueued(t *testing.T) {
	h := newHarness(t)
	a, b := newVideo(1), newVideo(2)
	statesB := recordStates(b)

	h.do(func() {
		h.engine.Enqueue(a)
		h.engine.Enqueue(b)
	})
	h.do(func() { b.RequestCancel() })

	if b.State() != domain.StateAdded || b.Progress() != 0 {
		t.Errorf("expected b reset to added, got %s at %v", b.State(), b.Progress())
	}

	h.starter.started()[0].exit(0)
	h.settle()

	if n := len(h.starter.started()); n != 1 {
		t.Fatalf("cancelled video was started: %d processes", n)
	}
	if slices.Contains(statesB(), domain.StateDownloading) {
		t.Errorf("cancelled video reached downloading: %v", statesB())
	}

	// A second cancel is harmless
	h.do(func() { b.RequestCancel() })
}

func TestCancel_WhileDownloading(t *testing.T) {
	h := newHarness(t)
	a, b := newVideo(1), newVideo(2)
	statesA := recordStates(a)

	h.do(func() {
		h.engine.Enqueue(a)
		h.engine.Enqueue(b)
	})
	p := h.starter.started()[0]
	p.stdout("50%\n")
	h.settle()

	h.do(func() {
		a.RequestCancel()
		a.RequestCancel()
	})
	if p.killCount() != 1 {
		t.Errorf("expected a single kill, got %d", p.killCount())
	}
	if a.State() != domain.StateDownloading {
		t.Errorf("state must only change once the exit is observed, got %s", a.State())
	}

	// A clean kill can exit 0, same as a finished download
	p.stdout("100%\n")
	p.exit(0)
	h.settle()

	if a.State() != domain.StateAdded || a.Progress() != 0 {
		t.Errorf("expected added at 0 after cancel, got %s at %v", a.State(), a.Progress())
	}
	if slices.Contains(statesA(), domain.StateComplete) {
		t.Errorf("cancelled download reached complete: %v", statesA())
	}

	procs := h.starter.started()
	if len(procs) != 2 || b.State() != domain.StateDownloading {
		t.Fatalf("queue did not advance after cancel")
	}

	// Cancelling after exit does nothing
	h.do(func() { a.RequestCancel() })
	if p.killCount() != 1 {
		t.Errorf("cancel after exit killed again")
	}
}

func TestDownload_FailureKeepsQueueMoving(t *testing.T) {
	h := newHarness(t)
	a, b := newVideo(1), newVideo(2)

	h.do(func() {
		h.engine.Enqueue(a)
		h.engine.Enqueue(b)
	})
	p := h.starter.started()[0]
	p.stdout("downloading...\n")
	p.stdout(" 12.0%\n")
	p.exit(1)
	h.settle()

	if a.Progress() != 0.12 {
		t.Errorf("unparseable chunk changed progress: %v", a.Progress())
	}
	if a.State() != domain.StateDownloading {
		t.Errorf("failed exit must not force a transition, got %s", a.State())
	}
	errs := h.eventsOf(EventProcessError)
	if len(errs) != 1 || errs[0].VideoID != a.ID() {
		t.Errorf("expected a process error for video 1, got %+v", errs)
	}
	if b.State() != domain.StateDownloading {
		t.Errorf("queue did not advance after failure, b is %s", b.State())
	}
}

func TestDownload_FailedVideoCanBeCancelledAndRequeued(t *testing.T) {
	h := newHarness(t)
	v := newVideo(1)

	h.do(func() { h.engine.Enqueue(v) })
	p := h.starter.started()[0]
	p.stdout(" 30.0%\n")
	p.exit(1)
	h.settle()

	if v.State() != domain.StateDownloading || h.engine.IsDownloading() {
		t.Fatalf("expected failed video left downloading with no process, got %s (downloading=%v)",
			v.State(), h.engine.IsDownloading())
	}

	h.do(func() { v.RequestCancel() })
	if v.State() != domain.StateAdded || v.Progress() != 0 {
		t.Fatalf("expected added at 0 after cancel, got %s at %v", v.State(), v.Progress())
	}
	if p.killCount() != 0 {
		t.Errorf("exited process must not be killed, got %d kills", p.killCount())
	}

	h.do(func() { h.engine.Enqueue(v) })
	procs := h.starter.started()
	if len(procs) != 2 || v.State() != domain.StateDownloading {
		t.Fatalf("expected a second download, got %d processes and state %s", len(procs), v.State())
	}

	// The new attempt owns cancellation again
	h.do(func() { v.RequestCancel() })
	if procs[1].killCount() != 1 {
		t.Errorf("expected the retry to be killed once, got %d", procs[1].killCount())
	}
}

func TestDownload_LaunchFailure(t *testing.T) {
	h := newHarness(t)
	h.starter.err = errors.New("permission denied")
	v := newVideo(1)

	h.do(func() { h.engine.Enqueue(v) })

	if v.State() != domain.StateAdded {
		t.Errorf("expected added after launch failure, got %s", v.State())
	}
	if h.engine.IsDownloading() {
		t.Error("downloading flag set without a process")
	}
	if len(h.eventsOf(EventProcessError)) != 1 {
		t.Error("expected a process error")
	}
}

func TestQueue_StallsUntilToolFound(t *testing.T) {
	h := newHarness(t)
	h.missing.Store(true)
	v := newVideo(1)

	h.do(func() { h.engine.Enqueue(v) })
	if n := len(h.starter.started()); n != 0 {
		t.Fatalf("expected no process without the tool, got %d", n)
	}
	if v.State() != domain.StateQueued {
		t.Fatalf("expected video to stay queued, got %s", v.State())
	}

	h.missing.Store(false)
	h.do(func() { h.engine.CheckProgram() })

	if n := len(h.starter.started()); n != 1 {
		t.Fatalf("expected queue to resume, got %d processes", n)
	}
}

type toolSettings struct {
	stubSettings
	program string
}

func (s toolSettings) YtDlpPath() string { return s.program }

func TestNew_ResolvesConfiguredTool(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	script := filepath.Join(t.TempDir(), "yt-dlp")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	if !New(NewLoop(nil), toolSettings{program: script}).ProgramExists() {
		t.Errorf("expected %s to resolve", script)
	}
	if New(NewLoop(nil), toolSettings{program: "  "}).ProgramExists() {
		t.Error("blank tool path must not resolve")
	}
	if New(NewLoop(nil), toolSettings{program: filepath.Join(t.TempDir(), "missing")}).ProgramExists() {
		t.Error("missing tool must not resolve")
	}
}

func TestResolveDownloadDir(t *testing.T) {
	dir := t.TempDir()
	if got, warning := ResolveDownloadDir(dir); got != dir || warning != "" {
		t.Errorf("ResolveDownloadDir(existing) = %q, %q", got, warning)
	}

	missing := filepath.Join(dir, "nope")
	got, warning := ResolveDownloadDir(missing)
	if warning == "" {
		t.Error("expected a warning for a missing directory")
	}
	if info, err := os.Stat(got); err != nil || !info.IsDir() {
		t.Errorf("fallback %q is not a directory", got)
	}
}
