package engine

import (
	"fmt"

	"github.com/elsanchez/vidqueue/internal/ytdlp"
)

// Fetch runs the tool in metadata mode for url. Each usable record is
// published as EventInfoPushed in output order, each unusable one as
// EventFetchBadParse. A call while a fetch is in flight, or while the tool is
// missing, does nothing.
func (e *Engine) Fetch(url string) {
	if e.fetching.Load() {
		e.logger.Debug("fetch already in flight", "url", url)
		return
	}
	program, ok := e.resolveTool()
	if !ok {
		return
	}

	opts := e.invocationOptions(url)
	e.warnMissingCookies(url, opts)

	inv := &invocation{
		kind: "fetch",
		spec: ytdlp.Invocation{
			Program:    program,
			Args:       ytdlp.FetchArgs(url, opts),
			Dir:        e.workingDir(),
			SplitLines: true,
		},
	}
	inv.onStdout = func(line []byte) {
		info, usable := ytdlp.ParseRawInfo(line)
		var raw string
		if !usable {
			raw = string(line)
		}
		e.loop.Post(func() {
			if !usable {
				e.emit(Event{Kind: EventFetchBadParse, Invocation: inv.id, Message: raw})
				return
			}
			e.emit(Event{Kind: EventInfoPushed, Invocation: inv.id, Info: &info})
		})
	}
	inv.onExit = func(status ytdlp.ExitStatus) {
		e.setFlag(&e.fetching, EventFetchingChanged, false)
		if !status.Success() {
			e.exitError(inv, status)
		}
	}

	e.setFlag(&e.fetching, EventFetchingChanged, true)
	if proc := e.supervise(inv); proc == nil {
		e.setFlag(&e.fetching, EventFetchingChanged, false)
	}
}

func (e *Engine) warnMissingCookies(url string, opts ytdlp.Options) {
	if opts.CookieFile != "" {
		return
	}
	platform := ytdlp.DetectPlatform(url)
	if ytdlp.CookieRequirementFor(platform) != ytdlp.CookiesRequired {
		return
	}
	e.emit(Event{
		Kind:    EventWarning,
		Message: fmt.Sprintf("%s usually requires cookies; no active account configured", platform),
	})
}
