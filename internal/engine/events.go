package engine

import (
	"sync"

	"github.com/elsanchez/vidqueue/internal/domain"
)

// EventKind identifies an engine notification.
type EventKind int

const (
	// EventInfoPushed carries one usable VideoInfo from a fetch.
	EventInfoPushed EventKind = iota
	// EventFetchBadParse reports one unusable metadata record.
	EventFetchBadParse
	// EventStandardError relays tool stderr verbatim.
	EventStandardError
	// EventProcessError reports a launch failure or an unsuccessful exit.
	EventProcessError
	EventWarning
	EventFetchingChanged
	EventDownloadingChanged
	EventProgramExistsChanged
)

func (k EventKind) String() string {
	switch k {
	case EventInfoPushed:
		return "info_pushed"
	case EventFetchBadParse:
		return "fetch_bad_parse"
	case EventStandardError:
		return "standard_error"
	case EventProcessError:
		return "process_error"
	case EventWarning:
		return "warning"
	case EventFetchingChanged:
		return "fetching_changed"
	case EventDownloadingChanged:
		return "downloading_changed"
	case EventProgramExistsChanged:
		return "program_exists_changed"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers on the loop goroutine.
type Event struct {
	Kind EventKind
	// Info is set for EventInfoPushed.
	Info *domain.VideoInfo
	// VideoID is the download the event belongs to, 0 for fetches.
	VideoID int64
	// Invocation correlates events of a single tool run.
	Invocation string
	Message    string
	// Flag is the new value for the *Changed kinds.
	Flag bool
}

type eventBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
	order  []int
}

func (b *eventBus) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(Event))
	}
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	b.order = append(b.order, id)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i:i], b.order[i+1:]...)
				break
			}
		}
	}
}

func (b *eventBus) publish(ev Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
