package daemon

import (
	"sync"
	"time"

	"github.com/elsanchez/vidqueue/internal/engine"
)

// JournalSize es la cantidad de eventos que se conservan
const JournalSize = 200

// JournalEntry es un evento del engine tal como se expone por el socket
type JournalEntry struct {
	Seq        uint64    `json:"seq"`
	Time       time.Time `json:"time"`
	Kind       string    `json:"kind"`
	VideoID    int64     `json:"video_id,omitempty"`
	Invocation string    `json:"invocation,omitempty"`
	Message    string    `json:"message,omitempty"`
	Flag       bool      `json:"flag,omitempty"`
}

// Journal es un ring buffer de los últimos eventos del engine
type Journal struct {
	mu      sync.Mutex
	entries []JournalEntry
	next    int
	seq     uint64
	now     func() time.Time
}

// NewJournal crea un journal vacío
func NewJournal() *Journal {
	return &Journal{entries: make([]JournalEntry, 0, JournalSize), now: time.Now}
}

// Record agrega un evento, pisando el más viejo cuando está lleno
func (j *Journal) Record(ev engine.Event) {
	entry := JournalEntry{
		Kind:       ev.Kind.String(),
		VideoID:    ev.VideoID,
		Invocation: ev.Invocation,
		Message:    ev.Message,
		Flag:       ev.Flag,
	}
	if ev.Kind == engine.EventInfoPushed && ev.Info != nil {
		entry.Message = ev.Info.Title
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.seq++
	entry.Seq = j.seq
	entry.Time = j.now()

	if len(j.entries) < JournalSize {
		j.entries = append(j.entries, entry)
		return
	}
	j.entries[j.next] = entry
	j.next = (j.next + 1) % JournalSize
}

// Since devuelve los eventos con seq mayor que after, del más viejo al más nuevo
func (j *Journal) Since(after uint64) []JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]JournalEntry, 0, len(j.entries))
	for i := 0; i < len(j.entries); i++ {
		entry := j.entries[(j.next+i)%len(j.entries)]
		if entry.Seq > after {
			out = append(out, entry)
		}
	}
	return out
}

// LastSeq es el número del último evento registrado
func (j *Journal) LastSeq() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}
