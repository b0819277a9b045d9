// Package library holds the active collection of videos shown to clients:
// history pages prepended as they are loaded, freshly fetched videos appended,
// oldest first.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/internal/engine"
	"github.com/elsanchez/vidqueue/internal/repository"
)

// storeTimeout bounds store writes triggered by state changes
const storeTimeout = 5 * time.Second

// Settings supplies per-video defaults.
type Settings interface {
	DownloadThumbnail() bool
}

// Enqueuer receives download requests.
type Enqueuer interface {
	Enqueue(video *domain.ManagedVideo)
}

type binding struct {
	unsubscribe []func()
	// persisted is the state last written to the store
	persisted domain.DownloadState
}

// Library is the collection behind the list views. Every method must run on
// the engine loop; the store is called synchronously from there.
type Library struct {
	store    repository.HistoryRepository
	queue    Enqueuer
	settings Settings
	logger   *slog.Logger

	videos    []*domain.ManagedVideo
	byID      map[int64]*domain.ManagedVideo
	bindings  map[*domain.ManagedVideo]*binding
	exhausted bool
}

// New creates an empty library. Attach subscribes it to fetched videos.
func New(store repository.HistoryRepository, queue Enqueuer, settings Settings, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		store:    store,
		queue:    queue,
		settings: settings,
		logger:   logger.With("component", "library"),
		byID:     make(map[int64]*domain.ManagedVideo),
		bindings: make(map[*domain.ManagedVideo]*binding),
	}
}

// Attach persists and appends every video the engine fetches.
func (l *Library) Attach(eng *engine.Engine) (detach func()) {
	return eng.Subscribe(func(ev engine.Event) {
		if ev.Kind != engine.EventInfoPushed || ev.Info == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if _, err := l.Add(ctx, *ev.Info); err != nil {
			l.logger.Error("failed to add fetched video", "invocation", ev.Invocation, "error", err)
		}
	})
}

// Add persists info and appends the resulting video.
func (l *Library) Add(ctx context.Context, info domain.VideoInfo) (*domain.ManagedVideo, error) {
	entry, err := l.store.Persist(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("persist video: %w", err)
	}

	video := domain.NewManagedVideo(entry.ID, entry.CreatedAt, entry.Info, l.settings.DownloadThumbnail())
	l.bind(video, domain.StateAdded)
	video.SetCachedIndex(len(l.videos))
	l.videos = append(l.videos, video)

	l.logger.Info("video added", "video_id", video.ID(), "title", info.Title)
	return video, nil
}

// LoadMore prepends the next history page, older than everything held.
// It returns the number of videos loaded; 0 once history is exhausted.
func (l *Library) LoadMore(ctx context.Context) (int, error) {
	if l.exhausted {
		return 0, nil
	}

	var (
		entries []*domain.HistoryEntry
		err     error
	)
	if len(l.videos) == 0 {
		entries, err = l.store.FetchFirstPage(ctx)
	} else {
		oldest := l.videos[0]
		entries, err = l.store.FetchPageBefore(ctx, oldest.ID(), oldest.CreatedAt())
	}
	if err != nil {
		return 0, fmt.Errorf("fetch history page: %w", err)
	}
	if len(entries) < repository.PageSize {
		l.exhausted = true
	}

	// Pages are newest first
	page := make([]*domain.ManagedVideo, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if _, dup := l.byID[entry.ID]; dup {
			continue
		}
		video := domain.RestoreManagedVideo(entry, l.settings.DownloadThumbnail())
		l.bind(video, entry.State)
		page = append(page, video)
	}

	l.videos = append(page, l.videos...)
	l.reindex(0)
	return len(page), nil
}

// Exhausted reports whether every history page has been loaded.
func (l *Library) Exhausted() bool { return l.exhausted }

// Len returns the number of videos held.
func (l *Library) Len() int { return len(l.videos) }

// Get returns the video with id, or nil.
func (l *Library) Get(id int64) *domain.ManagedVideo { return l.byID[id] }

// Videos returns the collection, oldest first.
func (l *Library) Videos() []*domain.ManagedVideo {
	return append([]*domain.ManagedVideo(nil), l.videos...)
}

// Snapshots copies every video for use off the loop.
func (l *Library) Snapshots() []domain.VideoSnapshot {
	out := make([]domain.VideoSnapshot, len(l.videos))
	for i, v := range l.videos {
		out[i] = v.Snapshot()
	}
	return out
}

// IndexOf resolves the position of video, trusting its cached index only
// after checking identity. It returns -1 for videos not held.
func (l *Library) IndexOf(video *domain.ManagedVideo) int {
	if idx := video.CachedIndex(); idx >= 0 && idx < len(l.videos) && l.videos[idx] == video {
		return idx
	}
	for i, v := range l.videos {
		if v == video {
			video.SetCachedIndex(i)
			return i
		}
	}
	return -1
}

// Remove cancels any process for the video, drops it and deletes its row.
func (l *Library) Remove(ctx context.Context, id int64) error {
	video := l.byID[id]
	if video == nil {
		return fmt.Errorf("video %d: %w", id, repository.ErrNotFound)
	}

	video.RequestCancel()
	l.unbind(video)

	if idx := l.IndexOf(video); idx >= 0 {
		l.videos = append(l.videos[:idx:idx], l.videos[idx+1:]...)
		l.reindex(idx)
	}
	video.SetCachedIndex(-1)

	if err := l.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete video %d: %w", id, err)
	}
	l.logger.Info("video removed", "video_id", id)
	return nil
}

// RemoveAll cancels every process, empties the collection and the store.
func (l *Library) RemoveAll(ctx context.Context) error {
	videos := l.videos
	for _, v := range videos {
		v.RequestCancel()
		l.unbind(v)
		v.SetCachedIndex(-1)
	}
	l.videos = nil
	l.exhausted = true

	if err := l.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	l.logger.Info("history cleared", "videos", len(videos))
	return nil
}

func (l *Library) bind(video *domain.ManagedVideo, persisted domain.DownloadState) {
	b := &binding{persisted: persisted}
	b.unsubscribe = []func(){
		video.OnDownloadRequested(l.queue.Enqueue),
		video.Subscribe(func(v *domain.ManagedVideo, field domain.Field) {
			if field == domain.FieldState {
				l.persistState(v, b)
			}
		}),
	}
	l.bindings[video] = b
	l.byID[video.ID()] = video
}

func (l *Library) unbind(video *domain.ManagedVideo) {
	b := l.bindings[video]
	if b == nil {
		return
	}
	for _, fn := range b.unsubscribe {
		fn()
	}
	delete(l.bindings, video)
	delete(l.byID, video.ID())
}

// persistState writes complete when reached and added when a completed video
// leaves that state. Queued and downloading are never stored.
func (l *Library) persistState(video *domain.ManagedVideo, b *binding) {
	want := domain.StateAdded
	if video.State() == domain.StateComplete {
		want = domain.StateComplete
	}
	if want == b.persisted {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := l.store.UpdateState(ctx, video.ID(), want); err != nil {
		l.logger.Error("failed to persist state", "video_id", video.ID(), "state", want.String(), "error", err)
		return
	}
	b.persisted = want
}

func (l *Library) reindex(from int) {
	for i := from; i < len(l.videos); i++ {
		l.videos[i].SetCachedIndex(i)
	}
}
