package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elsanchez/vidqueue/internal/cookies"
	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/internal/engine"
	"github.com/elsanchez/vidqueue/internal/library"
	"github.com/elsanchez/vidqueue/internal/repository"
	"github.com/elsanchez/vidqueue/internal/ytdlp"
)

// errMissingID se devuelve cuando el payload no trae id
var errMissingID = errors.New("id is required")

// Handlers atiende las acciones del socket. Todo lo que toca videos, cola o
// colección corre dentro del loop del engine vía Do.
type Handlers struct {
	loop     *engine.Loop
	engine   *engine.Engine
	library  *library.Library
	registry *cookies.Registry
	journal  *Journal
	logger   *slog.Logger
}

// NewHandlers crea un nuevo conjunto de handlers
func NewHandlers(loop *engine.Loop, eng *engine.Engine, lib *library.Library, registry *cookies.Registry, journal *Journal, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		loop:     loop,
		engine:   eng,
		library:  lib,
		registry: registry,
		journal:  journal,
		logger:   logger.With("component", "handlers"),
	}
}

// Dispatch enruta una petición a su handler
func (h *Handlers) Dispatch(ctx context.Context, req Request) Response {
	switch req.Action {
	case "ping":
		return success(map[string]string{"message": "pong"})
	case "status":
		return h.HandleStatus(ctx)
	case "fetch":
		return h.HandleFetch(ctx, req.Payload)
	case "list":
		return h.HandleList(ctx)
	case "download":
		return h.HandleDownload(ctx, req.Payload)
	case "cancel":
		return h.HandleCancel(ctx, req.Payload)
	case "select":
		return h.HandleSelect(ctx, req.Payload)
	case "remove":
		return h.HandleRemove(ctx, req.Payload)
	case "remove_all":
		return h.HandleRemoveAll(ctx)
	case "more":
		return h.HandleMore(ctx)
	case "events":
		return h.HandleEvents(req.Payload)
	case "cookies_reload":
		return h.HandleCookiesReload(ctx)
	default:
		return failure(fmt.Errorf("unknown action: %s", req.Action))
	}
}

// onLoop ejecuta fn en el loop y devuelve su error
func (h *Handlers) onLoop(ctx context.Context, fn func() error) error {
	var fnErr error
	if err := h.loop.Do(ctx, func() { fnErr = fn() }); err != nil {
		return fmt.Errorf("engine busy: %w", err)
	}
	return fnErr
}

// StatusResult es la respuesta de "status"
type StatusResult struct {
	Fetching         bool   `json:"fetching"`
	Downloading      bool   `json:"downloading"`
	ProgramExists    bool   `json:"program_exists"`
	ActiveID         int64  `json:"active_id,omitempty"`
	Pending          int    `json:"pending"`
	Videos           int    `json:"videos"`
	HistoryExhausted bool   `json:"history_exhausted"`
	LastEventSeq     uint64 `json:"last_event_seq"`
}

// HandleStatus re-resuelve yt-dlp y devuelve los flags del engine
func (h *Handlers) HandleStatus(ctx context.Context) Response {
	var result StatusResult
	err := h.onLoop(ctx, func() error {
		// Un yt-dlp instalado después del arranque reanuda la cola
		result.ProgramExists = h.engine.CheckProgram()
		result.Fetching = h.engine.IsFetching()
		result.Downloading = h.engine.IsDownloading()
		if active := h.engine.Active(); active != nil {
			result.ActiveID = active.ID()
		}
		result.Pending = len(h.engine.Pending())
		result.Videos = h.library.Len()
		result.HistoryExhausted = h.library.Exhausted()
		return nil
	})
	if err != nil {
		return failure(err)
	}
	result.LastEventSeq = h.journal.LastSeq()
	return success(result)
}

// FetchPayload es el payload de "fetch"
type FetchPayload struct {
	URL string `json:"url"`
}

// FetchResult indica si se lanzó un proceso nuevo
type FetchResult struct {
	Started  bool   `json:"started"`
	Platform string `json:"platform"`
}

// HandleFetch lanza la descarga de metadatos de una URL
func (h *Handlers) HandleFetch(ctx context.Context, payload json.RawMessage) Response {
	var req FetchPayload
	if err := decodePayload(payload, &req); err != nil {
		return failure(err)
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return failure(errors.New("url is required"))
	}

	result := FetchResult{Platform: ytdlp.DetectPlatform(req.URL)}
	err := h.onLoop(ctx, func() error {
		wasFetching := h.engine.IsFetching()
		h.engine.Fetch(req.URL)
		result.Started = !wasFetching && h.engine.IsFetching()
		return nil
	})
	if err != nil {
		return failure(err)
	}

	if result.Started {
		if err := h.registry.MarkUsed(ctx, result.Platform); err != nil {
			h.logger.Warn("failed to record account usage", "platform", result.Platform, "error", err)
		}
	}
	return success(result)
}

// ListResult es la colección completa, del más viejo al más nuevo
type ListResult struct {
	Videos    []domain.VideoSnapshot `json:"videos"`
	Exhausted bool                   `json:"exhausted"`
}

// HandleList devuelve un snapshot de la colección
func (h *Handlers) HandleList(ctx context.Context) Response {
	var result ListResult
	err := h.onLoop(ctx, func() error {
		result.Videos = h.library.Snapshots()
		result.Exhausted = h.library.Exhausted()
		return nil
	})
	if err != nil {
		return failure(err)
	}
	return success(result)
}

// VideoPayload identifica un video de la colección
type VideoPayload struct {
	ID int64 `json:"id"`
}

// withVideo busca el video en el loop y le aplica fn
func (h *Handlers) withVideo(ctx context.Context, payload json.RawMessage, fn func(*domain.ManagedVideo) error) Response {
	var req VideoPayload
	if err := decodePayload(payload, &req); err != nil {
		return failure(err)
	}
	if req.ID == 0 {
		return failure(errMissingID)
	}

	var snapshot domain.VideoSnapshot
	err := h.onLoop(ctx, func() error {
		video := h.library.Get(req.ID)
		if video == nil {
			return fmt.Errorf("video %d: %w", req.ID, repository.ErrNotFound)
		}
		if err := fn(video); err != nil {
			return err
		}
		snapshot = video.Snapshot()
		return nil
	})
	if err != nil {
		return failure(err)
	}
	return success(snapshot)
}

// HandleDownload pide la descarga de un video
func (h *Handlers) HandleDownload(ctx context.Context, payload json.RawMessage) Response {
	return h.withVideo(ctx, payload, func(v *domain.ManagedVideo) error {
		v.RequestDownload()
		return nil
	})
}

// HandleCancel cancela un video en cola o en descarga
func (h *Handlers) HandleCancel(ctx context.Context, payload json.RawMessage) Response {
	return h.withVideo(ctx, payload, func(v *domain.ManagedVideo) error {
		v.RequestCancel()
		return nil
	})
}

// SelectPayload cambia la intención de descarga. Format "" es sólo audio.
type SelectPayload struct {
	ID        int64   `json:"id"`
	Format    *string `json:"format,omitempty"`
	Thumbnail *bool   `json:"thumbnail,omitempty"`
}

// HandleSelect cambia formato y/o miniatura
func (h *Handlers) HandleSelect(ctx context.Context, payload json.RawMessage) Response {
	var req SelectPayload
	if err := decodePayload(payload, &req); err != nil {
		return failure(err)
	}
	return h.withVideo(ctx, payload, func(v *domain.ManagedVideo) error {
		if req.Format != nil && !v.SetSelectedFormat(*req.Format) {
			return fmt.Errorf("unknown format %q for video %d", *req.Format, v.ID())
		}
		if req.Thumbnail != nil {
			v.SetDownloadThumbnail(*req.Thumbnail)
		}
		return nil
	})
}

// HandleRemove cancela y borra un video
func (h *Handlers) HandleRemove(ctx context.Context, payload json.RawMessage) Response {
	var req VideoPayload
	if err := decodePayload(payload, &req); err != nil {
		return failure(err)
	}
	if req.ID == 0 {
		return failure(errMissingID)
	}

	if err := h.onLoop(ctx, func() error { return h.library.Remove(ctx, req.ID) }); err != nil {
		return failure(err)
	}
	return success(map[string]int64{"id": req.ID})
}

// HandleRemoveAll cancela todo y vacía el historial
func (h *Handlers) HandleRemoveAll(ctx context.Context) Response {
	var removed int
	err := h.onLoop(ctx, func() error {
		removed = h.library.Len()
		return h.library.RemoveAll(ctx)
	})
	if err != nil {
		return failure(err)
	}
	return success(map[string]int{"removed": removed})
}

// MoreResult es la respuesta de "more"
type MoreResult struct {
	Loaded    int  `json:"loaded"`
	Exhausted bool `json:"exhausted"`
}

// HandleMore carga la siguiente página del historial
func (h *Handlers) HandleMore(ctx context.Context) Response {
	var result MoreResult
	err := h.onLoop(ctx, func() error {
		n, err := h.library.LoadMore(ctx)
		result.Loaded = n
		result.Exhausted = h.library.Exhausted()
		return err
	})
	if err != nil {
		return failure(err)
	}
	return success(result)
}

// EventsPayload pide los eventos posteriores a After
type EventsPayload struct {
	After uint64 `json:"after"`
}

// HandleEvents devuelve el journal; no pasa por el loop
func (h *Handlers) HandleEvents(payload json.RawMessage) Response {
	var req EventsPayload
	if err := decodePayload(payload, &req); err != nil {
		return failure(err)
	}
	return success(map[string]any{"events": h.journal.Since(req.After)})
}

// HandleCookiesReload relee las cuentas activas de la base de datos
func (h *Handlers) HandleCookiesReload(ctx context.Context) Response {
	if err := h.registry.Reload(ctx); err != nil {
		return failure(err)
	}
	h.logger.Info("cookie accounts reloaded", "platforms", h.registry.Len())
	return success(map[string]int{"platforms": h.registry.Len()})
}

// decodePayload acepta payload vacío como objeto vacío
func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
