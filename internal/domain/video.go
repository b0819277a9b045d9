package domain

import (
	"sync"
)

// Field identifica qué campo de un ManagedVideo cambió
type Field int

const (
	FieldProgress Field = iota
	FieldSelectedFormat
	FieldDownloadThumbnail
	FieldState
)

func (f Field) String() string {
	switch f {
	case FieldProgress:
		return "progress"
	case FieldSelectedFormat:
		return "selected_format"
	case FieldDownloadThumbnail:
		return "download_thumbnail"
	case FieldState:
		return "state"
	default:
		return "unknown"
	}
}

// ChangeFunc recibe el video y el campo modificado; el listener relee el campo
type ChangeFunc func(v *ManagedVideo, field Field)

type hook[T any] struct {
	id int
	fn T
}

// ManagedVideo envuelve un VideoInfo con la intención de descarga del usuario
// y su estado. Las escrituras ocurren siempre en el loop del engine; las
// lecturas pueden venir de cualquier goroutine.
type ManagedVideo struct {
	id        int64
	createdAt int64
	info      VideoInfo

	mu                sync.RWMutex
	selectedFormat    string
	downloadThumbnail bool
	progress          float64
	state             DownloadState
	cachedIndex       int

	hooksMu       sync.Mutex
	nextHookID    int
	changeHooks   []hook[ChangeFunc]
	cancelHooks   []hook[func()]
	downloadHooks []hook[func(*ManagedVideo)]
}

// NewManagedVideo crea un video recién persistido, en estado Added.
// El formato seleccionado por defecto es el último de la lista: yt-dlp los
// ordena de peor a mejor calidad.
func NewManagedVideo(id, createdAt int64, info VideoInfo, downloadThumbnail bool) *ManagedVideo {
	v := &ManagedVideo{
		id:                id,
		createdAt:         createdAt,
		info:              info,
		downloadThumbnail: downloadThumbnail,
		state:             StateAdded,
		cachedIndex:       -1,
	}
	if n := len(info.Formats); n > 0 {
		v.selectedFormat = info.Formats[n-1].FormatID
	}
	return v
}

// RestoreManagedVideo reconstruye un video desde el historial. Ningún proceso
// sobrevive a un reinicio, así que Queued y Downloading vuelven a Added.
func RestoreManagedVideo(entry *HistoryEntry, downloadThumbnail bool) *ManagedVideo {
	v := NewManagedVideo(entry.ID, entry.CreatedAt, entry.Info, downloadThumbnail)
	if entry.State == StateComplete {
		v.state = StateComplete
		v.progress = 1
	}
	return v
}

func (v *ManagedVideo) ID() int64 { return v.id }

func (v *ManagedVideo) CreatedAt() int64 { return v.createdAt }

func (v *ManagedVideo) Info() VideoInfo { return v.info }

func (v *ManagedVideo) SelectedFormat() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.selectedFormat
}

func (v *ManagedVideo) DownloadThumbnail() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.downloadThumbnail
}

func (v *ManagedVideo) Progress() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.progress
}

func (v *ManagedVideo) State() DownloadState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// CachedIndex es la última posición conocida en la colección, -1 si no hay.
// Es sólo una pista: quien la usa debe verificar la identidad.
func (v *ManagedVideo) CachedIndex() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cachedIndex
}

func (v *ManagedVideo) SetCachedIndex(idx int) {
	v.mu.Lock()
	v.cachedIndex = idx
	v.mu.Unlock()
}

// SetSelectedFormat acepta "" (sólo audio) o un format_id existente
func (v *ManagedVideo) SetSelectedFormat(formatID string) bool {
	if formatID != "" {
		if _, ok := v.info.FindFormat(formatID); !ok {
			return false
		}
	}
	v.mu.Lock()
	if v.selectedFormat == formatID {
		v.mu.Unlock()
		return true
	}
	v.selectedFormat = formatID
	v.mu.Unlock()

	v.notify(FieldSelectedFormat)
	return true
}

func (v *ManagedVideo) SetDownloadThumbnail(enabled bool) {
	v.mu.Lock()
	if v.downloadThumbnail == enabled {
		v.mu.Unlock()
		return
	}
	v.downloadThumbnail = enabled
	v.mu.Unlock()

	v.notify(FieldDownloadThumbnail)
}

// SetProgress fija el progreso, acotado a [0, 1]
func (v *ManagedVideo) SetProgress(progress float64) {
	switch {
	case progress < 0:
		progress = 0
	case progress > 1:
		progress = 1
	}

	v.mu.Lock()
	if v.progress == progress {
		v.mu.Unlock()
		return
	}
	v.progress = progress
	v.mu.Unlock()

	v.notify(FieldProgress)
}

// RequestState pide una transición. Sólo se concede si la tabla de
// CanTransition la permite; si no, no cambia nada ni notifica.
func (v *ManagedVideo) RequestState(to DownloadState) bool {
	v.mu.Lock()
	if !v.state.CanTransition(to) {
		v.mu.Unlock()
		return false
	}
	v.state = to
	v.mu.Unlock()

	v.notify(FieldState)
	return true
}

// Subscribe registra un listener de cambios. Devuelve la función para darlo de baja.
func (v *ManagedVideo) Subscribe(fn ChangeFunc) (unsubscribe func()) {
	v.hooksMu.Lock()
	defer v.hooksMu.Unlock()
	id := v.allocHookID()
	v.changeHooks = append(v.changeHooks, hook[ChangeFunc]{id: id, fn: fn})
	return func() {
		v.hooksMu.Lock()
		defer v.hooksMu.Unlock()
		v.changeHooks = removeHook(v.changeHooks, id)
	}
}

// OnCancelRequested registra un listener del evento de cancelación
func (v *ManagedVideo) OnCancelRequested(fn func()) (unsubscribe func()) {
	v.hooksMu.Lock()
	defer v.hooksMu.Unlock()
	id := v.allocHookID()
	v.cancelHooks = append(v.cancelHooks, hook[func()]{id: id, fn: fn})
	return func() {
		v.hooksMu.Lock()
		defer v.hooksMu.Unlock()
		v.cancelHooks = removeHook(v.cancelHooks, id)
	}
}

// OnDownloadRequested registra un listener del evento "descargar"
func (v *ManagedVideo) OnDownloadRequested(fn func(*ManagedVideo)) (unsubscribe func()) {
	v.hooksMu.Lock()
	defer v.hooksMu.Unlock()
	id := v.allocHookID()
	v.downloadHooks = append(v.downloadHooks, hook[func(*ManagedVideo)]{id: id, fn: fn})
	return func() {
		v.hooksMu.Lock()
		defer v.hooksMu.Unlock()
		v.downloadHooks = removeHook(v.downloadHooks, id)
	}
}

// RequestCancel emite el evento de cancelación. Sin listeners no hace nada.
func (v *ManagedVideo) RequestCancel() {
	v.hooksMu.Lock()
	hooks := append([]hook[func()](nil), v.cancelHooks...)
	v.hooksMu.Unlock()

	for _, h := range hooks {
		h.fn()
	}
}

// RequestDownload emite el evento "descargar" hacia quien gestione la cola
func (v *ManagedVideo) RequestDownload() {
	v.hooksMu.Lock()
	hooks := append([]hook[func(*ManagedVideo)](nil), v.downloadHooks...)
	v.hooksMu.Unlock()

	for _, h := range hooks {
		h.fn(v)
	}
}

func (v *ManagedVideo) notify(field Field) {
	v.hooksMu.Lock()
	hooks := append([]hook[ChangeFunc](nil), v.changeHooks...)
	v.hooksMu.Unlock()

	for _, h := range hooks {
		h.fn(v, field)
	}
}

func (v *ManagedVideo) allocHookID() int {
	v.nextHookID++
	return v.nextHookID
}

func removeHook[T any](hooks []hook[T], id int) []hook[T] {
	for i, h := range hooks {
		if h.id == id {
			return append(hooks[:i:i], hooks[i+1:]...)
		}
	}
	return hooks
}

// VideoSnapshot es una copia de sólo lectura para el socket y la TUI
type VideoSnapshot struct {
	ID                int64         `json:"id"`
	CreatedAt         int64         `json:"created_at"`
	Info              VideoInfo     `json:"info"`
	SelectedFormat    string        `json:"selected_format"`
	DownloadThumbnail bool          `json:"download_thumbnail"`
	Progress          float64       `json:"progress"`
	State             DownloadState `json:"state"`
}

// Snapshot copia el estado actual
func (v *ManagedVideo) Snapshot() VideoSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return VideoSnapshot{
		ID:                v.id,
		CreatedAt:         v.createdAt,
		Info:              v.info,
		SelectedFormat:    v.selectedFormat,
		DownloadThumbnail: v.downloadThumbnail,
		Progress:          v.progress,
		State:             v.state,
	}
}
