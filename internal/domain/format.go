package domain

import "fmt"

// VideoFormat describe una codificación de video tal como la reporta yt-dlp.
// Un FormatID vacío significa que el formato no se puede seleccionar.
type VideoFormat struct {
	FormatID  string  `json:"format_id"`
	Container string  `json:"container"` // extensión del archivo
	Width     uint32  `json:"width"`     // 0 = desconocido
	Height    uint32  `json:"height"`    // 0 = desconocido
	FPS       float64 `json:"fps"`
}

// String devuelve una etiqueta legible, p.ej. "137 mp4 1920x1080@30"
func (f VideoFormat) String() string {
	s := f.FormatID
	if f.Container != "" {
		s += " " + f.Container
	}
	if f.Width > 0 || f.Height > 0 {
		s += fmt.Sprintf(" %dx%d", f.Width, f.Height)
	}
	if f.FPS > 0 {
		s += fmt.Sprintf("@%g", f.FPS)
	}
	return s
}

// VideoInfo son los metadatos inmutables de un video descubierto
type VideoInfo struct {
	VideoID         string        `json:"video_id"`
	Title           string        `json:"title"`
	Author          string        `json:"author"`
	DurationSeconds uint32        `json:"duration_seconds"`
	ThumbnailURL    string        `json:"thumbnail_url"`
	SourceURL       string        `json:"source_url"`
	Formats         []VideoFormat `json:"formats"` // en el orden reportado por la herramienta
	AudioAvailable  bool          `json:"audio_available"`
}

// Usable indica si hay algo que descargar
func (i VideoInfo) Usable() bool {
	return len(i.Formats) > 0 || i.AudioAvailable
}

// Equal compara estructuralmente, incluyendo el orden de los formatos
func (i VideoInfo) Equal(other VideoInfo) bool {
	if i.VideoID != other.VideoID ||
		i.Title != other.Title ||
		i.Author != other.Author ||
		i.DurationSeconds != other.DurationSeconds ||
		i.ThumbnailURL != other.ThumbnailURL ||
		i.SourceURL != other.SourceURL ||
		i.AudioAvailable != other.AudioAvailable ||
		len(i.Formats) != len(other.Formats) {
		return false
	}
	for idx := range i.Formats {
		if i.Formats[idx] != other.Formats[idx] {
			return false
		}
	}
	return true
}

// FindFormat busca un formato por su id
func (i VideoInfo) FindFormat(formatID string) (VideoFormat, bool) {
	for _, f := range i.Formats {
		if f.FormatID == formatID {
			return f, true
		}
	}
	return VideoFormat{}, false
}

// HistoryEntry es una fila del historial ya persistida
type HistoryEntry struct {
	ID        int64
	CreatedAt int64 // unix millis, asignado por el store
	Info      VideoInfo
	State     DownloadState
}
