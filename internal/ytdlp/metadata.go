package ytdlp

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/elsanchez/vidqueue/internal/domain"
)

// ParseRawInfo convierte una línea de --dump-json en un VideoInfo.
//
// Cada campo ausente o con tipo incorrecto queda en su valor cero. Se descartan
// los formatos sin format_id o sin video, y el registro entero si no queda
// ningún formato ni audio. ok=false también para JSON inválido.
func ParseRawInfo(line []byte) (info domain.VideoInfo, ok bool) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return domain.VideoInfo{}, false
	}
	// Basura después del documento
	if dec.More() {
		return domain.VideoInfo{}, false
	}

	info = domain.VideoInfo{
		VideoID:         stringField(raw, "id"),
		Title:           stringField(raw, "title"),
		Author:          stringField(raw, "channel"),
		DurationSeconds: uint32Field(raw, "duration"),
		ThumbnailURL:    stringField(raw, "thumbnail"),
		SourceURL:       stringField(raw, "original_url"),
	}

	entries, _ := raw["formats"].([]any)
	for _, entry := range entries {
		format, isObject := entry.(map[string]any)
		if !isObject {
			continue
		}

		// El audio se evalúa sobre el video completo, no sobre este formato
		if acodec, isString := format["acodec"].(string); isString && acodec != "none" {
			info.AudioAvailable = true
		}

		formatID := stringField(format, "format_id")
		vcodec, isString := format["vcodec"].(string)
		if formatID == "" || !isString || vcodec == "none" {
			continue
		}

		info.Formats = append(info.Formats, domain.VideoFormat{
			FormatID:  formatID,
			Container: stringField(format, "ext"),
			Width:     uint32Field(format, "width"),
			Height:    uint32Field(format, "height"),
			FPS:       floatField(format, "fps"),
		})
	}

	if !info.Usable() {
		return domain.VideoInfo{}, false
	}
	return info, true
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// uint32Field sólo acepta enteros sin signo que caben en 32 bits. yt-dlp
// reporta duration como 212.0, así que un float sin parte decimal vale.
func uint32Field(obj map[string]any, key string) uint32 {
	n, isNumber := obj[key].(json.Number)
	if !isNumber {
		return 0
	}
	if v, err := strconv.ParseUint(n.String(), 10, 32); err == nil {
		return uint32(v)
	}
	f, err := n.Float64()
	if err != nil || f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		return 0
	}
	return uint32(f)
}

func floatField(obj map[string]any, key string) float64 {
	n, isNumber := obj[key].(json.Number)
	if !isNumber {
		return 0
	}
	v, err := n.Float64()
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
