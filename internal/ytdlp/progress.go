package ytdlp

import (
	"regexp"
	"strconv"
)

var (
	// El chunk completo debe ser una o más líneas de porcentaje, cada una
	// terminada en salto de línea salvo la última
	progressChunkRe = regexp.MustCompile(`^(?:[ \t]*\d{1,3}(?:\.\d{1,2})?%[ \t]*(?:\r?\n|$))+$`)
	percentRe       = regexp.MustCompile(`(\d{1,3}(?:\.\d{1,2})?)%`)
)

// ParseProgress interpreta un chunk de stdout del modo descarga y devuelve el
// último porcentaje como fracción en [0, 1]. ok=false si el chunk no es sólo
// progreso o algún valor supera 100.
func ParseProgress(text string) (fraction float64, ok bool) {
	if !progressChunkRe.MatchString(text) {
		return 0, false
	}

	matches := percentRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}

	var last float64
	for _, m := range matches {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil || value < 0 || value > 100 {
			return 0, false
		}
		last = value
	}

	return last / 100, true
}
