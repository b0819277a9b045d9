package ytdlp

// ProgressTemplate hace que yt-dlp imprima sólo el porcentaje, una línea por
// actualización
const ProgressTemplate = "download:%(progress._percent_str)s"

// Options son los ajustes comunes a todas las invocaciones
type Options struct {
	// CookieFile es un archivo Netscape; vacío = sin cookies
	CookieFile string
	// FFmpegDir se pasa como --ffmpeg-location; vacío = buscar en PATH
	FFmpegDir string
}

func (o Options) args() []string {
	var args []string
	if o.CookieFile != "" {
		args = append(args, "--cookies", o.CookieFile)
	}
	if o.FFmpegDir != "" {
		args = append(args, "--ffmpeg-location", o.FFmpegDir)
	}
	return args
}

// FetchArgs construye los argumentos del modo metadatos: un documento JSON por
// línea, en orden inverso de playlist
func FetchArgs(url string, opts Options) []string {
	args := []string{"--dump-json", "--playlist-reverse"}
	args = append(args, opts.args()...)
	return append(args, url)
}

// DownloadArgs construye los argumentos de descarga. Un formatID vacío
// descarga sólo el mejor audio.
func DownloadArgs(url, formatID string, writeThumbnail bool, opts Options) []string {
	args := []string{
		"--quiet",
		"--progress",
		"--newline",
		"--progress-template", ProgressTemplate,
		"-f", FormatSelector(formatID),
	}
	if writeThumbnail {
		args = append(args, "--write-thumbnail")
	}
	args = append(args, opts.args()...)
	return append(args, url)
}

// FormatSelector combina el formato de video elegido con el mejor audio
func FormatSelector(formatID string) string {
	if formatID == "" {
		return "ba"
	}
	return formatID + "+ba"
}
