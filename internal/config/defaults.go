package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultDownloadDir   = "~/Downloads"
	defaultDataDir       = "~/.local/share/vidqueue"
	defaultCookiesDir    = "~/.local/share/vidqueue/cookies"
	defaultYtDlp         = "yt-dlp"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultTheme         = "dark"
	defaultRefreshMillis = 500
	socketName           = "vidqueue.sock"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			DataDir:     defaultDataDir,
			SocketPath:  DefaultSocketPath(),
			CookiesDir:  defaultCookiesDir,
		},
		Tool: Tool{
			YtDlp: defaultYtDlp,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		UI: UI{
			Theme:         defaultTheme,
			RefreshMillis: defaultRefreshMillis,
		},
	}
}

// DefaultSocketPath places the socket in XDG_RUNTIME_DIR, falling back to
// /run/user/<uid>.
func DefaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = fmt.Sprintf("/run/user/%d", os.Getuid())
	}
	return filepath.Join(runtimeDir, socketName)
}
