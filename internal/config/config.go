package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	DataDir     string `toml:"data_dir"`
	SocketPath  string `toml:"socket_path"`
	CookiesDir  string `toml:"cookies_dir"`
}

// Tool locates the external programs.
type Tool struct {
	YtDlp     string `toml:"ytdlp"`
	FFmpegDir string `toml:"ffmpeg_dir"`
}

// Download holds per-video defaults.
type Download struct {
	Thumbnail bool `toml:"thumbnail"`
}

// Logging controls the daemon logger.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File enables a copy of the log in data_dir.
	File bool `toml:"file"`
}

// UI configures the terminal interface.
type UI struct {
	Theme string `toml:"theme"`
	// RefreshMillis is the daemon polling interval.
	RefreshMillis int `toml:"refresh_ms"`
}

// Config encapsulates all configuration values for vidqueue.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Tool     Tool     `toml:"tool"`
	Download Download `toml:"download"`
	Logging  Logging  `toml:"logging"`
	UI       UI       `toml:"ui"`
}

// DefaultConfigPath returns the configuration file location, honouring
// XDG_CONFIG_HOME.
func DefaultConfigPath() (string, error) {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return expandPath(filepath.Join(base, "vidqueue", "config.toml"))
	}
	return expandPath("~/.config/vidqueue/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error: defaults are returned and exists is false.
func Load(path string) (cfg *Config, resolvedPath string, exists bool, err error) {
	c := Default()

	resolvedPath, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&c); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := c.Validate(); err != nil {
		return nil, "", false, err
	}

	return &c, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// EnsureDirectories creates the directories the daemon writes to. The
// download directory is best-effort: a missing one falls back at download
// time.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.CookiesDir, filepath.Dir(c.Paths.SocketPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	_ = os.MkdirAll(c.Paths.DownloadDir, 0o755)
	return nil
}

// DownloadDir returns the configured destination directory.
func (c *Config) DownloadDir() string { return c.Paths.DownloadDir }

// YtDlpPath returns the yt-dlp executable name or path.
func (c *Config) YtDlpPath() string { return c.Tool.YtDlp }

// FFmpegDir returns the directory passed as --ffmpeg-location, if any.
func (c *Config) FFmpegDir() string { return c.Tool.FFmpegDir }

// DownloadThumbnail is the thumbnail default for newly added videos.
func (c *Config) DownloadThumbnail() bool { return c.Download.Thumbnail }

// LockPath is the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "vidqueued.lock")
}

// LogPath is the daemon log file, used when logging.file is enabled.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.DataDir, "vidqueued.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
