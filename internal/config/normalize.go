package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTool(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeUI()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.download_dir", &c.Paths.DownloadDir, defaultDownloadDir},
		{"paths.data_dir", &c.Paths.DataDir, defaultDataDir},
		{"paths.socket_path", &c.Paths.SocketPath, DefaultSocketPath()},
		{"paths.cookies_dir", &c.Paths.CookiesDir, defaultCookiesDir},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.value) == "" {
			*f.value = f.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

func (c *Config) normalizeTool() error {
	c.Tool.YtDlp = strings.TrimSpace(c.Tool.YtDlp)
	if c.Tool.YtDlp == "" {
		c.Tool.YtDlp = defaultYtDlp
	}
	// Bare names are resolved through PATH; only paths are expanded
	if strings.ContainsAny(c.Tool.YtDlp, `/\`) || strings.HasPrefix(c.Tool.YtDlp, "~") {
		expanded, err := expandPath(c.Tool.YtDlp)
		if err != nil {
			return fmt.Errorf("tool.ytdlp: %w", err)
		}
		c.Tool.YtDlp = expanded
	}

	dir, err := expandPath(strings.TrimSpace(c.Tool.FFmpegDir))
	if err != nil {
		return fmt.Errorf("tool.ffmpeg_dir: %w", err)
	}
	c.Tool.FFmpegDir = dir
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

func (c *Config) normalizeUI() {
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	if c.UI.Theme == "" {
		c.UI.Theme = defaultTheme
	}
	if c.UI.RefreshMillis <= 0 {
		c.UI.RefreshMillis = defaultRefreshMillis
	}
}
