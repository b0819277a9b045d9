package config

import (
	"fmt"
	"os"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateTool(); err != nil {
		return err
	}
	return c.validateUI()
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateTool() error {
	if c.Tool.FFmpegDir == "" {
		return nil
	}
	info, err := os.Stat(c.Tool.FFmpegDir)
	if err != nil {
		return fmt.Errorf("tool.ffmpeg_dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("tool.ffmpeg_dir: %q is not a directory", c.Tool.FFmpegDir)
	}
	return nil
}

func (c *Config) validateUI() error {
	switch c.UI.Theme {
	case "dark", "light":
		return nil
	default:
		return fmt.Errorf("ui.theme: unsupported value %q", c.UI.Theme)
	}
}
