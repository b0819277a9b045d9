package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if exists {
		t.Error("expected exists=false for a missing file")
	}
	if resolved != path {
		t.Errorf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Tool.YtDlp != "yt-dlp" {
		t.Errorf("expected default yt-dlp, got %q", cfg.Tool.YtDlp)
	}
	if cfg.Download.Thumbnail {
		t.Error("thumbnail should default to false")
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) || strings.Contains(cfg.Paths.DataDir, "~") {
		t.Errorf("data dir not expanded: %q", cfg.Paths.DataDir)
	}
	if cfg.UI.RefreshMillis != defaultRefreshMillis {
		t.Errorf("expected default refresh, got %d", cfg.UI.RefreshMillis)
	}
}

func TestLoad_ParsesFile(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, "ffmpeg")
	if err := os.Mkdir(ffmpeg, 0o755); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
download_dir = "` + filepath.ToSlash(dir) + `/videos"

[tool]
ytdlp = "/usr/local/bin/yt-dlp"
ffmpeg_dir = "` + filepath.ToSlash(ffmpeg) + `"

[download]
thumbnail = true

[logging]
level = "DEBUG"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !exists {
		t.Error("expected exists=true")
	}
	if cfg.DownloadDir() != filepath.Join(dir, "videos") {
		t.Errorf("unexpected download dir %q", cfg.DownloadDir())
	}
	if cfg.YtDlpPath() != "/usr/local/bin/yt-dlp" {
		t.Errorf("unexpected yt-dlp path %q", cfg.YtDlpPath())
	}
	if cfg.FFmpegDir() != ffmpeg {
		t.Errorf("unexpected ffmpeg dir %q", cfg.FFmpegDir())
	}
	if !cfg.Download.Thumbnail {
		t.Error("expected thumbnail enabled")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging not normalized: %+v", cfg.Logging)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad toml", "[paths\n", "parse config"},
		{"unknown key", "[paths]\nvideo_dir = \"/x\"\n", "parse config"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad theme", "[ui]\ntheme = \"neon\"\n", "ui.theme"},
		{"missing ffmpeg", "[tool]\nffmpeg_dir = \"/definitely/not/here\"\n", "tool.ffmpeg_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, _, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandPath("~/Videos")
	if err != nil {
		t.Fatalf("ExpandPath() error = %v", err)
	}
	if got != filepath.Join(home, "Videos") {
		t.Errorf("ExpandPath(~/Videos) = %q", got)
	}

	if got, _ := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q, want empty", got)
	}
}

func TestDefaultConfigPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error = %v", err)
	}
	if got != filepath.Join(dir, "vidqueue", "config.toml") {
		t.Errorf("unexpected config path %q", got)
	}
}

func TestCreateSample_Loads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample() error = %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("sample config does not load: exists=%v err=%v", exists, err)
	}
}
