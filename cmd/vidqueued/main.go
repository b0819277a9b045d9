package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elsanchez/vidqueue/internal/config"
	"github.com/elsanchez/vidqueue/internal/daemon"
	"github.com/elsanchez/vidqueue/internal/logging"
	"github.com/elsanchez/vidqueue/internal/repository/sqlite"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vidqueued:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:           "vidqueued",
		Short:         "vidqueue daemon: fetches and downloads videos with yt-dlp",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, resolved, exists, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if logFormat != "" {
				cfg.Logging.Format = logFormat
			}
			return run(cmd.Context(), cfg, resolved, exists)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "Override logging.format (console, json)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, configPath string, configExists bool) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	logger.Info("vidqueued starting",
		"version", version,
		"config", configPath,
		"config_found", configExists,
		"download_dir", cfg.Paths.DownloadDir,
		"data_dir", cfg.Paths.DataDir,
	)

	db, err := sqlite.NewDatabase(cfg.Paths.DataDir)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := daemon.New(cfg, db.HistoryRepo, db.AccountRepo, logger)
	if err := d.Start(ctx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("%w (lock %s)", err, cfg.LockPath())
		}
		return err
	}
	defer d.Stop()

	logger.Info("vidqueued ready", "socket", cfg.Paths.SocketPath)
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	outputs := []string{"stderr"}
	if cfg.Logging.File {
		outputs = append(outputs, cfg.LogPath())
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
}
