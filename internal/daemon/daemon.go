// Package daemon expone el engine por un Unix socket con un protocolo JSON
// de petición/respuesta.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofrs/flock"

	"github.com/elsanchez/vidqueue/internal/config"
	"github.com/elsanchez/vidqueue/internal/cookies"
	"github.com/elsanchez/vidqueue/internal/engine"
	"github.com/elsanchez/vidqueue/internal/library"
	"github.com/elsanchez/vidqueue/internal/repository"
)

// ErrAlreadyRunning indica que otro daemon tiene el lock
var ErrAlreadyRunning = errors.New("vidqueued is already running")

// Daemon agrupa loop, engine, colección y servidor
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	lock   *flock.Flock

	loop     *engine.Loop
	engine   *engine.Engine
	library  *library.Library
	registry *cookies.Registry
	journal  *Journal
	server   *Server

	cancel  context.CancelFunc
	loopErr chan error
	stopped sync.Once
}

// New arma el daemon. Las opciones se pasan al engine (tests).
func New(cfg *config.Config, history repository.HistoryRepository, accounts repository.AccountRepository, logger *slog.Logger, opts ...engine.Option) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}

	registry := cookies.NewRegistry(accounts)
	loop := engine.NewLoop(logger)
	engineOpts := append([]engine.Option{
		engine.WithLogger(logger),
		engine.WithCookieSource(registry),
	}, opts...)
	eng := engine.New(loop, cfg, engineOpts...)
	lib := library.New(history, eng, cfg, logger)
	journal := NewJournal()

	d := &Daemon{
		cfg:      cfg,
		logger:   logger.With("component", "daemon"),
		lock:     flock.New(cfg.LockPath()),
		loop:     loop,
		engine:   eng,
		library:  lib,
		registry: registry,
		journal:  journal,
	}
	handlers := NewHandlers(loop, eng, lib, registry, journal, logger)
	d.server = NewServer(cfg.Paths.SocketPath, handlers, logger)

	lib.Attach(eng)
	eng.Subscribe(d.logEvent)
	eng.Subscribe(journal.Record)
	return d
}

// Start toma el lock, arranca el loop, carga la primera página del
// historial y abre el socket.
func (d *Daemon) Start(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	if err := d.registry.Reload(ctx); err != nil {
		d.logger.Warn("failed to load cookie accounts", "error", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.loopErr = make(chan error, 1)
	go func() { d.loopErr <- d.loop.Run(loopCtx) }()

	var (
		loaded  int
		loadErr error
	)
	if err := d.loop.Do(ctx, func() { loaded, loadErr = d.library.LoadMore(ctx) }); err != nil {
		loadErr = err
	}
	if loadErr != nil {
		d.shutdown()
		return fmt.Errorf("load history: %w", loadErr)
	}

	if err := d.server.Start(ctx); err != nil {
		d.shutdown()
		return err
	}

	d.logger.Info("daemon started",
		"lock", d.cfg.LockPath(),
		"history", loaded,
		"program_exists", d.engine.ProgramExists(),
		"cookie_platforms", d.registry.Len(),
	)
	return nil
}

// Stop cierra el socket, cancela la descarga activa y libera el lock
func (d *Daemon) Stop() {
	d.stopped.Do(func() {
		if err := d.server.Stop(); err != nil {
			d.logger.Warn("failed to stop server", "error", err)
		}

		// Ningún proceso sobrevive al daemon
		if d.cancel != nil {
			_ = d.loop.Do(context.Background(), func() {
				for _, v := range d.engine.Pending() {
					v.RequestCancel()
				}
				if active := d.engine.Active(); active != nil {
					active.RequestCancel()
				}
			})
		}

		d.shutdown()
		d.logger.Info("daemon stopped")
	})
}

func (d *Daemon) shutdown() {
	if d.cancel != nil {
		d.cancel()
		<-d.loopErr
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", "error", err)
	}
}

// logEvent vuelca al log los eventos que el usuario debería ver
func (d *Daemon) logEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventStandardError:
		d.logger.Debug("yt-dlp stderr", "invocation", ev.Invocation, "video_id", ev.VideoID, "output", ev.Message)
	case engine.EventProcessError:
		d.logger.Error("yt-dlp failed", "invocation", ev.Invocation, "video_id", ev.VideoID, "error", ev.Message)
	case engine.EventWarning:
		d.logger.Warn(ev.Message)
	case engine.EventFetchBadParse:
		d.logger.Warn("unusable metadata record", "invocation", ev.Invocation)
	case engine.EventProgramExistsChanged:
		d.logger.Info("yt-dlp availability changed", "available", ev.Flag)
	}
}
