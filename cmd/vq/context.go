package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/elsanchez/vidqueue/internal/config"
	"github.com/elsanchez/vidqueue/internal/repository/sqlite"
	"github.com/elsanchez/vidqueue/pkg/client"
)

const requestTimeout = 10 * time.Second

type commandContext struct {
	socketFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) socketPath() string {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return strings.TrimSpace(*c.socketFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return cfg.Paths.SocketPath
	}
	return config.DefaultSocketPath()
}

func (c *commandContext) client() *client.Client {
	return client.NewClient(c.socketPath())
}

// withClient runs fn with a bounded request context and friendlier dial errors
func (c *commandContext) withClient(cmd *cobra.Command, fn func(context.Context, *client.Client) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()
	return wrapDialError(fn(ctx, c.client()), c.socketPath())
}

// withDatabase opens the database shared with the daemon
func (c *commandContext) withDatabase(fn func(*config.Config, *sqlite.Database) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	db, err := sqlite.NewDatabase(cfg.Paths.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	return fn(cfg, db)
}

func wrapDialError(err error, socket string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.ENOENT) || errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("connect to daemon: socket %s not found; start it with `vidqueued`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify vidqueued is running", socket)
	default:
		return err
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
