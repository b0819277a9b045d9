package main

import (
	"github.com/spf13/cobra"

	"github.com/elsanchez/vidqueue/internal/tui"
)

func newTUICommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive queue view",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			c := ctx.client()
			// Fail early when the daemon is not running
			if err := wrapDialError(c.Ping(cmd.Context()), c.SocketPath()); err != nil {
				return err
			}
			return tui.Run(cmd.Context(), c, cfg.UI)
		},
	}
}
