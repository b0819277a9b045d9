package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/elsanchez/vidqueue/internal/config"
	"github.com/elsanchez/vidqueue/internal/cookies"
	"github.com/elsanchez/vidqueue/internal/repository/sqlite"
	cookiestui "github.com/elsanchez/vidqueue/internal/tui/cookies"
)

func newCookiesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Manage the cookie accounts passed to yt-dlp",
	}

	cmd.AddCommand(newCookiesImportCommand(ctx))
	cmd.AddCommand(newCookiesExtractCommand(ctx))
	cmd.AddCommand(newCookiesListCommand(ctx))
	cmd.AddCommand(newCookiesActivateCommand(ctx))
	cmd.AddCommand(newCookiesExportCommand(ctx))
	cmd.AddCommand(newCookiesRemoveCommand(ctx))
	cmd.AddCommand(newCookiesTUICommand(ctx))
	return cmd
}

// notifyDaemon asks a running daemon to reload accounts; a stopped daemon
// reads them at startup anyway.
func notifyDaemon(cmd *cobra.Command, ctx *commandContext) {
	rctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()
	if _, err := ctx.client().ReloadCookies(rctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Note: daemon not reloaded:", wrapDialError(err, ctx.socketPath()))
	}
}

func newCookiesImportCommand(ctx *commandContext) *cobra.Command {
	var opts cookies.ImportOptions

	cmd := &cobra.Command{
		Use:   "import <cookies.txt>",
		Short: "Import a Netscape cookie file as an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.FilePath = args[0]
			err := ctx.withDatabase(func(cfg *config.Config, db *sqlite.Database) error {
				importer := cookies.NewImporter(cfg.Paths.CookiesDir, db.AccountRepo)
				account, result, err := importer.Import(cmd.Context(), opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s/%s (%s)\n", account.Platform, account.Name, result.Message)
				if account.IsActive {
					fmt.Fprintln(cmd.OutOrStdout(), "Account is now active")
				}
				return nil
			})
			if err != nil {
				return err
			}
			if opts.Activate {
				notifyDaemon(cmd, ctx)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Platform, "platform", "p", "", "Platform (detected from cookie domains when omitted)")
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Account name")
	cmd.Flags().BoolVarP(&opts.Activate, "activate", "a", false, "Make it the active account for its platform")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing account or import expired cookies")
	return cmd
}

func newCookiesExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		browser  string
		domain   string
		name     string
		activate bool
	)

	cmd := &cobra.Command{
		Use:     "extract",
		Short:   "Extract cookies for a domain from an installed browser",
		Example: "  vq cookies extract --browser firefox --domain instagram.com --activate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if domain == "" {
				return fmt.Errorf("--domain is required")
			}

			tmp, err := os.MkdirTemp("", "vq-cookies")
			if err != nil {
				return fmt.Errorf("create temp dir: %w", err)
			}
			defer os.RemoveAll(tmp)

			output := filepath.Join(tmp, "cookies.txt")
			found, err := cookies.Extract(cmd.Context(), cookies.ExtractOptions{
				Browser:    browser,
				Domain:     domain,
				OutputPath: output,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d cookies for %s\n", len(found), domain)

			err = ctx.withDatabase(func(cfg *config.Config, db *sqlite.Database) error {
				importer := cookies.NewImporter(cfg.Paths.CookiesDir, db.AccountRepo)
				account, _, err := importer.Import(cmd.Context(), cookies.ImportOptions{
					FilePath: output,
					Name:     name,
					Activate: activate,
					Force:    true,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved as %s/%s\n", account.Platform, account.Name)
				return nil
			})
			if err != nil {
				return err
			}
			if activate {
				notifyDaemon(cmd, ctx)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&browser, "browser", "b", "", fmt.Sprintf("Browser to read (%v); any when omitted", cookies.SupportedBrowsers()))
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Cookie domain, e.g. instagram.com")
	cmd.Flags().StringVarP(&name, "name", "n", "browser", "Account name")
	cmd.Flags().BoolVarP(&activate, "activate", "a", false, "Make it the active account for its platform")
	return cmd
}

func newCookiesListCommand(ctx *commandContext) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cookie accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(func(_ *config.Config, db *sqlite.Database) error {
				accounts, err := db.AccountRepo.List(cmd.Context(), platform)
				if err != nil {
					return err
				}
				if len(accounts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No accounts; import one with `vq cookies import`")
					return nil
				}

				now := time.Now()
				rows := make([][]string, 0, len(accounts))
				for _, acc := range accounts {
					lastUsed := "never"
					if acc.LastUsed != nil {
						lastUsed = humanize.Time(*acc.LastUsed)
					}
					result := cookies.ValidateFile(acc.CookiePath, now)
					expires := "-"
					if !result.ExpiresAt.IsZero() {
						expires = humanize.RelTime(result.ExpiresAt, now, "ago", "from now")
					}
					rows = append(rows, []string{
						strconv.FormatInt(acc.ID, 10),
						acc.Platform,
						acc.Name,
						yesNo(acc.IsActive),
						string(result.Status),
						expires,
						lastUsed,
					})
				}
				headers := []string{"ID", "Platform", "Name", "Active", "Cookies", "Expires", "Last used"}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, []columnAlignment{alignRight}))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Only this platform")
	return cmd
}

func newCookiesActivateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <platform> <name>",
		Short: "Use an account for every request to its platform",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := ctx.withDatabase(func(_ *config.Config, db *sqlite.Database) error {
				if err := db.AccountRepo.SetActive(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Active account for %s: %s\n", args[0], args[1])
				return nil
			})
			if err != nil {
				return err
			}
			notifyDaemon(cmd, ctx)
			return nil
		},
	}
}

func newCookiesExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <platform> <name> <output>",
		Short: "Copy an account's cookie file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(func(_ *config.Config, db *sqlite.Database) error {
				if err := cookies.Export(cmd.Context(), db.AccountRepo, args[0], args[1], args[2]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s/%s to %s\n", args[0], args[1], args[2])
				return nil
			})
		},
	}
}

func newCookiesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <platform> <name>",
		Aliases: []string{"rm"},
		Short:   "Delete an account and its cookie file",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := ctx.withDatabase(func(_ *config.Config, db *sqlite.Database) error {
				account, err := db.AccountRepo.GetByName(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if err := db.AccountRepo.Delete(cmd.Context(), account.ID); err != nil {
					return err
				}
				if err := os.Remove(account.CookiePath); err != nil && !os.IsNotExist(err) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Warning: could not delete cookie file:", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s/%s\n", args[0], args[1])
				return nil
			})
			if err != nil {
				return err
			}
			notifyDaemon(cmd, ctx)
			return nil
		},
	}
}


func newCookiesTUICommand(ctx *commandContext) *cobra.Command {
	var exportDir string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Manage cookie accounts interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportDir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				exportDir = wd
			}
			return ctx.withDatabase(func(cfg *config.Config, db *sqlite.Database) error {
				return cookiestui.Run(cmd.Context(), cookiestui.Options{
					Accounts:  db.AccountRepo,
					Importer:  cookies.NewImporter(cfg.Paths.CookiesDir, db.AccountRepo),
					ExportDir: exportDir,
					OnChange: func(rctx context.Context) error {
						rctx, cancel := context.WithTimeout(rctx, requestTimeout)
						defer cancel()
						_, err := ctx.client().ReloadCookies(rctx)
						return err
					},
				})
			})
		},
	}

	cmd.Flags().StringVar(&exportDir, "export-dir", "", "Directory for exported cookie files (default: current directory)")
	return cmd
}
