package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/pkg/client"
)

func newVideoCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newAddCommand(ctx),
		newListCommand(ctx),
		newFormatsCommand(ctx),
		newDownloadCommand(ctx),
		newCancelCommand(ctx),
		newSelectCommand(ctx),
		newRemoveCommand(ctx),
		newMoreCommand(ctx),
		newEventsCommand(ctx),
		newStatusCommand(ctx),
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid video id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var download bool

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Fetch the videos behind a URL and add them to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			c := ctx.client()

			var before map[int64]bool
			err := ctx.withClient(cmd, func(rctx context.Context, c *client.Client) error {
				videos, _, err := c.List(rctx)
				if err != nil {
					return err
				}
				before = make(map[int64]bool, len(videos))
				for _, v := range videos {
					before[v.ID] = true
				}

				result, err := c.Fetch(rctx, url)
				if err != nil {
					return err
				}
				if !result.Started {
					return fmt.Errorf("fetch not started: another fetch is running or yt-dlp is missing (see `vq status`)")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Fetching %s (%s)...\n", url, result.Platform)
				return nil
			})
			if err != nil {
				return err
			}

			added, err := waitForFetch(cmd.Context(), c, before)
			if err != nil {
				return wrapDialError(err, ctx.socketPath())
			}
			if len(added) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No usable videos found (see `vq events`)")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderVideos(added))
			if !download {
				return nil
			}
			return ctx.withClient(cmd, func(rctx context.Context, c *client.Client) error {
				for _, v := range added {
					if _, err := c.Download(rctx, v.ID); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %d video(s)\n", len(added))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&download, "download", "d", false, "Queue every fetched video for download")
	return cmd
}

// waitForFetch polls until the daemon stops fetching and returns new videos
func waitForFetch(ctx context.Context, c *client.Client, before map[int64]bool) ([]domain.VideoSnapshot, error) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		status, err := c.Status(ctx)
		if err != nil {
			return nil, err
		}
		if !status.Fetching {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	videos, _, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	var added []domain.VideoSnapshot
	for _, v := range videos {
		if !before[v.ID] {
			added = append(added, v)
		}
	}
	return added, nil
}

func renderVideos(videos []domain.VideoSnapshot) string {
	headers := []string{"ID", "Title", "Length", "Format", "State", "Progress", "Added"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft}
	return renderTable(headers, videoRows(videos, time.Now()), aligns)
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the library, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rctx context.Context, c *client.Client) error {
				videos, exhausted, err := c.List(rctx)
				if err != nil {
					return err
				}
				if len(videos) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Library is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderVideos(videos))
				if !exhausted {
					fmt.Fprintln(cmd.OutOrStdout(), "Older videos available: run `vq more`")
				}
				return nil
			})
		},
	}
}

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "formats <id>",
		Short: "List the encodings available for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(rctx context.Context, c *client.Client) error {
				videos, _, err := c.List(rctx)
				if err != nil {
					return err
				}
				for _, v := range videos {
					if v.ID != ids[0] {
						continue
					}
					rows := make([][]string, 0, len(v.Info.Formats)+1)
					for _, f := range v.Info.Formats {
						rows = append(rows, formatRow(f, f.FormatID == v.SelectedFormat))
					}
					if v.Info.AudioAvailable {
						rows = append(rows, []string{"", "audio only", "", "", "", selectedMark(v.SelectedFormat == "")})
					}
					headers := []string{"Format", "Container", "Width", "Height", "FPS", "Selected"}
					aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
					fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
					return nil
				}
				return fmt.Errorf("video %d not found", ids[0])
			})
		},
	}
}

func formatRow(f domain.VideoFormat, selected bool) []string {
	dim := func(n uint32) string {
		if n == 0 {
			return "?"
		}
		return strconv.FormatUint(uint64(n), 10)
	}
	fps := "-"
	if f.FPS > 0 {
		fps = strconv.FormatFloat(f.FPS, 'f', -1, 64)
	}
	return []string{f.FormatID, f.Container, dim(f.Width), dim(f.Height), fps, selectedMark(selected)}
}

func selectedMark(selected bool) string {
	if selected {
		return "*"
	}
	return ""
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download <id>...",
		Short: "Queue videos for download",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return eachVideo(ctx, cmd, args, "Queued", func(rctx context.Context, c *client.Client, id int64) (*domain.VideoSnapshot, error) {
				return c.Download(rctx, id)
			})
		},
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>...",
		Short: "Cancel queued or running downloads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return eachVideo(ctx, cmd, args, "Cancelled", func(rctx context.Context, c *client.Client, id int64) (*domain.VideoSnapshot, error) {
				return c.Cancel(rctx, id)
			})
		},
	}
}

func eachVideo(ctx *commandContext, cmd *cobra.Command, args []string, verb string, fn func(context.Context, *client.Client, int64) (*domain.VideoSnapshot, error)) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return ctx.withClient(cmd, func(rctx context.Context, c *client.Client) error {
		for _, id := range ids {
			v, err := fn(rctx, c, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %s (%s)\n", verb, v.ID, videoTitle(*v), v.State)
		}
		return nil
	})
}

func newSelectCommand(ctx *commandContext) *cobra.Command {
	var (
		format      string
		audioOnly   bool
		thumbnail   bool
		noThumbnail bool
	)

	cmd := &cobra.Command{
		Use:   "select <id>",
		Short: "Choose the format and thumbnail option of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			opts := client.SelectOptions{ID: ids[0]}
			switch {
			case audioOnly && format != "":
				return fmt.Errorf("--format and --audio-only are mutually exclusive")
			case audioOnly:
				empty := ""
				opts.Format = &empty
			case format != "":
				opts.Format = &format
			}
			switch {
			case thumbnail && noThumbnail:
				return fmt.Errorf("--thumbnail and --no-thumbnail are mutually exclusive")
			case thumbnail || noThumbnail:
				opts.Thumbnail = &thumbnail
			}
			if opts.Format == nil && opts.Thumbnail == nil {
				return fmt.Errorf("nothing to change: pass --format, --audio-only or a thumbnail flag")
			}

			return ctx.withClient(cmd, func(rctx context.Context, c *client.Client) error {
				v, err := c.Select(rctx, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d: %s, thumbnail %s\n", v.ID, formatSelection(*v), yesNo(v.DownloadThumbnail))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Format id (see `vq formats`)")
	cmd.Flags().BoolVar(&audioOnly, "audio-only", false, "Download the best audio only")
	cmd.Flags().BoolVar(&thumbnail, "thumbnail", false, "Also write the thumbnail")
	cmd.Flags().BoolVar(&noThumbnail, "no-thumbnail", false, "Do not write the thumbnail")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "remove [id...]",
		Aliases: []string{"rm"},
		Short:   "Remove videos from the library and history, cancelling downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if len(args) > 0 {
					return fmt.Errorf("--all does not take ids")
				}
				return ctx.withClient(cmd, func(rctx context.Context, c *client.Client) error {
					n, err := c.RemoveAll(rctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d video(s) and cleared history\n", n)
					return nil
				})
			}

			if len(args) == 0 {
				return fmt.Errorf("pass at least one id or --all")
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(rctx context.Context, c *client.Client) error {
				for _, id := range ids {
					if err := c.Remove(rctx, id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed #%d\n", id)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every video")
	return cmd
}

func newMoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "more",
		Short: "Load the next page of history into the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rctx context.Context, c *client.Client) error {
				loaded, exhausted, err := c.More(rctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d video(s)", loaded)
				if exhausted {
					fmt.Fprint(cmd.OutOrStdout(), "; history fully loaded")
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
}

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var (
		after  uint64
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent daemon events (errors, warnings, fetched videos)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.client()
			for {
				rctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
				events, err := c.Events(rctx, after)
				cancel()
				if err != nil {
					return wrapDialError(err, ctx.socketPath())
				}
				for _, ev := range events {
					fmt.Fprintln(cmd.OutOrStdout(), formatEvent(ev))
					after = ev.Seq
				}
				if !follow {
					return nil
				}
				select {
				case <-cmd.Context().Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		},
	}

	cmd.Flags().Uint64Var(&after, "after", 0, "Only events with a larger sequence number")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep polling for new events")
	return cmd
}

func formatEvent(ev client.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%6d %s %-22s", ev.Seq, ev.Time.Local().Format("15:04:05"), ev.Kind)
	if ev.VideoID != 0 {
		fmt.Fprintf(&b, " #%d", ev.VideoID)
	}
	switch {
	case ev.Message != "":
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(ev.Message))
	case strings.HasSuffix(ev.Kind, "_changed"):
		b.WriteString(" ")
		b.WriteString(yesNo(ev.Flag))
	}
	return b.String()
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rctx context.Context, c *client.Client) error {
				status, err := c.Status(rctx)
				if err != nil {
					return err
				}
				active := "-"
				if status.ActiveID != 0 {
					active = fmt.Sprintf("#%d", status.ActiveID)
				}
				rows := [][]string{
					{"Socket", c.SocketPath()},
					{"yt-dlp found", yesNo(status.ProgramExists)},
					{"Fetching", yesNo(status.Fetching)},
					{"Downloading", active},
					{"Queued", strconv.Itoa(status.Pending)},
					{"Videos loaded", strconv.Itoa(status.Videos)},
					{"History loaded", yesNo(status.HistoryExhausted)},
					{"Last event", strconv.FormatUint(status.LastEventSeq, 10)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Value"}, rows, nil))
				return nil
			})
		},
	}
}
