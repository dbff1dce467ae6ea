package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"mapcheck/osuapi"
)

func fetchCmd() *cobra.Command {
	var sets, force bool
	cmd := &cobra.Command{
		Use:   "fetch <beatmap-id>...",
		Short: "Download .osu files into the songs directory",
		Long: `fetch downloads single difficulties by beatmap id. With --set the ids
are beatmapset ids and every difficulty of each set is downloaded, which
needs api.session (the osu_session cookie).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, stop, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer stop()

			out := &lockedWriter{w: cmd.OutOrStdout()}
			var done atomic.Uint32
			errs := forEach(ids, maxConcurrentRequests, func(_ int, id int) error {
				var err error
				if sets {
					err = fetchSet(cmd.Context(), client, cfg.SongsDir, id, force, out)
				} else {
					err = fetchBeatmap(cmd.Context(), client, cfg.SongsDir, id, out)
				}
				if err == nil {
					fmt.Fprintf(out, "%d/%d\n", done.Add(1), len(ids))
				}
				return err
			})
			return firstError(errs, args)
		},
	}
	cmd.Flags().BoolVar(&sets, "set", false, "ids are beatmapset ids")
	cmd.Flags().BoolVar(&force, "force", false, "download sets that are already present")
	return cmd
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil || id <= 0 {
			return nil, errors.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func setDir(songsDir string, setID int) string {
	if setID <= 0 {
		return filepath.Join(songsDir, "unsorted")
	}
	return filepath.Join(songsDir, strconv.Itoa(setID))
}

// fetchBeatmap names the file after its own metadata, so the .osu is
// decoded before it is written.
func fetchBeatmap(ctx context.Context, c *osuapi.Client, songsDir string, id int, out io.Writer) error {
	data, err := c.DownloadOsu(ctx, id)
	if err != nil {
		return err
	}
	b, err := parseBeatmap(data)
	if err != nil {
		return errors.Wrapf(err, "beatmap %d", id)
	}
	dir := setDir(songsDir, b.Metadata.BeatmapSetID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, osuFileName(b.Metadata))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d downloaded (%s)\n", id, path)
	return nil
}

func fetchSet(ctx context.Context, c *osuapi.Client, songsDir string, id int, force bool, out io.Writer) error {
	dir := setDir(songsDir, id)
	if !force {
		if existing, _ := collectOsuFiles([]string{dir}); len(existing) > 0 {
			fmt.Fprintf(out, "%d already downloaded (%d difficulties)\n", id, len(existing))
			return nil
		}
	}
	files, err := c.DownloadSet(ctx, id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return errors.Wrapf(err, "set %d", id)
		}
	}
	fmt.Fprintf(out, "%d downloaded (%d difficulties)\n", id, len(files))
	return nil
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
