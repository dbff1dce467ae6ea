package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mapcheck/beatmap"
	"mapcheck/config"
	"mapcheck/store"
)

type report struct {
	Path       string   `json:"path"`
	Checksum   string   `json:"checksum,omitempty"`
	BeatmapID  int      `json:"beatmap_id,omitempty"`
	Artist     string   `json:"artist,omitempty"`
	Title      string   `json:"title,omitempty"`
	Version    string   `json:"version,omitempty"`
	Stars      *float64 `json:"stars,omitempty"`
	Aim        float64  `json:"aim"`
	Speed      float64  `json:"speed"`
	Objects    int      `json:"objects"`
	MaxCombo   int      `json:"max_combo"`
	DrainTime  float64  `json:"drain_time_ms"`
	Stacked    int      `json:"stacked"`
	Unsnaps    int      `json:"unsnaps"`
	StackError string   `json:"stack_error,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func newReport(path string, data []byte, b *beatmap.Beatmap) (report, error) {
	r := report{
		Path:      path,
		Checksum:  store.Checksum(data),
		BeatmapID: b.Metadata.BeatmapID,
		Artist:    b.Metadata.Artist,
		Title:     b.Metadata.Title,
		Version:   b.Metadata.Version,
		Objects:   len(b.HitObjects),
		DrainTime: b.DrainTime(),
	}
	if stars, ok := b.StarRating(); ok {
		r.Stars = &stars
	}
	if a, ok := b.Attributes(); ok {
		r.Aim, r.Speed, r.MaxCombo = a.Aim, a.Speed, a.MaxCombo
	}
	for _, s := range b.Stackables() {
		if s.StackIndex() != 0 {
			r.Stacked++
		}
	}
	if b.StackErr != nil {
		r.StackError = b.StackErr.Error()
	}
	issues, err := b.UnsnapIssues()
	if err != nil && len(b.HitObjects) > 0 {
		return r, err
	}
	r.Unsnaps = len(issues)
	return r, nil
}

func analyzeCmd() *cobra.Command {
	var cache bool
	cmd := &cobra.Command{
		Use:   "analyze <file|dir>...",
		Short: "Star rating, drain time, stacks and unsnaps of beatmaps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			combiner, err := combinerFor(cfg)
			if err != nil {
				return err
			}
			paths, err := collectOsuFiles(args)
			if err != nil {
				return err
			}

			reports := make([]report, len(paths))
			errs := forEach(paths, cfg.Workers, func(i int, path string) error {
				reports[i].Path = path
				b, data, err := openBeatmap(path, beatmap.WithCombiner(combiner))
				if err != nil {
					return err
				}
				reports[i], err = newReport(path, data, b)
				return err
			})
			for i, err := range errs {
				if err != nil {
					reports[i].Error = err.Error()
				}
			}

			if cache {
				if err := cacheReports(cmd.Context(), cfg, reports); err != nil {
					return err
				}
			}

			if viper.GetBool("json") {
				if err := printJSON(cmd.OutOrStdout(), reports); err != nil {
					return err
				}
			} else {
				printReports(cmd, reports)
			}
			return firstError(errs, paths)
		},
	}
	cmd.Flags().BoolVar(&cache, "cache", false, "store computed ratings in the rating cache")
	return cmd
}

func printReports(cmd *cobra.Command, reports []report) {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.AppendHeader(table.Row{"File", "Difficulty", "Stars", "Aim", "Speed", "Combo", "Drain", "Stacked", "Unsnaps"})
	for _, r := range reports {
		if r.Error != "" {
			tw.AppendRow(table.Row{r.Path, "error: " + r.Error})
			continue
		}
		stars := "-"
		if r.Stars != nil {
			stars = fmt.Sprintf("%.2f", *r.Stars)
		}
		tw.AppendRow(table.Row{
			r.Path, r.Version, stars,
			fmt.Sprintf("%.2f", r.Aim), fmt.Sprintf("%.2f", r.Speed),
			r.MaxCombo, formatDuration(r.DrainTime), r.Stacked, r.Unsnaps,
		})
	}
	tw.Render()
}

func cacheReports(ctx context.Context, cfg *config.Config, reports []report) error {
	s, err := store.Open(cfg.CachePath)
	if err != nil {
		return err
	}
	defer s.Close()
	for _, r := range reports {
		if r.Error != "" || r.Stars == nil {
			continue
		}
		err := s.Put(ctx, &store.Rating{
			Checksum:  r.Checksum,
			BeatmapID: r.BeatmapID,
			Title:     r.Title,
			Version:   r.Version,
			Stars:     *r.Stars,
			Aim:       r.Aim,
			Speed:     r.Speed,
		})
		if err != nil {
			return errors.Wrap(err, r.Path)
		}
	}
	return nil
}

// formatDuration prints ms as m:ss.
func formatDuration(ms float64) string {
	s := int(ms / 1000)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
