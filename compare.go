package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mapcheck/beatmap"
	"mapcheck/difficulty"
	"mapcheck/store"
)

// comparison also carries the powavg power that reproduces the published
// rating from the computed skills.
type comparison struct {
	BeatmapID   int     `json:"beatmap_id"`
	Title       string  `json:"title"`
	Version     string  `json:"version"`
	Published   float64 `json:"published"`
	Computed    float64 `json:"computed"`
	Aim         float64 `json:"aim"`
	Speed       float64 `json:"speed"`
	Combiner    string  `json:"combiner"`
	FittedPower float64 `json:"fitted_power"`
	Reachable   bool    `json:"reachable"`
}

func compareCmd() *cobra.Command {
	var cache bool
	cmd := &cobra.Command{
		Use:   "compare <beatmap-id>",
		Short: "Compare the computed star rating with the published one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			id := ids[0]
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			combiner, err := combinerFor(cfg)
			if err != nil {
				return err
			}
			client, stop, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer stop()

			ctx := cmd.Context()
			published, err := client.Published(ctx, id)
			if err != nil {
				return err
			}
			data, err := client.DownloadOsu(ctx, id)
			if err != nil {
				return err
			}
			b, err := parseBeatmap(data, beatmap.WithCombiner(combiner))
			if err != nil {
				return err
			}
			attrs, ok := b.Attributes()
			if !ok {
				return fmt.Errorf("beatmap %d is not an osu!standard map", id)
			}

			c := comparison{
				BeatmapID: id,
				Title:     b.Metadata.String(),
				Version:   b.Metadata.Version,
				Published: published.Stars,
				Computed:  attrs.Total,
				Aim:       attrs.Aim,
				Speed:     attrs.Speed,
				Combiner:  cfg.Rating.Combiner,
			}
			c.FittedPower, c.Reachable = difficulty.FitPower(attrs.Aim, attrs.Speed, c.Published)

			if cache {
				s, err := store.Open(cfg.CachePath)
				if err != nil {
					return err
				}
				defer s.Close()
				err = s.Put(ctx, &store.Rating{
					Checksum:  store.Checksum(data),
					BeatmapID: id,
					Title:     b.Metadata.Title,
					Version:   b.Metadata.Version,
					Stars:     attrs.Total,
					Aim:       attrs.Aim,
					Speed:     attrs.Speed,
				})
				if err != nil {
					return err
				}
			}

			if viper.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), c)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetTitle(c.Title)
			tw.AppendHeader(table.Row{"", "Stars", "Aim", "Speed"})
			tw.AppendRow(table.Row{"published", fmt.Sprintf("%.2f", c.Published), fmt.Sprintf("%.2f", published.Aim), fmt.Sprintf("%.2f", published.Speed)})
			tw.AppendRow(table.Row{"computed (" + c.Combiner + ")", fmt.Sprintf("%.2f", c.Computed), fmt.Sprintf("%.2f", c.Aim), fmt.Sprintf("%.2f", c.Speed)})
			fit := fmt.Sprintf("%.3f", c.FittedPower)
			if !c.Reachable {
				fit += " (out of range)"
			}
			tw.AppendFooter(table.Row{"powavg fit", fit, "", ""})
			tw.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&cache, "cache", true, "store the computed rating in the rating cache")
	return cmd
}

func ratingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ratings",
		Short: "List cached star ratings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := store.Open(cfg.CachePath)
			if err != nil {
				return err
			}
			defer s.Close()
			ratings, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				if ratings == nil {
					ratings = []store.Rating{}
				}
				return printJSON(cmd.OutOrStdout(), ratings)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Checksum", "Beatmap", "Title", "Version", "Stars", "Cached"})
			for _, r := range ratings {
				tw.AppendRow(table.Row{r.Checksum, r.BeatmapID, r.Title, r.Version, fmt.Sprintf("%.2f", r.Stars), r.CreatedAt.Local().Format("2006-01-02 15:04")})
			}
			tw.Render()
			return nil
		},
	}
}
