package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type unsnapRow struct {
	Time    float64 `json:"time"`
	Kind    string  `json:"kind"`
	Edge    int     `json:"edge"`
	Unsnap  float64 `json:"unsnap"`
	Divisor int     `json:"divisor"`
}

func snapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snap <file>",
		Short: "List hit object edges off the 1/16 and 1/12 grids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := openBeatmap(args[0])
			if err != nil {
				return err
			}
			issues, err := b.UnsnapIssues()
			if err != nil {
				return err
			}
			rows := make([]unsnapRow, 0, len(issues))
			for _, u := range issues {
				rows = append(rows, unsnapRow{Time: u.Time, Kind: u.Object.Kind().String(), Edge: u.Edge, Unsnap: u.Unsnap, Divisor: u.Divisor})
			}
			if viper.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), rows)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Time", "Object", "Edge", "Unsnap (ms)", "Snaps to"})
			for _, r := range rows {
				snaps := "none"
				if r.Divisor > 0 {
					snaps = fmt.Sprintf("1/%d", r.Divisor)
				}
				tw.AppendRow(table.Row{formatTimestamp(r.Time), r.Kind, r.Edge, fmt.Sprintf("%+.1f", r.Unsnap), snaps})
			}
			tw.AppendFooter(table.Row{"", "", "", "Total", len(rows)})
			tw.Render()
			return nil
		},
	}
}

type stackRow struct {
	Time  float64 `json:"time"`
	Kind  string  `json:"kind"`
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

func stacksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stacks <file>",
		Short: "List stacked circles and sliders with their stacked positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := openBeatmap(args[0])
			if err != nil {
				return err
			}
			if b.StackErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", b.StackErr)
			}
			var rows []stackRow
			for _, s := range b.Stackables() {
				if s.StackIndex() == 0 {
					continue
				}
				pos := b.PositionOf(s)
				rows = append(rows, stackRow{Time: s.Time(), Kind: s.Kind().String(), Index: s.StackIndex(), X: pos.X, Y: pos.Y})
			}
			if viper.GetBool("json") {
				if rows == nil {
					rows = []stackRow{}
				}
				return printJSON(cmd.OutOrStdout(), rows)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Time", "Object", "Index", "X", "Y"})
			for _, r := range rows {
				tw.AppendRow(table.Row{formatTimestamp(r.Time), r.Kind, r.Index, fmt.Sprintf("%.2f", r.X), fmt.Sprintf("%.2f", r.Y)})
			}
			tw.Render()
			return nil
		},
	}
}

// formatTimestamp prints ms the way the editor shows it, mm:ss:mmm.
func formatTimestamp(ms float64) string {
	t := int(ms)
	sign := ""
	if t < 0 {
		sign, t = "-", -t
	}
	return fmt.Sprintf("%s%02d:%02d:%03d", sign, t/60000, t/1000%60, t%1000)
}
