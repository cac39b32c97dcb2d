package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"forktree/config"
	"forktree/dag"
	"forktree/layout"
	"forktree/models"
	"forktree/render"
)

type layoutFlags struct {
	snapshot string
	selected uint64
	window   int
	format   string
	output   string
}

func newLayoutCmd(configPath *string) *cobra.Command {
	var f layoutFlags

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Lay out a snapshot file offline",
		Long: `Reads a snapshot document ({"header_infos": [...], "nodes": [...]}) and
writes the computed layout as JSON, Graphviz DOT or SVG.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := layout.DefaultOptions()
			if cmd.Flags().Changed("config") {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				opts = layout.Options{HorizontalGap: cfg.Layout.HorizontalGap, VerticalGap: cfg.Layout.VerticalGap}
			}
			var selected *uint64
			if cmd.Flags().Changed("selected") {
				selected = &f.selected
			}
			return runLayout(cmd, f, selected, opts)
		},
	}

	cmd.Flags().StringVarP(&f.snapshot, "snapshot", "s", "-", "snapshot JSON file, - for stdin")
	cmd.Flags().Uint64Var(&f.selected, "selected", 0, "id of the block to highlight (default none)")
	cmd.Flags().IntVar(&f.window, "window", 0, "number of interesting heights to keep (0 keeps all)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "json", "output format: json, dot or svg")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func runLayout(cmd *cobra.Command, f layoutFlags, selected *uint64, opts layout.Options) error {
	var in io.Reader = cmd.InOrStdin()
	if f.snapshot != "-" {
		file, err := os.Open(f.snapshot)
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}

	var s models.Snapshot
	if err := json.NewDecoder(in).Decode(&s); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	blocks, err := dag.Build(dag.Window(s.HeaderInfos, s.Nodes, f.window), s.Nodes)
	if err != nil {
		return err
	}
	l, err := layout.Compute(blocks, selected, opts)
	if err != nil {
		return err
	}

	var out []byte
	switch f.format {
	case "json":
		out, err = json.MarshalIndent(l, "", "  ")
	case "dot":
		out = []byte(render.ToDOT(l))
	case "svg":
		out, err = render.RenderSVG(cmd.Context(), render.ToDOT(l))
	default:
		return fmt.Errorf("unknown format %q", f.format)
	}
	if err != nil {
		return err
	}

	if f.output == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	return os.WriteFile(f.output, out, 0644)
}
