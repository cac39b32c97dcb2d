// Package render turns a computed layout into Graphviz output.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/emicklei/dot"
	"github.com/goccy/go-graphviz"

	"forktree/models"
)

const (
	colorSelected = "blue"
	fillActive    = "palegreen"
	fillInvalid   = "lightpink"
	fillFork      = "lightyellow"
)

// ToDOT converts a layout to Graphviz DOT. Every node carries a pinned pos
// attribute with the layout coordinates so `neato -n` reproduces the layout
// exactly; the default dot engine ranks left to right by height instead.
func ToDOT(l *models.Layout) string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "LR")
	g.Attr("bgcolor", "transparent")

	nodes := make(map[uint64]dot.Node, len(l.Nodes))
	for _, n := range l.Nodes {
		dn := g.Node(strconv.FormatUint(n.ID, 10)).Box().
			Attr("label", label(n)).
			Attr("pos", fmt.Sprintf("%g,%g!", n.X, -n.Y))
		if fill := fillColor(n.Block); fill != "" {
			dn = dn.Attr("style", "filled").Attr("fillcolor", fill)
		}
		if n.Selected {
			dn = dn.Attr("color", colorSelected).Attr("penwidth", "2")
		}
		nodes[n.ID] = dn
	}

	for _, e := range l.Edges {
		from, ok1 := nodes[e.SourceID]
		to, ok2 := nodes[e.TargetID]
		if !ok1 || !ok2 {
			continue
		}
		edge := g.Edge(from, to)
		if e.Selected {
			edge.Attr("color", colorSelected)
		}
	}
	return g.String()
}

func label(n models.PositionedNode) string {
	if n.Block == nil {
		return strconv.FormatUint(n.ID, 10)
	}
	lines := []string{
		fmt.Sprintf("height %d", n.Block.Height),
		shortHash(n.Block.Hash),
	}
	if n.Block.Miner != "" {
		lines = append(lines, n.Block.Miner)
	}
	for _, e := range n.Block.TipStatuses {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Status, strings.Join(e.NodeNames, ", ")))
	}
	return strings.Join(lines, "\n")
}

func shortHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:8] + ".." + h[len(h)-8:]
}

func fillColor(b *models.Block) string {
	switch {
	case b == nil:
		return ""
	case b.IsTipOf(models.StatusActive):
		return fillActive
	case b.IsTipOf(models.StatusInvalid):
		return fillInvalid
	case len(b.TipStatuses) > 0:
		return fillFork
	}
	return ""
}

// RenderSVG renders DOT source to SVG with the embedded Graphviz.
func RenderSVG(ctx context.Context, src string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
