// Package layout places a block graph on a two dimensional grid.
//
// Columns follow block height, compressed so that only heights present in
// the input occupy a column. Slots run orthogonally: every leaf takes the next
// free slot and every parent sits at the midpoint of its first and last
// child, so fork branches fan out without overlapping. Independent trees are
// separated by an empty slot.
package layout

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"forktree/models"
)

// DefaultGap is the distance between neighbouring columns and slots.
const DefaultGap = 100

var ErrNilBlock = errors.New("nil block")

// Options controls coordinate materialization.
type Options struct {
	HorizontalGap float64 // per column
	VerticalGap   float64 // per slot
}

// DefaultOptions uses DefaultGap on both axes.
func DefaultOptions() Options {
	return Options{HorizontalGap: DefaultGap, VerticalGap: DefaultGap}
}

func (o Options) withDefaults() Options {
	if o.HorizontalGap <= 0 {
		o.HorizontalGap = DefaultGap
	}
	if o.VerticalGap <= 0 {
		o.VerticalGap = DefaultGap
	}
	return o
}

// engine holds the state of a single Compute call.
type engine struct {
	blocks   []*models.Block
	index    map[uint64]int // id -> first position in blocks
	children [][]int
	slots    []float64
	assigned []bool
	visiting []bool
	cursor   int
	diag     models.LayoutDiagnostics
}

// Compute lays out blocks, which should be in the canonical order produced by
// dag.Build. selected marks the node (and its edges) the caller highlights;
// nil selects nothing.
//
// Compute never fails on malformed graphs. Cycles, dangling parents and
// unknown children are laid out defensively and counted in the returned
// diagnostics. Every input block yields exactly one positioned node. The only
// error is a nil entry in blocks.
func Compute(blocks []*models.Block, selected *uint64, opts Options) (*models.Layout, error) {
	for i, b := range blocks {
		if b == nil {
			return nil, fmt.Errorf("%w at position %d", ErrNilBlock, i)
		}
	}
	opts = opts.withDefaults()

	e := newEngine(blocks)
	e.assignSlots()

	columns := columnsByHeight(blocks)
	isSelected := func(id uint64) bool { return selected != nil && *selected == id }

	out := &models.Layout{
		Nodes:       make([]models.PositionedNode, 0, len(blocks)),
		Edges:       make([]models.Edge, 0, len(blocks)),
		Columns:     len(columns),
		Diagnostics: e.diag,
	}
	for i, b := range blocks {
		col := columns[b.Height]
		out.Nodes = append(out.Nodes, models.PositionedNode{
			ID:       b.ID,
			Column:   col,
			Slot:     e.slots[i],
			X:        float64(col) * opts.HorizontalGap,
			Y:        e.slots[i] * opts.VerticalGap,
			Selected: isSelected(b.ID),
			Block:    b,
		})
	}
	for i, b := range blocks {
		if e.index[b.ID] != i {
			continue
		}
		p, ok := e.parent(i)
		if !ok {
			continue
		}
		parentID := blocks[p].ID
		out.Edges = append(out.Edges, models.Edge{
			ID:       fmt.Sprintf("%d-%d", parentID, b.ID),
			SourceID: parentID,
			TargetID: b.ID,
			Selected: isSelected(parentID) || isSelected(b.ID),
		})
	}
	return out, nil
}

func newEngine(blocks []*models.Block) *engine {
	n := len(blocks)
	e := &engine{
		blocks:   blocks,
		index:    make(map[uint64]int, n),
		children: make([][]int, n),
		slots:    make([]float64, n),
		assigned: make([]bool, n),
		visiting: make([]bool, n),
	}
	for i, b := range blocks {
		if _, dup := e.index[b.ID]; dup {
			e.diag.DuplicateIDs++
			continue
		}
		e.index[b.ID] = i
	}
	for i, b := range blocks {
		if e.index[b.ID] != i {
			continue
		}
		var kids []int
		for _, c := range b.Children {
			if j, ok := e.index[c]; ok {
				kids = append(kids, j)
			}
		}
		slices.SortStableFunc(kids, func(x, y int) int {
			return models.CompareBlocks(blocks[x], blocks[y])
		})
		e.children[i] = kids
	}
	return e
}

// parent resolves the prev_id of the block at position i.
func (e *engine) parent(i int) (int, bool) {
	b := e.blocks[i]
	if !b.HasParent() {
		return 0, false
	}
	p, ok := e.index[b.PrevID]
	return p, ok
}

func (e *engine) next() float64 {
	s := float64(e.cursor)
	e.cursor++
	return s
}

func (e *engine) assignSlots() {
	var roots []int
	for i, b := range e.blocks {
		if e.index[b.ID] != i {
			continue
		}
		if _, ok := e.parent(i); !ok {
			roots = append(roots, i)
		}
	}
	slices.SortStableFunc(roots, func(a, b int) int {
		return models.CompareBlocks(e.blocks[a], e.blocks[b])
	})
	e.diag.Roots = len(roots)

	trees := 0
	for _, r := range roots {
		if trees > 0 {
			e.cursor++
		}
		e.assign(r)
		trees++
	}

	// Whatever is still unplaced is unreachable from any root: cycles and
	// duplicate ids. Each gets a slot of its own.
	for i := range e.blocks {
		if e.assigned[i] {
			continue
		}
		if trees > 0 {
			e.cursor++
		}
		e.slots[i] = e.next()
		e.assigned[i] = true
		e.diag.Orphans++
		trees++
	}
}

func (e *engine) assign(i int) float64 {
	if e.assigned[i] {
		return e.slots[i]
	}
	if e.visiting[i] {
		e.diag.CycleBreaks++
		return e.next()
	}
	e.visiting[i] = true

	var slot float64
	if kids := e.children[i]; len(kids) == 0 {
		slot = e.next()
	} else {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, c := range kids {
			s := e.assign(c)
			lo = math.Min(lo, s)
			hi = math.Max(hi, s)
		}
		slot = (lo + hi) / 2
	}

	e.visiting[i] = false
	e.slots[i] = slot
	e.assigned[i] = true
	return slot
}

// columnsByHeight maps every distinct height to a dense column index.
func columnsByHeight(blocks []*models.Block) map[uint64]int {
	heights := make([]uint64, 0, len(blocks))
	for _, b := range blocks {
		heights = append(heights, b.Height)
	}
	slices.Sort(heights)
	heights = slices.Compact(heights)

	columns := make(map[uint64]int, len(heights))
	for i, h := range heights {
		columns[h] = i
	}
	return columns
}
