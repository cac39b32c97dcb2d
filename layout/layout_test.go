package layout_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forktree/dag"
	"forktree/layout"
	"forktree/models"
)

func hdr(id, prev, height uint64, hash string) *models.Header {
	return &models.Header{ID: id, PrevID: prev, Height: height, Hash: hash}
}

func build(t *testing.T, headers ...*models.Header) []*models.Block {
	t.Helper()
	blocks, err := dag.Build(headers, nil)
	require.NoError(t, err)
	return blocks
}

func nodeByID(t *testing.T, l *models.Layout, id uint64) models.PositionedNode {
	t.Helper()
	for _, n := range l.Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %d not in layout", id)
	return models.PositionedNode{}
}

func edgeIDs(l *models.Layout) []string {
	ids := make([]string, 0, len(l.Edges))
	for _, e := range l.Edges {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestCompute_LinearChain(t *testing.T) {
	blocks := build(t,
		hdr(0, models.NoParent, 0, "a"),
		hdr(1, 0, 1, "b"),
	)
	l, err := layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, l.Nodes, 2)
	assert.Equal(t, 0, nodeByID(t, l, 0).Column)
	assert.Equal(t, 1, nodeByID(t, l, 1).Column)
	assert.Equal(t, 0.0, nodeByID(t, l, 0).Slot)
	assert.Equal(t, 0.0, nodeByID(t, l, 1).Slot)
	assert.Equal(t, []string{"0-1"}, edgeIDs(l))
	assert.Equal(t, 2, l.Columns)
	assert.Equal(t, 1, l.Diagnostics.Roots)
}

func TestCompute_ForkMidpoint(t *testing.T) {
	blocks, err := dag.Build(
		[]*models.Header{
			hdr(0, models.NoParent, 0, "a"),
			hdr(1, 0, 1, "b"),
			hdr(2, 0, 1, "c"),
		},
		[]*models.NodeReport{
			{Name: "nodeA", Tips: []models.Tip{{Hash: "b", Status: models.StatusActive}}},
			{Name: "nodeB", Tips: []models.Tip{{Hash: "c", Status: models.StatusActive}}},
		},
	)
	require.NoError(t, err)

	l, err := layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)

	s1 := nodeByID(t, l, 1).Slot
	s2 := nodeByID(t, l, 2).Slot
	assert.Equal(t, 0.0, s1)
	assert.Equal(t, 1.0, s2)
	assert.Equal(t, (s1+s2)/2, nodeByID(t, l, 0).Slot)
	assert.Equal(t, []string{"0-1", "0-2"}, edgeIDs(l))

	assert.Equal(t, []string{"nodeA"}, nodeByID(t, l, 1).Block.TipStatuses[0].NodeNames)
	assert.Equal(t, []string{"nodeB"}, nodeByID(t, l, 2).Block.TipStatuses[0].NodeNames)
}

func TestCompute_MidpointLawThreeLevels(t *testing.T) {
	blocks := build(t,
		hdr(0, models.NoParent, 0, "a"),
		hdr(1, 0, 1, "b1"),
		hdr(2, 0, 1, "b2"),
		hdr(3, 1, 2, "c1"),
		hdr(4, 1, 2, "c2"),
		hdr(5, 2, 2, "c3"),
	)
	l, err := layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)

	want := map[uint64]float64{3: 0, 4: 1, 5: 2, 1: 0.5, 2: 2, 0: 1.25}
	for id, slot := range want {
		assert.Equal(t, slot, nodeByID(t, l, id).Slot, "block %d", id)
	}

	for _, b := range blocks {
		if len(b.Children) == 0 {
			continue
		}
		lo, hi := nodeByID(t, l, b.Children[0]).Slot, nodeByID(t, l, b.Children[len(b.Children)-1]).Slot
		assert.Equal(t, (lo+hi)/2, nodeByID(t, l, b.ID).Slot, "block %d", b.ID)
	}
}

func TestCompute_RootsSeparatedByGap(t *testing.T) {
	blocks := build(t,
		hdr(0, models.NoParent, 0, "a"),
		hdr(1, 0, 1, "b"),
		hdr(2, models.NoParent, 5, "z"),
		hdr(3, 99, 3, "m"), // parent not in the snapshot
	)
	l, err := layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0.0, nodeByID(t, l, 0).Slot)
	assert.Equal(t, 0.0, nodeByID(t, l, 1).Slot)
	assert.Equal(t, 2.0, nodeByID(t, l, 3).Slot)
	assert.Equal(t, 4.0, nodeByID(t, l, 2).Slot)
	assert.Equal(t, 3, l.Diagnostics.Roots)
	assert.Equal(t, []string{"0-1"}, edgeIDs(l))
}

func TestCompute_ColumnsCompressHeights(t *testing.T) {
	blocks := build(t,
		hdr(0, models.NoParent, 10, "a"),
		hdr(1, 0, 20, "b"),
		hdr(2, 1, 40, "c"),
	)
	l, err := layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, nodeByID(t, l, 0).Column)
	assert.Equal(t, 1, nodeByID(t, l, 1).Column)
	assert.Equal(t, 2, nodeByID(t, l, 2).Column)
	assert.Equal(t, 3, l.Columns)
}

func TestCompute_Coordinates(t *testing.T) {
	blocks := build(t,
		hdr(0, models.NoParent, 0, "a"),
		hdr(1, 0, 1, "b"),
		hdr(2, 0, 1, "c"),
	)
	l, err := layout.Compute(blocks, nil, layout.Options{HorizontalGap: 50, VerticalGap: 20})
	require.NoError(t, err)

	n0 := nodeByID(t, l, 0)
	assert.Equal(t, 0.0, n0.X)
	assert.Equal(t, 10.0, n0.Y)
	n2 := nodeByID(t, l, 2)
	assert.Equal(t, 50.0, n2.X)
	assert.Equal(t, 20.0, n2.Y)

	def, err := layout.Compute(blocks, nil, layout.Options{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, nodeByID(t, def, 2).X)
	assert.Equal(t, 100.0, nodeByID(t, def, 2).Y)
}

func TestCompute_CycleDefense(t *testing.T) {
	blocks := build(t,
		hdr(1, 2, 1, "a"),
		hdr(2, 1, 2, "b"),
	)
	l, err := layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, l.Nodes, 2)
	assert.Equal(t, 0, l.Diagnostics.Roots)
	assert.Equal(t, 2, l.Diagnostics.Orphans)
	assert.NotEqual(t, nodeByID(t, l, 1).Slot, nodeByID(t, l, 2).Slot)
	assert.ElementsMatch(t, []string{"2-1", "1-2"}, edgeIDs(l))
}

func TestCompute_CycleThroughChildren(t *testing.T) {
	// the children list of block 2 points back at its own parent
	blocks := []*models.Block{
		{Header: *hdr(0, models.NoParent, 0, "a"), Children: []uint64{1}},
		{Header: *hdr(1, 0, 1, "b"), Children: []uint64{2}},
		{Header: *hdr(2, 1, 2, "c"), Children: []uint64{1}},
	}
	l, err := layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, l.Nodes, 3)
	assert.Equal(t, 1, l.Diagnostics.CycleBreaks)
	for _, n := range l.Nodes {
		assert.Equal(t, 0.0, n.Slot, "block %d", n.ID)
	}
}

func TestCompute_SelfReference(t *testing.T) {
	blocks := build(t,
		hdr(0, models.NoParent, 0, "a"),
		hdr(5, 5, 1, "b"),
	)
	l, err := layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, l.Nodes, 2)
	assert.Equal(t, 2.0, nodeByID(t, l, 5).Slot)
	assert.Equal(t, 1, l.Diagnostics.Orphans)
}

func TestCompute_UnknownChildrenFiltered(t *testing.T) {
	blocks := []*models.Block{
		{Header: *hdr(0, models.NoParent, 0, "a"), Children: []uint64{42}},
	}
	l, err := layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, l.Nodes, 1)
	assert.Equal(t, 0.0, l.Nodes[0].Slot)
	assert.Empty(t, l.Edges)
}

func TestCompute_DuplicateIDsKeepEveryNode(t *testing.T) {
	blocks := []*models.Block{
		{Header: *hdr(0, models.NoParent, 0, "a")},
		{Header: *hdr(0, models.NoParent, 0, "a")},
	}
	l, err := layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, l.Nodes, 2)
	assert.Equal(t, 1, l.Diagnostics.DuplicateIDs)
}

func TestCompute_NoSilentDrop(t *testing.T) {
	blocks := build(t,
		hdr(0, models.NoParent, 0, "a"),
		hdr(1, 0, 1, "b"),
		hdr(2, 3, 2, "c"),
		hdr(3, 2, 3, "d"),
		hdr(4, 77, 4, "e"),
		hdr(6, 6, 5, "f"),
		hdr(7, 1, 2, "g"),
	)
	l, err := layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, l.Nodes, len(blocks))
}

func TestCompute_Selected(t *testing.T) {
	blocks := build(t,
		hdr(0, models.NoParent, 0, "a"),
		hdr(1, 0, 1, "b"),
		hdr(2, 1, 2, "c"),
	)
	sel := uint64(1)
	l, err := layout.Compute(blocks, &sel, layout.DefaultOptions())
	require.NoError(t, err)

	assert.False(t, nodeByID(t, l, 0).Selected)
	assert.True(t, nodeByID(t, l, 1).Selected)
	for _, e := range l.Edges {
		assert.True(t, e.Selected, e.ID)
	}

	l, err = layout.Compute(blocks, nil, layout.DefaultOptions())
	require.NoError(t, err)
	for _, n := range l.Nodes {
		assert.False(t, n.Selected)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	headers := []*models.Header{
		hdr(0, models.NoParent, 0, "a"),
		hdr(1, 0, 1, "b"),
		hdr(2, 0, 1, "c"),
		hdr(3, 2, 2, "d"),
		hdr(4, 2, 2, "e"),
		hdr(5, 50, 9, "f"),
		hdr(6, 7, 3, "g"),
		hdr(7, 6, 4, "h"),
	}
	sel := uint64(3)

	render := func() []byte {
		blocks, err := dag.Build(headers, nil)
		require.NoError(t, err)
		l, err := layout.Compute(blocks, &sel, layout.DefaultOptions())
		require.NoError(t, err)
		data, err := json.Marshal(l)
		require.NoError(t, err)
		return data
	}
	first := render()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, render())
	}
}

func TestCompute_NilBlock(t *testing.T) {
	_, err := layout.Compute([]*models.Block{nil}, nil, layout.DefaultOptions())
	assert.ErrorIs(t, err, layout.ErrNilBlock)
}

func TestCompute_Empty(t *testing.T) {
	l, err := layout.Compute(nil, nil, layout.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, l.Nodes)
	assert.Empty(t, l.Edges)
}
