package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forktree/dag"
	"forktree/layout"
	"forktree/models"
)

func forkLayout(t *testing.T, selected *uint64) *models.Layout {
	t.Helper()
	blocks, err := dag.Build(
		[]*models.Header{
			{ID: 0, PrevID: models.NoParent, Height: 0, Hash: "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"},
			{ID: 1, PrevID: 0, Height: 1, Hash: "b", Miner: "Foundry USA"},
			{ID: 2, PrevID: 0, Height: 1, Hash: "c"},
		},
		[]*models.NodeReport{
			{Name: "alice", Tips: []models.Tip{{Hash: "b", Status: models.StatusActive}}},
			{Name: "bob", Tips: []models.Tip{{Hash: "c", Status: models.StatusInvalid}}},
		},
	)
	require.NoError(t, err)
	l, err := layout.Compute(blocks, selected, layout.DefaultOptions())
	require.NoError(t, err)
	return l
}

func TestToDOT(t *testing.T) {
	sel := uint64(1)
	out := ToDOT(forkLayout(t, &sel))

	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "digraph"))
	assert.Equal(t, 2, strings.Count(out, "->"))
	assert.Contains(t, out, "rankdir")
	assert.Contains(t, out, "00000000..0a8ce26f")
	assert.Contains(t, out, "Foundry USA")
	assert.Contains(t, out, "active: alice")
	assert.Contains(t, out, fillActive)
	assert.Contains(t, out, fillInvalid)
	assert.Contains(t, out, colorSelected)
}

func TestToDOT_NoSelection(t *testing.T) {
	out := ToDOT(forkLayout(t, nil))
	assert.NotContains(t, out, colorSelected)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abc", shortHash("abc"))
	assert.Equal(t, "01234567..89abcdef", shortHash("0123456789abcdef0123456789abcdef"))
}
