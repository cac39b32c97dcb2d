package dag

import (
	"cmp"
	"slices"

	"forktree/models"
)

// LaggingThreshold is how many blocks a node's active tip may trail the best
// active tip before the node counts as lagging.
const LaggingThreshold = 3

func nodeRef(r *models.NodeReport) models.NodeRef {
	return models.NodeRef{ID: r.ID, Name: r.Name}
}

// activeHeight is the height of the last active tip a node reports, 0 when
// it reports none.
func activeHeight(r *models.NodeReport) uint64 {
	var h uint64
	for _, t := range r.Tips {
		if t.Status == models.StatusActive {
			h = t.Height
		}
	}
	return h
}

// LaggingNodes returns the nodes whose active tip is more than
// LaggingThreshold blocks below the highest active tip, ordered by node id.
// A single node never lags.
func LaggingNodes(reports []*models.NodeReport) []models.LaggingNode {
	var nodes []*models.NodeReport
	for _, r := range reports {
		if r != nil {
			nodes = append(nodes, r)
		}
	}
	if len(nodes) < 2 {
		return nil
	}

	heights := make([]uint64, len(nodes))
	var maxHeight uint64
	for i, r := range nodes {
		heights[i] = activeHeight(r)
		maxHeight = max(maxHeight, heights[i])
	}

	var lagging []models.LaggingNode
	for i, r := range nodes {
		if heights[i]+LaggingThreshold < maxHeight {
			lagging = append(lagging, models.LaggingNode{
				Node:         nodeRef(r),
				ActiveHeight: heights[i],
				MaxHeight:    maxHeight,
			})
		}
	}
	slices.SortStableFunc(lagging, func(a, b models.LaggingNode) int {
		return cmp.Compare(a.Node.ID, b.Node.ID)
	})
	return lagging
}

// InvalidBlocks groups the tips reported as invalid by block, newest first.
// Tips are reported by hash, so blocks missing from the header set are
// included too.
func InvalidBlocks(reports []*models.NodeReport) []models.InvalidBlock {
	type key struct {
		height uint64
		hash   string
	}
	byBlock := make(map[key]*models.InvalidBlock)
	for _, r := range reports {
		if r == nil {
			continue
		}
		for _, t := range r.Tips {
			if models.ParseTipStatus(string(t.Status)) != models.StatusInvalid {
				continue
			}
			k := key{t.Height, t.Hash}
			ib, ok := byBlock[k]
			if !ok {
				ib = &models.InvalidBlock{Height: t.Height, Hash: t.Hash}
				byBlock[k] = ib
			}
			if !slices.ContainsFunc(ib.Nodes, func(n models.NodeRef) bool { return n.ID == r.ID }) {
				ib.Nodes = append(ib.Nodes, nodeRef(r))
			}
		}
	}

	blocks := make([]models.InvalidBlock, 0, len(byBlock))
	for _, ib := range byBlock {
		slices.SortStableFunc(ib.Nodes, func(a, b models.NodeRef) int {
			return cmp.Compare(a.ID, b.ID)
		})
		blocks = append(blocks, *ib)
	}
	slices.SortFunc(blocks, func(a, b models.InvalidBlock) int {
		if c := cmp.Compare(b.Height, a.Height); c != 0 {
			return c
		}
		return cmp.Compare(a.Hash, b.Hash)
	})
	return blocks
}

// UnreachableNodes returns the nodes that could not be reached, ordered by id.
func UnreachableNodes(reports []*models.NodeReport) []models.UnreachableNode {
	var nodes []models.UnreachableNode
	for _, r := range reports {
		if r == nil || r.Reachable {
			continue
		}
		nodes = append(nodes, models.UnreachableNode{
			Node:                 nodeRef(r),
			LastChangedTimestamp: r.LastChangedTimestamp,
		})
	}
	slices.SortStableFunc(nodes, func(a, b models.UnreachableNode) int {
		return cmp.Compare(a.Node.ID, b.Node.ID)
	})
	return nodes
}
