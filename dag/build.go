package dag

import (
	"errors"
	"fmt"
	"slices"

	"forktree/models"
)

var (
	ErrInvalidHeader = errors.New("invalid header")
	ErrInvalidReport = errors.New("invalid node report")
)

// Build merges headers and node tip reports into the canonical block graph.
//
// Headers are deduplicated by id (first occurrence wins). Tips whose hash does
// not match a header are ignored. Children are derived from prev_id. The
// returned blocks are sorted by (height, hash, id).
func Build(headers []*models.Header, reports []*models.NodeReport) ([]*models.Block, error) {
	blocks := make([]*models.Block, 0, len(headers))
	byID := make(map[uint64]*models.Block, len(headers))
	byHash := make(map[string]*models.Block, len(headers))

	for i, h := range headers {
		if h == nil {
			return nil, fmt.Errorf("%w: header %d is nil", ErrInvalidHeader, i)
		}
		if h.Hash == "" {
			return nil, fmt.Errorf("%w: header id %d has no hash", ErrInvalidHeader, h.ID)
		}
		if _, ok := byID[h.ID]; ok {
			continue
		}
		b := &models.Block{Header: *h}
		byID[h.ID] = b
		if _, ok := byHash[h.Hash]; !ok {
			byHash[h.Hash] = b
		}
		blocks = append(blocks, b)
	}

	statuses, err := aggregateTips(byHash, reports)
	if err != nil {
		return nil, err
	}
	for id, perNode := range statuses {
		byID[id].TipStatuses = groupByStatus(perNode)
	}

	models.SortBlocks(blocks)

	// Iterating in canonical order leaves every children list canonically sorted.
	for _, b := range blocks {
		if !b.HasParent() {
			continue
		}
		if parent, ok := byID[b.PrevID]; ok {
			parent.Children = append(parent.Children, b.ID)
		}
	}

	return blocks, nil
}

// aggregateTips resolves every (node, tip) pair to a block and keeps, per
// block and node name, the highest priority status reported.
func aggregateTips(byHash map[string]*models.Block, reports []*models.NodeReport) (map[uint64]map[string]models.TipStatus, error) {
	out := make(map[uint64]map[string]models.TipStatus)
	for i, r := range reports {
		if r == nil {
			return nil, fmt.Errorf("%w: report %d is nil", ErrInvalidReport, i)
		}
		for _, tip := range r.Tips {
			b, ok := byHash[tip.Hash]
			if !ok {
				continue
			}
			status := models.ParseTipStatus(string(tip.Status))
			perNode, ok := out[b.ID]
			if !ok {
				perNode = make(map[string]models.TipStatus)
				out[b.ID] = perNode
			}
			if prev, seen := perNode[r.Name]; seen && prev.Rank() <= status.Rank() {
				continue
			}
			perNode[r.Name] = status
		}
	}
	return out, nil
}

func groupByStatus(perNode map[string]models.TipStatus) []models.TipStatusEntry {
	names := make(map[models.TipStatus][]string)
	for name, status := range perNode {
		names[status] = append(names[status], name)
	}
	entries := make([]models.TipStatusEntry, 0, len(names))
	for status, nodeNames := range names {
		slices.Sort(nodeNames)
		entries = append(entries, models.TipStatusEntry{Status: status, NodeNames: nodeNames})
	}
	slices.SortFunc(entries, func(a, b models.TipStatusEntry) int {
		return a.Status.Rank() - b.Status.Rank()
	})
	return entries
}
