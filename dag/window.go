package dag

import (
	"slices"

	"forktree/models"
)

// hotspotBudget is how many fork/tip heights may be added on top of the
// recent window.
func hotspotBudget(maxHeights int) int {
	switch {
	case maxHeights <= 0:
		return 0
	case maxHeights <= 10:
		return min(2, maxHeights)
	default:
		return max(maxHeights/5, 8)
	}
}

// InterestingHeights selects the heights worth showing: the recent window of
// maxHeights heights ending at the highest header, plus a bounded number of
// hotspots (fork heights, tip heights and the highest height), newest first.
// The result is sorted ascending.
func InterestingHeights(headers []*models.Header, maxHeights int, tipHeights []uint64) []uint64 {
	if len(headers) == 0 || maxHeights <= 0 {
		return nil
	}

	occurrences := make(map[uint64]int)
	var maxHeight uint64
	for _, h := range headers {
		occurrences[h.Height]++
		maxHeight = max(maxHeight, h.Height)
	}

	var windowStart uint64
	if span := uint64(maxHeights - 1); maxHeight > span {
		windowStart = maxHeight - span
	}
	selected := make(map[uint64]struct{})
	for h := range occurrences {
		if h >= windowStart {
			selected[h] = struct{}{}
		}
	}

	candidates := map[uint64]struct{}{maxHeight: {}}
	for h, n := range occurrences {
		if n > 1 {
			candidates[h] = struct{}{}
		}
	}
	for _, h := range tipHeights {
		if _, ok := occurrences[h]; ok {
			candidates[h] = struct{}{}
		}
	}
	hotspots := make([]uint64, 0, len(candidates))
	for h := range candidates {
		hotspots = append(hotspots, h)
	}
	slices.Sort(hotspots)
	slices.Reverse(hotspots)
	for _, h := range hotspots[:min(len(hotspots), hotspotBudget(maxHeights))] {
		selected[h] = struct{}{}
	}

	heights := make([]uint64, 0, len(selected))
	for h := range selected {
		heights = append(heights, h)
	}
	slices.Sort(heights)
	return heights
}

// Window trims headers to the neighbourhood of the interesting heights and
// reconnects the resulting sub-chains so they still render as one tree. The
// root of each sub-chain (ordered by height) is attached to the highest block
// of the previous sub-chain; the first root loses its parent. maxHeights <= 0 disables windowing. The input is
// never modified.
func Window(headers []*models.Header, reports []*models.NodeReport, maxHeights int) []*models.Header {
	if maxHeights <= 0 || len(headers) == 0 {
		return slices.Clone(headers)
	}

	var tipHeights []uint64
	for _, r := range reports {
		if r == nil {
			continue
		}
		for _, t := range r.Tips {
			tipHeights = append(tipHeights, t.Height)
		}
	}
	interesting := make(map[uint64]struct{})
	for _, h := range InterestingHeights(headers, maxHeights, tipHeights) {
		interesting[h] = struct{}{}
	}

	keep := func(height uint64) bool {
		if _, ok := interesting[height-1]; ok && height > 0 {
			return true
		}
		for _, h := range []uint64{height, height + 1, height + 2} {
			if _, ok := interesting[h]; ok {
				return true
			}
		}
		return false
	}

	kept := make([]*models.Header, 0, len(headers))
	byID := make(map[uint64]*models.Header)
	for _, h := range headers {
		if h == nil || !keep(h.Height) {
			continue
		}
		if _, dup := byID[h.ID]; dup {
			continue
		}
		c := *h
		kept = append(kept, &c)
		byID[c.ID] = &c
	}

	children := make(map[uint64][]*models.Header)
	var roots []*models.Header
	for _, h := range kept {
		if p, ok := byID[h.PrevID]; ok && h.HasParent() && p != h {
			children[p.ID] = append(children[p.ID], h)
			continue
		}
		roots = append(roots, h)
	}
	slices.SortStableFunc(roots, models.CompareHeaders)

	var connectTo *models.Header
	for _, root := range roots {
		if connectTo != nil {
			root.PrevID = connectTo.ID
		} else {
			root.PrevID = models.NoParent
		}
		connectTo = highestDescendant(root, children)
	}
	return kept
}

func highestDescendant(root *models.Header, children map[uint64][]*models.Header) *models.Header {
	best := root
	seen := map[uint64]struct{}{root.ID: {}}
	stack := []*models.Header{root}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h.Height > best.Height {
			best = h
		}
		for _, c := range children[h.ID] {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			stack = append(stack, c)
		}
	}
	return best
}
