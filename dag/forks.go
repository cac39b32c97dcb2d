package dag

import (
	"slices"

	"forktree/models"
)

// RecentForks returns up to n blocks with more than one child, newest first.
// blocks must come from Build.
func RecentForks(blocks []*models.Block, n int) []models.Fork {
	if n <= 0 {
		return nil
	}
	byID := make(map[uint64]*models.Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}

	var forks []models.Fork
	for _, b := range blocks {
		if len(b.Children) < 2 {
			continue
		}
		fork := models.Fork{Common: b}
		for _, id := range b.Children {
			if c, ok := byID[id]; ok {
				fork.Children = append(fork.Children, c)
			}
		}
		forks = append(forks, fork)
	}

	slices.SortStableFunc(forks, func(a, b models.Fork) int {
		return models.CompareBlocks(b.Common, a.Common)
	})
	if len(forks) > n {
		forks = forks[:n]
	}
	return forks
}
