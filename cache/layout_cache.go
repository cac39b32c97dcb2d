package cache

import (
	lru "github.com/hashicorp/golang-lru"

	"forktree/models"
)

// LayoutKey identifies one computed layout. A new snapshot revision makes
// all keys of the previous revision unreachable; they age out of the LRU.
type LayoutKey struct {
	NetworkID   uint32
	Revision    uint64
	HasSelected bool
	Selected    uint64
	Window      int
}

// LayoutCache keeps the most recently used layouts. Cached layouts are
// shared between callers and must be treated as read-only.
type LayoutCache struct {
	lru *lru.Cache
}

// NewLayoutCache creates a cache holding at most size layouts.
func NewLayoutCache(size int) (*LayoutCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LayoutCache{lru: c}, nil
}

func (c *LayoutCache) Get(k LayoutKey) (*models.Layout, bool) {
	v, ok := c.lru.Get(k)
	if !ok {
		return nil, false
	}
	return v.(*models.Layout), true
}

func (c *LayoutCache) Add(k LayoutKey, l *models.Layout) {
	c.lru.Add(k, l)
}

func (c *LayoutCache) Len() int {
	return c.lru.Len()
}

// Purge drops every cached layout.
func (c *LayoutCache) Purge() {
	c.lru.Purge()
}
