package models

import (
	"cmp"
	"slices"
)

// CompareHeaders is the canonical block order: height, then hash, then id.
func CompareHeaders(a, b *Header) int {
	if c := cmp.Compare(a.Height, b.Height); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Hash, b.Hash); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// CompareBlocks applies CompareHeaders to blocks.
func CompareBlocks(a, b *Block) int {
	return CompareHeaders(&a.Header, &b.Header)
}

// SortBlocks sorts blocks in canonical order in place.
func SortBlocks(blocks []*Block) {
	slices.SortStableFunc(blocks, CompareBlocks)
}
