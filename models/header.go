package models

import "math"

// NoParent is the prev_id value of a header that has no parent in the snapshot.
const NoParent uint64 = math.MaxUint64

// Header is a block header as reported in a snapshot.
type Header struct {
	ID            uint64 `json:"id"`      // snapshot-local handle
	PrevID        uint64 `json:"prev_id"` // NoParent for roots
	Height        uint64 `json:"height"`
	Hash          string `json:"hash"`
	PrevBlockhash string `json:"prev_blockhash"`
	MerkleRoot    string `json:"merkle_root"`
	Time          uint32 `json:"time"`
	Version       uint32 `json:"version"`
	Nonce         uint32 `json:"nonce"`
	Bits          uint32 `json:"bits"`
	DifficultyInt uint64 `json:"difficulty_int"`
	Miner         string `json:"miner"`
}

// HasParent reports whether PrevID references another header.
func (h *Header) HasParent() bool {
	return h.PrevID != NoParent
}
