package models

// NodeRef identifies a monitored node.
type NodeRef struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// LaggingNode is a node whose active tip is well below the best active tip
// reported by the other nodes.
type LaggingNode struct {
	Node         NodeRef `json:"node"`
	ActiveHeight uint64  `json:"active_height"`
	MaxHeight    uint64  `json:"max_height"`
}

// InvalidBlock is a tip that at least one node marked invalid.
type InvalidBlock struct {
	Height uint64    `json:"height"`
	Hash   string    `json:"hash"`
	Nodes  []NodeRef `json:"nodes"` // ordered by id
}

// UnreachableNode is a node whose RPC interface could not be reached.
// LastChangedTimestamp is zero when its tips were never fetched.
type UnreachableNode struct {
	Node                 NodeRef `json:"node"`
	LastChangedTimestamp uint64  `json:"last_changed_timestamp"`
}
