package models

// TipStatusEntry lists the nodes that report a block as a tip with Status.
type TipStatusEntry struct {
	Status    TipStatus `json:"status"`
	NodeNames []string  `json:"node_names"` // sorted
}

// Block is a header linked into the block graph and annotated with tip statuses.
type Block struct {
	Header
	TipStatuses []TipStatusEntry `json:"tip_statuses"`
	Children    []uint64         `json:"children"`
}

// IsTipOf reports whether any node reports this block with status s.
func (b *Block) IsTipOf(s TipStatus) bool {
	for _, e := range b.TipStatuses {
		if e.Status == s {
			return true
		}
	}
	return false
}

// Fork is a block with more than one child.
type Fork struct {
	Common   *Block   `json:"common"`
	Children []*Block `json:"children"`
}
