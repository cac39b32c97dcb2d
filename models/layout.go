package models

// PositionedNode is a block placed on the canvas.
type PositionedNode struct {
	ID       uint64  `json:"id"`
	Column   int     `json:"column"`
	Slot     float64 `json:"slot"` // fractional for internal nodes
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Selected bool    `json:"selected"`
	Block    *Block  `json:"block"`
}

// Edge connects a block to its parent.
type Edge struct {
	ID       string `json:"id"` // "{parent}-{child}"
	SourceID uint64 `json:"source"`
	TargetID uint64 `json:"target"`
	Selected bool   `json:"selected"` // styling hint only
}

// LayoutDiagnostics counts the defensive paths taken while laying out.
type LayoutDiagnostics struct {
	Roots        int `json:"roots"`
	Orphans      int `json:"orphans"`
	CycleBreaks  int `json:"cycle_breaks"`
	DuplicateIDs int `json:"duplicate_ids"`
}

// Layout is the renderable result of the layout engine.
type Layout struct {
	Nodes       []PositionedNode  `json:"nodes"`
	Edges       []Edge            `json:"edges"`
	Columns     int               `json:"columns"`
	Diagnostics LayoutDiagnostics `json:"diagnostics"`
}
