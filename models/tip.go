package models

// TipStatus is the chain-tip status a node reports for a block.
type TipStatus string

const (
	StatusActive       TipStatus = "active"
	StatusValidFork    TipStatus = "valid-fork"
	StatusValidHeaders TipStatus = "valid-headers"
	StatusHeadersOnly  TipStatus = "headers-only"
	StatusInvalid      TipStatus = "invalid"
	StatusUnknown      TipStatus = "unknown"
)

// statusRank orders statuses from most to least canonical.
var statusRank = map[TipStatus]int{
	StatusActive:       0,
	StatusValidFork:    1,
	StatusValidHeaders: 2,
	StatusHeadersOnly:  3,
	StatusInvalid:      4,
	StatusUnknown:      5,
}

// ParseTipStatus maps a raw status string onto the known domain.
// Anything unrecognised becomes StatusUnknown.
func ParseTipStatus(s string) TipStatus {
	st := TipStatus(s)
	if _, ok := statusRank[st]; ok {
		return st
	}
	return StatusUnknown
}

// Known reports whether s is one of the enumerated statuses.
func (s TipStatus) Known() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank returns the display priority of s, lower first.
func (s TipStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return statusRank[StatusUnknown]
}

// Tip is one entry of a node's getchaintips answer.
type Tip struct {
	Height    uint64    `json:"height"`
	Hash      string    `json:"hash"`
	BranchLen uint64    `json:"branchlen"`
	Status    TipStatus `json:"status"`
}

// NodeReport is what a single monitored node knows about the chain.
type NodeReport struct {
	ID                   uint32 `json:"id"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	Implementation       string `json:"implementation"`
	Version              string `json:"version"`
	LastChangedTimestamp uint64 `json:"last_changed_timestamp"`
	Reachable            bool   `json:"reachable"`
	Tips                 []Tip  `json:"tips"`
}
