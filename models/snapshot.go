package models

// Network describes one monitored chain.
type Network struct {
	ID          uint32 `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
}

// Snapshot is the complete view of one network at one point in time.
type Snapshot struct {
	NetworkID   uint32        `json:"network_id"`
	Revision    uint64        `json:"revision"`
	UpdatedAt   int64         `json:"updated_at"` // unix timestamp in ms
	HeaderInfos []*Header     `json:"header_infos"`
	Nodes       []*NodeReport `json:"nodes"`
}

// NetworksResponse is the body of the network list endpoint.
type NetworksResponse struct {
	Networks []Network `json:"networks"`
}

// ChangeEvent is pushed to subscribers whenever a network snapshot changes.
type ChangeEvent struct {
	NetworkID uint32 `json:"network_id"`
}
