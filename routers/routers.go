package routers

import (
	"forktree/handlers"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all the HTTP routes of the block graph API
func RegisterRoutes(r *mux.Router, h *handlers.Handler) {
	api := r.PathPrefix("/api").Subrouter()

	// Lists the monitored networks
	api.HandleFunc("/networks", h.GetNetworks).Methods("GET")

	// Server-sent events announcing snapshot changes
	api.HandleFunc("/changes", h.Changes).Methods("GET")

	// Raw snapshot: read it, or replace it with a newer one
	api.HandleFunc("/{network:[0-9]+}/data", h.GetData).Methods("GET")
	api.HandleFunc("/{network:[0-9]+}/data", h.PutData).Methods("PUT")

	// Positioned block graph, optionally ?selected=<id>&window=<heights>
	api.HandleFunc("/{network:[0-9]+}/layout", h.GetLayout).Methods("GET")
	api.HandleFunc("/{network:[0-9]+}/tree.dot", h.GetTreeDOT).Methods("GET")
	api.HandleFunc("/{network:[0-9]+}/tree.svg", h.GetTreeSVG).Methods("GET")

	// Most recent blocks with more than one child
	api.HandleFunc("/{network:[0-9]+}/forks", h.GetForks).Methods("GET")

	// Node health derived from the reported tips
	api.HandleFunc("/{network:[0-9]+}/lagging", h.GetLaggingNodes).Methods("GET")
	api.HandleFunc("/{network:[0-9]+}/invalid", h.GetInvalidBlocks).Methods("GET")
	api.HandleFunc("/{network:[0-9]+}/unreachable", h.GetUnreachableNodes).Methods("GET")
}
