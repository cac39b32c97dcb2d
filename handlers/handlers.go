package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"forktree/dag"
	"forktree/logger"
	"forktree/models"
	"forktree/render"
)

const defaultKeepAlive = 15 * time.Second

// Handler contains the HTTP handlers for the block graph API endpoints
type Handler struct {
	Tracker   *dag.Tracker
	KeepAlive time.Duration // SSE keep-alive interval
}

// NewHandler creates and returns a new Handler instance
func NewHandler(t *dag.Tracker, keepAlive time.Duration) *Handler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &Handler{Tracker: t, KeepAlive: keepAlive}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dag.ErrUnknownNetwork):
		return http.StatusNotFound
	case errors.Is(err, dag.ErrInvalidHeader), errors.Is(err, dag.ErrInvalidReport):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func networkID(r *http.Request) (uint32, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["network"], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid network id %q", mux.Vars(r)["network"])
	}
	return uint32(id), nil
}

// GetNetworks handles GET requests listing the monitored networks
func (h *Handler) GetNetworks(w http.ResponseWriter, r *http.Request) {
	networks, err := h.Tracker.Networks()
	if err != nil {
		logger.Logger.Error("Failed to list networks", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.NetworksResponse{Networks: networks})
}

// GetData handles GET requests for the raw snapshot of a network
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	id, err := networkID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.Tracker.Snapshot(id)
	if err != nil {
		logger.Logger.Error("Failed to get snapshot", zap.Uint32("network_id", id), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PutData handles PUT requests replacing the snapshot of a network
func (h *Handler) PutData(w http.ResponseWriter, r *http.Request) {
	id, err := networkID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var s models.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		logger.Logger.Error("Failed to decode snapshot", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	stored, err := h.Tracker.PutSnapshot(id, &s)
	if err != nil {
		logger.Logger.Error("Failed to store snapshot", zap.Uint32("network_id", id), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Snapshot stored",
		"revision": stored.Revision,
	})
}

// layoutQuery reads the optional selected and window query parameters
func layoutQuery(r *http.Request) (*uint64, *int, error) {
	var selected *uint64
	var window *int
	q := r.URL.Query()
	if v := q.Get("selected"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid selected id %q", v)
		}
		selected = &id
	}
	if v := q.Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, nil, fmt.Errorf("invalid window %q", v)
		}
		window = &n
	}
	return selected, window, nil
}

func (h *Handler) layout(w http.ResponseWriter, r *http.Request) (*models.Layout, bool) {
	id, err := networkID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	selected, window, err := layoutQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	l, err := h.Tracker.Layout(id, selected, window)
	if err != nil {
		logger.Logger.Error("Failed to compute layout", zap.Uint32("network_id", id), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return l, true
}

// GetLayout handles GET requests for the positioned block graph of a network
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	l, ok := h.layout(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// GetTreeDOT serves the layout as Graphviz DOT
func (h *Handler) GetTreeDOT(w http.ResponseWriter, r *http.Request) {
	l, ok := h.layout(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(render.ToDOT(l))); err != nil {
		logger.Logger.Warn("Failed to write DOT", zap.Error(err))
	}
}

// GetTreeSVG serves the layout rendered to SVG
func (h *Handler) GetTreeSVG(w http.ResponseWriter, r *http.Request) {
	l, ok := h.layout(w, r)
	if !ok {
		return
	}
	svg, err := render.RenderSVG(r.Context(), render.ToDOT(l))
	if err != nil {
		logger.Logger.Error("Failed to render SVG", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(svg); err != nil {
		logger.Logger.Warn("Failed to write SVG", zap.Error(err))
	}
}

// GetForks handles GET requests for the most recent forks of a network
func (h *Handler) GetForks(w http.ResponseWriter, r *http.Request) {
	id, err := networkID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	forks, err := h.Tracker.Forks(id)
	if err != nil {
		logger.Logger.Error("Failed to collect forks", zap.Uint32("network_id", id), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"forks": forks})
}

// GetLaggingNodes handles GET requests for the nodes trailing the best active tip
func (h *Handler) GetLaggingNodes(w http.ResponseWriter, r *http.Request) {
	id, err := networkID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	nodes, err := h.Tracker.LaggingNodes(id)
	if err != nil {
		logger.Logger.Error("Failed to collect lagging nodes", zap.Uint32("network_id", id), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"threshold":     dag.LaggingThreshold,
		"lagging_nodes": nodes,
	})
}

// GetInvalidBlocks handles GET requests for the tips reported as invalid
func (h *Handler) GetInvalidBlocks(w http.ResponseWriter, r *http.Request) {
	id, err := networkID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	blocks, err := h.Tracker.InvalidBlocks(id)
	if err != nil {
		logger.Logger.Error("Failed to collect invalid blocks", zap.Uint32("network_id", id), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invalid_blocks": blocks})
}

// GetUnreachableNodes handles GET requests for the nodes that could not be reached
func (h *Handler) GetUnreachableNodes(w http.ResponseWriter, r *http.Request) {
	id, err := networkID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	nodes, err := h.Tracker.UnreachableNodes(id)
	if err != nil {
		logger.Logger.Error("Failed to collect unreachable nodes", zap.Uint32("network_id", id), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"unreachable_nodes": nodes})
}

// Changes streams snapshot change notifications as server-sent events
func (h *Handler) Changes(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	events, cancel := h.Tracker.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Logger.Error("Could not encode change event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: cache_changed\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
