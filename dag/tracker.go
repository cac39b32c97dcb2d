package dag

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"forktree/cache"
	"forktree/layout"
	"forktree/logger"
	"forktree/models"
	"forktree/notify"
	"forktree/repository"
)

var ErrUnknownNetwork = errors.New("unknown network")

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	Layout layout.Options
	// Window is the default number of interesting heights laid out; 0 lays
	// out every header.
	Window   int
	MaxForks int
}

// Tracker keeps the latest snapshot of every network and serves block graph
// layouts computed from it.
type Tracker struct {
	repo   repository.SnapshotRepositoryInterface
	cache  *cache.LayoutCache
	broker *notify.Broker
	opts   TrackerOptions

	mux      sync.Mutex
	networks map[uint32]models.Network
}

// NewTracker creates a Tracker and loads the networks already stored in repo.
func NewTracker(repo repository.SnapshotRepositoryInterface, c *cache.LayoutCache, b *notify.Broker, opts TrackerOptions) (*Tracker, error) {
	t := &Tracker{
		repo:     repo,
		cache:    c,
		broker:   b,
		opts:     opts,
		networks: make(map[uint32]models.Network),
	}
	stored, err := repo.GetAllNetworks()
	if err != nil {
		return nil, fmt.Errorf("load networks: %w", err)
	}
	for _, n := range stored {
		t.networks[n.ID] = n
	}
	return t, nil
}

// RegisterNetworks replaces the set of monitored networks. Networks missing
// from the list stop accepting and serving snapshots.
func (t *Tracker) RegisterNetworks(networks []models.Network) error {
	t.mux.Lock()
	defer t.mux.Unlock()

	if err := t.repo.PutNetworks(networks); err != nil {
		return err
	}
	registered := make(map[uint32]models.Network, len(networks))
	for _, n := range networks {
		registered[n.ID] = n
	}
	for id := range t.networks {
		if _, ok := registered[id]; !ok {
			logger.Logger.Info("Network removed", zap.Uint32("network_id", id))
		}
	}
	t.networks = registered

	if n := t.cache.Len(); n > 0 {
		t.cache.Purge()
		logger.Logger.Debug("Purged layout cache", zap.Int("layouts", n))
	}
	return nil
}

// Networks lists the registered networks ordered by id.
func (t *Tracker) Networks() ([]models.Network, error) {
	return t.repo.GetAllNetworks()
}

func (t *Tracker) checkNetwork(networkID uint32) error {
	t.mux.Lock()
	defer t.mux.Unlock()
	if _, ok := t.networks[networkID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNetwork, networkID)
	}
	return nil
}

// PutSnapshot validates and stores s as the latest snapshot of networkID,
// then notifies subscribers. The stored copy is stamped with the next
// revision and returned.
func (t *Tracker) PutSnapshot(networkID uint32, s *models.Snapshot) (*models.Snapshot, error) {
	if err := t.checkNetwork(networkID); err != nil {
		return nil, err
	}
	if err := ValidateSnapshot(s); err != nil {
		return nil, err
	}

	t.mux.Lock()
	var revision uint64 = 1
	prev, err := t.repo.GetSnapshot(networkID)
	switch {
	case err == nil:
		revision = prev.Revision + 1
	case !errors.Is(err, repository.ErrNotFound):
		t.mux.Unlock()
		return nil, err
	}

	stored := *s
	stored.NetworkID = networkID
	stored.Revision = revision
	stored.UpdatedAt = nowMillis()
	err = t.repo.PutSnapshot(&stored)
	t.mux.Unlock()
	if err != nil {
		return nil, err
	}

	delivered := t.broker.Publish(models.ChangeEvent{NetworkID: networkID})
	logger.Logger.Info("Stored snapshot",
		zap.Uint32("network_id", networkID),
		zap.Uint64("revision", revision),
		zap.Int("headers", len(stored.HeaderInfos)),
		zap.Int("nodes", len(stored.Nodes)),
		zap.Int("subscribers_notified", delivered))
	return &stored, nil
}

// Snapshot returns the latest snapshot of networkID. A registered network
// without data yields an empty snapshot.
func (t *Tracker) Snapshot(networkID uint32) (*models.Snapshot, error) {
	if err := t.checkNetwork(networkID); err != nil {
		return nil, err
	}
	s, err := t.repo.GetSnapshot(networkID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.Snapshot{
			NetworkID:   networkID,
			HeaderInfos: []*models.Header{},
			Nodes:       []*models.NodeReport{},
		}, nil
	}
	return s, err
}

// Layout builds and lays out the latest snapshot of networkID. window
// overrides the default height window when not nil.
func (t *Tracker) Layout(networkID uint32, selected *uint64, window *int) (*models.Layout, error) {
	s, err := t.Snapshot(networkID)
	if err != nil {
		return nil, err
	}
	w := t.opts.Window
	if window != nil {
		w = *window
	}

	key := cache.LayoutKey{NetworkID: networkID, Revision: s.Revision, Window: w}
	if selected != nil {
		key.HasSelected = true
		key.Selected = *selected
	}
	if l, ok := t.cache.Get(key); ok {
		return l, nil
	}

	blocks, err := Build(Window(s.HeaderInfos, s.Nodes, w), s.Nodes)
	if err != nil {
		return nil, err
	}
	l, err := layout.Compute(blocks, selected, t.opts.Layout)
	if err != nil {
		return nil, err
	}
	if d := l.Diagnostics; d.CycleBreaks > 0 || d.Orphans > 0 || d.DuplicateIDs > 0 {
		logger.Logger.Warn("Malformed block graph",
			zap.Uint32("network_id", networkID),
			zap.Uint64("revision", s.Revision),
			zap.Int("roots", d.Roots),
			zap.Int("orphans", d.Orphans),
			zap.Int("cycle_breaks", d.CycleBreaks),
			zap.Int("duplicate_ids", d.DuplicateIDs))
	}

	t.cache.Add(key, l)
	return l, nil
}

// Forks returns the most recent forks in the latest snapshot of networkID.
func (t *Tracker) Forks(networkID uint32) ([]models.Fork, error) {
	s, err := t.Snapshot(networkID)
	if err != nil {
		return nil, err
	}
	blocks, err := Build(s.HeaderInfos, s.Nodes)
	if err != nil {
		return nil, err
	}
	forks := RecentForks(blocks, t.opts.MaxForks)
	if forks == nil {
		forks = []models.Fork{}
	}
	return forks, nil
}

// LaggingNodes reports the nodes of networkID whose active tip trails the
// others by more than LaggingThreshold blocks.
func (t *Tracker) LaggingNodes(networkID uint32) ([]models.LaggingNode, error) {
	s, err := t.Snapshot(networkID)
	if err != nil {
		return nil, err
	}
	nodes := LaggingNodes(s.Nodes)
	if nodes == nil {
		nodes = []models.LaggingNode{}
	}
	return nodes, nil
}

// InvalidBlocks reports the tips of networkID that some node marked invalid.
func (t *Tracker) InvalidBlocks(networkID uint32) ([]models.InvalidBlock, error) {
	s, err := t.Snapshot(networkID)
	if err != nil {
		return nil, err
	}
	return InvalidBlocks(s.Nodes), nil
}

// UnreachableNodes reports the nodes of networkID that could not be reached.
func (t *Tracker) UnreachableNodes(networkID uint32) ([]models.UnreachableNode, error) {
	s, err := t.Snapshot(networkID)
	if err != nil {
		return nil, err
	}
	nodes := UnreachableNodes(s.Nodes)
	if nodes == nil {
		nodes = []models.UnreachableNode{}
	}
	return nodes, nil
}

// Subscribe registers for change events; see notify.Broker.
func (t *Tracker) Subscribe() (<-chan models.ChangeEvent, func()) {
	events, cancel := t.broker.Subscribe()
	logger.Logger.Info("Change subscriber added", zap.Int("subscribers", t.broker.Subscribers()))

	var once sync.Once
	return events, func() {
		once.Do(func() {
			cancel()
			logger.Logger.Info("Change subscriber removed", zap.Int("subscribers", t.broker.Subscribers()))
		})
	}
}

// nowMillis returns current time in milliseconds
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
