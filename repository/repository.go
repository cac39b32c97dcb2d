package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"forktree/db"
	"forktree/models"
)

var ErrNotFound = errors.New("not found")

const (
	snapshotPrefix = "snapshot:"
	networkPrefix  = "network:"
)

// It abstracts the storage layer from the business logic.
// PutNetworks replaces the whole stored network list.
type SnapshotRepositoryInterface interface {
	PutSnapshot(s *models.Snapshot) error
	GetSnapshot(networkID uint32) (*models.Snapshot, error)
	PutNetworks(networks []models.Network) error
	GetAllNetworks() ([]models.Network, error)
}

// SnapshotRepository implements SnapshotRepositoryInterface on LevelDB.
// Only the latest snapshot of each network is kept.
type SnapshotRepository struct {
	db *db.LevelDB
}

// NewSnapshotRepository creates and returns a new SnapshotRepository instance
func NewSnapshotRepository(db *db.LevelDB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func snapshotKey(networkID uint32) []byte {
	return []byte(fmt.Sprintf("%s%010d", snapshotPrefix, networkID))
}

func networkKey(networkID uint32) string {
	return fmt.Sprintf("%s%010d", networkPrefix, networkID)
}

// PutSnapshot replaces the stored snapshot of s.NetworkID
func (r *SnapshotRepository) PutSnapshot(s *models.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.db.Put(snapshotKey(s.NetworkID), data)
}

// GetSnapshot retrieves the latest snapshot of a network
func (r *SnapshotRepository) GetSnapshot(networkID uint32) (*models.Snapshot, error) {
	data, err := r.db.Get(snapshotKey(networkID))
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("snapshot of network %d: %w", networkID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var s models.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// PutNetworks replaces the stored network list in a single batch. Networks
// missing from networks are removed; their snapshots are left in place.
func (r *SnapshotRepository) PutNetworks(networks []models.Network) error {
	puts := make(map[string][]byte, len(networks))
	for _, n := range networks {
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		puts[networkKey(n.ID)] = data
	}

	var deletes []string
	iter := r.db.NewIterator([]byte(networkPrefix))
	for iter.Next() {
		key := string(iter.Key())
		if _, ok := puts[key]; !ok {
			deletes = append(deletes, key)
		}
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}
	return r.db.WriteBatch(puts, deletes)
}

// GetAllNetworks returns every stored network ordered by id
func (r *SnapshotRepository) GetAllNetworks() ([]models.Network, error) {
	iter := r.db.NewIterator([]byte(networkPrefix))
	defer iter.Release()

	networks := []models.Network{}
	for iter.Next() {
		var n models.Network
		if err := json.Unmarshal(iter.Value(), &n); err != nil {
			return nil, err
		}
		networks = append(networks, n)
	}
	return networks, iter.Error()
}
