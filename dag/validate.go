package dag

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"forktree/models"
)

// ValidateSnapshot checks an incoming snapshot before it is stored.
// It is stricter than Build: ids must be unique and every hash must be a
// full-length block hash.
func ValidateSnapshot(s *models.Snapshot) error {
	if s == nil {
		return fmt.Errorf("%w: snapshot is nil", ErrInvalidHeader)
	}
	ids := make(map[uint64]struct{}, len(s.HeaderInfos))
	for i, h := range s.HeaderInfos {
		if h == nil {
			return fmt.Errorf("%w: header %d is nil", ErrInvalidHeader, i)
		}
		if _, dup := ids[h.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidHeader, h.ID)
		}
		ids[h.ID] = struct{}{}
		if err := validateHash(h.Hash); err != nil {
			return fmt.Errorf("%w: header id %d: %v", ErrInvalidHeader, h.ID, err)
		}
	}
	for i, r := range s.Nodes {
		if r == nil {
			return fmt.Errorf("%w: report %d is nil", ErrInvalidReport, i)
		}
		for _, tip := range r.Tips {
			if err := validateHash(tip.Hash); err != nil {
				return fmt.Errorf("%w: node %q tip: %v", ErrInvalidReport, r.Name, err)
			}
			if !tip.Status.Known() {
				return fmt.Errorf("%w: node %q tip %s: unknown status %q", ErrInvalidReport, r.Name, tip.Hash, tip.Status)
			}
		}
	}
	return nil
}

func validateHash(s string) error {
	if len(s) != chainhash.MaxHashStringSize {
		return fmt.Errorf("hash %q: want %d hex characters", s, chainhash.MaxHashStringSize)
	}
	if _, err := chainhash.NewHashFromStr(s); err != nil {
		return fmt.Errorf("hash %q: %w", s, err)
	}
	return nil
}
