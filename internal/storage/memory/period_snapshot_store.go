package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/storage"
)

// PeriodSnapshotStore is an in-memory implementation of storage.PeriodSnapshotStore.
// It keeps only the latest computed_at per (kind, entity_id, period),
// mirroring the ReplacingMergeTree table.
type PeriodSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PeriodSnapshot // keyed by (kind, entity_id, period)
}

// NewPeriodSnapshotStore creates a new in-memory period snapshot store.
func NewPeriodSnapshotStore() *PeriodSnapshotStore {
	return &PeriodSnapshotStore{
		data: make(map[string]*domain.PeriodSnapshot),
	}
}

func periodKey(kind domain.EntityKind, id string, p domain.Period) string {
	return fmt.Sprintf("%s|%s|%s", kind, id, p)
}

// InsertBulk adds multiple rows. Validates the whole batch first.
func (s *PeriodSnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.PeriodSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	if err := validatePeriodBatch(snapshots); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range snapshots {
		key := periodKey(p.Kind, p.EntityID, p.Period)
		if existing, ok := s.data[key]; ok && existing.ComputedAt > p.ComputedAt {
			continue
		}
		row := *p
		row.Snapshot = p.Snapshot.Clone()
		s.data[key] = &row
	}
	return nil
}

// GetByIDs returns the latest row per (entity_id, period), ordered by
// entity_id ASC, period ASC.
func (s *PeriodSnapshotStore) GetByIDs(_ context.Context, kind domain.EntityKind, ids []string, periods []domain.Period) ([]*domain.PeriodSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var result []*domain.PeriodSnapshot
	for _, id := range ids {
		for _, p := range periods {
			key := periodKey(kind, id, p)
			if seen[key] {
				continue
			}
			seen[key] = true
			if row, ok := s.data[key]; ok {
				c := *row
				c.Snapshot = row.Snapshot.Clone()
				result = append(result, &c)
			}
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].EntityID != result[j].EntityID {
			return result[i].EntityID < result[j].EntityID
		}
		return result[i].Period < result[j].Period
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.PeriodSnapshotStore = (*PeriodSnapshotStore)(nil)

// validatePeriodBatch rejects malformed rows and rows that repeat the same
// (kind, entity_id, period, computed_at) version.
func validatePeriodBatch(snapshots []*domain.PeriodSnapshot) error {
	seen := make(map[string]bool, len(snapshots))
	for _, p := range snapshots {
		if p == nil || p.EntityID == "" || !p.Kind.IsValid() || !p.Period.IsHistorical() {
			return storage.ErrInvalidInput
		}
		key := fmt.Sprintf("%s|%s|%s|%d", p.Kind, p.EntityID, p.Period, p.ComputedAt)
		if seen[key] {
			return fmt.Errorf("%w: %s %s %s", storage.ErrDuplicateKey, p.Kind, p.EntityID, p.Period)
		}
		seen[key] = true
	}
	return nil
}
