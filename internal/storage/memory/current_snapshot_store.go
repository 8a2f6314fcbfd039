package memory

import (
	"context"
	"sort"
	"sync"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/storage"
)

// CurrentSnapshotStore is an in-memory implementation of storage.CurrentSnapshotStore.
type CurrentSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CurrentSnapshot // keyed by (kind, entity_id)
}

// NewCurrentSnapshotStore creates a new in-memory current snapshot store.
func NewCurrentSnapshotStore() *CurrentSnapshotStore {
	return &CurrentSnapshotStore{
		data: make(map[string]*domain.CurrentSnapshot),
	}
}

func currentKey(kind domain.EntityKind, id string) string {
	return string(kind) + "|" + id
}

func copyCurrent(s *domain.CurrentSnapshot) *domain.CurrentSnapshot {
	c := *s
	c.Snapshot = s.Snapshot.Clone()
	if s.Token != nil {
		t := *s.Token
		c.Token = &t
	}
	if s.Pool != nil {
		p := *s.Pool
		c.Pool = &p
	}
	return &c
}

// Upsert inserts or replaces the snapshot for (kind, entity_id).
func (s *CurrentSnapshotStore) Upsert(_ context.Context, snap *domain.CurrentSnapshot) error {
	if snap == nil || snap.EntityID == "" || !snap.Kind.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[currentKey(snap.Kind, snap.EntityID)] = copyCurrent(snap)
	return nil
}

// UpsertBulk upserts multiple snapshots. Validates the whole batch first.
func (s *CurrentSnapshotStore) UpsertBulk(_ context.Context, snapshots []*domain.CurrentSnapshot) error {
	for _, snap := range snapshots {
		if snap == nil || snap.EntityID == "" || !snap.Kind.IsValid() {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		s.data[currentKey(snap.Kind, snap.EntityID)] = copyCurrent(snap)
	}
	return nil
}

// GetByID retrieves one snapshot. Returns ErrNotFound if not exists.
func (s *CurrentSnapshotStore) GetByID(_ context.Context, kind domain.EntityKind, id string) (*domain.CurrentSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[currentKey(kind, id)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyCurrent(snap), nil
}

// GetByIDs retrieves snapshots for ids, ordered by entity_id ASC.
func (s *CurrentSnapshotStore) GetByIDs(_ context.Context, kind domain.EntityKind, ids []string) ([]*domain.CurrentSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool, len(ids))
	var result []*domain.CurrentSnapshot
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if snap, exists := s.data[currentKey(kind, id)]; exists {
			result = append(result, copyCurrent(snap))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EntityID < result[j].EntityID
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.CurrentSnapshotStore = (*CurrentSnapshotStore)(nil)
