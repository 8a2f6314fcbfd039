package storage

import (
	"context"

	"jediswap-analytics/internal/domain"
)

// EntityReader is the read-only view of an entity cache.
type EntityReader interface {
	// Get returns a copy of the record for id, or false if untracked.
	Get(id string) (*domain.EntityRecord, bool)

	// Has reports whether id is tracked.
	Has(id string) bool

	// GetAll returns copies of every record keyed by id.
	GetAll() map[string]*domain.EntityRecord

	// List returns copies of every record in first-insertion order.
	List() []*domain.EntityRecord

	// Len returns the number of tracked ids.
	Len() int
}

// EntityCache is an id-keyed store of joined entity records.
// Records are only ever replaced whole.
type EntityCache interface {
	EntityReader

	// Upsert replaces the full record for rec.ID.
	// Returns ErrInvalidInput if rec is nil or has no id.
	Upsert(rec *domain.EntityRecord) error
}

// CurrentSnapshotStore provides access to current entity snapshots
// (tokens, pools, factories tables).
type CurrentSnapshotStore interface {
	// Upsert inserts or replaces the current snapshot for (kind, entity_id).
	Upsert(ctx context.Context, s *domain.CurrentSnapshot) error

	// UpsertBulk upserts multiple snapshots in one transaction.
	UpsertBulk(ctx context.Context, snapshots []*domain.CurrentSnapshot) error

	// GetByID retrieves one snapshot. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, kind domain.EntityKind, id string) (*domain.CurrentSnapshot, error)

	// GetByIDs retrieves snapshots for the given ids, ordered by entity_id ASC.
	// Ids without a row are omitted.
	GetByIDs(ctx context.Context, kind domain.EntityKind, ids []string) ([]*domain.CurrentSnapshot, error)
}

// PeriodSnapshotStore provides access to entity_period_snapshots storage.
type PeriodSnapshotStore interface {
	// InsertBulk adds multiple rows. A later computed_at for the same
	// (kind, entity_id, period) supersedes an earlier one.
	InsertBulk(ctx context.Context, snapshots []*domain.PeriodSnapshot) error

	// GetByIDs returns the latest row per (entity_id, period) for the given
	// ids and periods, ordered by entity_id ASC, period ASC.
	GetByIDs(ctx context.Context, kind domain.EntityKind, ids []string, periods []domain.Period) ([]*domain.PeriodSnapshot, error)
}
