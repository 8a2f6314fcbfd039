package memory

import (
	"context"
	"errors"
	"testing"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/storage"
)

func TestCurrentSnapshotStore_UpsertAndGet(t *testing.T) {
	store := NewCurrentSnapshotStore()
	ctx := context.Background()

	err := store.UpsertBulk(ctx, []*domain.CurrentSnapshot{
		{Kind: domain.KindToken, EntityID: "0xb", Token: &domain.TokenInfo{Symbol: "B"}, Snapshot: domain.Snapshot{VolumeUSD: 2}},
		{Kind: domain.KindToken, EntityID: "0xa", Token: &domain.TokenInfo{Symbol: "A"}, Snapshot: domain.Snapshot{VolumeUSD: 1}},
		{Kind: domain.KindPool, EntityID: "0xa", Snapshot: domain.Snapshot{VolumeUSD: 9}},
	})
	if err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	got, err := store.GetByIDs(ctx, domain.KindToken, []string{"0xb", "0xa", "0xmissing"})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got))
	}
	if got[0].EntityID != "0xa" || got[1].EntityID != "0xb" {
		t.Errorf("expected ordering by entity_id, got %s, %s", got[0].EntityID, got[1].EntityID)
	}

	if _, err := store.GetByID(ctx, domain.KindFactory, "0xa"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	// upsert replaces
	_ = store.Upsert(ctx, &domain.CurrentSnapshot{Kind: domain.KindToken, EntityID: "0xa", Snapshot: domain.Snapshot{VolumeUSD: 5}})
	one, err := store.GetByID(ctx, domain.KindToken, "0xa")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if one.Snapshot.VolumeUSD != 5 {
		t.Errorf("VolumeUSD mismatch: got %f, want 5", one.Snapshot.VolumeUSD)
	}
}

func TestCurrentSnapshotStore_InvalidInput(t *testing.T) {
	store := NewCurrentSnapshotStore()
	err := store.UpsertBulk(context.Background(), []*domain.CurrentSnapshot{
		{Kind: domain.KindToken, EntityID: "0xa"},
		{Kind: "wallet", EntityID: "0xb"},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if _, err := store.GetByID(context.Background(), domain.KindToken, "0xa"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected rejected batch to leave store empty, got %v", err)
	}
}

func TestPeriodSnapshotStore_LatestWins(t *testing.T) {
	store := NewPeriodSnapshotStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.PeriodSnapshot{
		{Kind: domain.KindToken, EntityID: "0xa", Period: domain.PeriodOneDay, Snapshot: domain.Snapshot{VolumeUSD: 1}, ComputedAt: 200},
		{Kind: domain.KindToken, EntityID: "0xa", Period: domain.PeriodOneDay, Snapshot: domain.Snapshot{VolumeUSD: 9}, ComputedAt: 100},
		{Kind: domain.KindToken, EntityID: "0xa", Period: domain.PeriodTwoDays, Snapshot: domain.Snapshot{VolumeUSD: 2}, ComputedAt: 100},
		{Kind: domain.KindToken, EntityID: "0xa", Period: domain.PeriodOneWeek, Snapshot: domain.Snapshot{VolumeUSD: 3}, ComputedAt: 100},
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByIDs(ctx, domain.KindToken, []string{"0xa"}, []domain.Period{domain.PeriodOneDay, domain.PeriodTwoDays})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Period != domain.PeriodOneDay || got[0].Snapshot.VolumeUSD != 1 {
		t.Errorf("expected latest one_day row, got %+v", got[0])
	}
}

func TestPeriodSnapshotStore_RejectsCurrent(t *testing.T) {
	store := NewPeriodSnapshotStore()
	err := store.InsertBulk(context.Background(), []*domain.PeriodSnapshot{
		{Kind: domain.KindToken, EntityID: "0xa", Period: domain.PeriodCurrent},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestPeriodSnapshotStore_RejectsRepeatedVersion(t *testing.T) {
	store := NewPeriodSnapshotStore()
	row := &domain.PeriodSnapshot{Kind: domain.KindPool, EntityID: "0xa", Period: domain.PeriodOneWeek, ComputedAt: 100}
	err := store.InsertBulk(context.Background(), []*domain.PeriodSnapshot{row, row})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if got, _ := store.GetByIDs(context.Background(), domain.KindPool, []string{"0xa"}, domain.HistoricalPeriods); len(got) != 0 {
		t.Errorf("Expected nothing stored, got %d rows", len(got))
	}
}
