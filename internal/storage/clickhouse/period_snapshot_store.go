package clickhouse

import (
	"context"
	"fmt"
	"time"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/observability"
	"jediswap-analytics/internal/storage"
)

// PeriodSnapshotStore implements storage.PeriodSnapshotStore using ClickHouse.
// The table is a ReplacingMergeTree versioned by computed_at, so reads use
// FINAL to see only the latest row per (entity_kind, entity_id, period).
type PeriodSnapshotStore struct {
	conn *Conn
}

// NewPeriodSnapshotStore creates a new PeriodSnapshotStore.
func NewPeriodSnapshotStore(conn *Conn) *PeriodSnapshotStore {
	return &PeriodSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PeriodSnapshotStore = (*PeriodSnapshotStore)(nil)

// InsertBulk appends rows in a single batch. Rows for the current period or
// with an unknown kind reject the whole batch.
func (s *PeriodSnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.PeriodSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	if err := validatePeriodBatch(snapshots); err != nil {
		return err
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO entity_period_snapshots (
			entity_kind, entity_id, period, volume_usd, fees_usd,
			total_value_locked, total_value_locked_usd, total_value_locked_usd_first,
			open, close, tx_count, computed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range snapshots {
		m := p.Snapshot
		err = batch.Append(
			string(p.Kind), p.EntityID, string(p.Period), m.VolumeUSD, m.FeesUSD,
			m.TotalValueLocked, m.TotalValueLockedUSD, m.TotalValueLockedUSDFirst,
			m.Open, m.Close, m.TxCount, p.ComputedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByIDs returns the latest row per (entity_id, period), ordered by
// entity_id ASC, period ASC. Empty periods selects every historical period.
func (s *PeriodSnapshotStore) GetByIDs(ctx context.Context, kind domain.EntityKind, ids []string, periods []domain.Period) (result []*domain.PeriodSnapshot, err error) {
	if len(ids) == 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "get_period_snapshots", time.Since(start).Seconds(), err)
	}()
	if len(periods) == 0 {
		periods = domain.HistoricalPeriods
	}

	query := `
		SELECT entity_kind, entity_id, period, volume_usd, fees_usd,
			total_value_locked, total_value_locked_usd, total_value_locked_usd_first,
			open, close, tx_count, computed_at
		FROM entity_period_snapshots FINAL
		WHERE entity_kind = ? AND entity_id IN (?) AND period IN (?)
		ORDER BY entity_id ASC, period ASC
	`

	rows, err := s.conn.Query(ctx, query, string(kind), ids, domain.PeriodStrings(periods))
	if err != nil {
		return nil, fmt.Errorf("query period snapshots: %w", err)
	}
	defer rows.Close()

	return scanPeriodSnapshots(rows)
}

func scanPeriodSnapshots(rows chRows) ([]*domain.PeriodSnapshot, error) {
	var result []*domain.PeriodSnapshot

	for rows.Next() {
		var (
			p              domain.PeriodSnapshot
			kind, period   string
			tvlFirst       *float64
			open, closeVal *float64
		)
		m := &p.Snapshot

		err := rows.Scan(
			&kind, &p.EntityID, &period, &m.VolumeUSD, &m.FeesUSD,
			&m.TotalValueLocked, &m.TotalValueLockedUSD, &tvlFirst,
			&open, &closeVal, &m.TxCount, &p.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan period snapshot row: %w", err)
		}

		p.Kind = domain.EntityKind(kind)
		p.Period = domain.Period(period)
		m.TotalValueLockedUSDFirst = tvlFirst
		m.Open = open
		m.Close = closeVal
		result = append(result, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate period snapshot rows: %w", err)
	}
	return result, nil
}

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
