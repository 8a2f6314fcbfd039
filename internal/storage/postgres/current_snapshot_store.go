package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/observability"
	"jediswap-analytics/internal/storage"
)

const (
	upsertTokenSQL = `
		INSERT INTO tokens (
			token_address, name, symbol, volume_usd, fees_usd,
			total_value_locked, total_value_locked_usd, tx_count, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (token_address) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			volume_usd = EXCLUDED.volume_usd,
			fees_usd = EXCLUDED.fees_usd,
			total_value_locked = EXCLUDED.total_value_locked,
			total_value_locked_usd = EXCLUDED.total_value_locked_usd,
			tx_count = EXCLUDED.tx_count,
			updated_at = EXCLUDED.updated_at
	`

	upsertPoolSQL = `
		INSERT INTO pools (
			pool_address, token0_address, token0_symbol, token0_name,
			token1_address, token1_symbol, token1_name, fee,
			volume_usd, fees_usd, total_value_locked, total_value_locked_usd, tx_count, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (pool_address) DO UPDATE SET
			token0_address = EXCLUDED.token0_address,
			token0_symbol = EXCLUDED.token0_symbol,
			token0_name = EXCLUDED.token0_name,
			token1_address = EXCLUDED.token1_address,
			token1_symbol = EXCLUDED.token1_symbol,
			token1_name = EXCLUDED.token1_name,
			fee = EXCLUDED.fee,
			volume_usd = EXCLUDED.volume_usd,
			fees_usd = EXCLUDED.fees_usd,
			total_value_locked = EXCLUDED.total_value_locked,
			total_value_locked_usd = EXCLUDED.total_value_locked_usd,
			tx_count = EXCLUDED.tx_count,
			updated_at = EXCLUDED.updated_at
	`

	upsertFactorySQL = `
		INSERT INTO factories (
			factory_address, volume_usd, fees_usd, total_value_locked_usd, tx_count, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (factory_address) DO UPDATE SET
			volume_usd = EXCLUDED.volume_usd,
			fees_usd = EXCLUDED.fees_usd,
			total_value_locked_usd = EXCLUDED.total_value_locked_usd,
			tx_count = EXCLUDED.tx_count,
			updated_at = EXCLUDED.updated_at
	`

	selectTokensSQL = `
		SELECT token_address, name, symbol, volume_usd, fees_usd,
			total_value_locked, total_value_locked_usd, tx_count, updated_at
		FROM tokens
	`

	selectPoolsSQL = `
		SELECT pool_address, token0_address, token0_symbol, token0_name,
			token1_address, token1_symbol, token1_name, fee,
			volume_usd, fees_usd, total_value_locked, total_value_locked_usd, tx_count, updated_at
		FROM pools
	`

	selectFactoriesSQL = `
		SELECT factory_address, volume_usd, fees_usd, total_value_locked_usd, tx_count, updated_at
		FROM factories
	`
)

// CurrentSnapshotStore implements storage.CurrentSnapshotStore using PostgreSQL.
// Each entity kind has its own table.
type CurrentSnapshotStore struct {
	pool *Pool
}

// NewCurrentSnapshotStore creates a new CurrentSnapshotStore.
func NewCurrentSnapshotStore(pool *Pool) *CurrentSnapshotStore {
	return &CurrentSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CurrentSnapshotStore = (*CurrentSnapshotStore)(nil)

// Upsert inserts or replaces the current snapshot for (kind, entity_id).
func (s *CurrentSnapshotStore) Upsert(ctx context.Context, snap *domain.CurrentSnapshot) error {
	query, args, err := upsertArgs(snap)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s snapshot: %w", snap.Kind, err)
	}
	return nil
}

// UpsertBulk upserts multiple snapshots atomically.
func (s *CurrentSnapshotStore) UpsertBulk(ctx context.Context, snapshots []*domain.CurrentSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, snap := range snapshots {
		query, args, err := upsertArgs(snap)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert %s snapshot in bulk: %w", snap.Kind, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves one snapshot. Returns ErrNotFound if not exists.
func (s *CurrentSnapshotStore) GetByID(ctx context.Context, kind domain.EntityKind, id string) (*domain.CurrentSnapshot, error) {
	query, key, err := selectFor(kind)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, query+" WHERE "+key+" = $1", id)
	snap, err := scanCurrent(kind, row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get %s snapshot: %w", kind, err)
	}
	return snap, nil
}

// GetByIDs retrieves snapshots for ids, ordered by entity_id ASC.
func (s *CurrentSnapshotStore) GetByIDs(ctx context.Context, kind domain.EntityKind, ids []string) (result []*domain.CurrentSnapshot, err error) {
	query, key, err := selectFor(kind)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "get_"+kind.String()+"s", time.Since(start).Seconds(), err)
	}()

	rows, err := s.pool.Query(ctx, query+" WHERE "+key+" = ANY($1) ORDER BY "+key+" ASC", ids)
	if err != nil {
		return nil, fmt.Errorf("get %s snapshots: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		snap, err := scanCurrent(kind, rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s snapshot: %w", kind, err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s snapshots: %w", kind, err)
	}
	return result, nil
}

func upsertArgs(snap *domain.CurrentSnapshot) (string, []any, error) {
	if snap == nil || snap.EntityID == "" {
		return "", nil, storage.ErrInvalidInput
	}
	m := snap.Snapshot

	switch snap.Kind {
	case domain.KindToken:
		var info domain.TokenInfo
		if snap.Token != nil {
			info = *snap.Token
		}
		return upsertTokenSQL, []any{
			snap.EntityID, info.Name, info.Symbol, m.VolumeUSD, m.FeesUSD,
			m.TotalValueLocked, m.TotalValueLockedUSD, m.TxCount, snap.UpdatedAt,
		}, nil
	case domain.KindPool:
		if snap.Pool == nil {
			return "", nil, storage.ErrInvalidInput
		}
		p := snap.Pool
		return upsertPoolSQL, []any{
			snap.EntityID, p.Token0.Address, p.Token0.Symbol, p.Token0.Name,
			p.Token1.Address, p.Token1.Symbol, p.Token1.Name, p.Fee,
			m.VolumeUSD, m.FeesUSD, m.TotalValueLocked, m.TotalValueLockedUSD, m.TxCount, snap.UpdatedAt,
		}, nil
	case domain.KindFactory:
		return upsertFactorySQL, []any{
			snap.EntityID, m.VolumeUSD, m.FeesUSD, m.TotalValueLockedUSD, m.TxCount, snap.UpdatedAt,
		}, nil
	default:
		return "", nil, storage.ErrInvalidInput
	}
}

func selectFor(kind domain.EntityKind) (query, key string, err error) {
	switch kind {
	case domain.KindToken:
		return selectTokensSQL, "token_address", nil
	case domain.KindPool:
		return selectPoolsSQL, "pool_address", nil
	case domain.KindFactory:
		return selectFactoriesSQL, "factory_address", nil
	default:
		return "", "", storage.ErrInvalidInput
	}
}

// scanCurrent scans a single row shaped by selectFor(kind).
func scanCurrent(kind domain.EntityKind, row pgx.Row) (*domain.CurrentSnapshot, error) {
	snap := &domain.CurrentSnapshot{Kind: kind}
	m := &snap.Snapshot

	var err error
	switch kind {
	case domain.KindToken:
		info := &domain.TokenInfo{}
		err = row.Scan(
			&snap.EntityID, &info.Name, &info.Symbol, &m.VolumeUSD, &m.FeesUSD,
			&m.TotalValueLocked, &m.TotalValueLockedUSD, &m.TxCount, &snap.UpdatedAt,
		)
		info.Address = snap.EntityID
		snap.Token = info
	case domain.KindPool:
		p := &domain.PoolInfo{}
		err = row.Scan(
			&snap.EntityID, &p.Token0.Address, &p.Token0.Symbol, &p.Token0.Name,
			&p.Token1.Address, &p.Token1.Symbol, &p.Token1.Name, &p.Fee,
			&m.VolumeUSD, &m.FeesUSD, &m.TotalValueLocked, &m.TotalValueLockedUSD, &m.TxCount, &snap.UpdatedAt,
		)
		p.Address = snap.EntityID
		snap.Pool = p
	case domain.KindFactory:
		err = row.Scan(
			&snap.EntityID, &m.VolumeUSD, &m.FeesUSD, &m.TotalValueLockedUSD, &m.TxCount, &snap.UpdatedAt,
		)
	default:
		return nil, storage.ErrInvalidInput
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}
