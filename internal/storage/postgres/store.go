package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapDesk/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	chain_id BIGINT NOT NULL,
	pool_id TEXT NOT NULL,
	currency0 TEXT NOT NULL,
	currency1 TEXT NOT NULL,
	fee INTEGER NOT NULL,
	tick_spacing INTEGER NOT NULL,
	hooks TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (chain_id, pool_id)
);
CREATE TABLE IF NOT EXISTS swap_attempts (
	chain_id BIGINT NOT NULL,
	account TEXT NOT NULL,
	attempt BIGINT NOT NULL,
	pool_id TEXT NOT NULL,
	zero_for_one BOOLEAN NOT NULL,
	amount_specified NUMERIC NOT NULL,
	value NUMERIC NOT NULL,
	status TEXT NOT NULL,
	tx_hash TEXT,
	block_number BIGINT,
	error_kind TEXT,
	error TEXT,
	amount0 NUMERIC,
	amount1 NUMERIC,
	recorded_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (chain_id, account, attempt, recorded_at)
);
`

// Store provides Postgres persistence for swap attempts.
type Store struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, timeout: 10 * time.Second}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables used by the store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutSwapRecords implements storage.Storage.
func (s *Store) PutSwapRecords(records []model.SwapRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	pools := make([]model.Pool, 0, len(records))
	for _, record := range records {
		pool := record.Pool
		pool.ChainID = record.ChainID
		pools = append(pools, pool)
	}
	if err := s.UpsertPools(ctx, pools); err != nil {
		return fmt.Errorf("upsert pools: %w", err)
	}
	if err := s.InsertSwapRecords(ctx, records); err != nil {
		return fmt.Errorf("insert swap records: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool keys.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				chain_id, pool_id, currency0, currency1, fee, tick_spacing, hooks, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (chain_id, pool_id)
			DO UPDATE SET updated_at = now()
		`,
			int64(pool.ChainID),
			pool.PoolID,
			pool.Currency0,
			pool.Currency1,
			int64(pool.Fee),
			pool.TickSpacing,
			pool.Hooks,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertSwapRecords stores terminal swap attempts.
func (s *Store) InsertSwapRecords(ctx context.Context, records []model.SwapRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		var amount0, amount1 *string
		if r.Swap != nil {
			amount0 = &r.Swap.Amount0
			amount1 = &r.Swap.Amount1
		}
		batch.Queue(`
			INSERT INTO swap_attempts (
				chain_id, account, attempt, pool_id, zero_for_one, amount_specified, value,
				status, tx_hash, block_number, error_kind, error, amount0, amount1, recorded_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now())
			ON CONFLICT (chain_id, account, attempt, recorded_at)
			DO UPDATE SET
				status = EXCLUDED.status,
				tx_hash = EXCLUDED.tx_hash,
				block_number = EXCLUDED.block_number,
				error_kind = EXCLUDED.error_kind,
				error = EXCLUDED.error,
				amount0 = EXCLUDED.amount0,
				amount1 = EXCLUDED.amount1,
				updated_at = now()
		`,
			int64(r.ChainID),
			r.Account,
			int64(r.Attempt),
			r.Pool.PoolID,
			r.ZeroForOne,
			r.AmountSpecified,
			r.Value,
			r.Status,
			nullString(r.TxHash),
			nullBlock(r.BlockNumber),
			nullString(r.ErrorKind),
			nullString(r.Error),
			amount0,
			amount1,
			r.RecordedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func nullString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func nullBlock(value uint64) *int64 {
	if value == 0 {
		return nil
	}
	v := int64(value)
	return &v
}
