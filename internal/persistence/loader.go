package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// Loader restores ledger state from the current-state tables on boot.
// The tables are authoritative: there is no event replay.
type Loader struct {
	db *sql.DB
}

func NewLoader(db *sql.DB) *Loader {
	return &Loader{db: db}
}

// LoadPools returns all pools ordered by ID.
func (l *Loader) LoadPools(ctx context.Context) ([]PoolRow, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, stake_token, reward_token, apy_bps, lock_days, deposited_amount
		FROM stake.pools
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load pools: %w", err)
	}
	defer rows.Close()

	var pools []PoolRow
	for rows.Next() {
		var p PoolRow
		if err := rows.Scan(&p.ID, &p.StakeToken, &p.RewardToken, &p.APYBasisPoints, &p.LockDays, &p.DepositedAmount); err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// LoadPositions returns all positions.
func (l *Loader) LoadPositions(ctx context.Context) ([]PositionRow, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT pool_id, user_id, amount, lock_until
		FROM stake.positions
	`)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	defer rows.Close()

	var positions []PositionRow
	for rows.Next() {
		var p PositionRow
		if err := rows.Scan(&p.PoolID, &p.UserID, &p.Amount, &p.LockUntil); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// NextSequence returns the sequence the notification log should resume
// from: one past the highest persisted sequence, or zero on cold start.
func (l *Loader) NextSequence(ctx context.Context) (int64, error) {
	var next sql.NullInt64
	err := l.db.QueryRowContext(ctx,
		`SELECT MAX(sequence) FROM stake.notifications`,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("load max sequence: %w", err)
	}
	if !next.Valid {
		return 0, nil
	}
	return next.Int64 + 1, nil
}
