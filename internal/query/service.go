package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound means the requested row does not exist.
var ErrNotFound = errors.New("not found")

// QueryService provides read-only access to the persisted ledger
// state. All responses carry as_of_sequence: the last notification
// sequence the persistence worker has committed.
type QueryService struct {
	db *sql.DB
}

func NewQueryService(db *sql.DB) *QueryService {
	return &QueryService{db: db}
}

// GetPool returns one pool.
func (qs *QueryService) GetPool(ctx context.Context, poolID int) (*PoolInfo, error) {
	asOf, err := qs.watermark(ctx)
	if err != nil {
		return nil, err
	}

	var p PoolInfo
	err = qs.db.QueryRowContext(ctx, `
		SELECT id, stake_token, reward_token, apy_bps, lock_days, deposited_amount
		FROM stake.pools WHERE id = $1
	`, poolID).Scan(&p.ID, &p.StakeToken, &p.RewardToken, &p.APYBasisPoints, &p.LockDays, &p.DepositedAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: pool %d", ErrNotFound, poolID)
	}
	if err != nil {
		return nil, fmt.Errorf("query pool: %w", err)
	}

	p.AsOfSequence = asOf
	return &p, nil
}

// ListPools returns all pools in ID order.
func (qs *QueryService) ListPools(ctx context.Context) ([]PoolInfo, error) {
	asOf, err := qs.watermark(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := qs.db.QueryContext(ctx, `
		SELECT id, stake_token, reward_token, apy_bps, lock_days, deposited_amount
		FROM stake.pools ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query pools: %w", err)
	}
	defer rows.Close()

	var pools []PoolInfo
	for rows.Next() {
		var p PoolInfo
		if err := rows.Scan(&p.ID, &p.StakeToken, &p.RewardToken, &p.APYBasisPoints, &p.LockDays, &p.DepositedAmount); err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		p.AsOfSequence = asOf
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// GetPosition returns one user's position in a pool.
func (qs *QueryService) GetPosition(ctx context.Context, poolID int, userID string) (*PositionInfo, error) {
	asOf, err := qs.watermark(ctx)
	if err != nil {
		return nil, err
	}

	var p PositionInfo
	err = qs.db.QueryRowContext(ctx, `
		SELECT pool_id, user_id, amount, lock_until
		FROM stake.positions WHERE pool_id = $1 AND user_id = $2
	`, poolID, userID).Scan(&p.PoolID, &p.UserID, &p.Amount, &p.LockUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: position (%d, %s)", ErrNotFound, poolID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("query position: %w", err)
	}

	p.AsOfSequence = asOf
	return &p, nil
}

// ListNotifications returns notification history for a pool, oldest
// first, starting after afterSeq when given.
func (qs *QueryService) ListNotifications(
	ctx context.Context,
	poolID int,
	limit int,
	afterSeq *int64,
) ([]NotificationInfo, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var from int64 = -1
	if afterSeq != nil {
		from = *afterSeq
	}

	rows, err := qs.db.QueryContext(ctx, `
		SELECT sequence, kind, pool_id, user_id, amount, created_at
		FROM stake.notifications
		WHERE pool_id = $1 AND sequence > $2
		ORDER BY sequence
		LIMIT $3
	`, poolID, from, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []NotificationInfo
	for rows.Next() {
		var n NotificationInfo
		if err := rows.Scan(&n.Sequence, &n.Kind, &n.PoolID, &n.UserID, &n.Amount, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (qs *QueryService) watermark(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := qs.db.QueryRowContext(ctx,
		`SELECT last_sequence FROM stake.watermark WHERE id = 1`,
	).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query watermark: %w", err)
	}
	return seq.Int64, nil
}
