package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// NotificationRow is a row in stake.notifications.
type NotificationRow struct {
	Sequence  int64
	Kind      string
	PoolID    int
	UserID    string
	Amount    int64
	CreatedAt time.Time
}

// PoolRow is a row in stake.pools.
type PoolRow struct {
	ID              int
	StakeToken      string
	RewardToken     string
	APYBasisPoints  int64
	LockDays        int64
	DepositedAmount int64
}

// PositionRow is a row in stake.positions.
type PositionRow struct {
	PoolID    int
	UserID    string
	Amount    int64
	LockUntil time.Time
}

// Writer batch-writes ledger outputs to Postgres. Notification appends
// use multi-row INSERT with ON CONFLICT DO NOTHING so replays after a
// crash are idempotent; pools and positions are upserted to their
// post-commit snapshots.
type Writer struct {
	db *sql.DB
}

func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// WriteNotificationBatch appends notification rows.
func (w *Writer) WriteNotificationBatch(ctx context.Context, rows []NotificationRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO stake.notifications
		(sequence, kind, pool_id, user_id, amount, created_at)
		VALUES `

	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*6)
	for i, r := range rows {
		base := i * 6
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		args = append(args, r.Sequence, r.Kind, r.PoolID, r.UserID, r.Amount, r.CreatedAt)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING"

	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

// UpsertPools writes post-commit pool snapshots.
func (w *Writer) UpsertPools(ctx context.Context, rows []PoolRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO stake.pools
		(id, stake_token, reward_token, apy_bps, lock_days, deposited_amount)
		VALUES `

	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*6)
	for i, r := range rows {
		base := i * 6
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		args = append(args, r.ID, r.StakeToken, r.RewardToken, r.APYBasisPoints, r.LockDays, r.DepositedAmount)
	}

	query += strings.Join(values, ", ")
	query += ` ON CONFLICT (id) DO UPDATE SET deposited_amount = EXCLUDED.deposited_amount`

	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

// UpsertPositions writes post-commit position snapshots.
func (w *Writer) UpsertPositions(ctx context.Context, rows []PositionRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO stake.positions
		(pool_id, user_id, amount, lock_until)
		VALUES `

	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*4)
	for i, r := range rows {
		base := i * 4
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4,
		))
		args = append(args, r.PoolID, r.UserID, r.Amount, r.LockUntil)
	}

	query += strings.Join(values, ", ")
	query += ` ON CONFLICT (pool_id, user_id) DO UPDATE SET
		amount = EXCLUDED.amount,
		lock_until = EXCLUDED.lock_until`

	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

// SetWatermark records the last persisted notification sequence.
// Query responses use it as their freshness marker.
func (w *Writer) SetWatermark(ctx context.Context, sequence int64) error {
	_, err := w.db.ExecContext(ctx, `
		INSERT INTO stake.watermark (id, last_sequence)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET last_sequence = GREATEST(stake.watermark.last_sequence, EXCLUDED.last_sequence)
	`, sequence)
	return err
}
