package query

import "time"

// PoolInfo is the query-side view of a pool.
type PoolInfo struct {
	ID              int    `json:"id"`
	StakeToken      string `json:"stake_token"`
	RewardToken     string `json:"reward_token"`
	APYBasisPoints  int64  `json:"apy_bps"`
	LockDays        int64  `json:"lock_days"`
	DepositedAmount int64  `json:"deposited_amount"`
	AsOfSequence    int64  `json:"as_of_sequence"`
}

// PositionInfo is the query-side view of a position.
type PositionInfo struct {
	PoolID       int       `json:"pool_id"`
	UserID       string    `json:"user_id"`
	Amount       int64     `json:"amount"`
	LockUntil    time.Time `json:"lock_until"`
	AsOfSequence int64     `json:"as_of_sequence"`
}

// NotificationInfo is one entry of the persisted notification log.
type NotificationInfo struct {
	Sequence  int64     `json:"sequence"`
	Kind      string    `json:"kind"`
	PoolID    int       `json:"pool_id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
