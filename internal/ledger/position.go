package ledger

import (
	"time"

	"github.com/google/uuid"

	"StakeLedger/internal/pool"
)

// PositionKey identifies a user's stake within one pool.
type PositionKey struct {
	PoolID pool.ID
	UserID uuid.UUID
}

// Position is a user's stake in one pool. Created lazily on first
// deposit and never deleted: a fully withdrawn position stays
// addressable with Amount == 0 and can be redeposited into.
type Position struct {
	PoolID pool.ID
	UserID uuid.UUID

	// Amount is the currently staked balance. Increases only via
	// Deposit, decreases only via Withdraw, never negative.
	Amount int64

	// LockUntil is the timestamp before which withdrawal is rejected.
	// Reset to now + lock duration on every deposit, including
	// deposits into an already-unlocked balance.
	LockUntil time.Time
}

// Key returns the position's (pool, user) key.
func (p *Position) Key() PositionKey {
	return PositionKey{PoolID: p.PoolID, UserID: p.UserID}
}

// Locked reports whether withdrawal is still disallowed at now.
func (p *Position) Locked(now time.Time) bool {
	return now.Before(p.LockUntil)
}
