package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"StakeLedger/internal/pool"
)

// PositionBook owns all positions, keyed by (pool, user). It is not
// safe for concurrent use; the engine serializes access.
type PositionBook struct {
	positions map[PositionKey]*Position
}

func NewPositionBook() *PositionBook {
	return &PositionBook{
		positions: make(map[PositionKey]*Position),
	}
}

// Get returns the position or nil if the user never deposited.
func (b *PositionBook) Get(poolID pool.ID, userID uuid.UUID) *Position {
	return b.positions[PositionKey{PoolID: poolID, UserID: userID}]
}

// GetOrCreate returns the existing position or creates an empty one.
func (b *PositionBook) GetOrCreate(poolID pool.ID, userID uuid.UUID) *Position {
	key := PositionKey{PoolID: poolID, UserID: userID}
	pos := b.positions[key]
	if pos == nil {
		pos = &Position{PoolID: poolID, UserID: userID}
		b.positions[key] = pos
	}
	return pos
}

// PoolTotal sums position amounts for one pool.
func (b *PositionBook) PoolTotal(poolID pool.ID) int64 {
	var total int64
	for key, pos := range b.positions {
		if key.PoolID == poolID {
			total += pos.Amount
		}
	}
	return total
}

// CheckPoolConservation verifies that the pool aggregate equals the sum
// of its position amounts.
func (b *PositionBook) CheckPoolConservation(p *pool.Pool) error {
	total := b.PoolTotal(p.ID)
	if total != p.DepositedAmount {
		return fmt.Errorf("pool %d: deposited_amount=%d but position sum=%d",
			p.ID, p.DepositedAmount, total)
	}
	return nil
}

// All returns every position (for snapshots and iteration).
func (b *PositionBook) All() []*Position {
	out := make([]*Position, 0, len(b.positions))
	for _, pos := range b.positions {
		out = append(out, pos)
	}
	return out
}

// Restore directly sets a position during recovery.
func (b *PositionBook) Restore(pos *Position) {
	cp := *pos
	b.positions[cp.Key()] = &cp
}
