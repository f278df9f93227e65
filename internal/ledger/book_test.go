package ledger_test

import (
	"testing"
	"time"

	"StakeLedger/internal/ledger"
	"StakeLedger/internal/pool"
)

func TestPositionBook_PoolTotalIgnoresOtherPools(t *testing.T) {
	b := ledger.NewPositionBook()

	b.GetOrCreate(0, alice).Amount = 100
	b.GetOrCreate(0, bob).Amount = 50
	b.GetOrCreate(1, alice).Amount = 999

	if got := b.PoolTotal(0); got != 150 {
		t.Errorf("got total %d, want 150", got)
	}
	if got := b.PoolTotal(2); got != 0 {
		t.Errorf("empty pool: got total %d, want 0", got)
	}
}

func TestPositionBook_ConservationCheck(t *testing.T) {
	b := ledger.NewPositionBook()
	b.GetOrCreate(0, alice).Amount = 100

	p := &pool.Pool{ID: 0, DepositedAmount: 100}
	if err := b.CheckPoolConservation(p); err != nil {
		t.Errorf("consistent state: %v", err)
	}

	p.DepositedAmount = 99
	if err := b.CheckPoolConservation(p); err == nil {
		t.Error("mismatched aggregate should fail conservation")
	}
}

func TestPositionBook_RestoreCopies(t *testing.T) {
	b := ledger.NewPositionBook()
	src := &ledger.Position{PoolID: 0, UserID: alice, Amount: 100, LockUntil: day(7)}

	b.Restore(src)
	src.Amount = 0

	if got := b.Get(0, alice); got == nil || got.Amount != 100 {
		t.Errorf("got %+v, want restored copy with amount 100", got)
	}
}

func TestPosition_LockedBoundary(t *testing.T) {
	pos := ledger.Position{LockUntil: t0.Add(24 * time.Hour)}

	if !pos.Locked(t0) {
		t.Error("position should be locked before lock_until")
	}
	if pos.Locked(pos.LockUntil) {
		t.Error("position unlocks at exactly lock_until")
	}
	if pos.Locked(pos.LockUntil.Add(time.Second)) {
		t.Error("position should stay unlocked after lock_until")
	}
}
