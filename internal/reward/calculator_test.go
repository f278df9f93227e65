package reward_test

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"

	"StakeLedger/internal/reward"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func intVal(v int64) sdkmath.Int { return sdkmath.NewInt(v) }

func TestPending_FullYearAtFullAPY(t *testing.T) {
	// 1000 staked at 10% APY for exactly one year yields 100.
	got := reward.Pending(1000, 1000, epoch, epoch.Add(time.Duration(reward.SecondsPerYear)*time.Second))
	if !got.Equal(intVal(100)) {
		t.Errorf("got %s, want 100", got)
	}
}

func TestPending_Truncates(t *testing.T) {
	// 1000 * 1000bps * 1s / (31_536_000 * 10_000) is far below one
	// token unit and must truncate to zero, not round up.
	got := reward.Pending(1000, 1000, epoch, epoch.Add(time.Second))
	if !got.IsZero() {
		t.Errorf("got %s, want 0", got)
	}

	// Half a year at 10% on 999: 999*1000/10000/2 = 49.95, truncated.
	half := epoch.Add(time.Duration(reward.SecondsPerYear/2) * time.Second)
	got = reward.Pending(999, 1000, epoch, half)
	if !got.Equal(intVal(49)) {
		t.Errorf("got %s, want 49", got)
	}
}

func TestPending_ZeroBeforeLockExpiry(t *testing.T) {
	lockUntil := epoch.Add(7 * 24 * time.Hour)

	for _, now := range []time.Time{epoch, lockUntil.Add(-time.Second), lockUntil} {
		got := reward.Pending(1000, 1000, lockUntil, now)
		if !got.IsZero() {
			t.Errorf("at %s: got %s, want 0", now, got)
		}
	}
}

func TestPending_ZeroInputs(t *testing.T) {
	later := epoch.Add(30 * 24 * time.Hour)

	if got := reward.Pending(0, 1000, epoch, later); !got.IsZero() {
		t.Errorf("zero amount: got %s, want 0", got)
	}
	if got := reward.Pending(1000, 0, epoch, later); !got.IsZero() {
		t.Errorf("zero apy: got %s, want 0", got)
	}
}

func TestPending_LargePositionNoOverflow(t *testing.T) {
	// amount * apyBps * elapsed overflows int64 here; the big-int path
	// must still produce the exact quotient.
	// 9e18 * 10000 * 31536000 / (31536000 * 10000) = 9e18.
	const amount = int64(9_000_000_000_000_000_000)
	oneYear := epoch.Add(time.Duration(reward.SecondsPerYear) * time.Second)

	got := reward.Pending(amount, 10_000, epoch, oneYear)
	if !got.Equal(intVal(amount)) {
		t.Errorf("got %s, want %d", got, amount)
	}
}
