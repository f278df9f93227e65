package pool

import "time"

// ID is a dense zero-based pool index assigned at creation.
// IDs are stable for the lifetime of the system: pools are never
// removed or renumbered.
type ID int

// BasisPointDenominator converts apy_bps to a fraction (1 bp = 0.01%).
const BasisPointDenominator = 10_000

// Pool is one staking configuration: a stake/reward token pair with its
// own annual yield and lock duration. All fields except DepositedAmount
// are immutable after creation.
type Pool struct {
	ID          ID
	StakeToken  string
	RewardToken string

	// APYBasisPoints is the annual yield in basis points.
	APYBasisPoints int64

	// LockDays is the lock window applied on every deposit.
	LockDays int64

	// DepositedAmount is the sum of all non-withdrawn deposits in this
	// pool. Must equal the sum of position amounts at all times.
	DepositedAmount int64
}

// LockDuration returns the lock window as a duration.
func (p *Pool) LockDuration() time.Duration {
	return time.Duration(p.LockDays) * 24 * time.Hour
}
