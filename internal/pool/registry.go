package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPoolID means the referenced pool does not exist.
	ErrInvalidPoolID = errors.New("invalid pool id")

	// ErrInvalidConfig means the pool parameters fail validation.
	ErrInvalidConfig = errors.New("invalid pool config")
)

// Registry owns all pools. It is the sole writer of pool aggregates;
// callers serialize access through the ledger engine.
type Registry struct {
	pools []*Pool
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Create appends a new pool with DepositedAmount = 0 and returns its
// dense index. There is no upper bound on pool count.
func (r *Registry) Create(stakeToken, rewardToken string, apyBps, lockDays int64) (ID, error) {
	if stakeToken == "" || rewardToken == "" {
		return 0, fmt.Errorf("%w: stake and reward tokens are required", ErrInvalidConfig)
	}
	if apyBps < 0 {
		return 0, fmt.Errorf("%w: apy_bps must be non-negative, got %d", ErrInvalidConfig, apyBps)
	}
	if lockDays < 0 {
		return 0, fmt.Errorf("%w: lock_days must be non-negative, got %d", ErrInvalidConfig, lockDays)
	}

	id := ID(len(r.pools))
	r.pools = append(r.pools, &Pool{
		ID:             id,
		StakeToken:     stakeToken,
		RewardToken:    rewardToken,
		APYBasisPoints: apyBps,
		LockDays:       lockDays,
	})
	return id, nil
}

// Get returns the pool for an ID, or ErrInvalidPoolID if the ID is not
// less than the current pool count.
func (r *Registry) Get(id ID) (*Pool, error) {
	if id < 0 || int(id) >= len(r.pools) {
		return nil, fmt.Errorf("%w: %d (have %d pools)", ErrInvalidPoolID, id, len(r.pools))
	}
	return r.pools[id], nil
}

// Count returns the number of pools created so far.
func (r *Registry) Count() int {
	return len(r.pools)
}

// All returns the pools in creation order (for iteration and snapshots).
func (r *Registry) All() []*Pool {
	out := make([]*Pool, len(r.pools))
	copy(out, r.pools)
	return out
}

// Restore re-registers a pool at its original index during recovery.
// Pools must be restored in ID order.
func (r *Registry) Restore(p *Pool) error {
	if int(p.ID) != len(r.pools) {
		return fmt.Errorf("restore out of order: pool %d at index %d", p.ID, len(r.pools))
	}
	cp := *p
	r.pools = append(r.pools, &cp)
	return nil
}
