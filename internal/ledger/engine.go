package ledger

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"StakeLedger/internal/gateway"
	"StakeLedger/internal/notify"
	"StakeLedger/internal/observability"
	"StakeLedger/internal/pool"
	"StakeLedger/internal/reward"
)

// Authorizer gates administrative operations. Access control itself is
// an external collaborator; the engine only asks yes/no.
type Authorizer interface {
	IsAdmin(caller uuid.UUID) bool
}

// StaticAdmins is an Authorizer backed by a fixed allow-list.
type StaticAdmins map[uuid.UUID]struct{}

func NewStaticAdmins(ids ...uuid.UUID) StaticAdmins {
	s := make(StaticAdmins, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s StaticAdmins) IsAdmin(caller uuid.UUID) bool {
	_, ok := s[caller]
	return ok
}

// Output is emitted after every committed mutating operation. It
// carries the notification record plus post-commit snapshots of the
// affected aggregates for the persistence worker.
type Output struct {
	Record   notify.Record
	Pool     pool.Pool
	Position *Position
}

// Engine is the staking ledger core. Every mutating operation behaves
// as if executed under a single global serialization point: state
// mutations run under one mutex, and an entry guard rejects concurrent
// calls for the same (pool, user) while a gateway transfer is in
// flight. Caller identity and the current time are explicit inputs;
// the engine never reads the wall clock.
type Engine struct {
	mu       sync.Mutex
	registry *pool.Registry
	book     *PositionBook
	log      *notify.Log
	guards   *entryGuard

	gateway gateway.TokenGateway
	auth    Authorizer
	metrics *observability.Metrics

	// persistChan receives one Output per committed operation with a
	// blocking send: if the persistence worker falls behind, the
	// engine stalls rather than lose a record. May be nil in tests.
	persistChan chan<- Output
}

func NewEngine(
	registry *pool.Registry,
	book *PositionBook,
	log *notify.Log,
	gw gateway.TokenGateway,
	auth Authorizer,
	metrics *observability.Metrics,
	persistChan chan<- Output,
) *Engine {
	return &Engine{
		registry:    registry,
		book:        book,
		log:         log,
		guards:      newEntryGuard(),
		gateway:     gw,
		auth:        auth,
		metrics:     metrics,
		persistChan: persistChan,
	}
}

// CreatePool registers a new staking pool. Administrator only.
func (e *Engine) CreatePool(
	caller uuid.UUID,
	stakeToken, rewardToken string,
	apyBps, lockDays int64,
	now time.Time,
) (pool.ID, error) {
	if e.auth == nil || !e.auth.IsAdmin(caller) {
		e.reject("create_pool", "unauthorized")
		return 0, fmt.Errorf("%w: caller %s may not create pools", ErrUnauthorized, caller)
	}

	e.mu.Lock()
	id, err := e.registry.Create(stakeToken, rewardToken, apyBps, lockDays)
	if err != nil {
		e.mu.Unlock()
		e.reject("create_pool", "invalid_config")
		return 0, err
	}
	p, _ := e.registry.Get(id)
	rec := e.log.Append(notify.KindPoolCreated, id, caller, 0, now)
	out := Output{Record: rec, Pool: *p}
	e.mu.Unlock()

	e.emit(out)

	if e.metrics != nil {
		e.metrics.PoolsCreated.Inc()
		e.metrics.OpsApplied.WithLabelValues("create_pool").Inc()
	}
	return id, nil
}

// Deposit stakes amount of the pool's stake token for userID. The
// custody-in transfer runs first; ledger state changes only after it
// succeeds, so a failed transfer leaves no trace. Every deposit resets
// the lock to now + lock duration for the entire accumulated balance.
func (e *Engine) Deposit(ctx context.Context, poolID pool.ID, userID uuid.UUID, amount int64, now time.Time) error {
	start := time.Now()

	if amount <= 0 {
		e.reject("deposit", "invalid_amount")
		return fmt.Errorf("%w: deposit amount must be positive, got %d", ErrInvalidAmount, amount)
	}

	e.mu.Lock()
	p, err := e.registry.Get(poolID)
	e.mu.Unlock()
	if err != nil {
		e.reject("deposit", "invalid_pool")
		return err
	}

	key := PositionKey{PoolID: poolID, UserID: userID}
	if !e.guards.TryAcquire(key) {
		e.reject("deposit", "in_flight")
		return fmt.Errorf("%w: pool %d user %s", ErrOperationInFlight, poolID, userID)
	}
	defer e.guards.Release(key)

	if err := e.gateway.TransferIn(ctx, p.StakeToken, userID, amount); err != nil {
		e.reject("deposit", "transfer_failed")
		return fmt.Errorf("%w: custody-in of %d %s: %v", ErrTransferFailed, amount, p.StakeToken, err)
	}

	e.mu.Lock()
	pos := e.book.GetOrCreate(poolID, userID)
	pos.Amount += amount
	pos.LockUntil = now.Add(p.LockDuration())
	p.DepositedAmount += amount
	e.mustConserve(p)
	rec := e.log.Append(notify.KindDeposit, poolID, userID, amount, now)
	posCopy := *pos
	out := Output{Record: rec, Pool: *p, Position: &posCopy}
	e.mu.Unlock()

	e.emit(out)
	e.applied("deposit", out.Pool, start)
	return nil
}

// Withdraw returns amount of staked tokens to userID once the lock has
// expired. The position and pool aggregates are decremented before the
// custody-out transfer so re-entrant gateway code cannot observe a
// stale balance; if the transfer fails, the decrement is rolled back
// and the whole operation is a no-op.
func (e *Engine) Withdraw(ctx context.Context, poolID pool.ID, userID uuid.UUID, amount int64, now time.Time) error {
	start := time.Now()

	e.mu.Lock()
	p, err := e.registry.Get(poolID)
	if err != nil {
		e.mu.Unlock()
		e.reject("withdraw", "invalid_pool")
		return err
	}
	e.mu.Unlock()

	key := PositionKey{PoolID: poolID, UserID: userID}
	if !e.guards.TryAcquire(key) {
		e.reject("withdraw", "in_flight")
		return fmt.Errorf("%w: pool %d user %s", ErrOperationInFlight, poolID, userID)
	}
	defer e.guards.Release(key)

	e.mu.Lock()
	pos := e.book.Get(poolID, userID)
	var held int64
	if pos != nil {
		held = pos.Amount
	}
	if amount <= 0 || amount > held {
		e.mu.Unlock()
		e.reject("withdraw", "invalid_amount")
		return fmt.Errorf("%w: withdraw %d with %d staked", ErrInvalidAmount, amount, held)
	}
	if pos.Locked(now) {
		e.mu.Unlock()
		e.reject("withdraw", "still_locked")
		return fmt.Errorf("%w: until %s", ErrStillLocked, pos.LockUntil.UTC().Format(time.RFC3339))
	}

	// Speculative decrement before ceding control to the gateway.
	pos.Amount -= amount
	p.DepositedAmount -= amount
	e.mustConserve(p)
	e.mu.Unlock()

	if err := e.gateway.TransferOut(ctx, p.StakeToken, userID, amount); err != nil {
		e.mu.Lock()
		pos.Amount += amount
		p.DepositedAmount += amount
		e.mustConserve(p)
		e.mu.Unlock()
		e.reject("withdraw", "transfer_failed")
		return fmt.Errorf("%w: custody-out of %d %s: %v", ErrTransferFailed, amount, p.StakeToken, err)
	}

	e.mu.Lock()
	rec := e.log.Append(notify.KindWithdraw, poolID, userID, amount, now)
	posCopy := *pos
	out := Output{Record: rec, Pool: *p, Position: &posCopy}
	e.mu.Unlock()

	e.emit(out)
	e.applied("withdraw", out.Pool, start)
	return nil
}

// PendingReward returns the yield accrued by the user's position since
// its lock expired. Read-only: no state changes, rewards are never
// auto-credited. Zero while the position is still locked.
func (e *Engine) PendingReward(poolID pool.ID, userID uuid.UUID, now time.Time) (sdkmath.Int, error) {
	e.mu.Lock()
	p, err := e.registry.Get(poolID)
	if err != nil {
		e.mu.Unlock()
		return sdkmath.ZeroInt(), err
	}
	apyBps := p.APYBasisPoints

	var amount int64
	var lockUntil time.Time
	if pos := e.book.Get(poolID, userID); pos != nil {
		amount = pos.Amount
		lockUntil = pos.LockUntil
	}
	e.mu.Unlock()

	return reward.Pending(amount, apyBps, lockUntil, now), nil
}

// GetPool returns a copy of the pool aggregate.
func (e *Engine) GetPool(poolID pool.ID) (pool.Pool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.registry.Get(poolID)
	if err != nil {
		return pool.Pool{}, err
	}
	return *p, nil
}

// ListPools returns copies of all pools in creation order.
func (e *Engine) ListPools() []pool.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()
	pools := e.registry.All()
	out := make([]pool.Pool, 0, len(pools))
	for _, p := range pools {
		out = append(out, *p)
	}
	return out
}

// GetPosition returns a copy of the user's position, or false if the
// user never deposited into the pool.
func (e *Engine) GetPosition(poolID pool.ID, userID uuid.UUID) (Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos := e.book.Get(poolID, userID)
	if pos == nil {
		return Position{}, false
	}
	return *pos, true
}

// Restore loads pools and positions recovered from storage. Must be
// called before the engine starts serving.
func (e *Engine) Restore(pools []*pool.Pool, positions []*Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range pools {
		if err := e.registry.Restore(p); err != nil {
			return fmt.Errorf("restore pool %d: %w", p.ID, err)
		}
	}
	for _, pos := range positions {
		e.book.Restore(pos)
	}

	for _, p := range e.registry.All() {
		if err := e.book.CheckPoolConservation(p); err != nil {
			return fmt.Errorf("restored state: %w", err)
		}
	}
	return nil
}

func (e *Engine) emit(out Output) {
	if e.persistChan != nil {
		e.persistChan <- out
	}
	if e.metrics != nil {
		e.metrics.NotificationSequence.Set(float64(out.Record.Sequence))
		e.metrics.PublishDrops.Set(float64(e.log.PublishDrops()))
	}
}

// mustConserve verifies the pool aggregate against the position sum.
// A violation means corrupted accounting state; continuing would let
// it spread into storage, so it is fatal.
func (e *Engine) mustConserve(p *pool.Pool) {
	if err := e.book.CheckPoolConservation(p); err != nil {
		panic(fmt.Sprintf("FATAL: conservation violated: %v", err))
	}
}

func (e *Engine) reject(op, reason string) {
	if e.metrics != nil {
		e.metrics.OpsRejected.WithLabelValues(op, reason).Inc()
	}
}

func (e *Engine) applied(op string, p pool.Pool, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.OpsApplied.WithLabelValues(op).Inc()
	e.metrics.OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	e.metrics.PoolDeposited.WithLabelValues(strconv.Itoa(int(p.ID))).Set(float64(p.DepositedAmount))
}
