package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// custodyAccount is the reserved entity holding all staked funds.
var custodyAccount = uuid.Nil

type accountKey struct {
	Entity uuid.UUID
	Token  string
}

// Bank is an in-memory TokenGateway used in dev mode and tests. Every
// transfer is all-or-nothing: balances are checked and moved under one
// lock, and a failed transfer leaves both accounts untouched.
type Bank struct {
	mu       sync.Mutex
	balances map[accountKey]int64
}

func NewBank() *Bank {
	return &Bank{balances: make(map[accountKey]int64)}
}

// Fund credits a user's external account. Test and dev setup only.
func (b *Bank) Fund(userID uuid.UUID, token string, amount int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[accountKey{Entity: userID, Token: token}] += amount
}

// Balance returns a user's external account balance.
func (b *Bank) Balance(userID uuid.UUID, token string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[accountKey{Entity: userID, Token: token}]
}

// CustodyBalance returns the custody account balance for a token.
func (b *Bank) CustodyBalance(token string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[accountKey{Entity: custodyAccount, Token: token}]
}

func (b *Bank) TransferIn(ctx context.Context, token string, userID uuid.UUID, amount int64) error {
	return b.move(token, userID, custodyAccount, amount)
}

func (b *Bank) TransferOut(ctx context.Context, token string, userID uuid.UUID, amount int64) error {
	return b.move(token, custodyAccount, userID, amount)
}

func (b *Bank) move(token string, from, to uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	fromKey := accountKey{Entity: from, Token: token}
	if b.balances[fromKey] < amount {
		return fmt.Errorf("%w: account %s has %d %s, need %d",
			ErrInsufficientFunds, from, b.balances[fromKey], token, amount)
	}

	b.balances[fromKey] -= amount
	b.balances[accountKey{Entity: to, Token: token}] += amount
	return nil
}
