package gateway_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"StakeLedger/internal/gateway"
)

var user = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func TestBank_TransferInMovesToCustody(t *testing.T) {
	b := gateway.NewBank()
	b.Fund(user, "ATOM", 500)

	if err := b.TransferIn(context.Background(), "ATOM", user, 200); err != nil {
		t.Fatalf("transfer in: %v", err)
	}

	if got := b.Balance(user, "ATOM"); got != 300 {
		t.Errorf("got user balance %d, want 300", got)
	}
	if got := b.CustodyBalance("ATOM"); got != 200 {
		t.Errorf("got custody balance %d, want 200", got)
	}
}

func TestBank_TransferInInsufficientFunds(t *testing.T) {
	b := gateway.NewBank()
	b.Fund(user, "ATOM", 100)

	err := b.TransferIn(context.Background(), "ATOM", user, 101)
	if !errors.Is(err, gateway.ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}

	// All-or-nothing: nothing moved.
	if got := b.Balance(user, "ATOM"); got != 100 {
		t.Errorf("got user balance %d, want 100", got)
	}
	if got := b.CustodyBalance("ATOM"); got != 0 {
		t.Errorf("got custody balance %d, want 0", got)
	}
}

func TestBank_TransferOutRoundTrip(t *testing.T) {
	b := gateway.NewBank()
	b.Fund(user, "ATOM", 500)
	ctx := context.Background()

	b.TransferIn(ctx, "ATOM", user, 500)
	if err := b.TransferOut(ctx, "ATOM", user, 500); err != nil {
		t.Fatalf("transfer out: %v", err)
	}

	if got := b.Balance(user, "ATOM"); got != 500 {
		t.Errorf("got user balance %d, want 500", got)
	}
	if got := b.CustodyBalance("ATOM"); got != 0 {
		t.Errorf("got custody balance %d, want 0", got)
	}
}

func TestBank_TokensAreIsolated(t *testing.T) {
	b := gateway.NewBank()
	b.Fund(user, "ATOM", 100)

	err := b.TransferIn(context.Background(), "JUNO", user, 50)
	if !errors.Is(err, gateway.ErrInsufficientFunds) {
		t.Errorf("got %v, want ErrInsufficientFunds", err)
	}
}

func TestBank_RejectsNonPositiveAmounts(t *testing.T) {
	b := gateway.NewBank()
	b.Fund(user, "ATOM", 100)

	for _, amount := range []int64{0, -1} {
		if err := b.TransferIn(context.Background(), "ATOM", user, amount); err == nil {
			t.Errorf("transfer of %d should fail", amount)
		}
	}
}
