package gateway

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInsufficientFunds means the source account cannot cover the transfer.
var ErrInsufficientFunds = errors.New("insufficient funds")

// TokenGateway moves tokens between a user's external account and the
// ledger's custody account. Implementations must be atomic and fail
// closed: a returned error means no funds moved.
type TokenGateway interface {
	// TransferIn moves amount of token from the user into custody.
	TransferIn(ctx context.Context, token string, userID uuid.UUID, amount int64) error

	// TransferOut moves amount of token from custody back to the user.
	TransferOut(ctx context.Context, token string, userID uuid.UUID, amount int64) error
}
