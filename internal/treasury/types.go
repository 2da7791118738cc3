package treasury

import (
	"context"
	"math/big"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrInsufficientCustody is returned when a payout exceeds the custody balance.
	ErrInsufficientCustody = errors.New("insufficient custody balance")
	// ErrInvalidTransfer is returned for zero or negative transfer amounts.
	ErrInvalidTransfer = errors.New("transfer amount must be positive")
)

// TransferDirection labels an entry in the vault's transfer log.
type TransferDirection string

const (
	DirectionDeposit TransferDirection = "deposit"
	DirectionPayout  TransferDirection = "payout"
)

// Transfer is one completed all-or-nothing movement of value.
type Transfer struct {
	Direction   TransferDirection
	Asset       string
	Counterpart string
	Amount      *big.Int
	At          time.Time
}

// Adapter moves value between external principals and the custody account.
// Both operations are all-or-nothing: a failed transfer leaves balances
// untouched.
type Adapter interface {
	// Deposit pulls amount of asset from a payer into custody.
	Deposit(ctx context.Context, asset string, from string, amount *big.Int) error
	// Payout sends amount of asset from custody to a recipient. It must
	// never succeed against insufficient custody balance.
	Payout(ctx context.Context, asset string, recipient string, amount *big.Int) error
	// CustodyBalance reports the current custody balance of an asset.
	CustodyBalance(ctx context.Context, asset string) (*big.Int, error)
}
