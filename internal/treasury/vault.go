package treasury

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Vault tracks custody balances per asset and keeps an append-only transfer
// log. When constructed with an EVM builder it also renders each payout as a
// signable transaction and queues it for the external signing pipeline.
type Vault struct {
	mu        sync.Mutex
	balances  map[string]*big.Int
	transfers []Transfer
	builder   *EVMTxBuilder
	outbox    []*Transaction
	txNonce   uint64
}

// NewVault creates an empty custody vault. builder may be nil for
// environments without an on-chain settlement leg.
func NewVault(builder *EVMTxBuilder) *Vault {
	return &Vault{
		balances: make(map[string]*big.Int),
		builder:  builder,
	}
}

// Deposit credits custody with amount of asset pulled from a payer.
func (v *Vault) Deposit(_ context.Context, asset string, from string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidTransfer
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	bal, ok := v.balances[asset]
	if !ok {
		bal = new(big.Int)
		v.balances[asset] = bal
	}
	bal.Add(bal, amount)

	v.transfers = append(v.transfers, Transfer{
		Direction:   DirectionDeposit,
		Asset:       asset,
		Counterpart: from,
		Amount:      new(big.Int).Set(amount),
		At:          time.Now(),
	})

	log.Debug().
		Str("asset", asset).
		Str("from", from).
		Str("amount", amount.String()).
		Msg("Custody deposit applied")
	return nil
}

// Payout debits custody and sends amount of asset to a recipient. The debit
// and the transfer-log append happen under one lock so a concurrent payout
// can never overdraw.
func (v *Vault) Payout(_ context.Context, asset string, recipient string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidTransfer
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	bal, ok := v.balances[asset]
	if !ok || bal.Cmp(amount) < 0 {
		return errors.Wrapf(ErrInsufficientCustody, "asset %s", asset)
	}
	bal.Sub(bal, amount)

	if v.builder != nil {
		tx, err := v.builder.BuildTransferTransaction(&TransferRequest{
			Asset:     asset,
			Recipient: recipient,
			Amount:    amount,
			Nonce:     v.txNonce,
		})
		if err != nil {
			// Roll the debit back; the payout is all-or-nothing.
			bal.Add(bal, amount)
			return errors.Wrap(err, "failed to build payout transaction")
		}
		v.txNonce++
		v.outbox = append(v.outbox, tx)
	}

	v.transfers = append(v.transfers, Transfer{
		Direction:   DirectionPayout,
		Asset:       asset,
		Counterpart: recipient,
		Amount:      new(big.Int).Set(amount),
		At:          time.Now(),
	})

	log.Debug().
		Str("asset", asset).
		Str("recipient", recipient).
		Str("amount", amount.String()).
		Msg("Custody payout applied")
	return nil
}

// CustodyBalance reports the custody balance of an asset.
func (v *Vault) CustodyBalance(_ context.Context, asset string) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	bal, ok := v.balances[asset]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(bal), nil
}

// Transfers returns a copy of the transfer log.
func (v *Vault) Transfers() []Transfer {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]Transfer, len(v.transfers))
	copy(out, v.transfers)
	return out
}

// PendingTransactions drains the outbox of built but unsigned payout
// transactions.
func (v *Vault) PendingTransactions() []*Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := v.outbox
	v.outbox = nil
	return out
}
