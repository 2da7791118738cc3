package treasury

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	asset     = "0x00000000000000000000000000000000000000aa"
	payer     = "0x1111111111111111111111111111111111111111"
	recipient = "0x2222222222222222222222222222222222222222"
)

func TestVaultDepositAndPayout(t *testing.T) {
	v := NewVault(nil)
	ctx := context.Background()

	require.NoError(t, v.Deposit(ctx, asset, payer, big.NewInt(1000)))

	bal, err := v.CustodyBalance(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), bal.Int64())

	require.NoError(t, v.Payout(ctx, asset, recipient, big.NewInt(400)))

	bal, err = v.CustodyBalance(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, int64(600), bal.Int64())

	transfers := v.Transfers()
	require.Len(t, transfers, 2)
	assert.Equal(t, DirectionDeposit, transfers[0].Direction)
	assert.Equal(t, DirectionPayout, transfers[1].Direction)
	assert.Equal(t, int64(400), transfers[1].Amount.Int64())
}

func TestVaultRefusesOverdraw(t *testing.T) {
	v := NewVault(nil)
	ctx := context.Background()

	require.NoError(t, v.Deposit(ctx, asset, payer, big.NewInt(100)))

	err := v.Payout(ctx, asset, recipient, big.NewInt(101))
	require.ErrorIs(t, err, ErrInsufficientCustody)

	// Unknown asset has zero custody.
	err = v.Payout(ctx, "0x00000000000000000000000000000000000000bb", recipient, big.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientCustody)

	// The failed payout left the balance untouched.
	bal, err := v.CustodyBalance(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.Int64())
}

func TestVaultRejectsInvalidAmounts(t *testing.T) {
	v := NewVault(nil)
	ctx := context.Background()

	require.ErrorIs(t, v.Deposit(ctx, asset, payer, nil), ErrInvalidTransfer)
	require.ErrorIs(t, v.Deposit(ctx, asset, payer, big.NewInt(0)), ErrInvalidTransfer)
	require.ErrorIs(t, v.Deposit(ctx, asset, payer, big.NewInt(-5)), ErrInvalidTransfer)
	require.ErrorIs(t, v.Payout(ctx, asset, recipient, big.NewInt(0)), ErrInvalidTransfer)
}

func TestVaultBalanceCopyIsolation(t *testing.T) {
	v := NewVault(nil)
	ctx := context.Background()

	require.NoError(t, v.Deposit(ctx, asset, payer, big.NewInt(50)))

	bal, err := v.CustodyBalance(ctx, asset)
	require.NoError(t, err)
	bal.SetInt64(999999)

	again, err := v.CustodyBalance(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, int64(50), again.Int64())
}

func TestVaultQueuesPayoutTransactions(t *testing.T) {
	v := NewVault(NewEVMTxBuilder(big.NewInt(137)))
	ctx := context.Background()

	require.NoError(t, v.Deposit(ctx, asset, payer, big.NewInt(1000)))
	require.NoError(t, v.Payout(ctx, asset, recipient, big.NewInt(300)))
	require.NoError(t, v.Payout(ctx, asset, recipient, big.NewInt(200)))

	pending := v.PendingTransactions()
	require.Len(t, pending, 2)
	assert.NotEmpty(t, pending[0].Raw)
	assert.NotEmpty(t, pending[0].Hash)
	// Sequential nonces produce distinct transactions.
	assert.NotEqual(t, pending[0].Hash, pending[1].Hash)

	// The outbox drains on read.
	assert.Empty(t, v.PendingTransactions())
}

func TestVaultRollsBackDebitOnBuildFailure(t *testing.T) {
	v := NewVault(NewEVMTxBuilder(nil))
	ctx := context.Background()

	require.NoError(t, v.Deposit(ctx, asset, payer, big.NewInt(1000)))

	// Malformed recipient makes the transaction build fail after the debit.
	err := v.Payout(ctx, asset, "not-an-address", big.NewInt(300))
	require.Error(t, err)

	bal, err := v.CustodyBalance(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), bal.Int64())
	assert.Empty(t, v.PendingTransactions())
}
