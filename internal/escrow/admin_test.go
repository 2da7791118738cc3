package escrow

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRemoveAsset(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	err := e.AddAsset(ctx, "admin", "not-an-address")
	require.ErrorIs(t, err, ErrAssetNotAllowed)

	token := "0x00000000000000000000000000000000000000bb"
	require.NoError(t, e.AddAsset(ctx, "admin", token))

	ok, err := e.AssetSupported(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	assets, err := e.Assets(ctx)
	require.NoError(t, err)
	assert.Contains(t, assets, token)

	require.NoError(t, e.RemoveAsset(ctx, "admin", token))
	ok, err = e.AssetSupported(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRotatePlatformWallet(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	err := e.RotatePlatformWallet(ctx, "admin", "bogus")
	require.ErrorIs(t, err, ErrInvalidWallet)
	assert.Equal(t, feeWallet, e.PlatformWallet())

	next := "0x00000000000000000000000000000000000000ff"
	require.NoError(t, e.RotatePlatformWallet(ctx, "admin", next))
	assert.Equal(t, next, e.PlatformWallet())
}

func TestEmergencyRelease(t *testing.T) {
	e, vault, _ := newTestEngine(t)
	ctx := context.Background()

	mustActiveSession(t, e, "sess-emergency", 1000)

	_, err := e.EmergencyRelease(ctx, "admin", "sess-emergency", stranger, big.NewInt(300), "")
	require.ErrorIs(t, err, ErrMissingReason)

	_, err = e.EmergencyRelease(ctx, "admin", "sess-emergency", stranger, big.NewInt(1001), "overpay")
	require.ErrorIs(t, err, ErrAmountTooLarge)

	s, err := e.EmergencyRelease(ctx, "admin", "sess-emergency", stranger, big.NewInt(300), "provider wallet compromised")
	require.NoError(t, err)

	assert.Equal(t, StatusEmergencyResolved, s.Status)
	assert.Equal(t, int64(300), s.ReleasedAmount.Int64())
	assert.Equal(t, int64(700), s.RefundedAmount.Int64())
	assert.Equal(t, "provider wallet compromised", s.ResolutionNote)

	bal, err := vault.CustodyBalance(ctx, testAsset)
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())

	// Terminal: a second emergency call is rejected.
	_, err = e.EmergencyRelease(ctx, "admin", "sess-emergency", stranger, big.NewInt(1), "again")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResolveDisputeReleaseProvider(t *testing.T) {
	e, vault, _ := newTestEngine(t)
	ctx := context.Background()

	mustActiveSession(t, e, "sess-disp-rel", 1000)

	s, err := e.ResolveDispute(ctx, "admin", "sess-disp-rel", ResolutionReleaseProvider, "provider delivered")
	require.NoError(t, err)

	assert.Equal(t, StatusDisputed, s.Status)
	assert.Equal(t, int64(1000), s.ReleasedAmount.Int64())
	assert.Equal(t, int64(100), s.PlatformFee.Int64())
	assert.Zero(t, s.RefundedAmount.Sign())
	assert.Equal(t, "provider delivered", s.ResolutionNote)

	bal, err := vault.CustodyBalance(ctx, testAsset)
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())
}

func TestResolveDisputeRefundPayer(t *testing.T) {
	e, vault, _ := newTestEngine(t)
	ctx := context.Background()

	mustActiveSession(t, e, "sess-disp-ref", 1000)

	s, err := e.ResolveDispute(ctx, "admin", "sess-disp-ref", ResolutionRefundPayer, "")
	require.NoError(t, err)

	assert.Equal(t, StatusDisputed, s.Status)
	assert.Zero(t, s.ReleasedAmount.Sign())
	assert.Equal(t, int64(1000), s.RefundedAmount.Int64())
	assert.Zero(t, s.PlatformFee.Sign())

	bal, err := vault.CustodyBalance(ctx, testAsset)
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())
}

func TestResolveDisputeSplit(t *testing.T) {
	e, vault, _ := newTestEngine(t)
	ctx := context.Background()

	mustActiveSession(t, e, "sess-disp-split", 1000)

	s, err := e.ResolveDispute(ctx, "admin", "sess-disp-split", ResolutionSplit, "both at fault")
	require.NoError(t, err)

	assert.Equal(t, StatusDisputed, s.Status)
	assert.Equal(t, int64(500), s.ReleasedAmount.Int64())
	assert.Equal(t, int64(500), s.RefundedAmount.Int64())
	assert.Equal(t, int64(50), s.PlatformFee.Int64())

	sum := new(big.Int).Add(s.ReleasedAmount, s.RefundedAmount)
	assert.Zero(t, s.TotalAmount.Cmp(sum))

	bal, err := vault.CustodyBalance(ctx, testAsset)
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())
}

func TestResolveDisputeProviderNoShow(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	mustActiveSession(t, e, "sess-disp-noshow", 1000)

	s, err := e.ResolveDispute(ctx, "admin", "sess-disp-noshow", ResolutionProviderNoShow, "never joined")
	require.NoError(t, err)

	assert.Equal(t, StatusNoShow, s.Status)
	assert.Equal(t, int64(1000), s.RefundedAmount.Int64())
	assert.Zero(t, s.ReleasedAmount.Sign())
}

func TestResolveDisputeUnknownCode(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	mustActiveSession(t, e, "sess-disp-unknown", 1000)

	_, err := e.ResolveDispute(ctx, "admin", "sess-disp-unknown", ResolutionCode("coin_flip"), "")
	require.ErrorIs(t, err, ErrUnknownResolution)
}

func TestResolveDisputeAfterPartialRelease(t *testing.T) {
	e, _, clock := newTestEngine(t)
	ctx := context.Background()

	mustActiveSession(t, e, "sess-disp-partial", 1000)

	clock.Advance(30 * time.Minute)
	_, err := e.Release(ctx, provider, "sess-disp-partial")
	require.NoError(t, err)

	// 450 already released; only the 550 remainder is refundable.
	s, err := e.ResolveDispute(ctx, "admin", "sess-disp-partial", ResolutionRefundPayer, "")
	require.NoError(t, err)

	assert.Equal(t, int64(450), s.ReleasedAmount.Int64())
	assert.Equal(t, int64(550), s.RefundedAmount.Int64())
}

func TestRotatePlatformWalletFromKey(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)

	wallet, err := e.RotatePlatformWalletFromKey(ctx, "admin", crypto.CompressPubkey(&priv.PublicKey))
	require.NoError(t, err)
	assert.True(t, strings.EqualFold(crypto.PubkeyToAddress(priv.PublicKey).Hex(), wallet))
	assert.Equal(t, wallet, e.PlatformWallet())

	// Uncompressed encoding of the same key lands on the same address.
	again, err := e.RotatePlatformWalletFromKey(ctx, "admin", crypto.FromECDSAPub(&priv.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, wallet, again)

	_, err = e.RotatePlatformWalletFromKey(ctx, "admin", []byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrInvalidWallet)
}

func TestAdminRescueWorksWhileEnginePaused(t *testing.T) {
	e, vault, _ := newTestEngine(t)
	ctx := context.Background()

	mustActiveSession(t, e, "sess-paused-rescue", 1000)
	e.SetPaused(ctx, "admin", true)

	// Ordinary mutations are rejected, but the admin rescue surface stays
	// usable so a pause cannot strand funds.
	_, err := e.Release(ctx, provider, "sess-paused-rescue")
	require.ErrorIs(t, err, ErrEnginePaused)

	s, err := e.EmergencyRelease(ctx, "admin", "sess-paused-rescue", stranger, big.NewInt(100), "stuck funds")
	require.NoError(t, err)
	assert.Equal(t, StatusEmergencyResolved, s.Status)
	assert.Equal(t, int64(900), s.RefundedAmount.Int64())

	bal, err := vault.CustodyBalance(ctx, testAsset)
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())
}

func TestResolveDisputeWorksWhileEnginePaused(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	mustActiveSession(t, e, "sess-paused-dispute", 1000)
	e.SetPaused(ctx, "admin", true)

	s, err := e.ResolveDispute(ctx, "admin", "sess-paused-dispute", ResolutionRefundPayer, "payer protected")
	require.NoError(t, err)
	assert.Equal(t, StatusDisputed, s.Status)
	assert.Equal(t, int64(1000), s.RefundedAmount.Int64())
}
