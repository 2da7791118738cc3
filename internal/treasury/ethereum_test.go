package treasury

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidAssetID(t *testing.T) {
	assert.True(t, ValidAssetID(NativeAsset))
	assert.True(t, ValidAssetID("0x00000000000000000000000000000000000000aa"))
	assert.True(t, ValidAssetID("0xABCDEF0123456789abcdef0123456789ABCDEF01"))

	assert.False(t, ValidAssetID(""))
	assert.False(t, ValidAssetID("0x1234"))
	assert.False(t, ValidAssetID("1234567890123456789012345678901234567890ab"))
	assert.False(t, ValidAssetID("0xzz000000000000000000000000000000000000aa"))
}

func TestIsNativeAsset(t *testing.T) {
	assert.True(t, IsNativeAsset(NativeAsset))
	assert.True(t, IsNativeAsset(strings.ToUpper(NativeAsset)))
	assert.False(t, IsNativeAsset("0x00000000000000000000000000000000000000aa"))
}

func TestBuildNativeTransfer(t *testing.T) {
	b := NewEVMTxBuilder(big.NewInt(1))

	tx, err := b.BuildTransferTransaction(&TransferRequest{
		Asset:     NativeAsset,
		Recipient: recipient,
		Amount:    big.NewInt(1_000_000),
		Nonce:     0,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(tx.Raw, "0x"))
	assert.Len(t, tx.Hash, 66)
}

func TestBuildTokenTransfer(t *testing.T) {
	b := NewEVMTxBuilder(big.NewInt(1))

	req := &TransferRequest{
		Asset:     asset,
		Recipient: recipient,
		Amount:    big.NewInt(1_000_000),
		Nonce:     0,
	}
	tokenTx, err := b.BuildTransferTransaction(req)
	require.NoError(t, err)

	nativeTx, err := b.BuildTransferTransaction(&TransferRequest{
		Asset:     NativeAsset,
		Recipient: recipient,
		Amount:    big.NewInt(1_000_000),
		Nonce:     0,
	})
	require.NoError(t, err)

	// Token payouts carry calldata addressed to the token contract, so the
	// payloads must differ even for identical value and nonce.
	assert.NotEqual(t, nativeTx.Raw, tokenTx.Raw)
	// The ERC-20 transfer selector is embedded in the raw payload.
	assert.Contains(t, tokenTx.Raw, "a9059cbb")
}

func TestBuildTransferRejectsBadInput(t *testing.T) {
	b := NewEVMTxBuilder(nil)

	_, err := b.BuildTransferTransaction(nil)
	require.Error(t, err)

	_, err = b.BuildTransferTransaction(&TransferRequest{Asset: asset, Recipient: recipient, Amount: big.NewInt(0)})
	require.ErrorIs(t, err, ErrInvalidTransfer)

	_, err = b.BuildTransferTransaction(&TransferRequest{Asset: "bogus", Recipient: recipient, Amount: big.NewInt(1)})
	require.Error(t, err)

	_, err = b.BuildTransferTransaction(&TransferRequest{Asset: asset, Recipient: "bogus", Amount: big.NewInt(1)})
	require.Error(t, err)
}

func TestWalletAddress(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)

	want := crypto.PubkeyToAddress(priv.PublicKey).Hex()

	uncompressed := crypto.FromECDSAPub(&priv.PublicKey)
	got, err := WalletAddress(uncompressed)
	require.NoError(t, err)
	assert.True(t, strings.EqualFold(want, got))

	compressed := crypto.CompressPubkey(&priv.PublicKey)
	got, err = WalletAddress(compressed)
	require.NoError(t, err)
	assert.True(t, strings.EqualFold(want, got))
}

func TestWalletAddressRejectsMalformedKeys(t *testing.T) {
	_, err := WalletAddress(nil)
	require.Error(t, err)

	_, err = WalletAddress([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)
}
