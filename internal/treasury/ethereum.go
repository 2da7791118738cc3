package treasury

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// NativeAsset is the asset id reserved for the chain's native currency.
const NativeAsset = "0x0000000000000000000000000000000000000000"

// erc20TransferSelector is the 4-byte selector of transfer(address,uint256).
var erc20TransferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}

// TransferRequest describes one payout to render as a transaction.
type TransferRequest struct {
	Asset     string
	Recipient string
	Amount    *big.Int
	Nonce     uint64
	GasPrice  *big.Int
}

// Transaction is a built, unsigned payload handed to the signing pipeline.
type Transaction struct {
	Raw  string
	Hash string
}

// EVMTxBuilder renders custody payouts as EVM transactions. Native-asset
// payouts move value directly; token payouts carry ERC-20 transfer calldata
// addressed to the token contract.
type EVMTxBuilder struct {
	chainID *big.Int
}

// NewEVMTxBuilder creates a transaction builder for the given chain.
func NewEVMTxBuilder(chainID *big.Int) *EVMTxBuilder {
	if chainID == nil {
		chainID = big.NewInt(1) // mainnet
	}
	return &EVMTxBuilder{chainID: chainID}
}

// IsNativeAsset reports whether the asset id denotes the native currency.
func IsNativeAsset(asset string) bool {
	return strings.EqualFold(asset, NativeAsset)
}

// ValidAssetID reports whether the asset id is a well-formed EVM address.
func ValidAssetID(asset string) bool {
	if !strings.HasPrefix(asset, "0x") || len(asset) != 42 {
		return false
	}
	_, err := hex.DecodeString(asset[2:])
	return err == nil
}

// BuildTransferTransaction builds the RLP payload for one payout.
func (b *EVMTxBuilder) BuildTransferTransaction(req *TransferRequest) (*Transaction, error) {
	if req == nil {
		return nil, errors.New("transfer request is nil")
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, ErrInvalidTransfer
	}
	if !ValidAssetID(req.Asset) {
		return nil, errors.Errorf("malformed asset id: %s", req.Asset)
	}
	if !ValidAssetID(req.Recipient) {
		return nil, errors.Errorf("malformed recipient address: %s", req.Recipient)
	}

	gasPrice := req.GasPrice
	if gasPrice == nil {
		gasPrice = new(big.Int)
	}

	var to string
	var value *big.Int
	var data []byte
	var gasLimit uint64
	if IsNativeAsset(req.Asset) {
		to = req.Recipient
		value = req.Amount
		gasLimit = 21000
	} else {
		to = req.Asset
		value = new(big.Int)
		data = erc20TransferData(req.Recipient, req.Amount)
		gasLimit = 65000
	}

	txPayload := []interface{}{
		req.Nonce,
		gasPrice,
		gasLimit,
		to,
		value,
		data,
		b.chainID,
		uint(0),
		uint(0),
	}

	raw, err := rlp.EncodeToBytes(txPayload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to RLP encode tx payload")
	}

	hash := crypto.Keccak256Hash(raw).Hex()
	return &Transaction{
		Raw:  fmt.Sprintf("0x%s", hex.EncodeToString(raw)),
		Hash: hash,
	}, nil
}

// erc20TransferData packs transfer(address,uint256) calldata.
func erc20TransferData(recipient string, amount *big.Int) []byte {
	data := make([]byte, 0, 4+32+32)
	data = append(data, erc20TransferSelector...)

	addr, _ := hex.DecodeString(strings.TrimPrefix(recipient, "0x"))
	padded := make([]byte, 32)
	copy(padded[32-len(addr):], addr)
	data = append(data, padded...)

	amt := amount.Bytes()
	padded = make([]byte, 32)
	copy(padded[32-len(amt):], amt)
	return append(data, padded...)
}

// WalletAddress derives the EVM address of a secp256k1 public key, accepting
// compressed and uncompressed encodings. Backs platform-wallet rotation by
// key: the key must be a valid curve point, not just 20 plausible bytes.
func WalletAddress(pubKey []byte) (string, error) {
	if len(pubKey) == 0 {
		return "", errors.New("public key is required")
	}
	key, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse secp256k1 pubkey")
	}
	uncompressed := key.SerializeUncompressed() // 65 bytes, 0x04 | X | Y
	hash := crypto.Keccak256(uncompressed[1:])
	return fmt.Sprintf("0x%s", hex.EncodeToString(hash[12:])), nil
}
