package types

import (
	"math/big"

	"github.com/go-openapi/swag"
	"github.com/pkg/errors"
)

// PostCreateSessionPayload is the payer's funded creation request. The payer
// itself comes from the authenticated principal, not from the body.
type PostCreateSessionPayload struct {
	SessionID       *string `json:"session_id"`
	Provider        *string `json:"provider"`
	Asset           *string `json:"asset"`
	Amount          *string `json:"amount"`
	DurationMinutes *int64  `json:"duration_minutes"`
	PayerNonce      *uint64 `json:"payer_nonce"`
}

func (p *PostCreateSessionPayload) Validate() error {
	if swag.StringValue(p.SessionID) == "" {
		return errors.New("session_id is required")
	}
	if swag.StringValue(p.Provider) == "" {
		return errors.New("provider is required")
	}
	if swag.StringValue(p.Asset) == "" {
		return errors.New("asset is required")
	}
	if _, err := ParseAmount(p.Amount); err != nil {
		return err
	}
	if p.DurationMinutes == nil || *p.DurationMinutes <= 0 {
		return errors.New("duration_minutes must be positive")
	}
	if p.PayerNonce == nil {
		return errors.New("payer_nonce is required")
	}
	return nil
}

// PostCompleteSessionPayload closes a session with the payer's survey.
type PostCompleteSessionPayload struct {
	Rating   *int64 `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

func (p *PostCompleteSessionPayload) Validate() error {
	if p.Rating == nil || *p.Rating < 1 || *p.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}

// PostEmergencyReleasePayload forces a payout outside the release formula.
type PostEmergencyReleasePayload struct {
	Recipient *string `json:"recipient"`
	Amount    *string `json:"amount"`
	Reason    *string `json:"reason"`
}

func (p *PostEmergencyReleasePayload) Validate() error {
	if swag.StringValue(p.Recipient) == "" {
		return errors.New("recipient is required")
	}
	if swag.StringValue(p.Reason) == "" {
		return errors.New("reason is required")
	}
	if p.Amount == nil {
		return errors.New("amount is required")
	}
	if _, ok := new(big.Int).SetString(*p.Amount, 10); !ok {
		return errors.New("amount must be a decimal integer")
	}
	return nil
}

// PostDisputeResolutionPayload carries the adjudicated outcome.
type PostDisputeResolutionPayload struct {
	Resolution *string `json:"resolution"`
	Note       string  `json:"note,omitempty"`
}

func (p *PostDisputeResolutionPayload) Validate() error {
	if swag.StringValue(p.Resolution) == "" {
		return errors.New("resolution is required")
	}
	return nil
}

// PostAllowlistPayload adds an asset to the allowlist.
type PostAllowlistPayload struct {
	Asset *string `json:"asset"`
}

func (p *PostAllowlistPayload) Validate() error {
	if swag.StringValue(p.Asset) == "" {
		return errors.New("asset is required")
	}
	return nil
}

// PostWalletRotationPayload changes the platform fee wallet, either to a
// stated address or to the address derived from a secp256k1 public key.
type PostWalletRotationPayload struct {
	Wallet    *string `json:"wallet,omitempty"`
	PublicKey *string `json:"public_key,omitempty"`
}

func (p *PostWalletRotationPayload) Validate() error {
	wallet := swag.StringValue(p.Wallet)
	publicKey := swag.StringValue(p.PublicKey)
	if wallet == "" && publicKey == "" {
		return errors.New("wallet or public_key is required")
	}
	if wallet != "" && publicKey != "" {
		return errors.New("wallet and public_key are mutually exclusive")
	}
	return nil
}

// PostEnginePausePayload pauses or unpauses the whole engine.
type PostEnginePausePayload struct {
	Paused *bool `json:"paused"`
}

func (p *PostEnginePausePayload) Validate() error {
	if p.Paused == nil {
		return errors.New("paused is required")
	}
	return nil
}

// ParseAmount parses a positive decimal-integer amount string.
func ParseAmount(value *string) (*big.Int, error) {
	if value == nil {
		return nil, errors.New("amount is required")
	}
	amount, ok := new(big.Int).SetString(*value, 10)
	if !ok {
		return nil, errors.New("amount must be a decimal integer")
	}
	if amount.Sign() <= 0 {
		return nil, errors.New("amount must be positive")
	}
	return amount, nil
}
