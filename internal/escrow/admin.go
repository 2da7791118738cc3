package escrow

import (
	"context"
	"math/big"

	"github.com/kashguard/go-escrow/internal/events"
	"github.com/kashguard/go-escrow/internal/treasury"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// The administrative surface. Authorization happens at the API boundary
// (admin permission claim); every action here is individually logged and
// emitted with the acting principal for the audit trail.
//
// EmergencyRelease and ResolveDispute deliberately skip the engine-pause
// guard: pausing the engine must never lock the operator out of rescuing
// stuck funds.

// AddAsset allowlists an asset for future session creation.
func (e *Engine) AddAsset(ctx context.Context, caller string, asset string) error {
	if !treasury.ValidAssetID(asset) {
		return errors.Wrap(ErrAssetNotAllowed, "malformed asset id")
	}
	if err := e.allowlist.AddAsset(ctx, asset); err != nil {
		return errors.Wrap(err, "failed to add asset")
	}
	e.events.Emit(ctx, events.TypeAllowlistChanged, "", e.clock.Now(), map[string]interface{}{
		"action": "add",
		"asset":  asset,
		"caller": caller,
	})
	return nil
}

// RemoveAsset removes an asset from the allowlist. Existing sessions on the
// asset are unaffected.
func (e *Engine) RemoveAsset(ctx context.Context, caller string, asset string) error {
	if err := e.allowlist.RemoveAsset(ctx, asset); err != nil {
		return errors.Wrap(err, "failed to remove asset")
	}
	e.events.Emit(ctx, events.TypeAllowlistChanged, "", e.clock.Now(), map[string]interface{}{
		"action": "remove",
		"asset":  asset,
		"caller": caller,
	})
	return nil
}

// RotatePlatformWallet changes the fee recipient for future settlements.
func (e *Engine) RotatePlatformWallet(ctx context.Context, caller string, wallet string) error {
	if !treasury.ValidAssetID(wallet) {
		return ErrInvalidWallet
	}

	e.stateMu.Lock()
	previous := e.platformWallet
	e.platformWallet = wallet
	e.stateMu.Unlock()

	log.Warn().
		Str("caller", caller).
		Str("previous", previous).
		Str("wallet", wallet).
		Msg("Platform wallet rotated")
	e.events.Emit(ctx, events.TypeWalletRotated, "", e.clock.Now(), map[string]interface{}{
		"caller": caller,
		"wallet": wallet,
	})
	return nil
}

// RotatePlatformWalletFromKey derives the fee recipient address from a
// secp256k1 public key and rotates to it. Accepts compressed and
// uncompressed keys.
func (e *Engine) RotatePlatformWalletFromKey(ctx context.Context, caller string, pubKey []byte) (string, error) {
	wallet, err := treasury.WalletAddress(pubKey)
	if err != nil {
		return "", errors.Wrap(ErrInvalidWallet, err.Error())
	}
	if err := e.RotatePlatformWallet(ctx, caller, wallet); err != nil {
		return "", err
	}
	return wallet, nil
}

// SetPaused pauses or unpauses the whole engine. While paused every mutating
// call is rejected; queries stay available.
func (e *Engine) SetPaused(ctx context.Context, caller string, paused bool) {
	e.stateMu.Lock()
	e.paused = paused
	e.stateMu.Unlock()

	typ := events.TypeEngineUnpaused
	if paused {
		typ = events.TypeEnginePaused
	}
	log.Warn().Str("caller", caller).Bool("paused", paused).Msg("Engine pause state changed")
	e.events.Emit(ctx, typ, "", e.clock.Now(), map[string]interface{}{"caller": caller})
}

// EnginePaused reports whether the engine is administratively paused.
func (e *Engine) EnginePaused() bool {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.paused
}

// EmergencyRelease forces a payout outside the release formula: the stated
// amount goes to the stated recipient, the rest of the unreleased balance is
// refunded to the payer, and the session terminates as EmergencyResolved.
// The reason string is mandatory and recorded on the session.
func (e *Engine) EmergencyRelease(ctx context.Context, caller string, id string, recipient string, amount *big.Int, reason string) (*Session, error) {
	if reason == "" {
		return nil, ErrMissingReason
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	unlock := e.lockSession(id)
	defer unlock()

	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status.Terminal() {
		return nil, errors.Wrapf(ErrInvalidTransition, "emergency release from %s", s.Status)
	}

	remaining := s.Remaining()
	if amount.Cmp(remaining) > 0 {
		return nil, ErrAmountTooLarge
	}

	now := e.clock.Now()
	var legs []payoutLeg
	if amount.Sign() > 0 {
		if err := e.payLeg(ctx, s, &legs, recipient, amount); err != nil {
			return nil, errors.Wrap(err, "failed to pay emergency recipient")
		}
		s.ReleasedAmount.Add(s.ReleasedAmount, amount)
	}
	if err := e.refundRemainder(ctx, s, &legs); err != nil {
		return nil, err
	}
	s.ResolutionNote = reason
	e.finalize(s, StatusEmergencyResolved, now)

	if err := e.saveSession(ctx, s); err != nil {
		e.returnLegs(ctx, s, legs)
		return nil, err
	}

	log.Warn().
		Str("caller", caller).
		Str("session_id", id).
		Str("recipient", recipient).
		Str("amount", amount.String()).
		Str("reason", reason).
		Msg("Emergency release executed")
	e.events.Emit(ctx, events.TypeSessionEmergency, s.ID, now, map[string]interface{}{
		"caller":    caller,
		"recipient": recipient,
		"amount":    amount.String(),
		"reason":    reason,
	})
	return s, nil
}

// ResolveDispute finalizes a disagreeing session according to an adjudicated
// resolution code.
func (e *Engine) ResolveDispute(ctx context.Context, caller string, id string, code ResolutionCode, note string) (*Session, error) {
	unlock := e.lockSession(id)
	defer unlock()

	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status.Terminal() {
		return nil, errors.Wrapf(ErrInvalidTransition, "dispute resolution from %s", s.Status)
	}

	now := e.clock.Now()
	terminal := StatusDisputed
	var legs []payoutLeg

	switch code {
	case ResolutionReleaseProvider:
		if err := e.settleRemainder(ctx, s, &legs); err != nil {
			return nil, err
		}
	case ResolutionRefundPayer:
		if err := e.refundRemainder(ctx, s, &legs); err != nil {
			return nil, err
		}
	case ResolutionSplit:
		half := new(big.Int).Quo(s.Remaining(), big.NewInt(2))
		if half.Sign() > 0 {
			fee, providerShare := FeeSplit(half, e.cfg.PlatformFeeBps)
			if providerShare.Sign() > 0 {
				if err := e.payLeg(ctx, s, &legs, s.Provider, providerShare); err != nil {
					return nil, errors.Wrap(err, "failed to pay provider half")
				}
			}
			if fee.Sign() > 0 {
				if err := e.payLeg(ctx, s, &legs, e.PlatformWallet(), fee); err != nil {
					return nil, errors.Wrap(err, "failed to pay platform fee")
				}
			}
			s.ReleasedAmount.Add(s.ReleasedAmount, half)
			s.PlatformFee.Add(s.PlatformFee, fee)
		}
		if err := e.refundRemainder(ctx, s, &legs); err != nil {
			return nil, err
		}
	case ResolutionProviderNoShow:
		if err := e.refundRemainder(ctx, s, &legs); err != nil {
			return nil, err
		}
		terminal = StatusNoShow
	default:
		return nil, errors.Wrap(ErrUnknownResolution, string(code))
	}

	s.ResolutionNote = note
	e.finalize(s, terminal, now)

	if err := e.saveSession(ctx, s); err != nil {
		e.returnLegs(ctx, s, legs)
		return nil, err
	}

	log.Warn().
		Str("caller", caller).
		Str("session_id", id).
		Str("resolution", string(code)).
		Str("note", note).
		Msg("Dispute resolved")

	typ := events.TypeSessionDisputed
	if terminal == StatusNoShow {
		typ = events.TypeSessionNoShow
	}
	e.events.Emit(ctx, typ, s.ID, now, map[string]interface{}{
		"caller":     caller,
		"resolution": string(code),
		"note":       note,
	})
	return s, nil
}
