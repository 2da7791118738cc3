package escrow

import (
	"context"
	"math/big"

	"github.com/kashguard/go-escrow/internal/storage"
	"github.com/pkg/errors"
)

// The read/query surface. Queries never mutate and stay available while the
// engine is administratively paused.

// GetSession returns the full session record.
func (e *Engine) GetSession(ctx context.Context, id string) (*Session, error) {
	return e.loadSession(ctx, id)
}

// ListSessions returns sessions matching the filter.
func (e *Engine) ListSessions(ctx context.Context, filter *storage.SessionFilter) ([]*Session, error) {
	recs, err := e.ledger.ListSessions(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	out := make([]*Session, 0, len(recs))
	for _, rec := range recs {
		s, err := sessionFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// AvailablePayment is the amount a Release call would move right now. Zero
// for sessions that are not Active or Paused, and zero immediately after a
// release drains the formula.
func (e *Engine) AvailablePayment(ctx context.Context, id string) (*big.Int, error) {
	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusActive && s.Status != StatusPaused {
		return new(big.Int), nil
	}

	now := e.clock.Now()
	max := MaxReleasable(s.TotalAmount, EffectiveElapsedMinutes(s, now), s.ScheduledDurationMinutes, e.cfg.ProgressiveCapBps)
	available := new(big.Int).Sub(max, s.ReleasedAmount)
	if available.Sign() < 0 {
		return new(big.Int), nil
	}
	return available, nil
}

// ElapsedMinutes is the session's effective active time in whole minutes.
func (e *Engine) ElapsedMinutes(ctx context.Context, id string) (int64, error) {
	s, err := e.loadSession(ctx, id)
	if err != nil {
		return 0, err
	}
	return EffectiveElapsedMinutes(s, e.clock.Now()), nil
}

// NeedsHeartbeat reports whether an active session's liveness signal is
// older than the heartbeat interval.
func (e *Engine) NeedsHeartbeat(ctx context.Context, id string) (bool, error) {
	s, err := e.loadSession(ctx, id)
	if err != nil {
		return false, err
	}
	if s.Status != StatusActive {
		return false, nil
	}
	return e.clock.Now().After(s.LastLivenessSignal.Add(e.cfg.HeartbeatInterval)), nil
}

// ShouldAutoPause reports whether the liveness timeout has passed and anyone
// may pause the session.
func (e *Engine) ShouldAutoPause(ctx context.Context, id string) (bool, error) {
	s, err := e.loadSession(ctx, id)
	if err != nil {
		return false, err
	}
	if s.Status != StatusActive {
		return false, nil
	}
	return e.clock.Now().After(s.LastLivenessSignal.Add(e.cfg.HeartbeatInterval + e.cfg.GracePeriod)), nil
}

// PayerNonce is the payer's next expected creation nonce.
func (e *Engine) PayerNonce(ctx context.Context, payer string) (uint64, error) {
	return e.nonces.CurrentNonce(ctx, payer)
}

// AssetSupported reports whether the asset is currently allowlisted.
func (e *Engine) AssetSupported(ctx context.Context, asset string) (bool, error) {
	return e.allowlist.Contains(ctx, asset)
}

// Assets lists the allowlisted assets.
func (e *Engine) Assets(ctx context.Context) ([]string, error) {
	return e.allowlist.ListAssets(ctx)
}
