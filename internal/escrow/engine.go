package escrow

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/kashguard/go-escrow/internal/events"
	"github.com/kashguard/go-escrow/internal/metrics"
	"github.com/kashguard/go-escrow/internal/storage"
	"github.com/kashguard/go-escrow/internal/treasury"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Config holds the engine's time and fee tunables. All time-based behavior
// is expressed as guard conditions against the injected clock.
type Config struct {
	StartTimeout      time.Duration
	HeartbeatInterval time.Duration
	GracePeriod       time.Duration
	AutoReleaseDelay  time.Duration
	ProgressiveCapBps int64
	PlatformFeeBps    int64
	PlatformWallet    string
}

// Engine is the session lifecycle state machine. It is the only writer of
// the ledger; each session's mutations are serialized through a per-session
// lock while independent sessions proceed in parallel.
type Engine struct {
	cfg       Config
	ledger    storage.LedgerStore
	nonces    storage.NonceStore
	allowlist storage.AllowlistStore
	treasury  treasury.Adapter
	events    *events.Publisher
	metrics   *metrics.Service
	clock     time2.Clock

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	stateMu        sync.RWMutex
	paused         bool
	platformWallet string
}

// NewEngine wires the engine with its injected stores and collaborators.
func NewEngine(
	cfg Config,
	ledger storage.LedgerStore,
	nonces storage.NonceStore,
	allowlist storage.AllowlistStore,
	adapter treasury.Adapter,
	publisher *events.Publisher,
	m *metrics.Service,
	clock time2.Clock,
) *Engine {
	return &Engine{
		cfg:            cfg,
		ledger:         ledger,
		nonces:         nonces,
		allowlist:      allowlist,
		treasury:       adapter,
		events:         publisher,
		metrics:        m,
		clock:          clock,
		locks:          make(map[string]*sync.Mutex),
		platformWallet: cfg.PlatformWallet,
	}
}

// lockSession serializes all mutations of one session id.
func (e *Engine) lockSession(id string) func() {
	e.lockMu.Lock()
	mu, ok := e.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[id] = mu
	}
	e.lockMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (e *Engine) guardRunning() error {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	if e.paused {
		return ErrEnginePaused
	}
	return nil
}

// PlatformWallet returns the current fee recipient.
func (e *Engine) PlatformWallet() string {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.platformWallet
}

func (e *Engine) loadSession(ctx context.Context, id string) (*Session, error) {
	rec, err := e.ledger.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errors.Wrap(ErrSessionNotFound, id)
		}
		return nil, errors.Wrap(err, "failed to load session")
	}
	return sessionFromRecord(rec)
}

func (e *Engine) saveSession(ctx context.Context, s *Session) error {
	return errors.Wrap(e.ledger.UpdateSession(ctx, recordFromSession(s)), "failed to persist session")
}

// CreateSession validates the payer's funded request, pulls the amount into
// custody and writes the Created record. Any precondition failure aborts
// before funds move.
func (e *Engine) CreateSession(ctx context.Context, caller string, req CreateSessionRequest) (*Session, error) {
	if err := e.guardRunning(); err != nil {
		return nil, err
	}
	if req.Provider == "" {
		return nil, ErrMissingProvider
	}
	if caller == "" || caller == req.Provider {
		return nil, ErrSelfDeal
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	unlock := e.lockSession(req.ID)
	defer unlock()

	allowed, err := e.allowlist.Contains(ctx, req.Asset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check allowlist")
	}
	if !allowed {
		return nil, errors.Wrap(ErrAssetNotAllowed, req.Asset)
	}

	used, err := e.nonces.IDUsed(ctx, req.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check session id")
	}
	if used {
		return nil, errors.Wrap(ErrSessionIDUsed, req.ID)
	}

	current, err := e.nonces.CurrentNonce(ctx, caller)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load payer nonce")
	}
	if req.PayerNonce != current {
		return nil, errors.Wrapf(ErrStaleNonce, "expected %d", current)
	}

	if err := e.nonces.Consume(ctx, caller, req.ID); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, errors.Wrap(ErrSessionIDUsed, req.ID)
		}
		return nil, errors.Wrap(err, "failed to consume nonce")
	}

	if err := e.treasury.Deposit(ctx, req.Asset, caller, req.Amount); err != nil {
		return nil, errors.Wrap(err, "failed to take deposit into custody")
	}

	now := e.clock.Now()
	s := &Session{
		ID:                       req.ID,
		Payer:                    caller,
		Provider:                 req.Provider,
		Asset:                    req.Asset,
		TotalAmount:              req.Amount,
		ReleasedAmount:           newZero(),
		RefundedAmount:           newZero(),
		PlatformFee:              newZero(),
		ScheduledDurationMinutes: req.DurationMinutes,
		Status:                   StatusCreated,
		CreatedAt:                now,
		LastLivenessSignal:       now,
	}

	if err := e.ledger.CreateSession(ctx, recordFromSession(s)); err != nil {
		// The deposit already succeeded; hand it back so the failed call
		// leaves no funds stranded in custody.
		if refundErr := e.treasury.Payout(ctx, req.Asset, caller, req.Amount); refundErr != nil {
			log.Error().Err(refundErr).Str("session_id", req.ID).Msg("Failed to return deposit after ledger write failure")
		}
		return nil, errors.Wrap(err, "failed to write ledger record")
	}

	e.metrics.SessionCreated()
	e.events.Emit(ctx, events.TypeSessionCreated, s.ID, now, map[string]interface{}{
		"payer":            s.Payer,
		"provider":         s.Provider,
		"asset":            s.Asset,
		"total_amount":     s.TotalAmount.String(),
		"duration_minutes": s.ScheduledDurationMinutes,
	})
	return s, nil
}

// Start moves a Created session to Active. Only a participant may start, and
// only inside the start window; after that Expire is the one exit.
func (e *Engine) Start(ctx context.Context, caller string, id string) (*Session, error) {
	if err := e.guardRunning(); err != nil {
		return nil, err
	}

	unlock := e.lockSession(id)
	defer unlock()

	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusCreated {
		return nil, errors.Wrapf(ErrInvalidTransition, "start from %s", s.Status)
	}
	if !s.Participant(caller) {
		return nil, ErrUnauthorizedCaller
	}

	now := e.clock.Now()
	if now.After(s.CreatedAt.Add(e.cfg.StartTimeout)) {
		return nil, ErrStartWindowElapsed
	}

	s.Status = StatusActive
	s.Active = true
	s.StartedAt = now
	s.LastLivenessSignal = now

	if err := e.saveSession(ctx, s); err != nil {
		return nil, err
	}
	e.events.Emit(ctx, events.TypeSessionStarted, s.ID, now, nil)
	return s, nil
}

// Heartbeat refreshes the liveness signal. A heartbeat on a paused session
// implicitly resumes it.
func (e *Engine) Heartbeat(ctx context.Context, caller string, id string) (*Session, error) {
	if err := e.guardRunning(); err != nil {
		return nil, err
	}

	unlock := e.lockSession(id)
	defer unlock()

	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusActive && s.Status != StatusPaused {
		return nil, errors.Wrapf(ErrInvalidTransition, "heartbeat from %s", s.Status)
	}
	if !s.Participant(caller) {
		return nil, ErrUnauthorizedCaller
	}

	now := e.clock.Now()
	if s.Status == StatusPaused {
		e.applyResume(s, now)
		e.events.Emit(ctx, events.TypeSessionResumed, s.ID, now, map[string]interface{}{"via": "heartbeat"})
	}
	s.LastLivenessSignal = now

	if err := e.saveSession(ctx, s); err != nil {
		return nil, err
	}
	e.metrics.Heartbeat()
	e.events.Emit(ctx, events.TypeHeartbeatReceived, s.ID, now, nil)
	return s, nil
}

// Pause suspends an Active session. Participants may pause manually at any
// time; once the liveness signal is older than heartbeat interval plus grace
// period, anyone may pause.
func (e *Engine) Pause(ctx context.Context, caller string, id string) (*Session, error) {
	if err := e.guardRunning(); err != nil {
		return nil, err
	}

	unlock := e.lockSession(id)
	defer unlock()

	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusActive {
		return nil, errors.Wrapf(ErrInvalidTransition, "pause from %s", s.Status)
	}

	now := e.clock.Now()
	livenessExpired := now.After(s.LastLivenessSignal.Add(e.cfg.HeartbeatInterval + e.cfg.GracePeriod))

	var reason string
	switch {
	case livenessExpired:
		reason = "liveness timeout"
	case s.Participant(caller):
		reason = "manual"
		// A deliberate pause is itself a liveness signal; the pause
		// interval is measured from here.
		s.LastLivenessSignal = now
	default:
		return nil, ErrLivenessCurrent
	}

	s.Status = StatusPaused
	s.Paused = true

	if err := e.saveSession(ctx, s); err != nil {
		return nil, err
	}
	e.events.Emit(ctx, events.TypeSessionPaused, s.ID, now, map[string]interface{}{"reason": reason})
	return s, nil
}

// Resume reactivates a Paused session and adds the pause interval to the
// accumulated paused duration.
func (e *Engine) Resume(ctx context.Context, caller string, id string) (*Session, error) {
	if err := e.guardRunning(); err != nil {
		return nil, err
	}

	unlock := e.lockSession(id)
	defer unlock()

	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusPaused {
		return nil, errors.Wrapf(ErrInvalidTransition, "resume from %s", s.Status)
	}
	if !s.Participant(caller) {
		return nil, ErrUnauthorizedCaller
	}

	now := e.clock.Now()
	e.applyResume(s, now)

	if err := e.saveSession(ctx, s); err != nil {
		return nil, err
	}
	e.events.Emit(ctx, events.TypeSessionResumed, s.ID, now, nil)
	return s, nil
}

func (e *Engine) applyResume(s *Session, now time.Time) {
	if interval := now.Sub(s.LastLivenessSignal); interval > 0 {
		s.AccumulatedPausedDuration += interval
	}
	s.Status = StatusActive
	s.Paused = false
	s.LastLivenessSignal = now
}

// Release pays the provider the progressive amount earned since the last
// release. Callable by either participant: the only possible effect is fund
// movement toward the provider.
func (e *Engine) Release(ctx context.Context, caller string, id string) (*Session, error) {
	if err := e.guardRunning(); err != nil {
		return nil, err
	}

	unlock := e.lockSession(id)
	defer unlock()

	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusActive || !s.Active || s.Paused {
		return nil, errors.Wrapf(ErrInvalidTransition, "release from %s", s.Status)
	}
	if !s.Participant(caller) {
		return nil, ErrUnauthorizedCaller
	}

	now := e.clock.Now()
	elapsed := EffectiveElapsedMinutes(s, now)
	max := MaxReleasable(s.TotalAmount, elapsed, s.ScheduledDurationMinutes, e.cfg.ProgressiveCapBps)

	amount := new(big.Int).Sub(max, s.ReleasedAmount)
	if amount.Sign() <= 0 {
		return nil, ErrNothingToRelease
	}

	if err := e.treasury.Payout(ctx, s.Asset, s.Provider, amount); err != nil {
		return nil, errors.Wrap(err, "failed to pay provider")
	}
	s.ReleasedAmount.Add(s.ReleasedAmount, amount)

	if err := e.saveSession(ctx, s); err != nil {
		e.returnLegs(ctx, s, []payoutLeg{{recipient: s.Provider, amount: amount}})
		return nil, err
	}
	e.metrics.Release()
	e.events.Emit(ctx, events.TypePaymentReleased, s.ID, now, map[string]interface{}{
		"amount":           amount.String(),
		"released_total":   s.ReleasedAmount.String(),
		"elapsed_minutes":  elapsed,
		"duration_minutes": s.ScheduledDurationMinutes,
	})
	return s, nil
}

// Complete finalizes the session on the payer's call, settling the remainder
// with the platform fee split and recording the survey.
func (e *Engine) Complete(ctx context.Context, caller string, id string, rating int, feedback string) (*Session, error) {
	if err := e.guardRunning(); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	unlock := e.lockSession(id)
	defer unlock()

	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusActive && s.Status != StatusPaused {
		return nil, errors.Wrapf(ErrInvalidTransition, "complete from %s", s.Status)
	}
	if caller != s.Payer {
		return nil, ErrUnauthorizedCaller
	}

	now := e.clock.Now()
	var legs []payoutLeg
	if err := e.settleRemainder(ctx, s, &legs); err != nil {
		return nil, err
	}
	s.SurveyCompleted = true
	s.Rating = rating
	s.Feedback = feedback
	e.finalize(s, StatusCompleted, now)

	if err := e.saveSession(ctx, s); err != nil {
		e.returnLegs(ctx, s, legs)
		return nil, err
	}
	e.events.Emit(ctx, events.TypeSessionCompleted, s.ID, now, map[string]interface{}{
		"rating":       rating,
		"platform_fee": s.PlatformFee.String(),
	})
	return s, nil
}

// AutoComplete is the safety valve against an unresponsive payer: once the
// auto-release delay has passed since creation, anyone may force the same
// settlement as Complete.
func (e *Engine) AutoComplete(ctx context.Context, caller string, id string) (*Session, error) {
	if err := e.guardRunning(); err != nil {
		return nil, err
	}

	unlock := e.lockSession(id)
	defer unlock()

	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusActive && s.Status != StatusPaused {
		return nil, errors.Wrapf(ErrInvalidTransition, "auto-complete from %s", s.Status)
	}

	now := e.clock.Now()
	if now.Before(s.CreatedAt.Add(e.cfg.AutoReleaseDelay)) {
		return nil, ErrAutoReleaseNotDue
	}

	var legs []payoutLeg
	if err := e.settleRemainder(ctx, s, &legs); err != nil {
		return nil, err
	}
	e.finalize(s, StatusCompleted, now)

	if err := e.saveSession(ctx, s); err != nil {
		e.returnLegs(ctx, s, legs)
		return nil, err
	}
	e.events.Emit(ctx, events.TypeSessionCompleted, s.ID, now, map[string]interface{}{
		"via":          "auto_release",
		"caller":       caller,
		"platform_fee": s.PlatformFee.String(),
	})
	return s, nil
}

// Cancel aborts a session that never started and refunds the payer in full.
func (e *Engine) Cancel(ctx context.Context, caller string, id string) (*Session, error) {
	if err := e.guardRunning(); err != nil {
		return nil, err
	}

	unlock := e.lockSession(id)
	defer unlock()

	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusCreated {
		return nil, errors.Wrapf(ErrInvalidTransition, "cancel from %s", s.Status)
	}
	if !s.Participant(caller) {
		return nil, ErrUnauthorizedCaller
	}

	now := e.clock.Now()
	var legs []payoutLeg
	if err := e.refundRemainder(ctx, s, &legs); err != nil {
		return nil, err
	}
	e.finalize(s, StatusCancelled, now)

	if err := e.saveSession(ctx, s); err != nil {
		e.returnLegs(ctx, s, legs)
		return nil, err
	}
	e.events.Emit(ctx, events.TypeSessionCancelled, s.ID, now, map[string]interface{}{
		"refunded": s.RefundedAmount.String(),
	})
	return s, nil
}

// Expire refunds a session that was created but never started within the
// start window. Callable by anyone; Start and Expire guard the same window
// from opposite sides.
func (e *Engine) Expire(ctx context.Context, caller string, id string) (*Session, error) {
	if err := e.guardRunning(); err != nil {
		return nil, err
	}

	unlock := e.lockSession(id)
	defer unlock()

	s, err := e.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusCreated {
		return nil, errors.Wrapf(ErrInvalidTransition, "expire from %s", s.Status)
	}

	now := e.clock.Now()
	if !now.After(s.CreatedAt.Add(e.cfg.StartTimeout)) {
		return nil, ErrStartWindowOpen
	}

	var legs []payoutLeg
	if err := e.refundRemainder(ctx, s, &legs); err != nil {
		return nil, err
	}
	e.finalize(s, StatusExpired, now)

	if err := e.saveSession(ctx, s); err != nil {
		e.returnLegs(ctx, s, legs)
		return nil, err
	}
	e.events.Emit(ctx, events.TypeSessionExpired, s.ID, now, map[string]interface{}{
		"caller":   caller,
		"refunded": s.RefundedAmount.String(),
	})
	return s, nil
}

// payoutLeg is one executed transfer of a multi-leg settlement, kept so a
// later failure can return the funds to custody before the error surfaces.
type payoutLeg struct {
	recipient string
	amount    *big.Int
}

// payLeg executes one transfer leg. On failure every previously completed
// leg is returned to custody, so the whole settlement aborts with no
// partial effect.
func (e *Engine) payLeg(ctx context.Context, s *Session, legs *[]payoutLeg, recipient string, amount *big.Int) error {
	if err := e.treasury.Payout(ctx, s.Asset, recipient, amount); err != nil {
		e.returnLegs(ctx, s, *legs)
		return err
	}
	*legs = append(*legs, payoutLeg{recipient: recipient, amount: new(big.Int).Set(amount)})
	return nil
}

// returnLegs credits completed transfer legs back to custody after a failed
// settlement or ledger write. A failed return is logged; the transfer log
// keeps the trace for reconciliation.
func (e *Engine) returnLegs(ctx context.Context, s *Session, legs []payoutLeg) {
	for _, leg := range legs {
		if err := e.treasury.Deposit(ctx, s.Asset, leg.recipient, leg.amount); err != nil {
			log.Error().Err(err).
				Str("session_id", s.ID).
				Str("recipient", leg.recipient).
				Str("amount", leg.amount.String()).
				Msg("Failed to return settlement leg to custody")
		}
	}
}

// settleRemainder pays out the unreleased balance: the platform fee to the
// fee wallet, the rest to the provider. ReleasedAmount ends at TotalAmount.
// The ledger fields mutate only after every leg succeeded.
func (e *Engine) settleRemainder(ctx context.Context, s *Session, legs *[]payoutLeg) error {
	remaining := s.Remaining()
	fee, providerShare := FeeSplit(remaining, e.cfg.PlatformFeeBps)

	if providerShare.Sign() > 0 {
		if err := e.payLeg(ctx, s, legs, s.Provider, providerShare); err != nil {
			return errors.Wrap(err, "failed to pay provider remainder")
		}
	}
	if fee.Sign() > 0 {
		if err := e.payLeg(ctx, s, legs, e.PlatformWallet(), fee); err != nil {
			return errors.Wrap(err, "failed to pay platform fee")
		}
	}

	s.ReleasedAmount.Set(s.TotalAmount)
	s.PlatformFee.Add(s.PlatformFee, fee)
	return nil
}

// refundRemainder returns the unreleased balance to the payer.
func (e *Engine) refundRemainder(ctx context.Context, s *Session, legs *[]payoutLeg) error {
	remaining := s.Remaining()
	if remaining.Sign() > 0 {
		if err := e.payLeg(ctx, s, legs, s.Payer, remaining); err != nil {
			return errors.Wrap(err, "failed to refund payer")
		}
		s.RefundedAmount.Add(s.RefundedAmount, remaining)
	}
	return nil
}

func (e *Engine) finalize(s *Session, status Status, now time.Time) {
	active := EffectiveElapsed(s, now)
	s.Status = status
	s.Active = false
	s.Paused = false
	s.FinalizedAt = now
	e.metrics.Terminal(string(status))
	e.metrics.SessionFinalized(active)
}

func newZero() *big.Int {
	return new(big.Int)
}
