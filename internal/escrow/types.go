package escrow

import (
	"math/big"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusCreated   Status = "created"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	// Terminal variants reachable only through the administrative surface.
	StatusDisputed          Status = "disputed"
	StatusEmergencyResolved Status = "emergency_resolved"
	StatusNoShow            Status = "no_show"
)

// Terminal reports whether the status is absorbing.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired,
		StatusDisputed, StatusEmergencyResolved, StatusNoShow:
		return true
	}
	return false
}

// Session is one escrowed, time-boxed engagement between a payer and a
// provider. Terminal sessions are kept forever as the audit record.
type Session struct {
	ID                       string
	Payer                    string
	Provider                 string
	Asset                    string
	TotalAmount              *big.Int
	ReleasedAmount           *big.Int
	RefundedAmount           *big.Int
	PlatformFee              *big.Int
	ScheduledDurationMinutes int64
	Status                   Status

	// Fast guard flags, kept consistent with Status. Paused implies Active.
	Active          bool
	Paused          bool
	SurveyCompleted bool

	Rating         int
	Feedback       string
	ResolutionNote string

	CreatedAt                 time.Time
	StartedAt                 time.Time // zero until started
	LastLivenessSignal        time.Time
	AccumulatedPausedDuration time.Duration
	FinalizedAt               time.Time // zero until terminal
}

// Participant reports whether the principal is the payer or the provider.
func (s *Session) Participant(principal string) bool {
	return principal != "" && (principal == s.Payer || principal == s.Provider)
}

// Remaining is the unreleased portion of the escrowed total.
func (s *Session) Remaining() *big.Int {
	return new(big.Int).Sub(s.TotalAmount, s.ReleasedAmount)
}

// ResolutionCode selects the outcome of an adjudicated dispute.
type ResolutionCode string

const (
	// ResolutionReleaseProvider settles the remainder to the provider with
	// the usual fee split.
	ResolutionReleaseProvider ResolutionCode = "release_provider"
	// ResolutionRefundPayer returns the full remainder to the payer.
	ResolutionRefundPayer ResolutionCode = "refund_payer"
	// ResolutionSplit halves the remainder between the parties.
	ResolutionSplit ResolutionCode = "split"
	// ResolutionProviderNoShow refunds the payer and records the session as
	// a provider no-show.
	ResolutionProviderNoShow ResolutionCode = "provider_no_show"
)

// CreateSessionRequest carries the payer's funded creation call.
type CreateSessionRequest struct {
	ID              string
	Provider        string
	Asset           string
	Amount          *big.Int
	DurationMinutes int64
	PayerNonce      uint64
}
