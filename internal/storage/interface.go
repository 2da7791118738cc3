package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a record with the same identity already exists.
	ErrDuplicate = errors.New("record already exists")
)

// SessionRecord is the persisted form of an escrow session. Amounts are
// decimal strings so that token-scale integers survive JSON and SQL intact.
type SessionRecord struct {
	SessionID                string
	Payer                    string
	Provider                 string
	Asset                    string
	TotalAmount              string
	ReleasedAmount           string
	RefundedAmount           string
	PlatformFee              string
	ScheduledDurationMinutes int64
	Status                   string
	Active                   bool
	Paused                   bool
	SurveyCompleted          bool
	Rating                   int
	Feedback                 string
	ResolutionNote           string
	CreatedAt                time.Time
	StartedAt                *time.Time
	LastLivenessSignal       time.Time
	AccumulatedPausedMs      int64
	FinalizedAt              *time.Time
}

// SessionFilter narrows ListSessions results.
type SessionFilter struct {
	Payer    string
	Provider string
	Status   string
	Limit    int
	Offset   int
}

// LedgerStore holds the authoritative session records. The escrow engine is
// the only writer; every other component reads.
type LedgerStore interface {
	CreateSession(ctx context.Context, rec *SessionRecord) error
	GetSession(ctx context.Context, sessionID string) (*SessionRecord, error)
	UpdateSession(ctx context.Context, rec *SessionRecord) error
	ListSessions(ctx context.Context, filter *SessionFilter) ([]*SessionRecord, error)
}

// NonceStore tracks the per-payer creation nonce and the global set of
// consumed session ids. Both only ever grow.
type NonceStore interface {
	CurrentNonce(ctx context.Context, payer string) (uint64, error)
	// Consume atomically increments the payer nonce and marks the session id
	// as used. Fails with ErrDuplicate if the id was consumed before.
	Consume(ctx context.Context, payer string, sessionID string) error
	IDUsed(ctx context.Context, sessionID string) (bool, error)
}

// AllowlistStore is the administratively managed set of accepted assets.
type AllowlistStore interface {
	AddAsset(ctx context.Context, asset string) error
	RemoveAsset(ctx context.Context, asset string) error
	Contains(ctx context.Context, asset string) (bool, error)
	ListAssets(ctx context.Context) ([]string, error)
}
