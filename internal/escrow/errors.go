package escrow

import "github.com/pkg/errors"

// Every rejected call surfaces one of these named reasons so the external UI
// can render an accurate message. Nothing in the engine retries.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionIDUsed      = errors.New("session id already used")
	ErrStaleNonce         = errors.New("stale payer nonce")
	ErrAssetNotAllowed    = errors.New("asset not allowlisted")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidDuration    = errors.New("duration must be positive")
	ErrSelfDeal           = errors.New("payer cannot be its own provider")
	ErrMissingProvider    = errors.New("provider principal is required")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrUnauthorizedCaller = errors.New("unauthorized caller")
	ErrStartWindowElapsed = errors.New("start window elapsed")
	ErrStartWindowOpen    = errors.New("start window still open")
	ErrNothingToRelease   = errors.New("nothing available to release")
	ErrLivenessCurrent    = errors.New("liveness signal still current")
	ErrAutoReleaseNotDue  = errors.New("auto release delay not reached")
	ErrInvalidRating      = errors.New("rating out of range")
	ErrEnginePaused       = errors.New("engine is paused")
	ErrInvalidWallet      = errors.New("malformed wallet address")
	ErrMissingReason      = errors.New("reason is required")
	ErrUnknownResolution  = errors.New("unknown resolution code")
	ErrAmountTooLarge     = errors.New("amount exceeds unreleased balance")
)
