package httperrors

import (
	"net/http"

	"github.com/kashguard/go-escrow/internal/escrow"
	"github.com/kashguard/go-escrow/internal/treasury"
	"github.com/pkg/errors"
)

// EngineError maps a named engine rejection to its public payload. The
// detail is always the specific reason, never a generic failure.
func EngineError(err error) *HTTPError {
	switch {
	case errors.Is(err, escrow.ErrSessionNotFound):
		return WrapHTTPError(http.StatusNotFound, TypeNotFound, escrow.ErrSessionNotFound.Error(), err)

	case errors.Is(err, escrow.ErrSessionIDUsed),
		errors.Is(err, escrow.ErrStaleNonce),
		errors.Is(err, escrow.ErrAssetNotAllowed),
		errors.Is(err, escrow.ErrInvalidAmount),
		errors.Is(err, escrow.ErrInvalidDuration),
		errors.Is(err, escrow.ErrSelfDeal),
		errors.Is(err, escrow.ErrMissingProvider),
		errors.Is(err, escrow.ErrInvalidRating),
		errors.Is(err, escrow.ErrInvalidWallet),
		errors.Is(err, escrow.ErrMissingReason),
		errors.Is(err, escrow.ErrUnknownResolution),
		errors.Is(err, escrow.ErrAmountTooLarge):
		return WrapHTTPError(http.StatusBadRequest, TypeValidation, rootMessage(err), err)

	case errors.Is(err, escrow.ErrUnauthorizedCaller):
		return WrapHTTPError(http.StatusForbidden, TypeUnauthorized, escrow.ErrUnauthorizedCaller.Error(), err)

	case errors.Is(err, escrow.ErrInvalidTransition),
		errors.Is(err, escrow.ErrStartWindowElapsed),
		errors.Is(err, escrow.ErrStartWindowOpen),
		errors.Is(err, escrow.ErrNothingToRelease),
		errors.Is(err, escrow.ErrLivenessCurrent),
		errors.Is(err, escrow.ErrAutoReleaseNotDue):
		return WrapHTTPError(http.StatusConflict, TypeStateGuard, rootMessage(err), err)

	case errors.Is(err, escrow.ErrEnginePaused):
		return WrapHTTPError(http.StatusServiceUnavailable, TypeStateGuard, escrow.ErrEnginePaused.Error(), err)

	case errors.Is(err, treasury.ErrInsufficientCustody),
		errors.Is(err, treasury.ErrInvalidTransfer):
		return WrapHTTPError(http.StatusConflict, TypeTransfer, rootMessage(err), err)
	}

	return WrapHTTPError(http.StatusInternalServerError, TypeGeneric, "internal server error", err)
}

// rootMessage unwraps to the sentinel's message so wrapping context stays
// out of public payloads.
func rootMessage(err error) string {
	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			return root.Error()
		}
		root = next
	}
}
