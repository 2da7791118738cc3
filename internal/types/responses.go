package types

import (
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/kashguard/go-escrow/internal/escrow"
)

// SessionResponse is the public view of a session record.
type SessionResponse struct {
	SessionID                *string          `json:"session_id"`
	Payer                    *string          `json:"payer"`
	Provider                 *string          `json:"provider"`
	Asset                    *string          `json:"asset"`
	TotalAmount              *string          `json:"total_amount"`
	ReleasedAmount           *string          `json:"released_amount"`
	RefundedAmount           *string          `json:"refunded_amount"`
	PlatformFee              *string          `json:"platform_fee"`
	ScheduledDurationMinutes int64            `json:"scheduled_duration_minutes"`
	Status                   *string          `json:"status"`
	Active                   bool             `json:"active"`
	Paused                   bool             `json:"paused"`
	SurveyCompleted          bool             `json:"survey_completed"`
	Rating                   int              `json:"rating,omitempty"`
	CreatedAt                strfmt.DateTime  `json:"created_at"`
	StartedAt                *strfmt.DateTime `json:"started_at,omitempty"`
	LastLivenessSignal       strfmt.DateTime  `json:"last_liveness_signal"`
	AccumulatedPausedSeconds int64            `json:"accumulated_paused_seconds"`
	FinalizedAt              *strfmt.DateTime `json:"finalized_at,omitempty"`
}

// NewSessionResponse maps an engine session to its public view.
func NewSessionResponse(s *escrow.Session) *SessionResponse {
	resp := &SessionResponse{
		SessionID:                swag.String(s.ID),
		Payer:                    swag.String(s.Payer),
		Provider:                 swag.String(s.Provider),
		Asset:                    swag.String(s.Asset),
		TotalAmount:              swag.String(s.TotalAmount.String()),
		ReleasedAmount:           swag.String(s.ReleasedAmount.String()),
		RefundedAmount:           swag.String(s.RefundedAmount.String()),
		PlatformFee:              swag.String(s.PlatformFee.String()),
		ScheduledDurationMinutes: s.ScheduledDurationMinutes,
		Status:                   swag.String(string(s.Status)),
		Active:                   s.Active,
		Paused:                   s.Paused,
		SurveyCompleted:          s.SurveyCompleted,
		Rating:                   s.Rating,
		CreatedAt:                strfmt.DateTime(s.CreatedAt),
		LastLivenessSignal:       strfmt.DateTime(s.LastLivenessSignal),
		AccumulatedPausedSeconds: int64(s.AccumulatedPausedDuration.Seconds()),
	}
	if !s.StartedAt.IsZero() {
		t := strfmt.DateTime(s.StartedAt)
		resp.StartedAt = &t
	}
	if !s.FinalizedAt.IsZero() {
		t := strfmt.DateTime(s.FinalizedAt)
		resp.FinalizedAt = &t
	}
	return resp
}

// AvailablePaymentResponse reports what a release call would move now.
type AvailablePaymentResponse struct {
	SessionID      *string `json:"session_id"`
	Amount         *string `json:"amount"`
	ElapsedMinutes int64   `json:"elapsed_minutes"`
}

// LivenessResponse reports the heartbeat guard state of a session.
type LivenessResponse struct {
	SessionID       *string `json:"session_id"`
	NeedsHeartbeat  bool    `json:"needs_heartbeat"`
	ShouldAutoPause bool    `json:"should_auto_pause"`
}

// NonceResponse reports a payer's next expected creation nonce.
type NonceResponse struct {
	Payer *string `json:"payer"`
	Nonce uint64  `json:"nonce"`
}

// AssetSupportedResponse reports allowlist membership.
type AssetSupportedResponse struct {
	Asset     *string `json:"asset"`
	Supported bool    `json:"supported"`
}

// AssetListResponse lists the allowlisted assets.
type AssetListResponse struct {
	Assets []string `json:"assets"`
}
