package escrow

import "time"

// Session is the public view of a session record as returned by the API.
type Session struct {
	SessionID                string     `json:"session_id"`
	Payer                    string     `json:"payer"`
	Provider                 string     `json:"provider"`
	Asset                    string     `json:"asset"`
	TotalAmount              string     `json:"total_amount"`
	ReleasedAmount           string     `json:"released_amount"`
	RefundedAmount           string     `json:"refunded_amount"`
	PlatformFee              string     `json:"platform_fee"`
	ScheduledDurationMinutes int64      `json:"scheduled_duration_minutes"`
	Status                   string     `json:"status"`
	Active                   bool       `json:"active"`
	Paused                   bool       `json:"paused"`
	SurveyCompleted          bool       `json:"survey_completed"`
	Rating                   int        `json:"rating,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	StartedAt                *time.Time `json:"started_at,omitempty"`
	LastLivenessSignal       time.Time  `json:"last_liveness_signal"`
	AccumulatedPausedSeconds int64      `json:"accumulated_paused_seconds"`
	FinalizedAt              *time.Time `json:"finalized_at,omitempty"`
}

// AvailablePayment reports what a release call would move now.
type AvailablePayment struct {
	SessionID      string `json:"session_id"`
	Amount         string `json:"amount"`
	ElapsedMinutes int64  `json:"elapsed_minutes"`
}

// Liveness reports the heartbeat guard state of a session.
type Liveness struct {
	SessionID       string `json:"session_id"`
	NeedsHeartbeat  bool   `json:"needs_heartbeat"`
	ShouldAutoPause bool   `json:"should_auto_pause"`
}

// Nonce reports a payer's next expected creation nonce.
type Nonce struct {
	Payer string `json:"payer"`
	Nonce uint64 `json:"nonce"`
}

// AssetSupport reports allowlist membership of one asset.
type AssetSupport struct {
	Asset     string `json:"asset"`
	Supported bool   `json:"supported"`
}

type createSessionRequest struct {
	SessionID       string `json:"session_id"`
	Provider        string `json:"provider"`
	Asset           string `json:"asset"`
	Amount          string `json:"amount"`
	DurationMinutes int64  `json:"duration_minutes"`
	PayerNonce      uint64 `json:"payer_nonce"`
}

type completeSessionRequest struct {
	Rating   int64  `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}
