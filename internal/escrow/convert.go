package escrow

import (
	"math/big"
	"time"

	"github.com/kashguard/go-escrow/internal/storage"
	"github.com/pkg/errors"
)

func parseAmount(value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, errors.Errorf("malformed amount in ledger record: %q", value)
	}
	return amount, nil
}

func sessionFromRecord(rec *storage.SessionRecord) (*Session, error) {
	total, err := parseAmount(rec.TotalAmount)
	if err != nil {
		return nil, err
	}
	released, err := parseAmount(rec.ReleasedAmount)
	if err != nil {
		return nil, err
	}
	refunded, err := parseAmount(rec.RefundedAmount)
	if err != nil {
		return nil, err
	}
	fee, err := parseAmount(rec.PlatformFee)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:                       rec.SessionID,
		Payer:                    rec.Payer,
		Provider:                 rec.Provider,
		Asset:                    rec.Asset,
		TotalAmount:              total,
		ReleasedAmount:           released,
		RefundedAmount:           refunded,
		PlatformFee:              fee,
		ScheduledDurationMinutes: rec.ScheduledDurationMinutes,
		Status:                   Status(rec.Status),
		Active:                   rec.Active,
		Paused:                   rec.Paused,
		SurveyCompleted:          rec.SurveyCompleted,
		Rating:                   rec.Rating,
		Feedback:                 rec.Feedback,
		ResolutionNote:           rec.ResolutionNote,
		CreatedAt:                rec.CreatedAt,
		LastLivenessSignal:       rec.LastLivenessSignal,
		AccumulatedPausedDuration: time.Duration(rec.AccumulatedPausedMs) *
			time.Millisecond,
	}
	if rec.StartedAt != nil {
		s.StartedAt = *rec.StartedAt
	}
	if rec.FinalizedAt != nil {
		s.FinalizedAt = *rec.FinalizedAt
	}
	return s, nil
}

func recordFromSession(s *Session) *storage.SessionRecord {
	rec := &storage.SessionRecord{
		SessionID:                s.ID,
		Payer:                    s.Payer,
		Provider:                 s.Provider,
		Asset:                    s.Asset,
		TotalAmount:              s.TotalAmount.String(),
		ReleasedAmount:           s.ReleasedAmount.String(),
		RefundedAmount:           s.RefundedAmount.String(),
		PlatformFee:              s.PlatformFee.String(),
		ScheduledDurationMinutes: s.ScheduledDurationMinutes,
		Status:                   string(s.Status),
		Active:                   s.Active,
		Paused:                   s.Paused,
		SurveyCompleted:          s.SurveyCompleted,
		Rating:                   s.Rating,
		Feedback:                 s.Feedback,
		ResolutionNote:           s.ResolutionNote,
		CreatedAt:                s.CreatedAt,
		LastLivenessSignal:       s.LastLivenessSignal,
		AccumulatedPausedMs:      s.AccumulatedPausedDuration.Milliseconds(),
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		rec.StartedAt = &t
	}
	if !s.FinalizedAt.IsZero() {
		t := s.FinalizedAt
		rec.FinalizedAt = &t
	}
	return rec
}
