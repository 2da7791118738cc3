package escrow

import (
	"math/big"
	"time"
)

const bpsDenominator = 10000

// MaxReleasable is the cumulative amount of total that may have been paid to
// the provider after elapsedMinutes of a durationMinutes session:
//
//	min(total*capBps/10000, total*capBps*elapsed/(duration*10000))
//
// capBps bounds how much of the total may leave custody before finalization;
// the band above the cap plus any unreleased remainder settles only at a
// terminal transition. Pure function, no side effects.
func MaxReleasable(total *big.Int, elapsedMinutes, durationMinutes, capBps int64) *big.Int {
	if total == nil || total.Sign() <= 0 || durationMinutes <= 0 || capBps <= 0 {
		return new(big.Int)
	}
	if elapsedMinutes <= 0 {
		return new(big.Int)
	}

	cap := new(big.Int).Mul(total, big.NewInt(capBps))
	cap.Quo(cap, big.NewInt(bpsDenominator))

	linear := new(big.Int).Mul(total, big.NewInt(capBps))
	linear.Mul(linear, big.NewInt(elapsedMinutes))
	linear.Quo(linear, new(big.Int).Mul(big.NewInt(durationMinutes), big.NewInt(bpsDenominator)))

	if linear.Cmp(cap) > 0 {
		return cap
	}
	return linear
}

// FeeSplit divides a settlement remainder into the platform fee and the
// provider share. The fee rounds down; the provider takes the rest.
func FeeSplit(remainder *big.Int, feeBps int64) (fee, providerShare *big.Int) {
	fee = new(big.Int).Mul(remainder, big.NewInt(feeBps))
	fee.Quo(fee, big.NewInt(bpsDenominator))
	providerShare = new(big.Int).Sub(remainder, fee)
	return fee, providerShare
}

// EffectiveElapsed is the active wall-clock time of a session: time since
// start minus accumulated pauses, minus the in-progress pause interval if the
// session is currently paused.
func EffectiveElapsed(s *Session, now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}

	paused := s.AccumulatedPausedDuration
	if s.Paused {
		paused += now.Sub(s.LastLivenessSignal)
	}

	elapsed := now.Sub(s.StartedAt) - paused
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// EffectiveElapsedMinutes floors the effective elapsed time to whole minutes,
// the unit of the release formula.
func EffectiveElapsedMinutes(s *Session, now time.Time) int64 {
	return int64(EffectiveElapsed(s, now) / time.Minute)
}
