package escrow

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMaxReleasable(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		elapsed  int64
		duration int64
		capBps   int64
		want     int64
	}{
		{"zero elapsed", 1000, 0, 60, 9000, 0},
		{"negative elapsed", 1000, -5, 60, 9000, 0},
		{"halfway", 1000, 30, 60, 9000, 450},
		{"full duration hits cap", 1000, 60, 60, 9000, 900},
		{"overtime stays capped", 1000, 120, 60, 9000, 900},
		{"one minute of sixty", 1000, 1, 60, 9000, 15},
		{"integer division floors", 1001, 1, 3, 9000, 300},
		{"zero duration", 1000, 30, 0, 9000, 0},
		{"zero cap", 1000, 30, 60, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxReleasable(big.NewInt(tt.total), tt.elapsed, tt.duration, tt.capBps)
			assert.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestMaxReleasableNilTotal(t *testing.T) {
	got := MaxReleasable(nil, 30, 60, 9000)
	assert.Zero(t, got.Sign())
}

func TestMaxReleasableNeverExceedsCap(t *testing.T) {
	total := big.NewInt(1_000_000_000)
	cap := MaxReleasable(total, 1<<40, 60, 9000)

	prev := new(big.Int)
	for elapsed := int64(0); elapsed <= 90; elapsed += 5 {
		got := MaxReleasable(total, elapsed, 60, 9000)
		// Cumulative maximum is monotone and bounded by the cap.
		assert.True(t, got.Cmp(prev) >= 0, "elapsed=%d", elapsed)
		assert.True(t, got.Cmp(cap) <= 0, "elapsed=%d", elapsed)
		prev = got
	}
}

func TestFeeSplit(t *testing.T) {
	fee, provider := FeeSplit(big.NewInt(100), 1000)
	assert.Equal(t, int64(10), fee.Int64())
	assert.Equal(t, int64(90), provider.Int64())

	// Fee rounds down; the provider takes the rest.
	fee, provider = FeeSplit(big.NewInt(5), 1000)
	assert.Equal(t, int64(0), fee.Int64())
	assert.Equal(t, int64(5), provider.Int64())

	fee, provider = FeeSplit(big.NewInt(0), 1000)
	assert.Equal(t, int64(0), fee.Int64())
	assert.Equal(t, int64(0), provider.Int64())
}

func TestEffectiveElapsed(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("not started", func(t *testing.T) {
		s := &Session{}
		assert.Equal(t, time.Duration(0), EffectiveElapsed(s, base))
	})

	t.Run("no pauses", func(t *testing.T) {
		s := &Session{StartedAt: base}
		assert.Equal(t, 45*time.Minute, EffectiveElapsed(s, base.Add(45*time.Minute)))
	})

	t.Run("accumulated pauses subtracted", func(t *testing.T) {
		s := &Session{
			StartedAt:                 base,
			AccumulatedPausedDuration: 30 * time.Minute,
		}
		assert.Equal(t, 40*time.Minute, EffectiveElapsed(s, base.Add(70*time.Minute)))
	})

	t.Run("in-progress pause counts from last liveness signal", func(t *testing.T) {
		s := &Session{
			StartedAt:          base,
			Paused:             true,
			LastLivenessSignal: base.Add(20 * time.Minute),
		}
		assert.Equal(t, 20*time.Minute, EffectiveElapsed(s, base.Add(50*time.Minute)))
	})

	t.Run("clamped at zero", func(t *testing.T) {
		s := &Session{
			StartedAt:                 base,
			AccumulatedPausedDuration: 2 * time.Hour,
		}
		assert.Equal(t, time.Duration(0), EffectiveElapsed(s, base.Add(time.Hour)))
	})
}

func TestEffectiveElapsedMinutesFloors(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{StartedAt: base}
	assert.Equal(t, int64(1), EffectiveElapsedMinutes(s, base.Add(90*time.Second)))
	assert.Equal(t, int64(0), EffectiveElapsedMinutes(s, base.Add(59*time.Second)))
}
