package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, payer, status string, createdAt time.Time) *SessionRecord {
	return &SessionRecord{
		SessionID:                id,
		Payer:                    payer,
		Provider:                 "prov",
		Asset:                    "0x00000000000000000000000000000000000000aa",
		TotalAmount:              "1000",
		ReleasedAmount:           "0",
		RefundedAmount:           "0",
		PlatformFee:              "0",
		ScheduledDurationMinutes: 60,
		Status:                   status,
		CreatedAt:                createdAt,
		LastLivenessSignal:       createdAt,
	}
}

func TestMemoryStoreSessionCRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	rec := record("sess-1", "alice", "created", now)
	require.NoError(t, s.CreateSession(ctx, rec))

	// Duplicate id is rejected.
	require.ErrorIs(t, s.CreateSession(ctx, rec), ErrDuplicate)

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Payer)

	// The store hands out copies; mutating them must not leak back.
	got.Status = "active"
	again, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "created", again.Status)

	got.ReleasedAmount = "450"
	require.NoError(t, s.UpdateSession(ctx, got))
	updated, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "450", updated.ReleasedAmount)
	assert.Equal(t, "active", updated.Status)

	_, err = s.GetSession(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.UpdateSession(ctx, record("missing", "x", "created", now)), ErrNotFound)
}

func TestMemoryStoreListSessions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, s.CreateSession(ctx, record("sess-a", "alice", "created", base)))
	require.NoError(t, s.CreateSession(ctx, record("sess-b", "alice", "active", base.Add(time.Second))))
	require.NoError(t, s.CreateSession(ctx, record("sess-c", "bob", "created", base.Add(2*time.Second))))

	all, err := s.ListSessions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by creation time.
	assert.Equal(t, "sess-a", all[0].SessionID)
	assert.Equal(t, "sess-c", all[2].SessionID)

	alice, err := s.ListSessions(ctx, &SessionFilter{Payer: "alice"})
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	created, err := s.ListSessions(ctx, &SessionFilter{Status: "created"})
	require.NoError(t, err)
	assert.Len(t, created, 2)

	paged, err := s.ListSessions(ctx, &SessionFilter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "sess-b", paged[0].SessionID)

	empty, err := s.ListSessions(ctx, &SessionFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStoreNonces(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	nonce, err := s.CurrentNonce(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)

	require.NoError(t, s.Consume(ctx, "alice", "sess-1"))

	nonce, err = s.CurrentNonce(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	used, err := s.IDUsed(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, used)

	// A consumed id stays consumed, even for another payer.
	require.ErrorIs(t, s.Consume(ctx, "bob", "sess-1"), ErrDuplicate)
	nonce, err = s.CurrentNonce(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)
}

func TestMemoryStoreAllowlist(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := s.Contains(ctx, "0xaa")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AddAsset(ctx, "0xbb"))
	require.NoError(t, s.AddAsset(ctx, "0xaa"))

	ok, err = s.Contains(ctx, "0xaa")
	require.NoError(t, err)
	assert.True(t, ok)

	assets, err := s.ListAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xaa", "0xbb"}, assets)

	require.NoError(t, s.RemoveAsset(ctx, "0xaa"))
	ok, err = s.Contains(ctx, "0xaa")
	require.NoError(t, err)
	assert.False(t, ok)
}
