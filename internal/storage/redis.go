package storage

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "escrow:session:"
	nonceKeyPrefix   = "escrow:nonce:"
	usedIDKeyPrefix  = "escrow:used:"
	allowlistKey     = "escrow:assets"
	sessionIndexKey  = "escrow:sessions"
)

// RedisStore implements the ledger, nonce and allowlist stores on Redis.
// Session records are stored as JSON under a key prefix; the used-id set and
// the asset allowlist are plain sets.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// CreateSession writes a new record, failing if the id is taken.
func (s *RedisStore) CreateSession(ctx context.Context, rec *SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}

	key := sessionKeyPrefix + rec.SessionID
	ok, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return errors.Wrap(err, "failed to create session")
	}
	if !ok {
		return errors.Wrap(ErrDuplicate, rec.SessionID)
	}

	if err := s.client.SAdd(ctx, sessionIndexKey, rec.SessionID).Err(); err != nil {
		return errors.Wrap(err, "failed to index session")
	}
	return nil
}

// GetSession loads a record by id.
func (s *RedisStore) GetSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.Wrap(ErrNotFound, sessionID)
		}
		return nil, errors.Wrap(err, "failed to get session")
	}

	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session")
	}
	return &rec, nil
}

// UpdateSession overwrites an existing record.
func (s *RedisStore) UpdateSession(ctx context.Context, rec *SessionRecord) error {
	key := sessionKeyPrefix + rec.SessionID
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return errors.Wrap(err, "failed to check session")
	}
	if exists == 0 {
		return errors.Wrap(ErrNotFound, rec.SessionID)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to update session")
	}
	return nil
}

// ListSessions scans the session index and filters client-side. The index
// stays small enough for the admin/read surface this backs.
func (s *RedisStore) ListSessions(ctx context.Context, filter *SessionFilter) ([]*SessionRecord, error) {
	ids, err := s.client.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list session ids")
	}

	var out []*SessionRecord
	for _, id := range ids {
		rec, err := s.GetSession(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if filter != nil {
			if filter.Payer != "" && rec.Payer != filter.Payer {
				continue
			}
			if filter.Provider != "" && rec.Provider != filter.Provider {
				continue
			}
			if filter.Status != "" && rec.Status != filter.Status {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// CurrentNonce returns the payer's next expected creation nonce.
func (s *RedisStore) CurrentNonce(ctx context.Context, payer string) (uint64, error) {
	val, err := s.client.Get(ctx, nonceKeyPrefix+payer).Uint64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to get nonce")
	}
	return val, nil
}

// Consume marks the session id used and increments the payer nonce. The
// used-id insert is the atomic guard; the increment follows only if it won.
func (s *RedisStore) Consume(ctx context.Context, payer string, sessionID string) error {
	ok, err := s.client.SetNX(ctx, usedIDKeyPrefix+sessionID, "1", 0).Result()
	if err != nil {
		return errors.Wrap(err, "failed to mark session id used")
	}
	if !ok {
		return errors.Wrap(ErrDuplicate, sessionID)
	}

	if err := s.client.Incr(ctx, nonceKeyPrefix+payer).Err(); err != nil {
		return errors.Wrap(err, "failed to increment nonce")
	}
	return nil
}

// IDUsed reports whether a session id has ever been consumed.
func (s *RedisStore) IDUsed(ctx context.Context, sessionID string) (bool, error) {
	exists, err := s.client.Exists(ctx, usedIDKeyPrefix+sessionID).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check session id")
	}
	return exists > 0, nil
}

// AddAsset adds an asset to the allowlist set.
func (s *RedisStore) AddAsset(ctx context.Context, asset string) error {
	if err := s.client.SAdd(ctx, allowlistKey, asset).Err(); err != nil {
		return errors.Wrap(err, "failed to add asset")
	}
	return nil
}

// RemoveAsset removes an asset from the allowlist set.
func (s *RedisStore) RemoveAsset(ctx context.Context, asset string) error {
	if err := s.client.SRem(ctx, allowlistKey, asset).Err(); err != nil {
		return errors.Wrap(err, "failed to remove asset")
	}
	return nil
}

// Contains reports whether the asset is allowlisted.
func (s *RedisStore) Contains(ctx context.Context, asset string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, allowlistKey, asset).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check asset")
	}
	return ok, nil
}

// ListAssets returns all allowlisted assets.
func (s *RedisStore) ListAssets(ctx context.Context) ([]string, error) {
	assets, err := s.client.SMembers(ctx, allowlistKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assets")
	}
	return assets, nil
}
