package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore is an in-process implementation of all three store interfaces.
// Used by tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionRecord
	nonces   map[string]uint64
	usedIDs  map[string]struct{}
	assets   map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*SessionRecord),
		nonces:   make(map[string]uint64),
		usedIDs:  make(map[string]struct{}),
		assets:   make(map[string]struct{}),
	}
}

func cloneRecord(rec *SessionRecord) *SessionRecord {
	out := *rec
	if rec.StartedAt != nil {
		t := *rec.StartedAt
		out.StartedAt = &t
	}
	if rec.FinalizedAt != nil {
		t := *rec.FinalizedAt
		out.FinalizedAt = &t
	}
	return &out
}

// CreateSession stores a new record, failing if the id is taken.
func (s *MemoryStore) CreateSession(_ context.Context, rec *SessionRecord) error {
	if rec == nil || rec.SessionID == "" {
		return errors.New("session record missing id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[rec.SessionID]; ok {
		return errors.Wrap(ErrDuplicate, rec.SessionID)
	}
	s.sessions[rec.SessionID] = cloneRecord(rec)
	return nil
}

// GetSession returns a copy of the stored record.
func (s *MemoryStore) GetSession(_ context.Context, sessionID string) (*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, sessionID)
	}
	return cloneRecord(rec), nil
}

// UpdateSession overwrites an existing record.
func (s *MemoryStore) UpdateSession(_ context.Context, rec *SessionRecord) error {
	if rec == nil || rec.SessionID == "" {
		return errors.New("session record missing id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[rec.SessionID]; !ok {
		return errors.Wrap(ErrNotFound, rec.SessionID)
	}
	s.sessions[rec.SessionID] = cloneRecord(rec)
	return nil
}

// ListSessions returns records matching the filter, ordered by creation time.
func (s *MemoryStore) ListSessions(_ context.Context, filter *SessionFilter) ([]*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*SessionRecord
	for _, rec := range s.sessions {
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
		out = append(out, cloneRecord(rec))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(out) {
				return nil, nil
			}
			out = out[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(out) {
			out = out[:filter.Limit]
		}
	}
	return out, nil
}

// CurrentNonce returns the payer's next expected creation nonce.
func (s *MemoryStore) CurrentNonce(_ context.Context, payer string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nonces[payer], nil
}

// Consume increments the payer nonce and permanently marks the id used.
func (s *MemoryStore) Consume(_ context.Context, payer string, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usedIDs[sessionID]; ok {
		return errors.Wrap(ErrDuplicate, sessionID)
	}
	s.usedIDs[sessionID] = struct{}{}
	s.nonces[payer]++
	return nil
}

// IDUsed reports whether a session id has ever been consumed.
func (s *MemoryStore) IDUsed(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.usedIDs[sessionID]
	return ok, nil
}

// AddAsset adds an asset to the allowlist.
func (s *MemoryStore) AddAsset(_ context.Context, asset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[asset] = struct{}{}
	return nil
}

// RemoveAsset removes an asset from the allowlist.
func (s *MemoryStore) RemoveAsset(_ context.Context, asset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, asset)
	return nil
}

// Contains reports whether the asset is currently allowlisted.
func (s *MemoryStore) Contains(_ context.Context, asset string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.assets[asset]
	return ok, nil
}

// ListAssets returns the allowlisted assets in stable order.
func (s *MemoryStore) ListAssets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.assets))
	for asset := range s.assets {
		out = append(out, asset)
	}
	sort.Strings(out)
	return out, nil
}
