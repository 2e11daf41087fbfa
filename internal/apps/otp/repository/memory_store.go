package repository

import (
	"context"
	"sync"
	"time"

	"inventory-backend/internal/apps/otp/models"
	"inventory-backend/pkg/secure"

	"github.com/cespare/xxhash/v2"
)

// DefaultShards is used when a non-positive shard count is requested
const DefaultShards = 32

type shard struct {
	mu      sync.Mutex
	entries map[string]models.Entry
}

// memoryStore keeps entries in process memory, spread over mutex-guarded shards
type memoryStore struct {
	shards []*shard
}

// NewMemoryStore creates an in-process Store with the given number of shards
func NewMemoryStore(shards int) Store {
	if shards <= 0 {
		shards = DefaultShards
	}
	s := &memoryStore{shards: make([]*shard, shards)}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]models.Entry)}
	}
	return s
}

func (s *memoryStore) shardFor(identifier string) *shard {
	return s.shards[xxhash.Sum64String(identifier)%uint64(len(s.shards))]
}

// Put stores entry, replacing the previous one for its identifier
func (s *memoryStore) Put(_ context.Context, entry models.Entry, _ time.Duration) error {
	sh := s.shardFor(entry.Identifier)
	sh.mu.Lock()
	sh.entries[entry.Identifier] = entry
	sh.mu.Unlock()
	return nil
}

// Consume runs the check-and-delete under the identifier's shard lock
func (s *memoryStore) Consume(_ context.Context, identifier, code string, now time.Time, window time.Duration) (models.Outcome, error) {
	sh := s.shardFor(identifier)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[identifier]
	if !ok {
		return models.OutcomeNotFound, nil
	}
	if entry.Expired(now, window) {
		delete(sh.entries, identifier)
		return models.OutcomeExpired, nil
	}
	if !secure.EqualStrings(entry.Code, code) {
		return models.OutcomeMismatch, nil
	}
	delete(sh.entries, identifier)
	return models.OutcomeSuccess, nil
}

// Sweep removes entries issued before cutoff, one shard at a time
func (s *memoryStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	for _, sh := range s.shards {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		sh.mu.Lock()
		for id, entry := range sh.entries {
			if entry.IssuedAt.Before(cutoff) {
				delete(sh.entries, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}
