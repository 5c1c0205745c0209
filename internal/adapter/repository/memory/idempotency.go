package memory

import (
	"context"
	"sync"
	"time"
)

const processingMarker = "processing"

type idempotencyRecord struct {
	value     []byte
	expiresAt time.Time
}

// IdempotencyStore implements usecase.IdempotencyStore in process memory for
// STORAGE_DRIVER=memory. It follows the redis store's claim semantics.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]idempotencyRecord
	now     func() time.Time
}

// NewIdempotencyStore creates an empty IdempotencyStore.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: make(map[string]idempotencyRecord),
		now:     time.Now,
	}
}

// CheckAndSet claims key unless a live record exists, in which case the
// stored value is returned.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if rec, ok := s.records[key]; ok && now.Before(rec.expiresAt) {
		return true, append([]byte(nil), rec.value...), nil
	}

	value := []byte(processingMarker)
	if response != nil {
		value = append([]byte(nil), response...)
	}
	s.records[key] = idempotencyRecord{value: value, expiresAt: now.Add(ttl)}

	return false, nil, nil
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = idempotencyRecord{
		value:     append([]byte(nil), response...),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Release drops a claim.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}
