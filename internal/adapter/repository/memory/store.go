// Package memory is a single-process implementation of the usecase
// repositories. Transactions are serialised store-wide: Begin takes an
// exclusive lock and works on a private snapshot that Commit publishes.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// ErrTxClosed is returned when a finished transaction is used again.
var ErrTxClosed = errors.New("memory: transaction already closed")

type state struct {
	accounts       map[string]domain.Account
	listings       map[string]domain.Listing
	participations map[string]domain.Participation
	entries        []domain.LedgerEntry
	transfers      []domain.Transfer
	outbox         []domain.OutboxEvent
	nextEntryID    int64
}

func newState() *state {
	return &state{
		accounts:       make(map[string]domain.Account),
		listings:       make(map[string]domain.Listing),
		participations: make(map[string]domain.Participation),
	}
}

func (s *state) clone() *state {
	c := &state{
		accounts:       make(map[string]domain.Account, len(s.accounts)),
		listings:       make(map[string]domain.Listing, len(s.listings)),
		participations: make(map[string]domain.Participation, len(s.participations)),
		entries:        append([]domain.LedgerEntry(nil), s.entries...),
		transfers:      append([]domain.Transfer(nil), s.transfers...),
		outbox:         append([]domain.OutboxEvent(nil), s.outbox...),
		nextEntryID:    s.nextEntryID,
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.participations {
		c.participations[k] = v
	}
	return c
}

// Store holds all data of the in-memory backend.
type Store struct {
	sem  chan struct{}
	mu   sync.RWMutex
	data *state
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sem:  make(chan struct{}, 1),
		data: newState(),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.sem
}

// view runs fn against committed data.
func (s *Store) view(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// update mutates committed data outside any transaction. It waits for the
// running transaction, if any, to finish.
func (s *Store) update(ctx context.Context, fn func(st *state) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin blocks until no other transaction is running, then snapshots the
// committed data.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := m.store.acquire(ctx); err != nil {
		return nil, err
	}

	m.store.mu.RLock()
	snapshot := m.store.data.clone()
	m.store.mu.RUnlock()

	return &Tx{store: m.store, state: snapshot}, nil
}

// Tx is an in-memory transaction.
type Tx struct {
	store *Store
	state *state
	done  bool
}

// Commit publishes the transaction's snapshot.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}

	t.store.mu.Lock()
	t.store.data = t.state
	t.store.mu.Unlock()

	t.done = true
	t.store.release()
	return nil
}

// Rollback discards the snapshot. Rolling back a finished transaction is a
// no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.release()
	return nil
}

func stateOf(tx usecase.Transaction) (*state, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, errors.New("memory: foreign transaction")
	}
	if t.done {
		return nil, ErrTxClosed
	}
	return t.state, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
