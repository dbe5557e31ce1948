package memstore

import (
	"context"
	"sync"

	"legispulse/internal/domain"
)

type SyncStateStore struct {
	mu     sync.Mutex
	states map[string]domain.SyncState
}

func NewSyncStateStore() *SyncStateStore {
	return &SyncStateStore{states: make(map[string]domain.SyncState)}
}

func (s *SyncStateStore) Get(ctx context.Context, sourceID string) (*domain.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.states[sourceID]; ok {
		copied := state
		return &copied, nil
	}
	return &domain.SyncState{SourceID: sourceID}, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.SourceID] = *state
	return nil
}

// TxManager is the in-memory stand-in for a database transaction: the
// function just runs. BillStore writes are individually atomic already.
type TxManager struct{}

func (TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
