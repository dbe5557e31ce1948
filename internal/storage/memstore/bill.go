// Package memstore is an in-memory BillStore used by tests and local
// development. It is an explicit handle constructed by the caller; there is
// no package-level state.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"legispulse/internal/domain"
)

type BillStore struct {
	mu    sync.RWMutex
	bills map[string]domain.Bill // keyed by internal id
	seq   int64
}

func NewBillStore() *BillStore {
	return &BillStore{bills: make(map[string]domain.Bill)}
}

func (s *BillStore) List(ctx context.Context) ([]domain.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Bill, 0, len(s.bills))
	for _, b := range s.bills {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BillNumber < out[j].BillNumber
	})
	return out, nil
}

func (s *BillStore) GetExistingByNumbers(ctx context.Context, numbers []string) (map[string]domain.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		wanted[n] = true
	}

	result := make(map[string]domain.Bill)
	for _, b := range s.bills {
		if wanted[b.BillNumber] {
			result[b.BillNumber] = b
		}
	}
	return result, nil
}

func (s *BillStore) Upsert(ctx context.Context, bill *domain.Bill) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, existing := range s.bills {
		if existing.BillNumber == bill.BillNumber && existing.SessionYear == bill.SessionYear {
			bill.ID = id
			bill.CreatedAt = existing.CreatedAt
			bill.UpdatedAt = now
			// Sync refresh must not wipe AI analysis.
			if bill.Summary == nil {
				bill.Summary = existing.Summary
			}
			if bill.ChangesAnalysis == nil {
				bill.ChangesAnalysis = existing.ChangesAnalysis
			}
			if bill.PDFURL == nil {
				bill.PDFURL = existing.PDFURL
			}
			s.bills[id] = *bill
			return id, false, nil
		}
	}

	if bill.ID == "" {
		s.seq++
		bill.ID = fmt.Sprintf("bill-%d", s.seq)
	}
	bill.CreatedAt = now
	bill.UpdatedAt = now
	s.bills[bill.ID] = *bill
	return bill.ID, true, nil
}

func (s *BillStore) ReplaceAll(ctx context.Context, bills []domain.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bills = make(map[string]domain.Bill, len(bills))
	now := time.Now()
	for i := range bills {
		b := bills[i]
		if b.ID == "" {
			s.seq++
			b.ID = fmt.Sprintf("bill-%d", s.seq)
		}
		b.CreatedAt = now
		b.UpdatedAt = now
		s.bills[b.ID] = b
	}
	return nil
}

func (s *BillStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bills = make(map[string]domain.Bill)
	return nil
}

func (s *BillStore) UpdateSummary(ctx context.Context, billID string, shortSummary, changesAnalysis string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, ok := s.bills[billID]
	if !ok {
		return fmt.Errorf("bill %s not found", billID)
	}
	bill.Summary = &shortSummary
	bill.ChangesAnalysis = &changesAnalysis
	bill.UpdatedAt = time.Now()
	s.bills[billID] = bill
	return nil
}
