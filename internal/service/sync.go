package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"legispulse/internal/config"
	"legispulse/internal/domain"
)

type SyncService struct {
	source    Source
	bills     BillStore
	syncState SyncStateStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.SyncConfig
}

func NewSyncService(
	source Source,
	bills BillStore,
	syncState SyncStateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:    source,
		bills:     bills,
		syncState: syncState,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
		config:    cfg,
	}
}

// Sync runs a full sync against the default session.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	return s.SyncSession(ctx, 0)
}

// SyncSession fetches the session's master bill list, normalizes every
// entry, enriches sponsor data for the highest-numbered bills lacking it,
// and reconciles the result against the store. Each bill write is
// independent; there is no partial-failure rollback.
func (s *SyncService) SyncSession(ctx context.Context, sessionID int64) (*domain.SyncStats, error) {
	startTime := time.Now()

	if sessionID == 0 {
		resolved, err := s.source.ResolveSessionID(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve session: %w", err)
		}
		sessionID = resolved
	}

	s.logger.Info("starting sync",
		"source_name", s.source.Name(),
		"session_id", sessionID,
		"enrich_limit", s.config.EnrichLimit,
		"enrich_batch_size", s.config.EnrichBatchSize,
	)

	fetched, err := s.source.FetchMasterList(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch master list: %w", err)
	}

	s.logger.Info("fetched bills from source", "count", len(fetched))

	stats := &domain.SyncStats{
		SessionID: sessionID,
		Fetched:   len(fetched),
	}

	s.enrichSponsors(ctx, fetched, stats)

	stored, err := s.bills.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored bills: %w", err)
	}

	if s.shouldRebuild(stored, fetched) {
		s.logger.Warn("chamber distribution diverged, rebuilding bill store",
			"stored", len(stored),
			"fetched", len(fetched),
		)
		if err := s.bills.ReplaceAll(ctx, fetched); err != nil {
			return nil, fmt.Errorf("replace bills: %w", err)
		}
		stats.Rebuilt = true
		stats.New = len(fetched)
	} else {
		s.reconcile(ctx, fetched, stats)
	}

	if err := s.updateSyncState(ctx, sessionID, stats); err != nil {
		return stats, fmt.Errorf("update sync state: %w", err)
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("sync completed",
		"new", stats.New,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"enriched", stats.Enriched,
		"enrich_errors", stats.EnrichErrors,
		"published", stats.Published,
		"errors", stats.Errors,
		"rebuilt", stats.Rebuilt,
		"duration", stats.Duration,
	)

	return stats, nil
}

// enrichSponsors fills in sponsor data for up to EnrichLimit of the
// highest-numbered bills missing it, fetching details in batches of
// EnrichBatchSize concurrent requests. Enrichment is best-effort: a failed
// detail fetch is logged and skipped, never aborting the batch or the sync.
func (s *SyncService) enrichSponsors(ctx context.Context, bills []domain.Bill, stats *domain.SyncStats) {
	var candidates []int
	for i := range bills {
		if len(bills[i].Sponsors) == 0 && bills[i].LegiScanID != nil {
			candidates = append(candidates, i)
		}
	}

	// Highest bill numbers first: the newest filings are the ones most
	// likely to still be missing sponsor data upstream.
	sort.Slice(candidates, func(a, b int) bool {
		return billOrdinal(bills[candidates[a]].BillNumber) > billOrdinal(bills[candidates[b]].BillNumber)
	})
	if len(candidates) > s.config.EnrichLimit {
		candidates = candidates[:s.config.EnrichLimit]
	}
	if len(candidates) == 0 {
		return
	}

	s.logger.Info("enriching sponsor data", "count", len(candidates))

	batchSize := s.config.EnrichBatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		for _, idx := range candidates[start:end] {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()

				bill := &bills[idx]
				detail, err := s.source.FetchBillDetail(ctx, *bill.LegiScanID)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					stats.EnrichErrors++
					s.logger.Warn("sponsor enrichment failed",
						"bill_number", bill.BillNumber,
						"error", err,
					)
					return
				}
				if len(detail.Bill.Sponsors) == 0 {
					return
				}
				bill.Sponsor = detail.Bill.Sponsor
				bill.Sponsors = detail.Bill.Sponsors
				bill.CoSponsors = detail.Bill.CoSponsors
				stats.Enriched++
			}(idx)
		}
		wg.Wait()

		if ctx.Err() != nil {
			return
		}
	}
}

// shouldRebuild reports whether the fetched dataset's chamber distribution
// diverges sharply from the stored one. Guards against a stale or
// misclassified stored dataset silently persisting through incremental
// updates.
func (s *SyncService) shouldRebuild(stored, fetched []domain.Bill) bool {
	if len(stored) == 0 || len(fetched) == 0 {
		return false
	}

	storedHouse := chamberShare(stored)
	fetchedHouse := chamberShare(fetched)

	// A single-chamber store against a two-chamber fetch is misclassified
	// data, not drift.
	if (storedHouse == 0 || storedHouse == 1) && fetchedHouse > 0 && fetchedHouse < 1 {
		return true
	}

	delta := storedHouse - fetchedHouse
	if delta < 0 {
		delta = -delta
	}
	return delta > s.config.RebuildThreshold
}

// billOrdinal is the numeric part of a bill number ("HB 123" -> 123).
func billOrdinal(number string) int {
	n := 0
	for _, r := range number {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
		}
	}
	return n
}

func chamberShare(bills []domain.Bill) float64 {
	if len(bills) == 0 {
		return 0
	}
	house := 0
	for i := range bills {
		if bills[i].Chamber == domain.ChamberHouse {
			house++
		}
	}
	return float64(house) / float64(len(bills))
}

// reconcile upserts each fetched bill: bills sharing a stored bill number
// are updates, the rest are inserts. Per-bill failures are counted and
// skipped.
func (s *SyncService) reconcile(ctx context.Context, fetched []domain.Bill, stats *domain.SyncStats) {
	numbers := make([]string, len(fetched))
	for i := range fetched {
		numbers[i] = fetched[i].BillNumber
	}

	existing, err := s.bills.GetExistingByNumbers(ctx, numbers)
	if err != nil {
		s.logger.Error("existing bill lookup failed, treating all as inserts", "error", err)
		existing = map[string]domain.Bill{}
	}

	for i := range fetched {
		bill := &fetched[i]

		if prev, ok := existing[bill.BillNumber]; ok {
			bill.ID = prev.ID
			if unchangedSince(prev, bill) {
				stats.Unchanged++
				continue
			}
		}

		var isNew bool
		err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			_, inserted, err := s.bills.Upsert(txCtx, bill)
			isNew = inserted
			return err
		})
		if err != nil {
			stats.Errors++
			s.logger.Warn("bill write failed", "bill_number", bill.BillNumber, "error", err)
			continue
		}

		if isNew {
			stats.New++
		} else {
			stats.Updated++
		}

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, bill, isNew); err != nil {
				stats.Errors++
			} else {
				stats.Published++
			}
		}
	}
}

// unchangedSince is the cheap skip check for incremental sync: the fields
// sync refreshes are status, last action and sponsorship.
func unchangedSince(prev domain.Bill, next *domain.Bill) bool {
	if prev.Status != next.Status || prev.LastAction != next.LastAction {
		return false
	}
	if prev.Sponsor != next.Sponsor || len(prev.Sponsors) != len(next.Sponsors) {
		return false
	}
	if (prev.LastActionDate == nil) != (next.LastActionDate == nil) {
		return false
	}
	if prev.LastActionDate != nil && !prev.LastActionDate.Equal(*next.LastActionDate) {
		return false
	}
	return true
}

func (s *SyncService) updateSyncState(ctx context.Context, sessionID int64, stats *domain.SyncStats) error {
	state, err := s.syncState.Get(ctx, s.source.ID())
	if err != nil {
		return err
	}

	state.SourceID = s.source.ID()
	state.LastSyncedAt = time.Now()
	state.LastSession = sessionID
	state.TotalSynced += int64(stats.New + stats.Updated)

	return s.syncState.Update(ctx, state)
}
