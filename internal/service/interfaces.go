package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"legispulse/internal/domain"
	"legispulse/internal/source/legiscan"
)

type BillStore interface {
	List(ctx context.Context) ([]domain.Bill, error)
	GetExistingByNumbers(ctx context.Context, numbers []string) (map[string]domain.Bill, error)
	Upsert(ctx context.Context, bill *domain.Bill) (string, bool, error)
	ReplaceAll(ctx context.Context, bills []domain.Bill) error
	Clear(ctx context.Context) error
	UpdateSummary(ctx context.Context, billID string, shortSummary, changesAnalysis string) error
}

type SyncStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type Source interface {
	ID() string
	Name() string
	ResolveSessionID(ctx context.Context) (int64, error)
	FetchMasterList(ctx context.Context, sessionID int64) ([]domain.Bill, error)
	FetchBillDetail(ctx context.Context, billID int64) (*legiscan.BillDetail, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, bill *domain.Bill, isNew bool) error
	Close() error
}
