//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"legispulse/internal/domain"
	"legispulse/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_bills.up.sql"),
			filepath.Join(migrationsPath, "002_create_sync_state.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM bills")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM sync_state")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) newBill(number string) *domain.Bill {
	info := domain.ParseBillNumber(number)
	return &domain.Bill{
		LegiScanID:  utils.Ptr(int64(1899000)),
		BillNumber:  info.Number,
		Title:       "Test Bill",
		Type:        info.Type,
		Chamber:     info.Chamber,
		SessionYear: 2026,
		Sponsor:     "Rep. A",
		Sponsors:    []string{"Rep. A"},
		Status:      domain.StatusIntroduced,
		LastAction:  "First Reading",
	}
}

func (s *PostgresIntegrationSuite) TestBillStore_Upsert_Insert() {
	store := NewBillStore(s.db)

	bill := s.newBill("HB 1")
	id, inserted, err := store.Upsert(s.ctx, bill)
	s.NoError(err)
	s.True(inserted)
	s.NotEmpty(id)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM bills WHERE bill_number = $1 AND session_year = $2", "HB 1", 2026)
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestBillStore_Upsert_UpdateKeepsID() {
	store := NewBillStore(s.db)

	bill := s.newBill("HB 1")
	id1, inserted, err := store.Upsert(s.ctx, bill)
	s.NoError(err)
	s.True(inserted)

	updated := s.newBill("HB 1")
	updated.Status = domain.StatusInCommittee
	updated.LastAction = "Referred to House Judiciary Committee"
	id2, inserted, err := store.Upsert(s.ctx, updated)
	s.NoError(err)
	s.False(inserted)
	s.Equal(id1, id2)

	var status string
	err = s.db.GetContext(s.ctx, &status, "SELECT status FROM bills WHERE id = $1", id1)
	s.NoError(err)
	s.Equal("in_committee", status)
}

func (s *PostgresIntegrationSuite) TestBillStore_Upsert_PreservesSummary() {
	store := NewBillStore(s.db)

	bill := s.newBill("HB 1")
	id, _, err := store.Upsert(s.ctx, bill)
	s.NoError(err)

	err = store.UpdateSummary(s.ctx, id, "Short summary.", "Detailed analysis.")
	s.NoError(err)

	// A sync refresh carries no summary; the stored one must survive.
	refresh := s.newBill("HB 1")
	refresh.Status = domain.StatusInCommittee
	_, _, err = store.Upsert(s.ctx, refresh)
	s.NoError(err)

	stored, err := store.GetByNumber(s.ctx, "HB 1")
	s.NoError(err)
	s.Require().NotNil(stored.Summary)
	s.Equal("Short summary.", *stored.Summary)
	s.Require().NotNil(stored.ChangesAnalysis)
	s.Equal("Detailed analysis.", *stored.ChangesAnalysis)
	s.Equal(domain.StatusInCommittee, stored.Status)
}

func (s *PostgresIntegrationSuite) TestBillStore_Upsert_SameNumberDifferentSessions() {
	store := NewBillStore(s.db)

	bill2025 := s.newBill("HB 1")
	bill2025.SessionYear = 2025
	_, inserted, err := store.Upsert(s.ctx, bill2025)
	s.NoError(err)
	s.True(inserted)

	bill2026 := s.newBill("HB 1")
	_, inserted, err = store.Upsert(s.ctx, bill2026)
	s.NoError(err)
	s.True(inserted)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM bills WHERE bill_number = $1", "HB 1")
	s.NoError(err)
	s.Equal(2, count)

	// GetByNumber prefers the newest session.
	stored, err := store.GetByNumber(s.ctx, "HB 1")
	s.NoError(err)
	s.Equal(2026, stored.SessionYear)
}

func (s *PostgresIntegrationSuite) TestBillStore_GetExistingByNumbers() {
	store := NewBillStore(s.db)

	for _, number := range []string{"HB 1", "HB 2", "SB 1"} {
		_, _, err := store.Upsert(s.ctx, s.newBill(number))
		s.NoError(err)
	}

	result, err := store.GetExistingByNumbers(s.ctx, []string{"HB 1", "SB 1", "HB 999"})
	s.NoError(err)
	s.Len(result, 2)
	s.Contains(result, "HB 1")
	s.Contains(result, "SB 1")
	s.NotContains(result, "HB 999")
}

func (s *PostgresIntegrationSuite) TestBillStore_List_OrdersByLastAction() {
	store := NewBillStore(s.db)

	older := s.newBill("HB 1")
	older.LastActionDate = utils.Ptr(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	_, _, err := store.Upsert(s.ctx, older)
	s.NoError(err)

	newer := s.newBill("SB 2")
	newer.LastActionDate = utils.Ptr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	_, _, err = store.Upsert(s.ctx, newer)
	s.NoError(err)

	undated := s.newBill("HB 3")
	_, _, err = store.Upsert(s.ctx, undated)
	s.NoError(err)

	bills, err := store.List(s.ctx)
	s.NoError(err)
	s.Require().Len(bills, 3)
	s.Equal("SB 2", bills[0].BillNumber)
	s.Equal("HB 1", bills[1].BillNumber)
	s.Equal("HB 3", bills[2].BillNumber)
}

func (s *PostgresIntegrationSuite) TestBillStore_ReplaceAll() {
	store := NewBillStore(s.db)

	_, _, err := store.Upsert(s.ctx, s.newBill("HB 1"))
	s.NoError(err)
	_, _, err = store.Upsert(s.ctx, s.newBill("HB 2"))
	s.NoError(err)

	replacement := []domain.Bill{*s.newBill("SB 1"), *s.newBill("SB 2"), *s.newBill("SB 3")}
	err = store.ReplaceAll(s.ctx, replacement)
	s.NoError(err)

	bills, err := store.List(s.ctx)
	s.NoError(err)
	s.Len(bills, 3)
	for _, b := range bills {
		s.Equal(domain.ChamberSenate, b.Chamber)
	}
}

func (s *PostgresIntegrationSuite) TestBillStore_UpdateSummary_MissingBill() {
	store := NewBillStore(s.db)

	err := store.UpdateSummary(s.ctx, "bill-missing", "summary", "analysis")
	s.True(errors.Is(err, sql.ErrNoRows))
}

func (s *PostgresIntegrationSuite) TestBillStore_ArrayRoundTrip() {
	store := NewBillStore(s.db)

	bill := s.newBill("HB 12")
	bill.Sponsors = []string{"Rep. A", "Rep. B"}
	bill.CoSponsors = []string{"Rep. B"}
	bill.OCGASections = []string{"16-5-21", "16-5-23.1"}
	_, _, err := store.Upsert(s.ctx, bill)
	s.NoError(err)

	stored, err := store.GetByNumber(s.ctx, "HB 12")
	s.NoError(err)
	s.Equal([]string{"Rep. A", "Rep. B"}, stored.Sponsors)
	s.Equal([]string{"Rep. B"}, stored.CoSponsors)
	s.Equal([]string{"16-5-21", "16-5-23.1"}, stored.OCGASections)
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_GetNew() {
	store := NewSyncStateStore(s.db)

	state, err := store.Get(s.ctx, "new-source")
	s.NoError(err)
	s.NotNil(state)
	s.Equal("new-source", state.SourceID)
	s.True(state.LastSyncedAt.IsZero())
	s.Equal(int64(0), state.TotalSynced)
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_UpdateAndGet() {
	store := NewSyncStateStore(s.db)
	now := time.Now().Truncate(time.Microsecond)

	state := &domain.SyncState{
		SourceID:     "legiscan",
		LastSyncedAt: now,
		LastSession:  2199,
		TotalSynced:  100,
	}
	err := store.Update(s.ctx, state)
	s.NoError(err)

	retrieved, err := store.Get(s.ctx, "legiscan")
	s.NoError(err)
	s.Equal("legiscan", retrieved.SourceID)
	s.Equal(int64(2199), retrieved.LastSession)
	s.Equal(int64(100), retrieved.TotalSynced)
	s.WithinDuration(now, retrieved.LastSyncedAt, time.Second)
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_UpdateExisting() {
	store := NewSyncStateStore(s.db)
	now := time.Now().Truncate(time.Microsecond)

	state := &domain.SyncState{
		SourceID:     "legiscan",
		LastSyncedAt: now,
		LastSession:  2100,
		TotalSynced:  10,
	}
	err := store.Update(s.ctx, state)
	s.NoError(err)

	state.LastSession = 2199
	state.TotalSynced = 20
	err = store.Update(s.ctx, state)
	s.NoError(err)

	retrieved, err := store.Get(s.ctx, "legiscan")
	s.NoError(err)
	s.Equal(int64(2199), retrieved.LastSession)
	s.Equal(int64(20), retrieved.TotalSynced)
}

func (s *PostgresIntegrationSuite) TestTransaction_Commit() {
	tm := NewTransactionManager(s.db)
	store := NewBillStore(s.db)

	err := tm.WithTransaction(s.ctx, func(txCtx context.Context) error {
		_, _, err := store.Upsert(txCtx, s.newBill("HB 1"))
		return err
	})
	s.NoError(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM bills")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	tm := NewTransactionManager(s.db)
	store := NewBillStore(s.db)

	err := tm.WithTransaction(s.ctx, func(txCtx context.Context) error {
		if _, _, err := store.Upsert(txCtx, s.newBill("HB 1")); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	s.Error(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM bills")
	s.NoError(err)
	s.Equal(0, count)
}
