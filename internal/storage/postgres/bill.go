package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"legispulse/internal/domain"
)

type BillStore struct {
	db *sqlx.DB
}

func NewBillStore(db *sqlx.DB) *BillStore {
	return &BillStore{db: db}
}

const billColumns = `
	id, legiscan_id, bill_number, title, bill_type, chamber, session_year,
	sponsor, sponsors, co_sponsors, status, last_action, last_action_date,
	summary, changes_analysis, ocga_sections, pdf_url, url,
	created_at, updated_at`

// List returns all stored bills, most recent action first.
func (s *BillStore) List(ctx context.Context) ([]domain.Bill, error) {
	query := `SELECT ` + billColumns + `
		FROM bills
		ORDER BY last_action_date DESC NULLS LAST, bill_number`

	rows, err := GetExecutor(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []domain.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, *bill)
	}
	return bills, rows.Err()
}

// GetExistingByNumbers returns stored bills keyed by bill number.
func (s *BillStore) GetExistingByNumbers(ctx context.Context, numbers []string) (map[string]domain.Bill, error) {
	result := make(map[string]domain.Bill)
	if len(numbers) == 0 {
		return result, nil
	}

	query := `SELECT ` + billColumns + ` FROM bills WHERE bill_number = ANY($1)`

	rows, err := GetExecutor(ctx, s.db).QueryContext(ctx, query, pq.Array(numbers))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		result[bill.BillNumber] = *bill
	}
	return result, rows.Err()
}

// GetByNumber returns the bill matching a bill number, newest session
// first.
func (s *BillStore) GetByNumber(ctx context.Context, number string) (*domain.Bill, error) {
	query := `SELECT ` + billColumns + `
		FROM bills
		WHERE bill_number = $1
		ORDER BY session_year DESC
		LIMIT 1`

	return scanBill(GetExecutor(ctx, s.db).QueryRowxContext(ctx, query, number))
}

// Upsert inserts a bill or refreshes an existing record sharing its bill
// number and session year. Summary fields are preserved on update; sync
// refresh must not wipe AI analysis.
func (s *BillStore) Upsert(ctx context.Context, bill *domain.Bill) (string, bool, error) {
	if bill.ID == "" {
		bill.ID = newBillID(bill.BillNumber)
	}

	query := `
		INSERT INTO bills (` + billColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, NOW(), NOW())
		ON CONFLICT (bill_number, session_year) DO UPDATE SET
			legiscan_id = COALESCE(EXCLUDED.legiscan_id, bills.legiscan_id),
			title = EXCLUDED.title,
			bill_type = EXCLUDED.bill_type,
			chamber = EXCLUDED.chamber,
			sponsor = EXCLUDED.sponsor,
			sponsors = EXCLUDED.sponsors,
			co_sponsors = EXCLUDED.co_sponsors,
			status = EXCLUDED.status,
			last_action = EXCLUDED.last_action,
			last_action_date = EXCLUDED.last_action_date,
			pdf_url = COALESCE(EXCLUDED.pdf_url, bills.pdf_url),
			url = COALESCE(EXCLUDED.url, bills.url),
			updated_at = NOW()
		RETURNING id, (created_at = updated_at) AS inserted`

	var id string
	var inserted bool
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		bill.ID,
		bill.LegiScanID,
		bill.BillNumber,
		bill.Title,
		bill.Type,
		bill.Chamber,
		bill.SessionYear,
		bill.Sponsor,
		pq.Array(bill.Sponsors),
		pq.Array(bill.CoSponsors),
		bill.Status,
		bill.LastAction,
		bill.LastActionDate,
		bill.Summary,
		bill.ChangesAnalysis,
		pq.Array(bill.OCGASections),
		bill.PDFURL,
		bill.URL,
	).Scan(&id, &inserted)
	if err != nil {
		return "", false, err
	}

	bill.ID = id
	return id, inserted, nil
}

// ReplaceAll clears the store and inserts the given bills in one
// transaction. Used when the fetched dataset diverges too far from the
// stored one to trust incremental reconciliation.
func (s *BillStore) ReplaceAll(ctx context.Context, bills []domain.Bill) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM bills"); err != nil {
		return fmt.Errorf("clear bills: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO bills (`+billColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, NOW(), NOW())`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range bills {
		bill := &bills[i]
		if bill.ID == "" {
			bill.ID = newBillID(bill.BillNumber)
		}
		if _, err := stmt.ExecContext(ctx,
			bill.ID,
			bill.LegiScanID,
			bill.BillNumber,
			bill.Title,
			bill.Type,
			bill.Chamber,
			bill.SessionYear,
			bill.Sponsor,
			pq.Array(bill.Sponsors),
			pq.Array(bill.CoSponsors),
			bill.Status,
			bill.LastAction,
			bill.LastActionDate,
			bill.Summary,
			bill.ChangesAnalysis,
			pq.Array(bill.OCGASections),
			bill.PDFURL,
			bill.URL,
		); err != nil {
			return fmt.Errorf("insert bill %s: %w", bill.BillNumber, err)
		}
	}

	return tx.Commit()
}

// Clear deletes every stored bill.
func (s *BillStore) Clear(ctx context.Context) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, "DELETE FROM bills")
	return err
}

// UpdateSummary persists generated AI analysis onto a bill record.
func (s *BillStore) UpdateSummary(ctx context.Context, billID string, shortSummary, changesAnalysis string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		UPDATE bills
		SET summary = $2, changes_analysis = $3, updated_at = NOW()
		WHERE id = $1`,
		billID, shortSummary, changesAnalysis,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*domain.Bill, error) {
	var bill domain.Bill
	var sponsors, coSponsors, sections pq.StringArray

	err := row.Scan(
		&bill.ID,
		&bill.LegiScanID,
		&bill.BillNumber,
		&bill.Title,
		&bill.Type,
		&bill.Chamber,
		&bill.SessionYear,
		&bill.Sponsor,
		&sponsors,
		&coSponsors,
		&bill.Status,
		&bill.LastAction,
		&bill.LastActionDate,
		&bill.Summary,
		&bill.ChangesAnalysis,
		&sections,
		&bill.PDFURL,
		&bill.URL,
		&bill.CreatedAt,
		&bill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	bill.Sponsors = sponsors
	bill.CoSponsors = coSponsors
	bill.OCGASections = sections
	return &bill, nil
}

func newBillID(billNumber string) string {
	return fmt.Sprintf("bill-%s-%d",
		strings.ReplaceAll(billNumber, " ", "-"),
		time.Now().UnixNano(),
	)
}
