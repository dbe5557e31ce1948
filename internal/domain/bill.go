package domain

import (
	"strings"
	"time"
)

// Status is the normalized lifecycle status of a bill.
type Status string

const (
	StatusIntroduced          Status = "introduced"
	StatusInCommittee         Status = "in_committee"
	StatusPassedFirstReading  Status = "passed_first_reading"
	StatusPassedSecondReading Status = "passed_second_reading"
	StatusPassedThirdReading  Status = "passed_third_reading"
	StatusSentToOtherChamber  Status = "sent_to_other_chamber"
	StatusPassedBothChambers  Status = "passed_both_chambers"
	StatusSentToGovernor      Status = "sent_to_governor"
	StatusSigned              Status = "signed"
	StatusVetoed              Status = "vetoed"
	StatusDead                Status = "dead"
)

type Chamber string

const (
	ChamberHouse  Chamber = "house"
	ChamberSenate Chamber = "senate"
)

type BillType string

const (
	TypeBill                    BillType = "bill"
	TypeResolution              BillType = "resolution"
	TypeConstitutionalAmendment BillType = "constitutional_amendment"
)

// Bill is the central entity. Chamber and Type are always derived from the
// bill number prefix; upstream-provided values are cross-checks only.
type Bill struct {
	ID          string `db:"id"`
	LegiScanID  *int64 `db:"legiscan_id"`
	BillNumber  string `db:"bill_number"`
	Title       string `db:"title"`
	Type        BillType `db:"bill_type"`
	Chamber     Chamber  `db:"chamber"`
	SessionYear int      `db:"session_year"`

	Sponsor    string   `db:"sponsor"`
	Sponsors   []string `db:"-"`
	CoSponsors []string `db:"-"`

	Status         Status     `db:"status"`
	LastAction     string     `db:"last_action"`
	LastActionDate *time.Time `db:"last_action_date"`

	Summary         *string  `db:"summary"`
	ChangesAnalysis *string  `db:"changes_analysis"`
	OCGASections    []string `db:"-"`
	PDFURL          *string  `db:"pdf_url"`
	URL             *string  `db:"url"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BillNumberInfo is the result of parsing a human bill number like "HB 12".
type BillNumberInfo struct {
	Number  string
	Chamber Chamber
	Type    BillType
}

// ParseBillNumber derives chamber and bill type from the bill number prefix.
// This is the single source of truth for both fields.
func ParseBillNumber(raw string) BillNumberInfo {
	normalized := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	compact := strings.ReplaceAll(normalized, " ", "")

	info := BillNumberInfo{
		Number:  normalized,
		Chamber: ChamberHouse,
		Type:    TypeBill,
	}

	if strings.HasPrefix(compact, "S") {
		info.Chamber = ChamberSenate
	}

	switch {
	case strings.HasPrefix(compact, "HR"), strings.HasPrefix(compact, "SR"):
		info.Type = TypeResolution
	case strings.HasPrefix(compact, "HCA"), strings.HasPrefix(compact, "SCA"),
		strings.HasPrefix(compact, "CA"):
		info.Type = TypeConstitutionalAmendment
	}

	return info
}

// BillTypeFromUpstream maps a free-text upstream bill type to the internal
// enumeration. Used only to cross-check the prefix derivation.
func BillTypeFromUpstream(t string) BillType {
	lower := strings.ToLower(t)
	switch {
	case strings.Contains(lower, "resolution"):
		return TypeResolution
	case strings.Contains(lower, "amendment"), strings.Contains(lower, "constitutional"):
		return TypeConstitutionalAmendment
	default:
		return TypeBill
	}
}
