package legiscan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"legispulse/internal/domain"
)

const (
	SourceID   = "legiscan"
	SourceName = "LegiScan"
)

// Source fetches Georgia General Assembly bills through the LegiScan API and
// transforms them into domain bills.
type Source struct {
	client *Client
	state  string
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		client: NewClient(cfg, logger),
		state:  cfg.State,
		logger: logger.With("source", SourceID),
	}
}

func (s *Source) ID() string {
	return SourceID
}

func (s *Source) Name() string {
	return SourceName
}

// ResolveSessionID picks the session to sync: the first session starting in
// 2025 or 2026 (or named for 2025), else the first session returned.
func (s *Source) ResolveSessionID(ctx context.Context) (int64, error) {
	var resp sessionListResponse
	if err := s.client.request(ctx, "getSessionList", map[string]string{"state": s.state}, &resp); err != nil {
		return 0, fmt.Errorf("get session list: %w", err)
	}
	if len(resp.Sessions) == 0 {
		return 0, fmt.Errorf("no sessions returned for state %s", s.state)
	}

	for _, sess := range resp.Sessions {
		if sess.YearStart == 2025 || sess.YearStart == 2026 ||
			strings.Contains(sess.SessionName, "2025") {
			return sess.SessionID, nil
		}
	}
	return resp.Sessions[0].SessionID, nil
}

// FetchMasterList fetches the full bill list for a session and normalizes
// every entry into a domain bill.
func (s *Source) FetchMasterList(ctx context.Context, sessionID int64) ([]domain.Bill, error) {
	params := map[string]string{
		"state": s.state,
		"id":    strconv.FormatInt(sessionID, 10),
	}
	var resp masterListResponse
	if err := s.client.request(ctx, "getMasterList", params, &resp); err != nil {
		return nil, fmt.Errorf("get master list: %w", err)
	}

	bills := make([]domain.Bill, 0, len(resp.MasterList))
	for key, raw := range resp.MasterList {
		if key == "session" {
			continue
		}

		mb, err := decodeMasterEntry(raw)
		if err != nil {
			s.logger.Warn("skipping malformed master list entry", "key", key, "error", err)
			continue
		}
		if mb.number() == "" {
			continue
		}
		bills = append(bills, s.transform(mb))
	}

	return bills, nil
}

// Some dataset revisions nest the bill under a "bill" key, others are flat.
func decodeMasterEntry(raw json.RawMessage) (*masterBill, error) {
	var wrapper struct {
		Bill json.RawMessage `json:"bill"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Bill) > 0 &&
		strings.HasPrefix(strings.TrimSpace(string(wrapper.Bill)), "{") {
		raw = wrapper.Bill
	}

	var mb masterBill
	if err := json.Unmarshal(raw, &mb); err != nil {
		return nil, err
	}
	return &mb, nil
}

// BillDetail is the enriched view of a single bill.
type BillDetail struct {
	Bill             domain.Bill
	CurrentCommittee string
	Texts            []TextRef
	History          []HistoryRow
}

// FetchBillDetail fetches a single bill with sponsors, texts and history.
func (s *Source) FetchBillDetail(ctx context.Context, billID int64) (*BillDetail, error) {
	params := map[string]string{"id": strconv.FormatInt(billID, 10)}
	var resp billDetailResponse
	if err := s.client.request(ctx, "getBill", params, &resp); err != nil {
		return nil, fmt.Errorf("get bill %d: %w", billID, err)
	}

	detail := resp.Bill
	bill := s.transform(&detail.masterBill)

	// History is newest-first and more specific than the coarse status fields.
	if len(detail.History) > 0 {
		if detail.History[0].Action != "" {
			bill.LastAction = detail.History[0].Action
		}
		if t := parseDate(detail.History[0].Date); t != nil {
			bill.LastActionDate = t
		}
	}

	out := &BillDetail{
		Bill:    bill,
		Texts:   detail.Texts,
		History: detail.History,
	}
	if detail.Committee != nil {
		out.CurrentCommittee = detail.Committee.Name
	}
	return out, nil
}

// FetchBillText fetches one document body by doc id.
func (s *Source) FetchBillText(ctx context.Context, docID int64) (*TextDocument, error) {
	params := map[string]string{"id": strconv.FormatInt(docID, 10)}
	var resp billTextResponse
	if err := s.client.request(ctx, "getBillText", params, &resp); err != nil {
		return nil, fmt.Errorf("get bill text %d: %w", docID, err)
	}
	return &resp.Text, nil
}

func (s *Source) transform(mb *masterBill) domain.Bill {
	info := domain.ParseBillNumber(mb.number())

	// Upstream type/body are advisory only; flag drift from the prefix
	// derivation instead of trusting it.
	if upstreamType := firstNonEmpty(mb.BillType, mb.Type); upstreamType != "" {
		if derived := domain.BillTypeFromUpstream(upstreamType); derived != info.Type {
			s.logger.Warn("upstream bill type disagrees with bill number prefix",
				"bill_number", info.Number,
				"upstream", upstreamType,
				"derived", string(info.Type),
			)
		}
	}

	names := mb.Sponsors.Names()
	primary, coSponsors := SplitSponsors(names)

	sessionYear := 2026
	if mb.Session != nil && mb.Session.YearStart != 0 {
		sessionYear = mb.Session.YearStart
	}

	legiscanID := mb.BillID
	bill := domain.Bill{
		LegiScanID:  &legiscanID,
		BillNumber:  info.Number,
		Title:       firstNonEmpty(mb.Title, mb.Description),
		Type:        info.Type,
		Chamber:     info.Chamber,
		SessionYear: sessionYear,
		Sponsor:     primary,
		Sponsors:    names,
		CoSponsors:  coSponsors,
		Status:      NormalizeStatus(mb.Status, firstNonEmpty(mb.StatusDesc, mb.LastAction)),
		LastAction:  firstNonEmpty(mb.LastAction, mb.StatusDesc),
	}

	if t := parseDate(firstNonEmpty(mb.LastActionDate, mb.StatusDate)); t != nil {
		bill.LastActionDate = t
	}
	if link := firstNonEmpty(mb.StateLink, mb.URL); link != "" {
		bill.URL = &link
	}

	return bill
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
