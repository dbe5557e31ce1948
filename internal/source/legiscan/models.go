package legiscan

import "encoding/json"

type sessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

type Session struct {
	SessionID   int64  `json:"session_id"`
	YearStart   int    `json:"year_start"`
	YearEnd     int    `json:"year_end"`
	SessionName string `json:"session_name"`
}

type masterListResponse struct {
	MasterList map[string]json.RawMessage `json:"masterlist"`
}

// masterBill covers the field variants LegiScan returns in master list and
// detail responses. The API is inconsistent about field names across states
// and dataset revisions ("number" vs "bill_number", "body" vs "chamber").
type masterBill struct {
	BillID         int64       `json:"bill_id"`
	BillNumber     string      `json:"bill_number"`
	Number         string      `json:"number"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Status         int         `json:"status"`
	StatusDesc     string      `json:"status_desc"`
	StatusDate     string      `json:"status_date"`
	LastAction     string      `json:"last_action"`
	LastActionDate string      `json:"last_action_date"`
	BillType       string      `json:"bill_type"`
	Type           string      `json:"type"`
	Body           string      `json:"body"`
	Chamber        string      `json:"chamber"`
	URL            string      `json:"url"`
	StateLink      string      `json:"state_link"`
	Sponsors       SponsorList `json:"sponsors"`
	Session        *struct {
		YearStart int `json:"year_start"`
	} `json:"session"`
}

func (m *masterBill) number() string {
	if m.BillNumber != "" {
		return m.BillNumber
	}
	return m.Number
}

type billDetailResponse struct {
	Bill billDetail `json:"bill"`
}

type billDetail struct {
	masterBill
	Committee *struct {
		Name string `json:"name"`
	} `json:"committee"`
	Texts   []TextRef    `json:"texts"`
	History []HistoryRow `json:"history"`
}

// TextRef is one entry of a bill's document list.
type TextRef struct {
	DocID     int64  `json:"doc_id"`
	Date      string `json:"date"`
	Type      string `json:"type"`
	Mime      string `json:"mime"`
	URL       string `json:"url"`
	StateLink string `json:"state_link"`
	TextSize  int    `json:"text_size"`
}

type HistoryRow struct {
	Date    string `json:"date"`
	Action  string `json:"action"`
	Chamber string `json:"chamber"`
}

type billTextResponse struct {
	Text TextDocument `json:"text"`
}

// TextDocument is a fetched document body. Doc may be a direct URL, inline
// text, base64-encoded HTML, or base64-encoded PDF bytes.
type TextDocument struct {
	DocID     int64  `json:"doc_id"`
	Date      string `json:"date"`
	Type      string `json:"type"`
	Mime      string `json:"mime"`
	Doc       string `json:"doc"`
	URL       string `json:"url"`
	StateLink string `json:"state_link"`
	TextSize  int    `json:"text_size"`
}
