package billtext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"legispulse/internal/source/legiscan"
)

const (
	minReadableChars = 300
	targetChars      = 12000
	maxExcerptChars  = 30000
	maxPDFDownload   = 20 << 20
)

// ErrNoUsableText means every extraction strategy came back with less than
// minReadableChars of readable content. Callers fall back to metadata-only
// context rather than prompting the summarizer with noise.
var ErrNoUsableText = errors.New("no usable bill text")

// Fetcher is the slice of the LegiScan source the resolver needs.
type Fetcher interface {
	FetchBillDetail(ctx context.Context, billID int64) (*legiscan.BillDetail, error)
	FetchBillText(ctx context.Context, docID int64) (*legiscan.TextDocument, error)
}

// Resolver turns a bill's inconsistently shaped upstream documents into a
// plain-text excerpt for summarization and a viewable document link.
type Resolver struct {
	source     Fetcher
	httpClient *http.Client
	logger     *slog.Logger
}

func NewResolver(source Fetcher, timeout time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		source: source,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "billtext"),
	}
}

// ResolveLink finds the best viewable document URL for a bill: the newest
// document that is (or resolves to) a PDF, else the first direct URL seen,
// else the bill's own state link.
func (r *Resolver) ResolveLink(ctx context.Context, billID int64) (string, error) {
	detail, err := r.source.FetchBillDetail(ctx, billID)
	if err != nil {
		return "", err
	}

	texts := newestFirst(detail.Texts)
	fallback := ""

	for _, ref := range texts {
		if url := pdfURL(ref.URL, ref.Mime); url != "" {
			return url, nil
		}
		if url := pdfURL(ref.StateLink, ref.Mime); url != "" {
			return url, nil
		}

		direct := firstLink(ref.URL, ref.StateLink)
		if direct == "" {
			// The list entry carries no link at all; the document body might.
			doc, err := r.source.FetchBillText(ctx, ref.DocID)
			if err != nil {
				r.logger.Debug("bill text fetch failed during link resolution",
					"doc_id", ref.DocID, "error", err)
				continue
			}
			if url := pdfURL(doc.URL, doc.Mime); url != "" {
				return url, nil
			}
			if url := pdfURL(doc.StateLink, doc.Mime); url != "" {
				return url, nil
			}
			if classified := Classify(doc.Doc); classified.Kind == KindDirectURL {
				if url := pdfURL(classified.URL, doc.Mime); url != "" {
					return url, nil
				}
				direct = classified.URL
			} else {
				direct = firstLink(doc.URL, doc.StateLink)
			}
		}
		if fallback == "" {
			fallback = direct
		}
	}

	if fallback != "" {
		return fallback, nil
	}
	if detail.Bill.URL != nil {
		return *detail.Bill.URL, nil
	}
	return "", nil
}

// ResolveText produces a plain-text excerpt of the bill's substantive
// content through a layered fallback: inline document text, then inline PDF
// bytes, then a fetched PDF behind the resolved link. Anything under
// minReadableChars is refused outright.
func (r *Resolver) ResolveText(ctx context.Context, billID int64) (string, error) {
	detail, err := r.source.FetchBillDetail(ctx, billID)
	if err != nil {
		return "", err
	}

	texts := newestFirst(detail.Texts)

	var accumulated []string
	total := 0
	var pdfBytes []byte

	for _, ref := range texts {
		if total >= targetChars {
			break
		}
		doc, err := r.source.FetchBillText(ctx, ref.DocID)
		if err != nil {
			r.logger.Debug("bill text fetch failed", "doc_id", ref.DocID, "error", err)
			continue
		}

		classified := Classify(doc.Doc)
		switch classified.Kind {
		case KindInlineText:
			if Readable(classified.Text) {
				accumulated = append(accumulated, classified.Text)
				total += len(classified.Text)
			}
		case KindInlinePDF:
			if pdfBytes == nil {
				pdfBytes = classified.PDF
			}
		}
	}

	if text := joinExcerpt(accumulated); text != "" {
		return truncate(text), nil
	}

	if pdfBytes != nil {
		text, err := ExtractPDFText(pdfBytes)
		if err != nil {
			r.logger.Debug("inline pdf extraction failed", "bill_id", billID, "error", err)
		} else if Readable(text) {
			return truncate(text), nil
		}
	}

	// Last resort: the resolved document link, if it points at a PDF.
	link, err := r.ResolveLink(ctx, billID)
	if err == nil && pdfURL(link, "") != "" {
		text, err := r.fetchPDF(ctx, link)
		if err != nil {
			r.logger.Debug("linked pdf extraction failed", "bill_id", billID, "error", err)
		} else if Readable(text) {
			return truncate(text), nil
		}
	}

	return "", ErrNoUsableText
}

func (r *Resolver) fetchPDF(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFDownload))
	if err != nil {
		return "", fmt.Errorf("read pdf body: %w", err)
	}
	return ExtractPDFText(data)
}

func newestFirst(texts []legiscan.TextRef) []legiscan.TextRef {
	sorted := make([]legiscan.TextRef, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	return sorted
}

func pdfURL(url, mime string) string {
	if url == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(url), ".pdf") ||
		strings.EqualFold(mime, "application/pdf") {
		return url
	}
	return ""
}

func firstLink(urls ...string) string {
	for _, u := range urls {
		if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
			return u
		}
	}
	return ""
}

func joinExcerpt(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

func truncate(s string) string {
	if len(s) > maxExcerptChars {
		return s[:maxExcerptChars]
	}
	return s
}
