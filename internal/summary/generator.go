package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"legispulse/internal/domain"
)

var (
	// ErrMalformed means the HTTP call succeeded but no JSON object could be
	// extracted from the response text.
	ErrMalformed = errors.New("LLM returned an invalid JSON response")
	// ErrEmpty means a JSON object was extracted but carried none of the
	// expected summary fields under any accepted alias.
	ErrEmpty = errors.New("AI returned an empty summary")
)

var shortSummaryAliases = []string{
	"short_summary",
	"summary",
	"plain_summary",
	"plain_language_summary",
	"brief_summary",
	"overview",
}

var detailAliases = []string{
	"what_does_this_do",
	"detailed_summary",
	"details",
	"long_summary",
	"law_changes",
	"changes",
	"practical_impact",
	"impact",
}

// Result is a parsed, normalized AI analysis of one bill.
type Result struct {
	ShortSummary   string
	WhatDoesThisDo string
}

// Completer is the LLM call the generator depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string, expectJSON bool) (string, error)
}

// BillUpdater persists generated summary fields onto a bill record.
type BillUpdater interface {
	UpdateSummary(ctx context.Context, billID string, shortSummary, changesAnalysis string) error
}

// Generator builds the prompt, calls the LLM, parses its answer leniently
// and persists the result.
type Generator struct {
	llm    Completer
	store  BillUpdater
	logger *slog.Logger
}

func NewGenerator(llm Completer, store BillUpdater, logger *slog.Logger) *Generator {
	return &Generator{
		llm:    llm,
		store:  store,
		logger: logger.With("component", "summary"),
	}
}

// Generate produces and persists an AI analysis of the bill. textContext is
// the resolved bill text; when empty a metadata-only fallback context built
// from the bill record is used.
func (g *Generator) Generate(ctx context.Context, bill *domain.Bill, textContext string) (*Result, error) {
	prompt := buildPrompt(bill, textContext)

	raw, err := g.llm.Complete(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, ErrMalformed
	}

	result := &Result{
		ShortSummary:   pickSection(obj, shortSummaryAliases),
		WhatDoesThisDo: pickSection(obj, detailAliases),
	}

	if result.ShortSummary == "" && result.WhatDoesThisDo == "" {
		// The model answered with an unanticipated shape; keep whatever
		// prose it produced rather than discarding the whole response.
		if flattened := flattenValue(obj); flattened != "" {
			result.ShortSummary = flattened
		} else {
			return nil, ErrEmpty
		}
	}

	if g.store != nil && bill.ID != "" {
		if err := g.store.UpdateSummary(ctx, bill.ID, result.ShortSummary, result.WhatDoesThisDo); err != nil {
			return result, fmt.Errorf("persist summary: %w", err)
		}
	}

	g.logger.Info("generated summary",
		"bill_number", bill.BillNumber,
		"short_len", len(result.ShortSummary),
		"detail_len", len(result.WhatDoesThisDo),
	)

	return result, nil
}

// FallbackContext builds a metadata-only prompt context for bills whose text
// could not be resolved.
func FallbackContext(bill *domain.Bill) string {
	parts := []string{bill.Title}
	if bill.Summary != nil {
		parts = append(parts, *bill.Summary)
	}
	parts = append(parts, bill.LastAction, string(bill.Status))

	var filtered []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			filtered = append(filtered, p)
		}
	}
	return strings.Join(filtered, "\n\n")
}

const maxContextChars = 30000

func buildPrompt(bill *domain.Bill, textContext string) string {
	sections := "various sections"
	if len(bill.OCGASections) > 0 {
		sections = strings.Join(bill.OCGASections, ", ")
	}

	aiContext := textContext
	if aiContext == "" {
		aiContext = FallbackContext(bill)
	}
	if len(aiContext) > maxContextChars {
		aiContext = aiContext[:maxContextChars]
	}
	if aiContext == "" {
		aiContext = "Text not available from source."
	}

	return fmt.Sprintf(`You are analyzing Georgia legislative bill %s titled %q.

This bill affects OCGA sections: %s

Bill text and context:
%s

Return ONLY valid JSON with exactly these two string fields:
{
  "short_summary": "...",
  "what_does_this_do": "..."
}

Requirements:
- short_summary: 2-3 sentences max, simple 7th-grade language, only what the bill changes.
- what_does_this_do: detailed paragraph section (no bullet points), simple 7th-grade language.
- Do NOT include subheadings inside what_does_this_do.
- Include all specific numbers, dates, deadlines, percentages, dollar amounts, mile limits, time limits, and penalties exactly as written in the bill text.
- Clearly explain what is new, added, removed, or changed in the law.
- Focus only on what the bill changes; no background explanation unless necessary.
- If the bill references other Code sections, briefly explain what those references mean.
- Do NOT restate current law in what_does_this_do.`,
		bill.BillNumber, bill.Title, sections, aiContext)
}
