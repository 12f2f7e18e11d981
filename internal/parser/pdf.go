package parser

import (
	"context"
	"strings"
	"time"

	"spendbook/internal/logger"
)

// PDFParser parses credit card statements from their extracted text.
type PDFParser struct {
	extractor TextExtractor
	now       func() time.Time
}

// NewPDFParser creates a PDF parser reading text through extractor
func NewPDFParser(extractor TextExtractor) *PDFParser {
	if extractor == nil {
		extractor = NativeExtractor{}
	}
	return &PDFParser{extractor: extractor, now: time.Now}
}

// WithClock overrides the clock used when a statement declares no period.
func (p *PDFParser) WithClock(now func() time.Time) *PDFParser {
	p.now = now
	return p
}

// Name returns the parser identifier
func (p *PDFParser) Name() string { return "pdf" }

// Parse extracts text from the PDF at path and scans it for transactions. Extraction
// failures are logged and degrade to an empty result; they are never returned.
func (p *PDFParser) Parse(ctx context.Context, path string) (*Result, error) {
	l := logger.FromContext(ctx)

	text, err := p.extractor.ExtractText(ctx, path)
	if err != nil {
		l.Error("pdf_extract_failed", "path", path, "error", err.Error())
		return &Result{Warning: "could not read PDF text; no transactions found"}, nil
	}
	l.Debug("pdf_extracted", "path", path, "chars", len(text))

	return p.ParseText(ctx, text), nil
}

// ParseText runs the section-aware scan over already extracted statement text.
func (p *PDFParser) ParseText(ctx context.Context, text string) *Result {
	l := logger.FromContext(ctx)
	lines := splitLines(text)

	years, period := YearMapperFor(lines, p.now())
	if period != nil {
		l.Debug("pdf_period_found",
			"start", period.Start.Format("2006-01-02"), "end", period.End.Format("2006-01-02"))
	} else {
		l.Debug("pdf_period_missing", "fallback_year", p.now().Year())
	}

	result := &Result{Period: period}
	sections := &SectionMachine{
		OnTransition: func(rule string, from, to SectionState, line string) {
			l.Debug("pdf_section_transition", "rule", rule, "from", from.String(), "to", to.String(), "line", line)
		},
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if sections.Step(line) != Candidate {
			continue
		}

		if txn, ok := ClassifySingleLine(line, years); ok {
			result.Transactions = append(result.Transactions, txn)
			continue
		}

		if HasTwoLinePrefix(line) && i+1 < len(lines) {
			if txn, ok := ClassifyTwoLine(line, lines[i+1], years); ok {
				result.Transactions = append(result.Transactions, txn)
				i++ // the amount line is consumed
				continue
			}
		}

		result.UnmatchedLines++
	}

	l.Debug("pdf_scan_complete",
		"transactions", len(result.Transactions), "unmatched_lines", result.UnmatchedLines)
	return result
}

// splitLines returns the non-empty trimmed lines of text
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

var _ Parser = (*PDFParser)(nil)
