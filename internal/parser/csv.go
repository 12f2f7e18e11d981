package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"spendbook/internal/logger"
	"spendbook/internal/models"
)

// CSVParser parses bank CSV exports. Every data row is a transaction; rows whose date or
// amount cannot be read are skipped and counted as unmatched.
type CSVParser struct{}

// NewCSVParser returns a CSV parser
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Header variants, compared case-insensitively
var (
	csvDateHeaders        = []string{"posted date", "date"}
	csvDescriptionHeaders = []string{"description", "merchant"}
	csvAmountHeaders      = []string{"amount"}
	csvNameHeaders        = []string{"name"}
)

var csvDateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"01/02/06",
	"1/2/06",
}

// Name returns the parser identifier
func (p *CSVParser) Name() string { return "csv" }

// Parse opens the CSV at path and reads its rows
func (p *CSVParser) Parse(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return p.ParseReader(ctx, f)
}

type csvColumns struct {
	date, description, amount, name int
}

// ParseReader streams rows from r, mapping header variants onto raw transactions.
// Only header and read errors are fatal.
func (p *CSVParser) ParseReader(ctx context.Context, r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	cols, err := mapCSVHeader(header)
	if err != nil {
		return nil, err
	}

	l := logger.FromContext(ctx)
	result := &Result{}
	for row := 2; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", row, err)
		}
		if blankRecord(rec) {
			continue
		}
		txn, err := parseCSVRow(rec, cols)
		if err != nil {
			// Footer rows (running totals, disclaimers) land here
			l.Debug("csv_row_skipped", "row", row, "error", err.Error())
			result.UnmatchedLines++
			continue
		}
		result.Transactions = append(result.Transactions, txn)
	}

	l.Debug("csv_parsed", "transactions", len(result.Transactions), "unmatched_lines", result.UnmatchedLines)
	return result, nil
}

func mapCSVHeader(header []string) (csvColumns, error) {
	cols := csvColumns{
		date:        findColumn(header, csvDateHeaders),
		description: findColumn(header, csvDescriptionHeaders),
		amount:      findColumn(header, csvAmountHeaders),
		name:        findColumn(header, csvNameHeaders),
	}
	var missing []string
	if cols.date < 0 {
		missing = append(missing, "Posted Date/Date")
	}
	if cols.description < 0 {
		missing = append(missing, "Description/Merchant")
	}
	if cols.amount < 0 {
		missing = append(missing, "Amount")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("csv header missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// findColumn returns the index of the first variant present in header, in variant order
func findColumn(header []string, variants []string) int {
	for _, v := range variants {
		for i, h := range header {
			h = strings.TrimPrefix(h, "\ufeff")
			if strings.EqualFold(strings.TrimSpace(h), v) {
				return i
			}
		}
	}
	return -1
}

func parseCSVRow(rec []string, cols csvColumns) (models.RawTransaction, error) {
	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := normalizeCSVDate(field(cols.date))
	if err != nil {
		return models.RawTransaction{}, err
	}
	amount, err := ParseAmount(field(cols.amount))
	if err != nil {
		return models.RawTransaction{}, err
	}
	return models.RawTransaction{
		PostedDate: date,
		Merchant:   field(cols.description),
		Amount:     amount,
		Name:       field(cols.name),
	}, nil
}

func normalizeCSVDate(s string) (string, error) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return "", fmt.Errorf("parsing date %q", s)
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

var _ Parser = (*CSVParser)(nil)
