package parser

import (
	"context"
	"path/filepath"
	"strings"

	"spendbook/internal/models"
)

// Result is the outcome of parsing one statement file
type Result struct {
	Transactions []models.RawTransaction
	Period       *Period // nil when the statement declares none (CSV, or no match)

	// UnmatchedLines counts PDF candidate lines inside a transaction section that neither
	// line dialect could classify, or CSV data rows with an unreadable date or amount.
	UnmatchedLines int

	// Warning is set when the parser degraded to an empty result instead of failing.
	Warning string
}

// Degraded reports whether the parser swallowed a failure
func (r *Result) Degraded() bool {
	return r.Warning != ""
}

// Parser converts a stored statement file into raw transactions.
type Parser interface {
	Name() string
	Parse(ctx context.Context, path string) (*Result, error)
}

// Registry selects a parser by file extension.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser for an extension like ".csv". Panics on duplicate extension.
func (r *Registry) Register(ext string, p Parser) {
	key := strings.ToLower(ext)
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser extension: " + key)
	}
	r.parsers[key] = p
}

// ForFile returns the parser for filename's extension, or false if unsupported.
func (r *Registry) ForFile(filename string) (Parser, bool) {
	p, ok := r.parsers[strings.ToLower(filepath.Ext(filename))]
	return p, ok
}

// DefaultRegistry returns a registry with the CSV parser and a PDF parser using extractor.
func DefaultRegistry(extractor TextExtractor) *Registry {
	r := NewRegistry()
	r.Register(".csv", NewCSVParser())
	r.Register(".pdf", NewPDFParser(extractor))
	return r
}
