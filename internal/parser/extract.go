package parser

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls the raw text out of a PDF file.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// NativeExtractor reads PDF text in-process.
type NativeExtractor struct{}

// ExtractText returns the plain text of every page, one page after another.
func (NativeExtractor) ExtractText(ctx context.Context, path string) (text string, err error) {
	// The pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d text: %w", i, err)
		}
		buf.WriteString(pageText)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// PdftotextExtractor runs poppler's pdftotext, which keeps the column layout.
type PdftotextExtractor struct {
	Binary string // defaults to "pdftotext"
}

// ExtractText runs pdftotext -layout and returns its stdout
func (e PdftotextExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	bin := e.Binary
	if bin == "" {
		bin = "pdftotext"
	}
	cmd := exec.CommandContext(ctx, bin, "-layout", path, "-")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return string(output), nil
}

// ExtractorByName maps a configuration value to an extractor.
func ExtractorByName(name string) (TextExtractor, error) {
	switch name {
	case "", "native":
		return NativeExtractor{}, nil
	case "pdftotext":
		return PdftotextExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown pdf extractor %q", name)
	}
}
