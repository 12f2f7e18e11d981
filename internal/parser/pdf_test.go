package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	return s.text, s.err
}

const sampleStatement = `
ACME BANK CARD SERVICES
Opening/Closing Date 12/14/23 - 01/13/24

ACCOUNT ACTIVITY
Date of Transaction Merchant Name or Transaction Description $ Amount
PAYMENTS AND OTHER CREDITS
01/05 PAYMENT THANK YOU -500.00
PURCHASES AND ADJUSTMENTS
12/20 AMAZON.COM*AB12C 45.67
01/02 01/03 PURCHASE AUTHORIZED ON 01/01 STARBUCKS
5.75
TOTAL PURCHASES FOR THIS PERIOD $51.42
01/10 RANDOM NOISE LINE
TOTAL FEES CHARGED $10.00
01/11 SHOULD NOT PARSE 9.99
INTEREST CHARGES
`

func fixedClock() time.Time {
	return time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func TestPDFParser_ParseText(t *testing.T) {
	p := NewPDFParser(nil).WithClock(fixedClock)

	res := p.ParseText(context.Background(), sampleStatement)

	require.NotNil(t, res.Period)
	assert.Equal(t, "2024-01-13", res.Period.End.Format("2006-01-02"))
	require.Len(t, res.Transactions, 3)

	assert.Equal(t, "2024-01-05", res.Transactions[0].PostedDate)
	assert.Equal(t, "PAYMENT THANK YOU", res.Transactions[0].Merchant)
	assert.Equal(t, "-500.00", res.Transactions[0].Amount.StringFixed(2))

	assert.Equal(t, "2023-12-20", res.Transactions[1].PostedDate)
	assert.Equal(t, "AMAZON.COM*AB12C", res.Transactions[1].Merchant)

	assert.Equal(t, "2024-01-02", res.Transactions[2].TransactionDate)
	assert.Equal(t, "2024-01-03", res.Transactions[2].PostedDate)
	assert.Equal(t, "PURCHASE AUTHORIZED ON 01/01 STARBUCKS", res.Transactions[2].Merchant)
	assert.Equal(t, "5.75", res.Transactions[2].Amount.StringFixed(2))

	// column header, credits heading, noise line
	assert.Equal(t, 3, res.UnmatchedLines)
	assert.False(t, res.Degraded())
}

func TestPDFParser_NoPeriodUsesCurrentYear(t *testing.T) {
	p := NewPDFParser(nil).WithClock(fixedClock)

	res := p.ParseText(context.Background(), "TRANSACTIONS\n03/15 COFFEE SHOP 4.50\n")

	assert.Nil(t, res.Period)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "2026-03-15", res.Transactions[0].PostedDate)
}

func TestPDFParser_TwoLineNeedsFollowingLine(t *testing.T) {
	p := NewPDFParser(nil).WithClock(fixedClock)

	res := p.ParseText(context.Background(), "TRANSACTIONS\n03/15 03/17 LAST LINE NO AMOUNT")

	assert.Empty(t, res.Transactions)
	assert.Equal(t, 1, res.UnmatchedLines)
}

func TestPDFParser_TwoLineFailureDoesNotConsumeNextLine(t *testing.T) {
	p := NewPDFParser(nil).WithClock(fixedClock)

	res := p.ParseText(context.Background(),
		"TRANSACTIONS\n03/15 03/17 DANGLING HEADER\n03/18 GROCERY STORE 20.00\n")

	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "GROCERY STORE", res.Transactions[0].Merchant)
	assert.Equal(t, 1, res.UnmatchedLines)
}

func TestPDFParser_Parse(t *testing.T) {
	p := NewPDFParser(stubExtractor{text: sampleStatement}).WithClock(fixedClock)

	res, err := p.Parse(context.Background(), "statement.pdf")
	require.NoError(t, err)
	assert.Len(t, res.Transactions, 3)
}

func TestPDFParser_ExtractFailureDegrades(t *testing.T) {
	p := NewPDFParser(stubExtractor{err: errors.New("corrupt xref table")})

	res, err := p.Parse(context.Background(), "broken.pdf")
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
	assert.True(t, res.Degraded())
}

func TestNativeExtractor_NotAPDF(t *testing.T) {
	path := writeTemp(t, "bogus.pdf", "this is not a pdf")

	_, err := NativeExtractor{}.ExtractText(context.Background(), path)
	assert.Error(t, err)
}

func TestExtractorByName(t *testing.T) {
	e, err := ExtractorByName("")
	require.NoError(t, err)
	assert.IsType(t, NativeExtractor{}, e)

	e, err = ExtractorByName("pdftotext")
	require.NoError(t, err)
	assert.IsType(t, PdftotextExtractor{}, e)

	_, err = ExtractorByName("ocr")
	assert.Error(t, err)
}
