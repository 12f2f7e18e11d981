package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-03-07", FormatDate(2024, 3, 7))
	assert.Equal(t, "2023-12-31", FormatDate(2023, 12, 31))
	assert.Equal(t, "2025-01-01", FormatDate(2025, 1, 1))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"-45.67", "-45.67"},
		{"45.67", "45.67"},
		{"+5.00", "5.00"},
		{"1,234.56", "1234.56"},
		{"-$1,234.56", "-1234.56"},
		{"$0.99", "0.99"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "-", "abc", "1.2.3"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestMonthNames(t *testing.T) {
	m, ok := monthFromName("February")
	require.True(t, ok)
	assert.Equal(t, time.February, m)

	m, ok = monthFromName("dec")
	require.True(t, ok)
	assert.Equal(t, time.December, m)

	_, ok = monthFromName("Smarch")
	assert.False(t, ok)
}
