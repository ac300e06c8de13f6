package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatEuro(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{75, "75 €"},
		{82.5, "82,5 €"},
		{1234.5, "1 234,5 €"},
		{110.00000000000001, "110 €"},
		{12000, "12 000 €"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatEuro(tt.in))
	}
}

func TestFormatRounded(t *testing.T) {
	assert.Equal(t, "2 700 €", FormatEuroRounded(2699.6))
	assert.Equal(t, "-1 500 €", FormatEuroRounded(-1500))
	assert.Equal(t, "12,5 %", FormatPercent(12.5))
	assert.Equal(t, "30,4 j", FormatDays(365.0/12))
}

func TestFormatFrenchDate(t *testing.T) {
	d := time.Date(2025, time.December, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "30 décembre 2025", FormatFrenchDate(d))
	assert.Equal(t, "août 2024", FormatFrenchMonthYear(time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "42", formatInt("42.0"))
	assert.Equal(t, "3", formatInt(" 3,5 "))
	assert.Equal(t, "abc", formatInt("abc"))
	assert.Equal(t, "", formatInt("  "))
}

func TestYesNo(t *testing.T) {
	for _, s := range []string{"oui", "Yes", "TRUE", "1"} {
		assert.Equal(t, "Oui", yesNo(s), s)
	}
	for _, s := range []string{"non", "", "false", "0", "peut-être"} {
		assert.Equal(t, "Non", yesNo(s), s)
	}
}
