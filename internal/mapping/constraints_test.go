package mapping

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCompactLine(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Ligne 3 (Station Villiers) - 5min à pied", "L3 Villiers - 5min"},
		{"Bus 30 Villiers – 2 minutes", "Bus 30 Villiers - 2 min"},
		{"Arrêt Rome; ligne 94", "Rome L94"},
		{"  - Taxi -  ", "Taxi"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CompactLine(tt.in), tt.in)
	}
}

func TestEnforceLimits(t *testing.T) {
	t.Run("caps number of lines", func(t *testing.T) {
		result := EnforceLimits("L1\nL2\nL3\nL4\nL5", 200, MetroMaxLines)
		assert.Len(t, strings.Split(result, "\n"), MetroMaxLines)
	})

	t.Run("truncates with ellipsis", func(t *testing.T) {
		result := EnforceLimits("12345678901234567890", 10, 1)
		assert.Equal(t, "123456789…", result)
		assert.Equal(t, 10, utf8.RuneCountInString(result))
	})

	t.Run("compacts common patterns", func(t *testing.T) {
		assert.Equal(t, "L3 Villiers - 5min", EnforceLimits("Ligne 3 (Station Villiers) - 5min à pied", 50, 1))
	})

	t.Run("prefers fewer lines before truncating", func(t *testing.T) {
		text := "Bus 30 Villiers - 2 minutes\nBus 31 Villiers - 3 minutes\nBus 43 Villiers - 4 minutes\nBus 90 Longlabel"
		result := EnforceLimits(text, 60, BusMaxLines)
		assert.Equal(t, "Bus 30 Villiers - 2 min\nBus 31 Villiers - 3 min", result)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", EnforceLimits(" \n ", 10, 2))
	})
}

func TestTruncateClean(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		max       int
		expected  string
		truncated bool
	}{
		{"newline", "Ligne 1\nLigne 2\nLigne 3", 10, "Ligne 1…", true},
		{"punctuation", "Phrase complète. Suite trop longue: encore plus de texte", 30, "Phrase complète.…", true},
		{"space", "Lorem ipsum dolor sit amet", 15, "Lorem ipsum…", true},
		{"no break", "abcdefghij", 5, "abcd…", true},
		{"short enough", "court", 10, "court", false},
		{"zero limit", "texte", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := TruncateClean(tt.text, tt.max)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.truncated, truncated)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), max(tt.max, 0))
		})
	}
}
