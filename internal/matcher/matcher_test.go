package matcher

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docfill/internal/domain"
)

func collect(s *Scanner, texts ...string) []domain.Token {
	return slices.Collect(s.Tokens(texts))
}

func TestNewScanner(t *testing.T) {
	s := NewScanner(domain.Delimiters{})
	if s == nil {
		t.Fatal("Expected non-nil scanner")
	}
	assert.Equal(t, domain.DefaultDelimiters, s.Delimiters())
}

func TestScanner_Tokens(t *testing.T) {
	s := NewScanner(domain.DefaultDelimiters)

	tests := []struct {
		name     string
		texts    []string
		expected []string
	}{
		{
			name:     "single token",
			texts:    []string{"Bonjour [[NOM]] !"},
			expected: []string{"NOM"},
		},
		{
			name:     "multiple tokens",
			texts:    []string{"[[A]] et [[B]]"},
			expected: []string{"A", "B"},
		},
		{
			name:     "split across runs",
			texts:    []string{"Hello [[", "NA", "ME]] world"},
			expected: []string{"NAME"},
		},
		{
			name:     "nested opener uses nearest",
			texts:    []string{"[[ [[X]]"},
			expected: []string{"X"},
		},
		{
			name:     "extra leading bracket",
			texts:    []string{"[[[A]]"},
			expected: []string{"A"},
		},
		{
			name:     "unterminated",
			texts:    []string{"[[NOM sans fin"},
			expected: nil,
		},
		{
			name:     "empty body",
			texts:    []string{"[[]] et [[  ]]"},
			expected: nil,
		},
		{
			name:     "newline in body",
			texts:    []string{"[[A\nB]] puis [[C]]"},
			expected: []string{"C"},
		},
		{
			name:     "single bracket inside body",
			texts:    []string{"[[A[B]] [[OK]]"},
			expected: []string{"OK"},
		},
		{
			name:     "whitespace trimmed case kept",
			texts:    []string{"[[ prix_Nuit ]]"},
			expected: []string{"prix_Nuit"},
		},
		{
			name:     "no tokens",
			texts:    []string{"Texte normal", ""},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for _, tok := range collect(s, tt.texts...) {
				names = append(names, tok.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestScanner_TokenFragments(t *testing.T) {
	s := NewScanner(domain.DefaultDelimiters)

	toks := collect(s, "ab[[", "", "NA", "ME]]cd")
	require.Len(t, toks, 1)

	tok := toks[0]
	assert.Equal(t, "[[NAME]]", tok.Raw)
	assert.Equal(t, 2, tok.Start)
	assert.Equal(t, 10, tok.End)
	assert.Equal(t, []domain.Fragment{
		{Run: 0, Start: 2, End: 4},
		{Run: 2, Start: 0, End: 2},
		{Run: 3, Start: 0, End: 4},
	}, tok.Fragments)
}

func TestScanner_Guillemets(t *testing.T) {
	s := NewScanner(domain.GuillemetDelimiters)

	toks := collect(s, "Nom : «Nom_du_", "propriétaire» le «MANDAT_JOUR_SIGNATURE»")
	require.Len(t, toks, 2)
	assert.Equal(t, "Nom_du_propriétaire", toks[0].Name)
	assert.Equal(t, "MANDAT_JOUR_SIGNATURE", toks[1].Name)

	// [[ ]] 不会被邮件合并扫描器识别
	assert.Empty(t, collect(s, "[[NOM]]"))
}

func TestScanner_DoesNotMutateInput(t *testing.T) {
	s := NewScanner(domain.DefaultDelimiters)
	texts := []string{"[[A", "]]"}
	_ = collect(s, texts...)
	assert.Equal(t, []string{"[[A", "]]"}, texts)
}

func TestScanner_StopEarly(t *testing.T) {
	s := NewScanner(domain.DefaultDelimiters)
	count := 0
	for range s.Tokens([]string{"[[A]] [[B]] [[C]]"}) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestScanner_ScanText(t *testing.T) {
	s := NewScanner(domain.DefaultDelimiters)
	var names []string
	for tok := range s.ScanText("x [[A]]\n[[B]] [[C") {
		names = append(names, tok.Name)
		assert.Nil(t, tok.Fragments)
	}
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestValidateTokenFormat(t *testing.T) {
	d := domain.DefaultDelimiters
	tests := []struct {
		token    string
		expected bool
	}{
		{"[[NAME]]", true},
		{"[[NAME]", false},
		{"NAME", false},
		{"[[]]", false},
		{"[[A]B]]", false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateTokenFormat(tt.token, d))
		})
	}
}

func TestTokenNameAndFormat(t *testing.T) {
	d := domain.DefaultDelimiters
	assert.Equal(t, "NAME", TokenName("[[ NAME ]]", d))
	assert.Equal(t, "NAME", TokenName("NAME", d))
	assert.Equal(t, "[[NAME]]", FormatToken("NAME", d))
	assert.Equal(t, "[[NAME]]", FormatToken("[[NAME]]", d))
	assert.Equal(t, "«Nom»", FormatToken("Nom", domain.GuillemetDelimiters))
}

func BenchmarkScanner_Tokens(b *testing.B) {
	s := NewScanner(domain.DefaultDelimiters)
	texts := []string{"Adresse : [[ADRESSE]] ", "prix [[PRIX_", "NUIT]] et [[TAUX_OCC]] ", "fin du texte"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for range s.Tokens(texts) {
		}
	}
}
