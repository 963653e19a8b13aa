package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_UnicodeAttacks(t *testing.T) {
	s := New(DefaultConfig())

	tests := []struct {
		name    string
		query   string
		errPart string
	}{
		{
			name:    "zero width space splits a keyword",
			query:   "MATCH (n) DE\u200BLETE n",
			errPart: "zero-width",
		},
		{
			name:    "zero width joiner",
			query:   "MATCH (n) RETURN n\u200D",
			errPart: "zero-width",
		},
		{
			name:    "byte order mark mid-query",
			query:   "MATCH (n) RE\uFEFFTURN n",
			errPart: "zero-width",
		},
		{
			name:    "right to left override",
			query:   "MATCH (n) WHERE n.name = 'x\u202Ey' RETURN n",
			errPart: "bidirectional",
		},
		{
			name:    "null byte",
			query:   "MATCH (n) RETURN n\x00",
			errPart: "null byte",
		},
		{
			name:    "invalid utf8",
			query:   "MATCH (n) RETURN n\xff\xfe",
			errPart: "UTF-8",
		},
		{
			name:    "mathematical alphanumeric lookalike",
			query:   "\U0001d40cATCH (n) RETURN n",
			errPart: "mathematical",
		},
		{
			name:    "cyrillic homoglyph inside a latin token",
			query:   "MATCH (n) WHERE n.nаme = $x RETURN n",
			errPart: "mixes scripts",
		},
		{
			name:    "excessive combining marks",
			query:   "MATCH (n) WHERE n.name = 'é́́́' RETURN n",
			errPart: "combining",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Sanitize(tt.query, nil)
			require.False(t, result.IsSafe, "query should be rejected: %q", tt.query)
			assert.Contains(t, result.Error, tt.errPart)
		})
	}
}

func TestSanitize_UnicodeInDataIsLegitimate(t *testing.T) {
	s := New(DefaultConfig())

	// A fully Cyrillic literal is data, not a lookalike attack.
	result := s.Sanitize("MATCH (p) WHERE p.name = 'Привет' RETURN p", nil)
	assert.True(t, result.IsSafe, "unexpected rejection: %s", result.Error)

	// Two stacked diacritics are within tolerance.
	result = s.Sanitize("MATCH (p) WHERE p.name = 'é̂' RETURN p", nil)
	assert.True(t, result.IsSafe, "unexpected rejection: %s", result.Error)
}

func TestSanitize_AttackInsideLiteralStillRejected(t *testing.T) {
	s := New(DefaultConfig())

	// Encoding checks run on the original text, before stripping, so hiding
	// the payload inside a literal does not help.
	result := s.Sanitize("MATCH (n) WHERE n.x = 'a\u200Bb' RETURN n", nil)
	require.False(t, result.IsSafe)
	assert.Contains(t, result.Error, "zero-width")
}

func TestSanitize_BlockNonASCII(t *testing.T) {
	s := New(Config{BlockNonASCII: true})

	result := s.Sanitize("MATCH (p) WHERE p.name = 'Привет' RETURN p", nil)
	require.False(t, result.IsSafe)
	assert.Contains(t, result.Error, "non-ASCII")

	result = s.Sanitize("MATCH (p) RETURN p", nil)
	assert.True(t, result.IsSafe)
}

func TestSanitize_NormalizationWarning(t *testing.T) {
	s := New(DefaultConfig())

	// A fullwidth letter folds to ASCII under NFKC. No single rune trips a
	// hard check, so the finding surfaces as a warning.
	result := s.Sanitize("MATCH (n) RETURN n AS Ｍ", nil)
	assert.True(t, result.IsSafe, "unexpected rejection: %s", result.Error)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "NFKC")

	strict := New(Config{StrictMode: true})
	result = strict.Sanitize("MATCH (n) RETURN n AS Ｍ", nil)
	assert.False(t, result.IsSafe)
}
