package textshield

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no strings", "MATCH (n) RETURN n", "MATCH (n) RETURN n"},
		{"single quoted", "WHERE n.name = 'Alice' RETURN n", "WHERE n.name = ' ' RETURN n"},
		{"double quoted", `WHERE n.name = "Bob" RETURN n`, `WHERE n.name = " " RETURN n`},
		{"escaped quote", `WHERE n.name = 'O\'Brien' RETURN n`, "WHERE n.name = ' ' RETURN n"},
		{"url inside string", "WHERE n.url = 'https://example.com/a' RETURN n", "WHERE n.url = ' ' RETURN n"},
		{"mixed quotes", `WHERE a = 'x' AND b = "y"`, `WHERE a = ' ' AND b = " "`},
		{"quote of other kind inside", `WHERE a = 'he said "hi"'`, "WHERE a = ' '"},
		{"unterminated", "WHERE a = 'oops", "WHERE a = '"},
		{"empty literal", "WHERE a = ''", "WHERE a = ' '"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripStrings(tt.input))
		})
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no comments", "MATCH (n) RETURN n", "MATCH (n) RETURN n"},
		{"line comment", "MATCH (n) // find all\nRETURN n", "MATCH (n) \nRETURN n"},
		{"block comment", "MATCH (n) /* everything */ RETURN n", "MATCH (n)  RETURN n"},
		{"multiline block", "MATCH (n)\n/* a\nb */\nRETURN n", "MATCH (n)\n\nRETURN n"},
		{"marker inside string survives", "WHERE n.url = 'https://x' RETURN n", "WHERE n.url = 'https://x' RETURN n"},
		{"block marker inside string survives", "WHERE a = '/* not a comment */'", "WHERE a = '/* not a comment */'"},
		{"unterminated block", "MATCH (n) /* oops", "MATCH (n) "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripComments(tt.input))
		})
	}
}

func TestStrip_OrderMatters(t *testing.T) {
	// A URL inside a string must not open a line comment after stripping.
	out := Strip("MATCH (n) WHERE n.url = 'https://example.com' RETURN n")
	assert.Contains(t, out, "RETURN n")
	assert.False(t, strings.Contains(out, "example.com"))

	// A comment hiding a quote must not leave an open literal behind.
	out = Strip("MATCH (n) /* don't */ RETURN n")
	assert.Contains(t, out, "RETURN n")
}

func TestStrip_QuoteInCommentDoesNotSwallowTail(t *testing.T) {
	// An apostrophe inside a comment must never open a literal that eats the
	// rest of the query; keywords after the comment have to survive the scan.
	tests := []struct {
		name  string
		input string
	}{
		{"block comment apostrophe", "MATCH (n) /* it's fine */ DETACH DELETE n"},
		{"line comment apostrophe", "MATCH (n) // don't worry\nDETACH DELETE n"},
		{"double quote in block comment", `MATCH (n) /* a "stray */ DETACH DELETE n`},
		{"two odd comments", "MATCH (n) /* can't */ WITH n /* won't */ DETACH DELETE n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Strip(tt.input)
			assert.Contains(t, out, "DETACH DELETE n")
		})
	}
}

func TestStrip_MatchesSingleConcernOutputs(t *testing.T) {
	// With no comment/literal interaction, Strip agrees with the two
	// single-purpose passes.
	input := "WHERE n.name = 'Alice' // note\nRETURN n"
	assert.Equal(t, "WHERE n.name = ' ' \nRETURN n", Strip(input))
	assert.Equal(t, "WHERE a = ' '", Strip("WHERE a = 'he said \"hi\"'"))
	assert.Equal(t, "WHERE a = '", Strip("WHERE a = 'oops"))
}
