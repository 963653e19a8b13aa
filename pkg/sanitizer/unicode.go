package sanitizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Unicode attack detection runs on the original, unmodified query text. It
// must run before any stripping: the attack payload can itself be hidden
// inside a string literal or comment that later steps remove.

// zeroWidthRunes are invisible characters used to split keywords past naive
// matchers.
var zeroWidthRunes = map[rune]bool{
	'\u200B': true, // zero width space
	'\u200C': true, // zero width non-joiner
	'\u200D': true, // zero width joiner
	'\u2060': true, // word joiner
	'\uFEFF': true, // zero width no-break space / BOM
}

// bidiRunes are directional override and embedding controls that reorder
// rendered text relative to its logical order.
var bidiRunes = map[rune]bool{
	'\u202A': true, // left-to-right embedding
	'\u202B': true, // right-to-left embedding
	'\u202C': true, // pop directional formatting
	'\u202D': true, // left-to-right override
	'\u202E': true, // right-to-left override
	'\u2066': true, // left-to-right isolate
	'\u2067': true, // right-to-left isolate
	'\u2068': true, // first strong isolate
	'\u2069': true, // pop directional isolate
	'\u061C': true, // arabic letter mark
}

// maxCombiningRun is the longest tolerated run of combining marks. Legitimate
// text rarely stacks more than two diacritics on a base character.
const maxCombiningRun = 3

// checkUnicode inspects the raw text for encoding-level attacks and returns a
// specific reason for the first violation found. A nil return means the text
// is clean at the encoding layer.
func (s *Sanitizer) checkUnicode(text string) *unicodeViolation {
	if !utf8.ValidString(text) {
		return &unicodeViolation{"invalid_encoding", "query is not valid UTF-8"}
	}
	if strings.ContainsRune(text, utf8.RuneError) {
		return &unicodeViolation{"invalid_encoding", "query contains a replacement character, indicating a failed encoding round-trip"}
	}
	if strings.ContainsRune(text, 0) {
		return &unicodeViolation{"null_byte", "query contains an embedded null byte"}
	}

	combining := 0
	for _, r := range text {
		switch {
		case zeroWidthRunes[r]:
			return &unicodeViolation{"zero_width", "query contains zero-width characters"}
		case bidiRunes[r]:
			return &unicodeViolation{"bidi_override", "query contains bidirectional control characters"}
		case r >= 0x1D400 && r <= 0x1D7FF:
			return &unicodeViolation{"math_alphanumeric", "query contains mathematical alphanumeric lookalikes"}
		case s.cfg.BlockNonASCII && r > unicode.MaxASCII:
			return &unicodeViolation{"non_ascii", "query contains non-ASCII characters"}
		}

		if unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) {
			combining++
			if combining > maxCombiningRun {
				return &unicodeViolation{"combining_run", "query contains an excessive run of combining marks"}
			}
		} else {
			combining = 0
		}
	}

	if tok := firstMixedScriptToken(text); tok != "" {
		return &unicodeViolation{"mixed_script", "query mixes scripts within a single token: " + tok}
	}
	return nil
}

type unicodeViolation struct {
	kind   string
	reason string
}

// firstMixedScriptToken returns the first identifier-shaped token that mixes
// Latin letters with a confusable script (Cyrillic or Greek), or an empty
// string when none exists. Mixing within one token is what makes a lookalike
// visually deceptive; a fully Cyrillic string constant is legitimate data.
func firstMixedScriptToken(text string) string {
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if tok := text[start:i]; tokenMixesScripts(tok) {
				return tok
			}
			start = -1
		}
	}
	if start >= 0 && tokenMixesScripts(text[start:]) {
		return text[start:]
	}
	return ""
}

func tokenMixesScripts(token string) bool {
	var latin, confusable bool
	for _, r := range token {
		switch {
		case unicode.Is(unicode.Latin, r):
			latin = true
		case unicode.Is(unicode.Cyrillic, r), unicode.Is(unicode.Greek, r):
			confusable = true
		}
	}
	return latin && confusable
}

// normalizationChanged reports whether NFKC normalization alters the text.
// Compatibility characters that fold to ASCII keywords are how lookalike
// payloads survive keyword filters, so a change is surfaced as a warning even
// when no individual rune tripped a hard check.
func normalizationChanged(text string) bool {
	return norm.NFKC.String(text) != text
}
