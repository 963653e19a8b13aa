// Package textshield strips string literals and comments from query text so
// downstream pattern matching never fires on quoted content. It is shared by
// the sanitizer and the complexity analyzer.
package textshield

import "strings"

// StripStrings replaces the contents of every string literal with a single
// space, keeping the surrounding quotes. Both quote styles are handled and
// backslash escapes inside a literal are honored, so an escaped quote does
// not terminate the literal early. Unterminated literals are stripped to the
// end of the text.
func StripStrings(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	var quote byte
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case quote:
				inString = false
				b.WriteByte(' ')
				b.WriteByte(quote)
			}
			continue
		}
		if c == '\'' || c == '"' {
			inString = true
			quote = c
			b.WriteByte(c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// StripComments removes line comments (// to end of line) and block comments
// (/* to */) from text. String literals are tracked so comment markers inside
// a literal survive; use Strip when literal contents must be blanked as well.
// Line terminators are preserved so keyword boundaries that depend on
// newlines stay intact.
func StripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	var quote byte
	inString := false
	escaped := false
	inLine := false
	inBlock := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inLine {
			if c == '\n' {
				inLine = false
				b.WriteByte(c)
			}
			continue
		}
		if inBlock {
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				inBlock = false
				i++
			}
			continue
		}
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case quote:
				inString = false
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			inString = true
			quote = c
			b.WriteByte(c)
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			inLine = true
			i++
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			inBlock = true
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Strip blanks string-literal contents and removes comments in one combined
// scan. A single pass is required: a comment marker hidden in a literal must
// not open a comment, and a quote inside a comment must not open a literal.
// Composing the two single-purpose passes gets one of those directions wrong,
// whichever runs first.
func Strip(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	var quote byte
	inString := false
	escaped := false
	inLine := false
	inBlock := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inLine {
			if c == '\n' {
				inLine = false
				b.WriteByte(c)
			}
			continue
		}
		if inBlock {
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				inBlock = false
				i++
			}
			continue
		}
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case quote:
				inString = false
				b.WriteByte(' ')
				b.WriteByte(quote)
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			inString = true
			quote = c
			b.WriteByte(c)
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			inLine = true
			i++
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			inBlock = true
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
