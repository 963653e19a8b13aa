package complexity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cyphergate/cyphergate/pkg/textshield"
)

var (
	// limitPattern matches both literal and parameterized cardinality limits.
	limitPattern      = regexp.MustCompile(`(?is)\bLIMIT\s+(?:\d+|\$\w+)`)
	returnPattern     = regexp.MustCompile(`(?is)\bRETURN\b`)
	yieldPattern      = regexp.MustCompile(`(?is)\bYIELD\b`)
	returnClauseTail  = regexp.MustCompile(`(?is)\bRETURN\s+(?:DISTINCT\s+)?(.*)$`)
	orderSkipLimit    = regexp.MustCompile(`(?is)\b(?:ORDER\s+BY|SKIP|LIMIT)\b.*$`)
	aggregateCallOnly = regexp.MustCompile(`(?is)^\s*(?:count|collect|sum|avg|min|max|percentileCont|percentileDisc|stDev)\s*\(`)
)

// HasLimit reports whether the query already carries a top-level cardinality
// limit, literal or parameterized. Occurrences inside string literals or
// comments do not count.
func HasLimit(query string) bool {
	return limitPattern.MatchString(textshield.Strip(query))
}

// HasProjection reports whether the query produces any projected output. A
// query with no output clause must never receive an injected limit: appending
// one would be syntactically invalid.
func HasProjection(query string) bool {
	stripped := textshield.Strip(query)
	return returnPattern.MatchString(stripped) || yieldPattern.MatchString(stripped)
}

// isPureAggregation reports whether every projected item is an aggregation
// call with no grouping key. Limiting such a query is semantically
// meaningless: it returns a single row regardless.
func isPureAggregation(stripped string) bool {
	m := returnClauseTail.FindStringSubmatch(stripped)
	if m == nil {
		return false
	}
	items := orderSkipLimit.ReplaceAllString(m[1], "")
	any := false
	for _, item := range splitTopLevel(items) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !aggregateCallOnly.MatchString(item) {
			return false
		}
		any = true
	}
	return any
}

// MaybeInjectLimit appends a bounding LIMIT clause when the query is
// unbounded and bounding it is syntactically and semantically valid. The
// second return reports whether the query was rewritten.
func MaybeInjectLimit(query string, maxRows int) (string, bool) {
	if maxRows <= 0 {
		return query, false
	}
	if HasLimit(query) {
		return query, false
	}
	if !HasProjection(query) {
		return query, false
	}
	if isPureAggregation(textshield.Strip(query)) {
		return query, false
	}
	return strings.TrimRight(query, " \t\n;") + fmt.Sprintf(" LIMIT %d", maxRows), true
}
