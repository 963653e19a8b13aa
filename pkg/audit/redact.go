package audit

import "regexp"

// redactionRule masks one class of personally identifying substring. Rules
// run in order; card patterns run before phone patterns because a card number
// also matches looser digit-run patterns.
type redactionRule struct {
	name    string
	pattern *regexp.Regexp
	mask    string
}

var redactionRules = []redactionRule{
	{
		name:    "email",
		pattern: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
		mask:    "[REDACTED:email]",
	},
	{
		name:    "card",
		pattern: regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`),
		mask:    "[REDACTED:card]",
	},
	{
		name:    "phone",
		pattern: regexp.MustCompile(`\+?\d{1,3}[ .\-]?\(?\d{2,4}\)?(?:[ .\-]?\d{2,4}){2,4}`),
		mask:    "[REDACTED:phone]",
	},
	{
		name:    "national-id",
		pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		mask:    "[REDACTED:id]",
	},
}

// Redactor masks PII-like substrings. Redaction is applied exactly once, at
// record-construction time, before the serialization point.
type Redactor struct {
	rules []redactionRule
}

// NewRedactor returns a redactor with the built-in rule set.
func NewRedactor() *Redactor {
	return &Redactor{rules: redactionRules}
}

// Redact masks every matching substring in text.
func (r *Redactor) Redact(text string) string {
	for _, rule := range r.rules {
		text = rule.pattern.ReplaceAllString(text, rule.mask)
	}
	return text
}

// RedactParams masks string values in a parameter map, returning a new map.
// Non-string values pass through untouched.
func (r *Redactor) RedactParams(params map[string]interface{}) map[string]interface{} {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok {
			out[k] = r.Redact(s)
			continue
		}
		out[k] = v
	}
	return out
}
