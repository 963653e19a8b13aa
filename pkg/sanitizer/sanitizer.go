// Package sanitizer validates untrusted query text and parameters against
// injection and Unicode-level attacks. Detection is heuristic and
// pattern-based; rejection is a normal return value, never a panic.
package sanitizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cyphergate/cyphergate/pkg/models"
	"github.com/cyphergate/cyphergate/pkg/textshield"
)

// Config controls which rules fire and the hard input ceilings.
type Config struct {
	MaxQueryLength       int
	StrictMode           bool
	AllowWriteOperations bool
	AllowAdminProcedures bool
	AllowSchemaChanges   bool
	BlockNonASCII        bool
	MaxParameters        int
	MaxParameterLength   int
}

// DefaultConfig returns the default sanitizer configuration.
func DefaultConfig() Config {
	return Config{
		MaxQueryLength:     10000,
		MaxParameters:      64,
		MaxParameterLength: 4096,
	}
}

// Sanitizer validates queries against a fixed configuration. Sanitize is a
// pure function of (query, parameters, config): identical inputs always
// produce identical results.
type Sanitizer struct {
	cfg Config
}

// New creates a sanitizer with the given configuration, applying defaults for
// unset ceilings.
func New(cfg Config) *Sanitizer {
	def := DefaultConfig()
	if cfg.MaxQueryLength <= 0 {
		cfg.MaxQueryLength = def.MaxQueryLength
	}
	if cfg.MaxParameters <= 0 {
		cfg.MaxParameters = def.MaxParameters
	}
	if cfg.MaxParameterLength <= 0 {
		cfg.MaxParameterLength = def.MaxParameterLength
	}
	return &Sanitizer{cfg: cfg}
}

// Sanitize runs the full validation pipeline. The step order is load-bearing:
// Unicode inspection runs on the original text before any stripping, because
// an encoding attack can hide inside a literal or comment that stripping
// would remove; pattern matching runs only on fully stripped text so quoted
// content is never misclassified as syntax.
func (s *Sanitizer) Sanitize(query string, params map[string]interface{}) models.SanitizationResult {
	var warnings []string

	// Step 1: cheap length check.
	if strings.TrimSpace(query) == "" {
		return models.Unsafe("query cannot be empty", nil)
	}
	if len(query) > s.cfg.MaxQueryLength {
		return models.Unsafe(fmt.Sprintf("query exceeds maximum length of %d characters", s.cfg.MaxQueryLength), nil)
	}

	// Step 2: Unicode and encoding attacks, on the original text.
	if v := s.checkUnicode(query); v != nil {
		return models.Unsafe(v.reason, nil)
	}
	if normalizationChanged(query) {
		warnings = append(warnings, "query text changes under NFKC normalization")
	}

	// Steps 3-4: strip literals, then comments.
	stripped := textshield.Strip(query)

	// Step 5: dangerous patterns on stripped text.
	if reason := s.checkDangerous(stripped, &warnings); reason != "" {
		return models.Unsafe(reason, warnings)
	}
	if err := checkBalancedDelimiters(stripped); err != "" {
		return models.Unsafe(err, warnings)
	}

	// Step 6 warnings were accumulated by checkDangerous. In strict mode any
	// warning-level finding is promoted to a rejection.
	if s.cfg.StrictMode && len(warnings) > 0 {
		return models.Unsafe("strict mode: "+warnings[0], warnings)
	}

	// Step 7: parameter validation.
	if reason := s.checkParameters(params); reason != "" {
		return models.Unsafe(reason, warnings)
	}

	return models.Safe(warnings)
}

// checkDangerous evaluates pattern tables against the stripped query. It
// returns a rejection reason, or accumulates warnings for suspicious but
// permitted constructs.
func (s *Sanitizer) checkDangerous(stripped string, warnings *[]string) string {
	for _, p := range dangerousPatterns {
		if p.Regex.MatchString(stripped) {
			return fmt.Sprintf("query contains a forbidden %s construct (%s)", p.Category, p.Name)
		}
	}

	for _, p := range adminPatterns {
		if p.Regex.MatchString(stripped) {
			if !s.cfg.AllowAdminProcedures {
				return fmt.Sprintf("query contains an administrative procedure (%s)", p.Name)
			}
			*warnings = append(*warnings, fmt.Sprintf("administrative procedure permitted by configuration (%s)", p.Name))
			break
		}
	}

	// Schema mutations are checked before generic write matching so a
	// permitted CREATE INDEX is not re-flagged as a write operation.
	schemaText := stripped
	for _, p := range schemaPatterns {
		if p.Regex.MatchString(schemaText) {
			if !s.cfg.AllowSchemaChanges {
				return fmt.Sprintf("query contains a schema change (%s)", p.Name)
			}
			*warnings = append(*warnings, fmt.Sprintf("schema change permitted by configuration (%s)", p.Name))
			schemaText = p.Regex.ReplaceAllString(schemaText, " ")
		}
	}

	if !s.cfg.AllowWriteOperations && ContainsWriteOperation(schemaText) {
		return "query contains a write operation, which is not permitted"
	}
	if s.cfg.AllowWriteOperations && ContainsWriteOperation(schemaText) {
		*warnings = append(*warnings, "query contains a write operation")
	}

	return ""
}

// checkBalancedDelimiters verifies paired delimiters on stripped text. The
// input has no string literals left, so plain counting is sufficient.
func checkBalancedDelimiters(stripped string) string {
	pairs := []struct {
		open, close rune
		name        string
	}{
		{'(', ')', "parentheses"},
		{'[', ']', "brackets"},
		{'{', '}', "braces"},
	}
	for _, p := range pairs {
		depth := 0
		for _, r := range stripped {
			switch r {
			case p.open:
				depth++
			case p.close:
				depth--
				if depth < 0 {
					return fmt.Sprintf("query has unbalanced %s", p.name)
				}
			}
		}
		if depth != 0 {
			return fmt.Sprintf("query has unbalanced %s", p.name)
		}
	}
	return ""
}

// checkParameters validates the parameter map: identifier-shaped names, a
// count ceiling, a per-value length ceiling, and an injection scan on string
// values.
func (s *Sanitizer) checkParameters(params map[string]interface{}) string {
	if len(params) == 0 {
		return ""
	}
	if len(params) > s.cfg.MaxParameters {
		return fmt.Sprintf("too many parameters: %d exceeds the maximum of %d", len(params), s.cfg.MaxParameters)
	}
	// Names are visited in sorted order so the reported violation is the same
	// for identical inputs.
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := params[name]
		if !paramNamePattern.MatchString(name) {
			return fmt.Sprintf("invalid parameter name: %q", name)
		}
		str, ok := value.(string)
		if !ok {
			continue
		}
		if len(str) > s.cfg.MaxParameterLength {
			return fmt.Sprintf("parameter %q exceeds the maximum value length of %d", name, s.cfg.MaxParameterLength)
		}
		for _, p := range paramValuePatterns {
			if p.Regex.MatchString(str) {
				return fmt.Sprintf("parameter %q contains a suspicious %s marker (%s)", name, p.Category, p.Name)
			}
		}
	}
	return ""
}
