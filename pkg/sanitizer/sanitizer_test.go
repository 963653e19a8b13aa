package sanitizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_AcceptsPlainReads(t *testing.T) {
	s := New(DefaultConfig())

	queries := []string{
		"MATCH (p:Person) RETURN p.name LIMIT 10",
		"MATCH (a:Actor)-[:ACTED_IN]->(m:Movie) WHERE m.year > 2000 RETURN a, m",
		"MATCH (n) RETURN count(n)",
		"MATCH (n) RETURN n;",
	}
	for _, q := range queries {
		result := s.Sanitize(q, nil)
		assert.True(t, result.IsSafe, "query should pass: %s", q)
		assert.Empty(t, result.Error)
	}
}

func TestSanitize_WriteAfterCommentWithQuote(t *testing.T) {
	// A quote character inside a comment must not blind the scanner to the
	// rest of the query. The write keyword after the comment has to be seen.
	s := New(DefaultConfig())

	queries := []string{
		"MATCH (n) /* it's fine */ DETACH DELETE n",
		"MATCH (n) // don't worry\nDETACH DELETE n",
		`MATCH (n) /* a "stray quote */ MERGE (m:Copy)`,
	}
	for _, q := range queries {
		result := s.Sanitize(q, nil)
		require.False(t, result.IsSafe, "write after comment must be rejected: %s", q)
		assert.Contains(t, result.Error, "write operation")
	}
}

func TestSanitize_EmptyAndOversized(t *testing.T) {
	s := New(Config{MaxQueryLength: 100})

	result := s.Sanitize("   ", nil)
	require.False(t, result.IsSafe)
	assert.Contains(t, result.Error, "empty")

	result = s.Sanitize("MATCH (n) RETURN n // "+strings.Repeat("x", 100), nil)
	require.False(t, result.IsSafe)
	assert.Contains(t, result.Error, "maximum length")
}

func TestSanitize_WriteOperations(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"delete", "MATCH (n:Person) DELETE n"},
		{"detach delete", "MATCH (n) DETACH DELETE n"},
		{"detach delete split across lines", "MATCH (n) DETACH\n\t DELETE n"},
		{"merge", "MERGE (p:Person {name: $name})"},
		{"create node", "CREATE (n:Person {name: 'x'})"},
		{"set property", "MATCH (n) SET n.admin = true RETURN n"},
		{"remove", "MATCH (n) REMOVE n.password RETURN n"},
	}

	blocked := New(DefaultConfig())
	permissive := New(Config{AllowWriteOperations: true})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := blocked.Sanitize(tt.query, nil)
			require.False(t, result.IsSafe)
			assert.Contains(t, result.Error, "write operation")

			result = permissive.Sanitize(tt.query, nil)
			assert.True(t, result.IsSafe)
			assert.Contains(t, result.Warnings, "query contains a write operation")
		})
	}
}

func TestSanitize_KeywordInsideStringLiteral(t *testing.T) {
	s := New(DefaultConfig())

	// Quoted content is data, not syntax.
	result := s.Sanitize(`MATCH (p) WHERE p.note = 'please DELETE me' RETURN p`, nil)
	assert.True(t, result.IsSafe, "keyword inside a literal must not trip the write scan")

	// A URL inside a literal is not a comment marker.
	result = s.Sanitize(`MATCH (p) WHERE p.url = 'http://example.com/path' RETURN p`, nil)
	assert.True(t, result.IsSafe, "// inside a literal must not start a comment")
}

func TestSanitize_DangerousConstructs(t *testing.T) {
	s := New(Config{AllowWriteOperations: true, AllowAdminProcedures: true, AllowSchemaChanges: true})

	tests := []struct {
		name  string
		query string
	}{
		{"load csv", "LOAD CSV FROM 'file:///etc/passwd' AS line RETURN line"},
		{"load csv split", "LOAD\n  CSV FROM $url AS line RETURN line"},
		{"apoc load", "CALL apoc.load.json('https://evil.example') YIELD value RETURN value"},
		{"apoc export", "CALL apoc.export.csv.all('dump.csv', {})"},
		{"dynamic execution", "CALL apoc.cypher.run($q, {}) YIELD value RETURN value"},
		{"statement chaining", "MATCH (n) RETURN n; DROP DATABASE neo4j"},
		{"huge range", "UNWIND range(0, 99999999) AS i RETURN i"},
		{"apoc periodic", "CALL apoc.periodic.iterate($a, $b, {})"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Sanitize(tt.query, nil)
			require.False(t, result.IsSafe, "query should be rejected: %s", tt.query)
			assert.Contains(t, result.Error, "forbidden")
		})
	}
}

func TestSanitize_AdminProcedures(t *testing.T) {
	blocked := New(DefaultConfig())
	permissive := New(Config{AllowAdminProcedures: true})

	query := "CALL dbms.listConfig() YIELD name RETURN name"

	result := blocked.Sanitize(query, nil)
	require.False(t, result.IsSafe)
	assert.Contains(t, result.Error, "administrative")

	result = permissive.Sanitize(query, nil)
	assert.True(t, result.IsSafe)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "administrative")
}

func TestSanitize_SchemaChanges(t *testing.T) {
	blocked := New(DefaultConfig())
	permissive := New(Config{AllowSchemaChanges: true})

	query := "CREATE INDEX person_name FOR (p:Person) ON (p.name)"

	result := blocked.Sanitize(query, nil)
	require.False(t, result.IsSafe)
	assert.Contains(t, result.Error, "schema change")

	// A permitted schema change must not be re-flagged as a write operation.
	result = permissive.Sanitize(query, nil)
	assert.True(t, result.IsSafe, "permitted CREATE INDEX rejected: %s", result.Error)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "schema change")
}

func TestSanitize_UnbalancedDelimiters(t *testing.T) {
	s := New(DefaultConfig())

	tests := []struct {
		name  string
		query string
	}{
		{"missing close paren", "MATCH (n RETURN n"},
		{"extra close paren", "MATCH (n)) RETURN n"},
		{"unbalanced brace", "MATCH (n {name: 'x') RETURN n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Sanitize(tt.query, nil)
			require.False(t, result.IsSafe)
			assert.Contains(t, result.Error, "unbalanced")
		})
	}
}

func TestSanitize_StrictModePromotesWarnings(t *testing.T) {
	query := "MATCH (n) SET n.flag = true RETURN n"

	relaxed := New(Config{AllowWriteOperations: true})
	result := relaxed.Sanitize(query, nil)
	assert.True(t, result.IsSafe)
	assert.NotEmpty(t, result.Warnings)

	strict := New(Config{AllowWriteOperations: true, StrictMode: true})
	result = strict.Sanitize(query, nil)
	require.False(t, result.IsSafe)
	assert.Contains(t, result.Error, "strict mode")
}

func TestSanitize_Parameters(t *testing.T) {
	s := New(Config{MaxParameters: 2, MaxParameterLength: 32})

	tests := []struct {
		name    string
		params  map[string]interface{}
		safe    bool
		errPart string
	}{
		{
			name:   "clean parameters",
			params: map[string]interface{}{"name": "Alice", "age": 42},
			safe:   true,
		},
		{
			name:    "too many parameters",
			params:  map[string]interface{}{"a": 1, "b": 2, "c": 3},
			safe:    false,
			errPart: "too many parameters",
		},
		{
			name:    "invalid name",
			params:  map[string]interface{}{"bad-name": "x"},
			safe:    false,
			errPart: "invalid parameter name",
		},
		{
			name:    "oversized value",
			params:  map[string]interface{}{"blob": strings.Repeat("x", 33)},
			safe:    false,
			errPart: "maximum value length",
		},
		{
			name:    "quote breakout",
			params:  map[string]interface{}{"name": "x'}) DETACH DELETE n //"},
			safe:    false,
			errPart: "suspicious",
		},
		{
			name:    "apoc in value",
			params:  map[string]interface{}{"proc": "apoc.cypher.run"},
			safe:    false,
			errPart: "suspicious",
		},
		{
			name:   "non-string values are ignored by the scan",
			params: map[string]interface{}{"ids": []int{1, 2, 3}, "flag": true},
			safe:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Sanitize("MATCH (n) WHERE n.name = $name RETURN n", tt.params)
			if tt.safe {
				assert.True(t, result.IsSafe, "unexpected rejection: %s", result.Error)
			} else {
				require.False(t, result.IsSafe)
				assert.Contains(t, result.Error, tt.errPart)
			}
		})
	}
}

func TestSanitize_ParameterViolationIsDeterministic(t *testing.T) {
	s := New(DefaultConfig())
	params := map[string]interface{}{
		"zz-late":  "x",
		"aa-early": "x",
	}
	// Both names are invalid; the reported one must not depend on map order.
	for i := 0; i < 10; i++ {
		result := s.Sanitize("MATCH (n) RETURN n", params)
		require.False(t, result.IsSafe)
		assert.Contains(t, result.Error, "aa-early")
	}
}

func TestSanitize_IsPure(t *testing.T) {
	s := New(DefaultConfig())
	query := "MATCH (n) DELETE n"
	first := s.Sanitize(query, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Sanitize(query, nil))
	}
}
