package sanitizer

import "regexp"

// PatternCategory groups detection patterns by the attack class they cover.
type PatternCategory string

const (
	CategoryWrite       PatternCategory = "write_operation"
	CategoryFilesystem  PatternCategory = "filesystem_access"
	CategoryDynamicExec PatternCategory = "dynamic_execution"
	CategoryAdmin       PatternCategory = "admin_procedure"
	CategoryChaining    PatternCategory = "statement_chaining"
	CategoryIteration   PatternCategory = "unbounded_iteration"
	CategorySchema      PatternCategory = "schema_change"
)

// DetectionPattern is one named, versioned detection rule. The pattern lists
// are the most bug-prone part of the pipeline: every discovered bypass becomes
// a new entry or a regression test against an existing one.
type DetectionPattern struct {
	Name     string
	Category PatternCategory
	Regex    *regexp.Regexp
}

// writePatterns match destructive or mutating operations. Keyword and operand
// may be separated by any run of whitespace, including tabs and newlines: a
// naive space-only match is a known bypass.
var writePatterns = []DetectionPattern{
	{"detach-delete", CategoryWrite, regexp.MustCompile(`(?is)\bDETACH\s+DELETE\b`)},
	{"delete", CategoryWrite, regexp.MustCompile(`(?is)\bDELETE\b`)},
	{"create-node", CategoryWrite, regexp.MustCompile(`(?is)\bCREATE\s*\(`)},
	{"create-clause", CategoryWrite, regexp.MustCompile(`(?is)\bCREATE\s+(?:\(|\w)`)},
	{"merge", CategoryWrite, regexp.MustCompile(`(?is)\bMERGE\b`)},
	{"set-property", CategoryWrite, regexp.MustCompile(`(?is)\bSET\s+\w+(?:\.\w+)?\s*[=+]`)},
	{"remove", CategoryWrite, regexp.MustCompile(`(?is)\bREMOVE\s+\w`)},
	{"drop", CategoryWrite, regexp.MustCompile(`(?is)\bDROP\s+\w`)},
}

// dangerousPatterns match operations that are rejected regardless of the
// write-operation toggle.
var dangerousPatterns = []DetectionPattern{
	{"load-csv", CategoryFilesystem, regexp.MustCompile(`(?is)\bLOAD\s+CSV\b`)},
	{"apoc-load", CategoryFilesystem, regexp.MustCompile(`(?i)\bapoc\.load\.\w+`)},
	{"apoc-export", CategoryFilesystem, regexp.MustCompile(`(?i)\bapoc\.export\.\w+`)},
	{"file-url", CategoryFilesystem, regexp.MustCompile(`(?i)\bfile:///`)},
	{"apoc-cypher-run", CategoryDynamicExec, regexp.MustCompile(`(?i)\bapoc\.cypher\.(?:run|doIt|runMany|runSchema)\b`)},
	{"apoc-trigger", CategoryDynamicExec, regexp.MustCompile(`(?i)\bapoc\.trigger\.\w+`)},
	{"apoc-custom", CategoryDynamicExec, regexp.MustCompile(`(?i)\bapoc\.custom\.\w+`)},
	{"statement-separator", CategoryChaining, regexp.MustCompile(`;\s*\S`)},
	{"huge-range", CategoryIteration, regexp.MustCompile(`(?i)\brange\s*\(\s*\d+\s*,\s*\d{7,}`)},
	{"unbounded-foreach-range", CategoryIteration, regexp.MustCompile(`(?is)\bFOREACH\s*\(.*\brange\s*\(\s*\d+\s*,\s*\d{6,}`)},
	{"apoc-periodic", CategoryIteration, regexp.MustCompile(`(?i)\bapoc\.periodic\.\w+`)},
}

// adminPatterns match administrative and system procedures. Rejected unless
// the sanitizer is configured to allow them; when allowed they downgrade to
// warnings.
var adminPatterns = []DetectionPattern{
	{"dbms-procedure", CategoryAdmin, regexp.MustCompile(`(?i)\bdbms\.\w+`)},
	{"call-dbms", CategoryAdmin, regexp.MustCompile(`(?is)\bCALL\s+dbms\b`)},
	{"system-database", CategoryAdmin, regexp.MustCompile(`(?is)\bUSE\s+system\b`)},
	{"user-management", CategoryAdmin, regexp.MustCompile(`(?is)\b(?:CREATE|ALTER|DROP)\s+(?:USER|ROLE|DATABASE)\b`)},
	{"grant-revoke", CategoryAdmin, regexp.MustCompile(`(?is)\b(?:GRANT|REVOKE|DENY)\s+\w`)},
}

// schemaPatterns match schema mutations. Rejected unless schema changes are
// allowed; when allowed they are surfaced as warnings.
var schemaPatterns = []DetectionPattern{
	{"create-index", CategorySchema, regexp.MustCompile(`(?is)\bCREATE\s+(?:BTREE\s+|TEXT\s+|POINT\s+|RANGE\s+|LOOKUP\s+|FULLTEXT\s+)?INDEX\b`)},
	{"drop-index", CategorySchema, regexp.MustCompile(`(?is)\bDROP\s+INDEX\b`)},
	{"create-constraint", CategorySchema, regexp.MustCompile(`(?is)\bCREATE\s+CONSTRAINT\b`)},
	{"drop-constraint", CategorySchema, regexp.MustCompile(`(?is)\bDROP\s+CONSTRAINT\b`)},
	{"db-schema-procedure", CategorySchema, regexp.MustCompile(`(?i)\bdb\.(?:createIndex|createUniquePropertyConstraint|index\.fulltext\.createNodeIndex)\b`)},
}

// paramValuePatterns scan parameter values for injection markers. Values are
// data, never code, so markers that would be legitimate in query text are
// suspicious here.
var paramValuePatterns = []DetectionPattern{
	{"param-statement-separator", CategoryChaining, regexp.MustCompile(`;\s*\w`)},
	{"param-comment-marker", CategoryChaining, regexp.MustCompile(`(?:^|\s)//|/\*`)},
	{"param-quote-breakout", CategoryChaining, regexp.MustCompile(`['"]\s*(?:\}|\)|;)`)},
	{"param-call-procedure", CategoryDynamicExec, regexp.MustCompile(`(?is)\bCALL\s+\w+(?:\.\w+)+`)},
	{"param-apoc", CategoryDynamicExec, regexp.MustCompile(`(?i)\bapoc\.\w+`)},
	{"param-write-keyword", CategoryWrite, regexp.MustCompile(`(?is)\b(?:DETACH\s+DELETE|DELETE|MERGE|DROP)\s+\w`)},
}

// paramNamePattern constrains parameter names to identifier shape.
var paramNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ContainsWriteOperation reports whether the stripped query text contains any
// write operation, tolerating arbitrary whitespace between keyword and
// operand. Exported for use by the plan analyzer's profile-mode guard.
func ContainsWriteOperation(strippedQuery string) bool {
	for _, p := range writePatterns {
		if p.Regex.MatchString(strippedQuery) {
			return true
		}
	}
	return false
}
