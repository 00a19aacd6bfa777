// Package soql builds and sanitizes SOQL queries from template strings.
// Construction-time escaping and identifier validation are the primary
// defense; the full-query scanner is a backstop only.
package soql

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// injection shapes rejected by the defense-in-depth scanner
var (
	unionSelectRE = regexp.MustCompile(`(?i)\bunion\b[\s\S]*\bselect\b`)
	orEqualityRE  = regexp.MustCompile(`(?i)\bor\b\s+('[^']*'|[^\s=]+)\s*=\s*('[^']*'|[^\s=]+)`)
)

// EscapeLiteral escapes a string value so it can be embedded inside a quoted
// SOQL literal. Backslash is escaped first so already-escaped sequences are
// not double-escaped.
func EscapeLiteral(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return replacer.Replace(value)
}

// ValidateIdentifier accepts a field or object API name, including
// dot-separated relationship paths. Every path segment must match
// [A-Za-z][A-Za-z0-9_]* (custom-object and relationship suffixes such as
// __c and __r fall inside that pattern).
func ValidateIdentifier(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("identifier is empty")
	}
	for _, segment := range strings.Split(name, ".") {
		if !identifierRE.MatchString(segment) {
			return "", fmt.Errorf("invalid identifier %q", name)
		}
	}
	return name, nil
}

// BuildInClause builds a "field IN ('a', 'b')" predicate with every value
// escaped and quoted. An empty value set is an error; an empty IN clause
// must never silently match nothing or everything.
func BuildInClause(field string, values []string) (string, error) {
	if _, err := ValidateIdentifier(field); err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("IN clause for %s requires at least one value", field)
	}

	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + EscapeLiteral(v) + "'"
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(quoted, ", ")), nil
}

// CheckQuerySafety scans a fully built query for known injection shapes.
// This is defense in depth on top of construction-time sanitization, not a
// substitute for it.
func CheckQuerySafety(query string) error {
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return fmt.Errorf("query must start with SELECT")
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("query must not contain stacked statements")
	}
	if strings.Contains(trimmed, "--") || strings.Contains(trimmed, "/*") {
		return fmt.Errorf("query must not contain comment markers")
	}
	if unionSelectRE.MatchString(trimmed) {
		return fmt.Errorf("query must not contain UNION SELECT")
	}
	// an OR whose two operands are the same token always holds
	for _, m := range orEqualityRE.FindAllStringSubmatch(trimmed, -1) {
		if m[1] == m[2] {
			return fmt.Errorf("query must not contain tautological OR conditions")
		}
	}
	return nil
}
