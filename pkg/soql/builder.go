package soql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
)

// Template placeholders resolved before a query is executed.
const (
	PlaceholderExternalIDField   = "{externalIdField}"
	PlaceholderSelectedRecordIDs = "{selectedRecordIds}"
)

var (
	limitRE   = regexp.MustCompile(`(?i)^LIMIT\s+\d+`)
	whereRE   = regexp.MustCompile(`(?i)^WHERE\b`)
	tailRE    = regexp.MustCompile(`(?i)^(ORDER\s+BY|GROUP\s+BY|LIMIT)\b`)
	fromRE    = regexp.MustCompile(`(?i)\bFROM\s+([A-Za-z][A-Za-z0-9_]*)`)
	orderByRE = regexp.MustCompile(`(?i)^[A-Za-z][A-Za-z0-9_.]*(\s+(ASC|DESC))?(\s+NULLS\s+(FIRST|LAST))?$`)
)

// topLevelIndex locates the first match of an anchored token pattern outside
// any parenthesized subquery. Returns -1 when absent.
func topLevelIndex(query string, tokenRE *regexp.Regexp) int {
	depth := 0
	for i := 0; i < len(query); i++ {
		switch query[i] {
		case '(':
			depth++
			continue
		case ')':
			depth--
			continue
		}
		if depth == 0 && (i == 0 || query[i-1] == ' ' || query[i-1] == '\t' || query[i-1] == '\n' || query[i-1] == ')') {
			if tokenRE.MatchString(query[i:]) {
				return i
			}
		}
	}
	return -1
}

// ReplaceExternalIDField substitutes every {externalIdField} placeholder
// with the validated field name.
func ReplaceExternalIDField(query, field string) (string, error) {
	if _, err := ValidateIdentifier(field); err != nil {
		return "", err
	}
	return strings.ReplaceAll(query, PlaceholderExternalIDField, field), nil
}

// JoinRecordIDs renders a selected-record-id set as a comma-joined list of
// quoted literals for the {selectedRecordIds} placeholder. An empty set
// yields the always-false literal '' so the substituted IN clause matches
// no records instead of all of them.
func JoinRecordIDs(ids []string) string {
	if len(ids) == 0 {
		return "''"
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + EscapeLiteral(id) + "'"
	}
	return strings.Join(quoted, ", ")
}

// appendCondition appends a predicate with AND when the query already has a
// top-level WHERE clause, or introduces one otherwise. The predicate is
// inserted ahead of any trailing ORDER BY / GROUP BY / LIMIT clause. Clauses
// inside relationship subqueries never count.
func appendCondition(query, condition string) string {
	keyword := " WHERE "
	if topLevelIndex(query, whereRE) >= 0 {
		keyword = " AND "
	}

	if i := topLevelIndex(query, tailRE); i >= 0 {
		return strings.TrimRight(query[:i], " \t\n") + keyword + condition + " " + query[i:]
	}
	return query + keyword + condition
}

// BuildQuery assembles the final extraction query from a step's extract
// config: placeholder substitution, selected-record filtering, extra filter,
// and ordering. It never appends a LIMIT; callers wanting a batch cap use
// OptimizeForBatch.
func BuildQuery(cfg models.ExtractConfig, externalIDField string, selectedRecordIDs []string) (string, error) {
	query, err := ReplaceExternalIDField(cfg.SoqlQuery, externalIDField)
	if err != nil {
		return "", err
	}

	hadPlaceholder := strings.Contains(cfg.SoqlQuery, PlaceholderSelectedRecordIDs)
	if hadPlaceholder {
		query = strings.ReplaceAll(query, PlaceholderSelectedRecordIDs, JoinRecordIDs(selectedRecordIDs))
	} else if len(selectedRecordIDs) > 0 {
		clause, err := BuildInClause("Id", selectedRecordIDs)
		if err != nil {
			return "", err
		}
		query = appendCondition(query, clause)
	}

	if cfg.ExtraFilter != "" {
		query = appendCondition(query, cfg.ExtraFilter)
	}

	if cfg.OrderBy != "" {
		if !orderByRE.MatchString(strings.TrimSpace(cfg.OrderBy)) {
			return "", fmt.Errorf("invalid order by clause %q", cfg.OrderBy)
		}
		query = query + " ORDER BY " + strings.TrimSpace(cfg.OrderBy)
	}

	if err := CheckQuerySafety(query); err != nil {
		return "", err
	}
	return query, nil
}

// OptimizeForBatch appends a LIMIT matching the batch size when the query
// does not already carry a top-level one. A LIMIT inside a relationship
// subquery does not cap the outer query.
func OptimizeForBatch(query string, batchSize int) string {
	if batchSize <= 0 || topLevelIndex(query, limitRE) >= 0 {
		return query
	}
	return fmt.Sprintf("%s LIMIT %d", query, batchSize)
}

// ValidateQuery returns the list of construction violations in a built
// query. An unresolved placeholder is a construction bug, not a runtime
// condition.
func ValidateQuery(query string) []string {
	var violations []string

	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		violations = append(violations, "query must start with SELECT")
	}
	if !fromRE.MatchString(trimmed) {
		violations = append(violations, "query is missing a FROM clause naming the target object")
	}
	if strings.Contains(trimmed, PlaceholderExternalIDField) {
		violations = append(violations, "query contains an unresolved {externalIdField} placeholder")
	}
	if strings.Count(trimmed, "(") != strings.Count(trimmed, ")") {
		violations = append(violations, "query has unbalanced parentheses")
	}

	return violations
}

// BuildDependencyCacheQuery builds the target-side query whose rows populate
// a dependency cache: the external-id key, the resolution value, and Name
// for message quality. valueField defaults to Id.
func BuildDependencyCacheQuery(object, keyField, valueField string) (string, error) {
	if _, err := ValidateIdentifier(object); err != nil {
		return "", err
	}
	if _, err := ValidateIdentifier(keyField); err != nil {
		return "", err
	}
	if valueField == "" {
		valueField = "Id"
	}
	if _, err := ValidateIdentifier(valueField); err != nil {
		return "", err
	}

	fields := []string{keyField}
	if valueField != keyField {
		fields = append(fields, valueField)
	}
	if keyField != "Name" && valueField != "Name" {
		fields = append(fields, "Name")
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s != null", strings.Join(fields, ", "), object, keyField), nil
}

// mainFromIndex locates the outermost FROM clause, skipping subquery
// projections by tracking parenthesis depth. Returns -1 when absent.
func mainFromIndex(query string) int {
	upper := strings.ToUpper(query)
	depth := 0
	for i := 0; i < len(upper); i++ {
		switch upper[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(upper[i:], "FROM ") {
			if i == 0 || upper[i-1] == ' ' || upper[i-1] == '\t' || upper[i-1] == '\n' || upper[i-1] == ')' {
				return i
			}
		}
	}
	return -1
}

// ToCountQuery rewrites a query's projection to a row-count aggregate while
// preserving everything from FROM onward.
func ToCountQuery(query string) (string, error) {
	i := mainFromIndex(query)
	if i < 0 {
		return "", fmt.Errorf("query has no FROM clause")
	}
	return "SELECT COUNT(Id) recordCount " + query[i:], nil
}

// ExtractObject returns the object named by the query's outermost FROM
// clause.
func ExtractObject(query string) (string, error) {
	i := mainFromIndex(query)
	if i < 0 {
		return "", fmt.Errorf("query has no FROM clause")
	}
	rest := strings.Fields(query[i+len("FROM"):])
	if len(rest) == 0 {
		return "", fmt.Errorf("query has no FROM clause")
	}
	return ValidateIdentifier(rest[0])
}
