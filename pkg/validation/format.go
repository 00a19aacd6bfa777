package validation

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
)

// checkTitles maps well-known check names to display titles. Unknown names
// fall back to a mechanical camelCase split.
var checkTitles = map[string]string{
	"orgConnectivity":         "Org Connectivity",
	"validationRun":           "Validation Run",
	"stepValidation":          "Step Validation",
	"executionOrder":          "Execution Order",
	"sourceExtraction":        "Source Data Extraction",
	"picklistValueValidation": "Picklist Value Validation",
	"payCodeExists":           "Pay Code Reference",
	"leaveRuleExists":         "Leave Rule Reference",
	"breakpointPayCodeExists": "Breakpoint Pay Code Reference",
}

// suggestions maps check names to a remediation hint shown alongside the
// issue. Checks without an entry carry no suggestion.
var suggestions = map[string]string{
	"orgConnectivity":         "Reconnect both orgs and retry the validation",
	"sourceExtraction":        "Verify the source org connection and the object's field-level security",
	"picklistValueValidation": "Add the missing values to the target picklist, or remap them before migrating",
	"payCodeExists":           "Migrate the referenced pay codes before this record set",
	"leaveRuleExists":         "Migrate the referenced leave rules before this record set",
}

// Formatter rewrites raw engine findings into user-legible output. It never
// drops information: a finding missing context keeps its original message.
type Formatter struct {
	instanceURL string
}

// NewFormatter returns a formatter that links findings to records in the
// given source org. An empty instance URL disables record links.
func NewFormatter(sourceInstanceURL string) *Formatter {
	return &Formatter{instanceURL: strings.TrimRight(sourceInstanceURL, "/")}
}

// Format rewrites every issue in the result in place and returns the result
// for chaining.
func (f *Formatter) Format(result *models.ValidationResult) *models.ValidationResult {
	if result == nil {
		return nil
	}
	for i := range result.Errors {
		f.formatIssue(&result.Errors[i])
	}
	for i := range result.Warnings {
		f.formatIssue(&result.Warnings[i])
	}
	for i := range result.Info {
		f.formatIssue(&result.Info[i])
	}
	return result
}

func (f *Formatter) formatIssue(issue *models.ValidationIssue) {
	issue.CheckTitle = TitleForCheck(issue.CheckName)
	issue.SuggestedAction = suggestions[issue.CheckName]

	if f.instanceURL != "" && issue.RecordID != "" {
		issue.RecordURL = fmt.Sprintf("%s/%s", f.instanceURL, issue.RecordID)
	}

	if rewritten := rewriteMessage(issue); rewritten != "" {
		issue.Message = rewritten
	}
}

// rewriteMessage builds a message from structured context when enough of it
// is present. It returns "" when the original message should stand.
func rewriteMessage(issue *models.ValidationIssue) string {
	ctx := issue.Context
	if ctx == nil {
		return ""
	}

	if len(ctx.InvalidValues) > 0 {
		field := issue.Field
		if field == "" {
			field = ctx.TargetField
		}
		return fmt.Sprintf("Field %s contains values not available in the target org: %s. Allowed values: %s",
			field, strings.Join(ctx.InvalidValues, ", "), strings.Join(ctx.AllowedValues, ", "))
	}

	if ctx.SourceValue != "" && ctx.TargetObject != "" {
		missing := ctx.MissingRecordName
		if missing == "" {
			missing = ctx.SourceValue
		}
		referencedBy := ctx.SourceRecordName
		if referencedBy == "" {
			referencedBy = issue.RecordName
		}
		if referencedBy == "" {
			return fmt.Sprintf("%s %q (%s) is missing from the target org",
				ctx.TargetObject, missing, ctx.SourceValue)
		}
		return fmt.Sprintf("%s %q (%s) is missing from the target org, referenced by %q",
			ctx.TargetObject, missing, ctx.SourceValue, referencedBy)
	}

	return ""
}

// TitleForCheck returns the display title for a check name: the curated
// title when one exists, otherwise the camelCase name split into words.
func TitleForCheck(name string) string {
	if title, ok := checkTitles[name]; ok {
		return title
	}
	return splitCamelCase(name)
}

func splitCamelCase(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IssueGroup is a set of findings sharing one check.
type IssueGroup struct {
	CheckName  string                   `json:"check_name"`
	CheckTitle string                   `json:"check_title"`
	Severity   models.Severity          `json:"severity"`
	Issues     []models.ValidationIssue `json:"issues"`
}

// GroupIssues buckets a result's findings by check name, ordered with errors
// first, then warnings, then info, alphabetically within a severity.
func GroupIssues(result *models.ValidationResult) []IssueGroup {
	if result == nil {
		return nil
	}

	byCheck := map[string]*IssueGroup{}
	add := func(issues []models.ValidationIssue, severity models.Severity) {
		for _, issue := range issues {
			key := string(severity) + "|" + issue.CheckName
			group, ok := byCheck[key]
			if !ok {
				group = &IssueGroup{
					CheckName:  issue.CheckName,
					CheckTitle: TitleForCheck(issue.CheckName),
					Severity:   severity,
				}
				byCheck[key] = group
			}
			group.Issues = append(group.Issues, issue)
		}
	}
	add(result.Errors, models.SeverityError)
	add(result.Warnings, models.SeverityWarning)
	add(result.Info, models.SeverityInfo)

	groups := make([]IssueGroup, 0, len(byCheck))
	for _, group := range byCheck {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Severity != groups[j].Severity {
			return severityRank(groups[i].Severity) < severityRank(groups[j].Severity)
		}
		return groups[i].CheckName < groups[j].CheckName
	})
	return groups
}

// SummarizeGroup renders a one-line description of a group.
func SummarizeGroup(group IssueGroup) string {
	noun := "issue"
	if len(group.Issues) != 1 {
		noun = "issues"
	}
	return fmt.Sprintf("%s: %d %s %s", group.CheckTitle, len(group.Issues), string(group.Severity), noun)
}

func severityRank(s models.Severity) int {
	switch s {
	case models.SeverityError:
		return 0
	case models.SeverityWarning:
		return 1
	default:
		return 2
	}
}
