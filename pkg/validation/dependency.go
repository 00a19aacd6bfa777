package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/salesforce"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/soql"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/tracing"
)

// runDependencyChecks verifies that every foreign-key-like reference in the
// extracted source records resolves against the cached target rows. A null
// source value always passes; a missing cache key is itself an error
// finding, not a silent skip.
func (e *Engine) runDependencyChecks(ctx context.Context, step *models.ETLStep, checks []models.DependencyCheck, sourceRecords []salesforce.Record, result *models.ValidationResult) {
	ctx, span := tracing.StartSpan(ctx, "validation.Engine.runDependencyChecks")
	defer span.End()

	for _, check := range checks {
		e.checksRun++

		cached, ok := e.cache[check.CacheKey]
		if !ok {
			result.AddIssue(models.ValidationIssue{
				CheckName:       check.CheckName,
				Message:         fmt.Sprintf("dependency check %q references cache key %q which was never populated", check.CheckName, check.CacheKey),
				Severity:        models.SeverityError,
				SuggestedAction: "Verify the step's pre-validation queries declare this cache key",
			})
			continue
		}

		targetField := e.resolveTargetField(ctx, check)
		caseInsensitive := strings.Contains(strings.ToLower(targetField), "external_id")

		// the extraction query was built with the source org's detected
		// external id field, so the check's placeholder resolves the same way
		sourceField := strings.ReplaceAll(check.SourceField, soql.PlaceholderExternalIDField, e.sourceIDField)

		for _, record := range sourceRecords {
			value := record.Field(sourceField)
			if value == nil {
				// null references are permitted
				continue
			}
			sourceValue := record.FieldString(sourceField)

			if matchInCache(cached, targetField, sourceValue, caseInsensitive) {
				continue
			}

			issue := models.ValidationIssue{
				CheckName:  check.CheckName,
				RecordID:   record.ID(),
				RecordName: record.Name(),
				Field:      sourceField,
				Context: &models.IssueContext{
					SourceValue:       sourceValue,
					SourceRecordName:  record.Name(),
					MissingRecordName: relatedRecordName(record, sourceField),
					TargetObject:      check.TargetObject,
					TargetField:       targetField,
				},
			}

			if check.IsRequired {
				issue.Severity = models.SeverityError
				issue.Message = check.ErrorMessage
				if issue.Message == "" {
					issue.Message = fmt.Sprintf("%s references %s %q which does not exist in the target org",
						record.Name(), check.TargetObject, sourceValue)
				}
				issue.SuggestedAction = fmt.Sprintf("Migrate the missing %s record first, or remove the reference", check.TargetObject)
				result.AddIssue(issue)
				continue
			}

			if check.WarningMessage != "" {
				issue.Severity = models.SeverityWarning
				issue.Message = check.WarningMessage
				result.AddIssue(issue)
			}
			// optional reference with no warning template passes silently
		}
	}
}

// matchInCache reports whether any cached target row carries the source
// value on the resolved target field. External-id fields compare
// case-insensitively; all other fields compare exactly.
func matchInCache(cached []salesforce.Record, targetField, sourceValue string, caseInsensitive bool) bool {
	for _, row := range cached {
		candidate := row.FieldString(targetField)
		if candidate == "" {
			continue
		}
		if caseInsensitive {
			if strings.EqualFold(candidate, sourceValue) {
				return true
			}
			continue
		}
		if candidate == sourceValue {
			return true
		}
	}
	return false
}

// relatedRecordName recovers the human name of the referenced record from
// the relationship payload, when the check's source field is a relationship
// path such as PayCode__r.External_Id__c.
func relatedRecordName(record salesforce.Record, sourceField string) string {
	i := strings.LastIndex(sourceField, ".")
	if i < 0 {
		return ""
	}
	return record.FieldString(sourceField[:i] + ".Name")
}
