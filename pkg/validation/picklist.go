package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/soql"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/tracing"
)

// multiSelectSeparator splits multi-select picklist entries.
const multiSelectSeparator = ";"

// runPicklistChecks validates enumerated field values against the target
// org's live picklist metadata. When a step declares no explicit checks,
// checks are auto-detected from the step's direct field mappings. Violations
// aggregate into one issue per field, deduplicated across the whole run.
func (e *Engine) runPicklistChecks(ctx context.Context, step *models.ETLStep, checks []models.PicklistValidationCheck, result *models.ValidationResult) {
	ctx, span := tracing.StartSpan(ctx, "validation.Engine.runPicklistChecks")
	defer span.End()

	if len(checks) == 0 {
		checks = e.detectPicklistChecks(ctx, step)
	}

	for _, check := range checks {
		e.checksRun++
		e.runPicklistCheck(ctx, step, check, result)
	}
}

// detectPicklistChecks synthesizes a check for every direct field mapping
// whose target field is an enumerated type.
func (e *Engine) detectPicklistChecks(ctx context.Context, step *models.ETLStep) []models.PicklistValidationCheck {
	targetObject := step.LoadConfig.TargetObject
	if targetObject == "" || len(step.TransformConfig.FieldMappings) == 0 {
		return nil
	}

	schema, err := e.targetClient.GetObjectMetadata(ctx, targetObject)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"step":          step.StepName,
			"target_object": targetObject,
		}).Warn("Failed to describe target object, skipping picklist auto-detection")
		return nil
	}

	fieldTypes := make(map[string]string, len(schema.Fields))
	for _, field := range schema.Fields {
		fieldTypes[strings.ToLower(field.Name)] = field.Type
	}

	var detected []models.PicklistValidationCheck
	for _, mapping := range step.TransformConfig.FieldMappings {
		fieldType := fieldTypes[strings.ToLower(mapping.TargetField)]
		if fieldType != "picklist" && fieldType != "multipicklist" {
			continue
		}
		detected = append(detected, models.PicklistValidationCheck{
			CheckName:             "picklistValueValidation",
			FieldName:             mapping.SourceField,
			TargetField:           mapping.TargetField,
			ObjectName:            targetObject,
			ValidateAgainstTarget: true,
			Severity:              models.SeverityError,
		})
	}
	return detected
}

func (e *Engine) runPicklistCheck(ctx context.Context, step *models.ETLStep, check models.PicklistValidationCheck, result *models.ValidationResult) {
	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"step":  step.StepName,
		"field": check.FieldName,
	})

	sourceValues, err := e.uniqueSourceValues(ctx, step.ExtractConfig.ObjectAPIName, check.FieldName)
	if err != nil {
		log.WithError(err).Warn("Failed to gather source picklist values")
		result.AddIssue(models.ValidationIssue{
			CheckName: check.CheckName,
			Message:   fmt.Sprintf("could not gather source values for picklist field %s: %v", check.FieldName, err),
			Severity:  models.SeverityError,
			Field:     check.FieldName,
		})
		return
	}
	if len(sourceValues) == 0 {
		return
	}

	allowed, err := e.allowedTargetValues(ctx, check)
	if err != nil {
		log.WithError(err).Warn("Failed to load target picklist values")
		result.AddIssue(models.ValidationIssue{
			CheckName: check.CheckName,
			Message:   fmt.Sprintf("could not load target picklist values for %s: %v", check.FieldName, err),
			Severity:  models.SeverityError,
			Field:     check.FieldName,
		})
		return
	}

	var invalid []string
	for value := range sourceValues {
		if _, ok := allowed[value]; !ok {
			invalid = append(invalid, value)
		}
	}
	if len(invalid) == 0 {
		return
	}
	sort.Strings(invalid)

	// one combined issue per field, deduplicated across repeated steps
	dedupeKey := check.FieldName + "|" + strings.Join(invalid, ",")
	if _, seen := e.picklistSeen[dedupeKey]; seen {
		return
	}
	e.picklistSeen[dedupeKey] = struct{}{}

	message := check.ErrorMessage
	if message == "" {
		message = fmt.Sprintf("field %s contains values not present in the target picklist: %s",
			check.FieldName, strings.Join(invalid, ", "))
	}

	severity := check.Severity
	if severity == "" {
		severity = models.SeverityError
	}

	result.AddIssue(models.ValidationIssue{
		CheckName: check.CheckName,
		Message:   message,
		Severity:  severity,
		Field:     check.FieldName,
		Context: &models.IssueContext{
			TargetObject:  check.ObjectName,
			TargetField:   check.TargetField,
			InvalidValues: invalid,
			AllowedValues: sortedKeys(allowed),
		},
	})
}

// uniqueSourceValues gathers the distinct non-null values of a field via a
// grouped count query. Multi-select picklists cannot be grouped; on a
// grouping failure the engine falls back to a flat fetch and splits entries
// on the separator.
func (e *Engine) uniqueSourceValues(ctx context.Context, objectName, fieldName string) (map[string]struct{}, error) {
	if _, err := soql.ValidateIdentifier(objectName); err != nil {
		return nil, err
	}
	if _, err := soql.ValidateIdentifier(fieldName); err != nil {
		return nil, err
	}

	grouped := fmt.Sprintf("SELECT %s FROM %s WHERE %s != null GROUP BY %s", fieldName, objectName, fieldName, fieldName)
	res, err := e.sourceClient.Query(ctx, grouped)
	if err == nil {
		values := make(map[string]struct{}, len(res.Records))
		for _, record := range res.Records {
			if v := record.FieldString(fieldName); v != "" {
				values[v] = struct{}{}
			}
		}
		return values, nil
	}

	e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
		"object": objectName,
		"field":  fieldName,
	}).Debug("Grouped picklist query failed, falling back to flat fetch")

	flat := fmt.Sprintf("SELECT %s FROM %s WHERE %s != null LIMIT %d", fieldName, objectName, fieldName, extractionCap)
	res, err = e.sourceClient.Query(ctx, flat)
	if err != nil {
		return nil, err
	}

	values := make(map[string]struct{})
	for _, record := range res.Records {
		for _, part := range strings.Split(record.FieldString(fieldName), multiSelectSeparator) {
			if part = strings.TrimSpace(part); part != "" {
				values[part] = struct{}{}
			}
		}
	}
	return values, nil
}

// allowedTargetValues returns the set of valid values for a check: the
// target org's active picklist values, or the check's static allowed list
// when target validation is disabled. Inactive values never count as valid.
func (e *Engine) allowedTargetValues(ctx context.Context, check models.PicklistValidationCheck) (map[string]struct{}, error) {
	if !check.ValidateAgainstTarget && len(check.AllowedValues) > 0 {
		allowed := make(map[string]struct{}, len(check.AllowedValues))
		for _, v := range check.AllowedValues {
			allowed[v] = struct{}{}
		}
		return allowed, nil
	}

	fieldName := check.TargetField
	if fieldName == "" {
		fieldName = check.FieldName
	}
	info, err := e.targetClient.GetPicklistValues(ctx, check.ObjectName, fieldName)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{}, len(info.Values))
	for _, pv := range info.Values {
		if pv.Active {
			allowed[pv.Value] = struct{}{}
		}
	}
	return allowed, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
