// Package externalid determines which field acts as the durable cross-org
// identity key for an object, and how the source and target field names map
// onto each other when the two orgs are packaged differently.
package externalid

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/salesforce"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/soql"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/tracing"
)

// The three identity-field tiers, probed in order.
const (
	ManagedExternalIDField   = "tc9_edc__External_ID_Data_Creation__c"
	UnmanagedExternalIDField = "External_ID_Data_Creation__c"
	FallbackExternalIDField  = "External_Id__c"
)

// Package kinds an org environment can present.
const (
	PackageKindManaged   = "managed"
	PackageKindUnmanaged = "unmanaged"
	PackageKindFallback  = "fallback"
)

// MetadataSource describes an object's schema. Satisfied by the salesforce
// client and by the describe cache.
type MetadataSource interface {
	GetObjectMetadata(ctx context.Context, objectName string) (*salesforce.ObjectMetadata, error)
}

// EnvironmentInfo is the outcome of probing one org's schema for an object.
type EnvironmentInfo struct {
	ObjectName      string   `json:"object_name"`
	PackageKind     string   `json:"package_kind"`
	ExternalIDField string   `json:"external_id_field"`
	DetectedFields  []string `json:"detected_fields"`
	FallbackUsed    bool     `json:"fallback_used"`
}

// CrossEnvironmentDescriptor tells the query builder which field name to use
// on each side when the orgs are packaged differently.
type CrossEnvironmentDescriptor struct {
	SourcePackageKind string `json:"source_package_kind"`
	TargetPackageKind string `json:"target_package_kind"`
	SourceField       string `json:"source_field"`
	TargetField       string `json:"target_field"`
}

// MappingInfo is the resolved source-to-target identity field strategy.
type MappingInfo struct {
	Strategy         string                      `json:"strategy"`
	SourceField      string                      `json:"source_field"`
	TargetField      string                      `json:"target_field"`
	CrossEnvironment *CrossEnvironmentDescriptor `json:"cross_environment_mapping,omitempty"`
}

// CompatibilityReport is a pure diagnostic of the source/target pairing.
type CompatibilityReport struct {
	CrossEnvironmentDetected bool     `json:"cross_environment_detected"`
	PotentialIssues          []string `json:"potential_issues"`
	Recommendations          []string `json:"recommendations"`
}

// Resolver detects external-id environments and computes mapping strategies.
type Resolver struct {
	logger ectologger.Logger
}

// NewResolver creates a resolver.
func NewResolver(logger ectologger.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// DetectEnvironmentInfo probes an object's schema for the three identity
// field tiers in order: managed (namespaced), unmanaged (bare), then the
// generic fallback. FallbackUsed is only true for the last tier.
func (r *Resolver) DetectEnvironmentInfo(ctx context.Context, meta MetadataSource, objectName string) (*EnvironmentInfo, error) {
	ctx, span := tracing.StartSpan(ctx, "externalid.Resolver.DetectEnvironmentInfo")
	defer span.End()

	schema, err := meta.GetObjectMetadata(ctx, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", objectName, err)
	}

	present := make(map[string]bool, len(schema.Fields))
	var detected []string
	for _, field := range schema.Fields {
		present[strings.ToLower(field.Name)] = true
	}
	for _, candidate := range []string{ManagedExternalIDField, UnmanagedExternalIDField, FallbackExternalIDField} {
		if present[strings.ToLower(candidate)] {
			detected = append(detected, candidate)
		}
	}

	info := &EnvironmentInfo{ObjectName: objectName, DetectedFields: detected}
	switch {
	case present[strings.ToLower(ManagedExternalIDField)]:
		info.PackageKind = PackageKindManaged
		info.ExternalIDField = ManagedExternalIDField
	case present[strings.ToLower(UnmanagedExternalIDField)]:
		info.PackageKind = PackageKindUnmanaged
		info.ExternalIDField = UnmanagedExternalIDField
	default:
		info.PackageKind = PackageKindFallback
		info.ExternalIDField = FallbackExternalIDField
		info.FallbackUsed = true
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"object":            objectName,
		"package_kind":      info.PackageKind,
		"external_id_field": info.ExternalIDField,
		"fallback_used":     info.FallbackUsed,
	}).Debug("Detected external id environment")

	return info, nil
}

// DetectCrossEnvironmentMapping computes the field-mapping strategy for a
// source/target environment pair. Identical package kinds keep a single
// field name; differing kinds switch to the cross-environment strategy with
// each side's own detected field.
func (r *Resolver) DetectCrossEnvironmentMapping(sourceInfo, targetInfo *EnvironmentInfo) *MappingInfo {
	if sourceInfo.PackageKind == targetInfo.PackageKind {
		return &MappingInfo{
			Strategy:    models.ExternalIdStrategyAutoDetect,
			SourceField: sourceInfo.ExternalIDField,
			TargetField: sourceInfo.ExternalIDField,
		}
	}

	return &MappingInfo{
		Strategy:    models.ExternalIdStrategyCrossEnvironment,
		SourceField: sourceInfo.ExternalIDField,
		TargetField: targetInfo.ExternalIDField,
		CrossEnvironment: &CrossEnvironmentDescriptor{
			SourcePackageKind: sourceInfo.PackageKind,
			TargetPackageKind: targetInfo.PackageKind,
			SourceField:       sourceInfo.ExternalIDField,
			TargetField:       targetInfo.ExternalIDField,
		},
	}
}

// BuildCrossEnvironmentQuery rewrites every {externalIdField} placeholder,
// including those embedded in relationship paths, to the source-side field
// name only. Emitting both side's field names in one clause breaks on
// objects missing one of the two fields.
func (r *Resolver) BuildCrossEnvironmentQuery(query, sourceField, targetField string) (string, error) {
	if _, err := soql.ValidateIdentifier(sourceField); err != nil {
		return "", err
	}
	rewritten := strings.ReplaceAll(query, soql.PlaceholderExternalIDField, sourceField)
	if targetField != "" && targetField != sourceField {
		// whole identifiers only: the unmanaged field name is a suffix of the
		// managed one, so a plain substring replacement would corrupt fields
		// already rewritten to the source name
		targetFieldRE := regexp.MustCompile(`(^|[^A-Za-z0-9_])` + regexp.QuoteMeta(targetField) + `\b`)
		rewritten = targetFieldRE.ReplaceAllString(rewritten, "${1}"+sourceField)
	}
	return rewritten, nil
}

// ValidateCrossEnvironmentCompatibility reports on a source/target pairing.
// Whenever a cross-environment deployment is detected the report carries at
// least one issue and one recommendation.
func (r *Resolver) ValidateCrossEnvironmentCompatibility(sourceInfo, targetInfo *EnvironmentInfo) *CompatibilityReport {
	report := &CompatibilityReport{
		PotentialIssues: []string{},
		Recommendations: []string{},
	}

	if sourceInfo.PackageKind != targetInfo.PackageKind {
		report.CrossEnvironmentDetected = true
		report.PotentialIssues = append(report.PotentialIssues, fmt.Sprintf(
			"source org uses the %s external id field (%s) while the target org uses the %s field (%s)",
			sourceInfo.PackageKind, sourceInfo.ExternalIDField, targetInfo.PackageKind, targetInfo.ExternalIDField))
		report.Recommendations = append(report.Recommendations,
			"queries will be rewritten to reference each org's own external id field; verify external id values are populated on both sides before migrating")
	}

	if sourceInfo.FallbackUsed {
		report.PotentialIssues = append(report.PotentialIssues, fmt.Sprintf(
			"source org object %s has no packaged external id field; falling back to %s", sourceInfo.ObjectName, sourceInfo.ExternalIDField))
		report.Recommendations = append(report.Recommendations,
			"consider installing the data-creation package in the source org for durable cross-org identity")
	}
	if targetInfo.FallbackUsed {
		report.PotentialIssues = append(report.PotentialIssues, fmt.Sprintf(
			"target org object %s has no packaged external id field; falling back to %s", targetInfo.ObjectName, targetInfo.ExternalIDField))
		report.Recommendations = append(report.Recommendations,
			"consider installing the data-creation package in the target org for durable cross-org identity")
	}

	return report
}
