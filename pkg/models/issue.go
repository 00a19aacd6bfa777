package models

// Severity classifies a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// IssueContext carries structured detail used by the result formatter to
// build user-legible messages.
type IssueContext struct {
	SourceValue       string   `json:"source_value,omitempty"`
	SourceRecordName  string   `json:"source_record_name,omitempty"`
	MissingRecordName string   `json:"missing_record_name,omitempty"`
	TargetObject      string   `json:"target_object,omitempty"`
	TargetField       string   `json:"target_field,omitempty"`
	InvalidValues     []string `json:"invalid_values,omitempty"`
	AllowedValues     []string `json:"allowed_values,omitempty"`
	RecordCount       int      `json:"record_count,omitempty"`
}

// ValidationIssue is one finding from a validation run. RecordID is empty
// for aggregate findings that do not concern a single record.
type ValidationIssue struct {
	CheckName       string        `json:"check_name"`
	CheckTitle      string        `json:"check_title,omitempty"`
	Message         string        `json:"message"`
	Severity        Severity      `json:"severity"`
	RecordID        string        `json:"record_id,omitempty"`
	RecordName      string        `json:"record_name,omitempty"`
	RecordURL       string        `json:"record_url,omitempty"`
	Field           string        `json:"field,omitempty"`
	ParentRecordID  string        `json:"parent_record_id,omitempty"`
	SuggestedAction string        `json:"suggested_action,omitempty"`
	Context         *IssueContext `json:"context,omitempty"`
}

// ValidationSummary aggregates counts for a run. It is always recomputed
// from the final issue lists, never incremented ad hoc.
type ValidationSummary struct {
	TotalChecks   int `json:"total_checks"`
	PassedChecks  int `json:"passed_checks"`
	FailedChecks  int `json:"failed_checks"`
	WarningChecks int `json:"warning_checks"`
}

// ValidationResult is the outcome of validating one template against a
// source/target org pair. IsValid is true iff Errors is empty.
type ValidationResult struct {
	IsValid  bool              `json:"is_valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
	Info     []ValidationIssue `json:"info"`
	Summary  ValidationSummary `json:"summary"`
}

// NewValidationResult returns an empty, valid result with non-nil lists.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		IsValid:  true,
		Errors:   []ValidationIssue{},
		Warnings: []ValidationIssue{},
		Info:     []ValidationIssue{},
	}
}

// Merge appends another result's issues into this one.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Info = append(r.Info, other.Info...)
}

// AddIssue routes an issue into the bucket matching its severity.
func (r *ValidationResult) AddIssue(issue ValidationIssue) {
	switch issue.Severity {
	case SeverityError:
		r.Errors = append(r.Errors, issue)
	case SeverityWarning:
		r.Warnings = append(r.Warnings, issue)
	default:
		r.Info = append(r.Info, issue)
	}
}

// Finalize recomputes IsValid and the summary from the issue lists.
// checksRun is the number of checks the engine executed for this run.
func (r *ValidationResult) Finalize(checksRun int) {
	r.IsValid = len(r.Errors) == 0
	passed := checksRun - len(r.Errors) - len(r.Warnings)
	if passed < 0 {
		passed = 0
	}
	r.Summary = ValidationSummary{
		TotalChecks:   checksRun,
		PassedChecks:  passed,
		FailedChecks:  len(r.Errors),
		WarningChecks: len(r.Warnings),
	}
}
