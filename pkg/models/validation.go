package models

// ValidationConfig declares the pre-flight checks a step runs before any
// record is loaded. A step without a ValidationConfig is extracted and loaded
// without checks.
type ValidationConfig struct {
	PreValidationQueries []PreValidationQuery      `json:"pre_validation_queries,omitempty"`
	DependencyChecks     []DependencyCheck         `json:"dependency_checks,omitempty"`
	DataIntegrityChecks  []DataIntegrityCheck      `json:"data_integrity_checks,omitempty"`
	PicklistChecks       []PicklistValidationCheck `json:"picklist_validation_checks,omitempty"`
}

// PreValidationQuery runs once per step against the target org; its rows are
// cached under CacheKey for later dependency checks.
type PreValidationQuery struct {
	QueryName   string `json:"query_name"`
	Description string `json:"description,omitempty"`
	SoqlQuery   string `json:"soql_query"`
	CacheKey    string `json:"cache_key"`
}

// DependencyCheck asserts that a referenced record exists in the target org,
// keyed by external id. Null source values always pass.
type DependencyCheck struct {
	CheckName      string `json:"check_name"`
	Description    string `json:"description,omitempty"`
	SourceField    string `json:"source_field"`
	TargetObject   string `json:"target_object"`
	TargetField    string `json:"target_field"`
	CacheKey       string `json:"cache_key"`
	IsRequired     bool   `json:"is_required"`
	ErrorMessage   string `json:"error_message"`
	WarningMessage string `json:"warning_message,omitempty"`
}

// Expected results for data integrity checks.
const (
	ExpectEmpty      = "empty"
	ExpectNonEmpty   = "non-empty"
	ExpectCountMatch = "count-match"
)

// DataIntegrityCheck runs an arbitrary query-based assertion against the
// source org. Severity decides which bucket failures land in.
type DataIntegrityCheck struct {
	CheckName       string   `json:"check_name"`
	Description     string   `json:"description,omitempty"`
	ValidationQuery string   `json:"validation_query"`
	ExpectedResult  string   `json:"expected_result"` // empty | non-empty | count-match
	Severity        Severity `json:"severity"`
	ErrorMessage    string   `json:"error_message"`
}

// PicklistValidationCheck validates source field values against the target
// org's live picklist metadata. When a step declares none, the engine
// auto-detects checks from the step's direct field mappings.
type PicklistValidationCheck struct {
	CheckName               string   `json:"check_name"`
	Description             string   `json:"description,omitempty"`
	FieldName               string   `json:"field_name"`
	TargetField             string   `json:"target_field,omitempty"`
	ObjectName              string   `json:"object_name"`
	ValidateAgainstTarget   bool     `json:"validate_against_target"`
	CrossEnvironmentMapping bool     `json:"cross_environment_mapping,omitempty"`
	AllowedValues           []string `json:"allowed_values,omitempty"`
	ErrorMessage            string   `json:"error_message"`
	Severity                Severity `json:"severity"`
}
