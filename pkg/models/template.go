// Package models contains the data structures shared across the migration
// tool: migration templates, ETL step configuration, and validation results.
package models

// MigrationTemplate is a declarative description of one migration: an ordered
// set of ETL steps with explicit dependencies. Templates are pure
// configuration consumed by the validation engine and the load executor.
type MigrationTemplate struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Category       string           `json:"category,omitempty"`
	Version        string           `json:"version"`
	Steps          []ETLStep        `json:"etl_steps"`
	ExecutionOrder []string         `json:"execution_order"`
	Metadata       TemplateMetadata `json:"metadata"`
}

// TemplateMetadata carries descriptive information about a template.
type TemplateMetadata struct {
	Author              string   `json:"author"`
	ComplexityTier      string   `json:"complexity,omitempty"`
	EstimatedDuration   float64  `json:"estimated_duration_minutes,omitempty"`
	RequiredPermissions []string `json:"required_permissions,omitempty"`
}

// ETLStep is one extract-transform-load unit inside a template. Steps run in
// the order given by the template's ExecutionOrder; Dependencies name either
// earlier steps or external objects assumed to be migrated already.
type ETLStep struct {
	StepName         string            `json:"step_name"`
	StepOrder        int               `json:"step_order"`
	ExtractConfig    ExtractConfig     `json:"extract_config"`
	TransformConfig  TransformConfig   `json:"transform_config"`
	LoadConfig       LoadConfig        `json:"load_config"`
	ValidationConfig *ValidationConfig `json:"validation_config,omitempty"`
	Dependencies     []string          `json:"dependencies,omitempty"`
}

// ExtractConfig describes how source records are queried. The query template
// may contain the placeholders {externalIdField} and {selectedRecordIds},
// resolved at run time.
type ExtractConfig struct {
	SoqlQuery     string `json:"soql_query"`
	ObjectAPIName string `json:"object_api_name"`
	BatchSize     int    `json:"batch_size,omitempty"`
	ExtraFilter   string `json:"extra_filter,omitempty"`
	OrderBy       string `json:"order_by,omitempty"`
}

// TransformConfig declares how extracted fields map onto target fields.
type TransformConfig struct {
	FieldMappings      []FieldMapping      `json:"field_mappings,omitempty"`
	LookupMappings     []LookupMapping     `json:"lookup_mappings,omitempty"`
	RecordTypeMapping  *RecordTypeMapping  `json:"record_type_mapping,omitempty"`
	ExternalIdHandling *ExternalIdHandling `json:"external_id_handling,omitempty"`
}

// LoadConfig describes how transformed records are written to the target.
type LoadConfig struct {
	TargetObject      string `json:"target_object"`
	Operation         string `json:"operation"` // insert | update | upsert
	ExternalIdField   string `json:"external_id_field,omitempty"`
	UseBulkAPI        bool   `json:"use_bulk_api,omitempty"`
	BatchSize         int    `json:"batch_size,omitempty"`
	AllowPartialSteps bool   `json:"allow_partial_steps,omitempty"`
}

// FieldMapping maps one source field directly onto one target field.
type FieldMapping struct {
	SourceField  string `json:"source_field"`
	TargetField  string `json:"target_field"`
	IsRequired   bool   `json:"is_required,omitempty"`
	DefaultValue any    `json:"default_value,omitempty"`
}

// LookupMapping resolves a source reference to a target record through a
// foreign object keyed by external id. AllowNull permits self-referential
// lookups that cannot resolve until every sibling record exists.
type LookupMapping struct {
	SourceField      string `json:"source_field"`
	TargetField      string `json:"target_field"`
	LookupObject     string `json:"lookup_object"`
	LookupKeyField   string `json:"lookup_key_field"`
	LookupValueField string `json:"lookup_value_field"`
	AllowNull        bool   `json:"allow_null,omitempty"`
}

// RecordTypeMapping maps source record category labels to a target-side
// placeholder resolved by the load phase.
type RecordTypeMapping struct {
	SourceField string            `json:"source_field"`
	TargetField string            `json:"target_field"`
	Mappings    map[string]string `json:"mapping_dictionary"`
}

// External id resolution strategies.
const (
	ExternalIdStrategyAutoDetect       = "auto-detect"
	ExternalIdStrategyCrossEnvironment = "cross-environment"
)

// ExternalIdHandling names the durable identity field for each of the three
// environment shapes the tool supports, plus the resolution strategy.
type ExternalIdHandling struct {
	SourceField    string `json:"source_field"`
	TargetField    string `json:"target_field"`
	ManagedField   string `json:"managed_field"`
	UnmanagedField string `json:"unmanaged_field"`
	FallbackField  string `json:"fallback_field"`
	Strategy       string `json:"strategy"` // auto-detect | cross-environment
}
