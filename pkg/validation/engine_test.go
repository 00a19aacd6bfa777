package validation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/salesforce"
)

// stubClient is an in-memory org: canned schema, picklists, and a query
// function dispatching on the query text.
type stubClient struct {
	queryFn   func(query string) (*salesforce.QueryResult, error)
	metadata  map[string]*salesforce.ObjectMetadata
	picklists map[string]*salesforce.PicklistInfo
	queries   []string
}

func (c *stubClient) Query(_ context.Context, query string) (*salesforce.QueryResult, error) {
	c.queries = append(c.queries, query)
	if c.queryFn != nil {
		return c.queryFn(query)
	}
	return rows(), nil
}

func (c *stubClient) GetObjectMetadata(_ context.Context, objectName string) (*salesforce.ObjectMetadata, error) {
	meta, ok := c.metadata[objectName]
	if !ok {
		return nil, fmt.Errorf("no such object %s", objectName)
	}
	return meta, nil
}

func (c *stubClient) GetPicklistValues(_ context.Context, objectName, fieldName string) (*salesforce.PicklistInfo, error) {
	info, ok := c.picklists[objectName+"."+fieldName]
	if !ok {
		return nil, fmt.Errorf("no picklist %s.%s", objectName, fieldName)
	}
	return info, nil
}

func (c *stubClient) InstanceURL() string { return "https://source.example.my.salesforce.com" }

func (c *stubClient) Ping(_ context.Context) error { return nil }

type stubProvider struct {
	clients map[string]salesforce.Client
	healthy bool
}

func (p *stubProvider) ClientFor(_ context.Context, orgID string) (salesforce.Client, error) {
	client, ok := p.clients[orgID]
	if !ok {
		return nil, fmt.Errorf("org %s is not connected", orgID)
	}
	return client, nil
}

func (p *stubProvider) AreAllOrgsHealthy(_ context.Context, _ []string) bool {
	return p.healthy
}

func providerFor(source, target salesforce.Client) *stubProvider {
	return &stubProvider{
		healthy: true,
		clients: map[string]salesforce.Client{"source-org": source, "target-org": target},
	}
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func rows(records ...salesforce.Record) *salesforce.QueryResult {
	return &salesforce.QueryResult{Records: records, TotalSize: len(records)}
}

// fallbackSchema is an object carrying only the generic external id field.
func fallbackSchema(object string, extra ...salesforce.FieldMetadata) *salesforce.ObjectMetadata {
	fields := []salesforce.FieldMetadata{
		{Name: "Id", Type: "id"},
		{Name: "Name", Type: "string"},
		{Name: "External_Id__c", Type: "string"},
	}
	fields = append(fields, extra...)
	return &salesforce.ObjectMetadata{Name: object, Fields: fields}
}

func runParams() RunParams {
	return RunParams{SourceOrgID: "source-org", TargetOrgID: "target-org"}
}

// ruleTemplate migrates rules referencing pay codes: one cached target query
// and one required dependency check.
func ruleTemplate() *models.MigrationTemplate {
	return &models.MigrationTemplate{
		ID:             "test-rules",
		Name:           "Rules",
		Version:        "1.0.0",
		ExecutionOrder: []string{"rules"},
		Steps: []models.ETLStep{{
			StepName: "rules",
			ExtractConfig: models.ExtractConfig{
				ObjectAPIName: "Rule__c",
				SoqlQuery:     "SELECT Id, Name, Pay_Code__r.{externalIdField}, Pay_Code__r.Name FROM Rule__c",
			},
			LoadConfig: models.LoadConfig{TargetObject: "Rule__c", Operation: "upsert"},
			ValidationConfig: &models.ValidationConfig{
				PreValidationQueries: []models.PreValidationQuery{{
					QueryName: "targetPayCodes",
					SoqlQuery: "SELECT Id, Name, {externalIdField} FROM Pay_Code__c WHERE {externalIdField} != null",
					CacheKey:  "target_pay_codes",
				}},
				DependencyChecks: []models.DependencyCheck{{
					CheckName:    "payCodeExists",
					SourceField:  "Pay_Code__r.{externalIdField}",
					TargetObject: "Pay_Code__c",
					TargetField:  "{externalIdField}",
					CacheKey:     "target_pay_codes",
					IsRequired:   true,
				}},
			},
		}},
	}
}

func TestValidateTemplateDependencyChecks(t *testing.T) {
	source := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Rule__c": fallbackSchema("Rule__c")},
		queryFn: func(_ string) (*salesforce.QueryResult, error) {
			return rows(
				salesforce.Record{"Id": "r1", "Name": "Rule 1", "Pay_Code__r": map[string]any{"External_Id__c": "EXT1", "Name": "Standard"}},
				salesforce.Record{"Id": "r2", "Name": "Rule 2", "Pay_Code__r": map[string]any{"External_Id__c": "MISSING", "Name": "Ghost"}},
				salesforce.Record{"Id": "r3", "Name": "Rule 3"},
			), nil
		},
	}
	// the cached value differs from the source value only by case
	target := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Pay_Code__c": fallbackSchema("Pay_Code__c")},
		queryFn: func(_ string) (*salesforce.QueryResult, error) {
			return rows(salesforce.Record{"Id": "pc1", "Name": "Standard", "External_Id__c": "ext1"}), nil
		},
	}

	engine := NewEngine(testLogger(), providerFor(source, target))
	result := engine.ValidateTemplate(context.Background(), ruleTemplate(), runParams())

	t.Run("only the unresolvable reference fails", func(t *testing.T) {
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Empty(t, result.Warnings)

		issue := result.Errors[0]
		assert.Equal(t, "payCodeExists", issue.CheckName)
		assert.Equal(t, "r2", issue.RecordID)
		assert.Equal(t, "Rule 2", issue.RecordName)
		assert.Equal(t, "Pay_Code__r.External_Id__c", issue.Field)
		assert.Equal(t, `Rule 2 references Pay_Code__c "MISSING" which does not exist in the target org`, issue.Message)

		require.NotNil(t, issue.Context)
		assert.Equal(t, "MISSING", issue.Context.SourceValue)
		assert.Equal(t, "Ghost", issue.Context.MissingRecordName)
		assert.Equal(t, "Pay_Code__c", issue.Context.TargetObject)
		assert.Equal(t, "External_Id__c", issue.Context.TargetField)
	})

	t.Run("summary reflects the one executed check", func(t *testing.T) {
		assert.Equal(t, 1, result.Summary.TotalChecks)
		assert.Equal(t, 1, result.Summary.FailedChecks)
		assert.Equal(t, 0, result.Summary.PassedChecks)
	})

	t.Run("extraction query resolves the detected external id field", func(t *testing.T) {
		require.Len(t, source.queries, 1)
		assert.Equal(t, "SELECT Id, Name, Pay_Code__r.External_Id__c, Pay_Code__r.Name FROM Rule__c LIMIT 1000", source.queries[0])
	})

	t.Run("cache query resolves the target side field", func(t *testing.T) {
		require.Len(t, target.queries, 1)
		assert.Equal(t, "SELECT Id, Name, External_Id__c FROM Pay_Code__c WHERE External_Id__c != null", target.queries[0])
	})
}

func TestValidateTemplateOrgConnectivity(t *testing.T) {
	t.Run("unhealthy orgs short circuit the run", func(t *testing.T) {
		source := &stubClient{}
		target := &stubClient{}
		provider := providerFor(source, target)
		provider.healthy = false

		engine := NewEngine(testLogger(), provider)
		result := engine.ValidateTemplate(context.Background(), ruleTemplate(), runParams())

		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "orgConnectivity", result.Errors[0].CheckName)
		assert.Equal(t, 1, result.Summary.TotalChecks)
		assert.Empty(t, source.queries)
		assert.Empty(t, target.queries)
	})

	t.Run("a missing org client is a connectivity error", func(t *testing.T) {
		engine := NewEngine(testLogger(), &stubProvider{healthy: true})
		result := engine.ValidateTemplate(context.Background(), ruleTemplate(), runParams())

		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "orgConnectivity", result.Errors[0].CheckName)
		assert.Contains(t, result.Errors[0].Message, "failed to obtain org client")
	})
}

func TestValidateTemplateOptionalDependencies(t *testing.T) {
	template := ruleTemplate()
	step := &template.Steps[0]
	step.ValidationConfig.PreValidationQueries = append(step.ValidationConfig.PreValidationQueries, models.PreValidationQuery{
		QueryName: "targetLeaveRules",
		SoqlQuery: "SELECT Id, Name, {externalIdField} FROM Leave_Rule__c WHERE {externalIdField} != null",
		CacheKey:  "target_leave_rules",
	})
	step.ValidationConfig.DependencyChecks = []models.DependencyCheck{
		{
			CheckName:      "leaveRuleExists",
			SourceField:    "Leave_Rule__r.{externalIdField}",
			TargetObject:   "Leave_Rule__c",
			TargetField:    "{externalIdField}",
			CacheKey:       "target_leave_rules",
			IsRequired:     false,
			WarningMessage: "referenced leave rule does not exist in the target org",
		},
		{
			CheckName:    "silentOptional",
			SourceField:  "Leave_Rule__r.{externalIdField}",
			TargetObject: "Leave_Rule__c",
			TargetField:  "{externalIdField}",
			CacheKey:     "target_leave_rules",
			IsRequired:   false,
		},
	}

	source := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Rule__c": fallbackSchema("Rule__c")},
		queryFn: func(_ string) (*salesforce.QueryResult, error) {
			return rows(
				salesforce.Record{"Id": "r1", "Name": "Rule 1", "Leave_Rule__r": map[string]any{"External_Id__c": "LR1", "Name": "Annual Leave"}},
			), nil
		},
	}
	target := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{
			"Pay_Code__c":   fallbackSchema("Pay_Code__c"),
			"Leave_Rule__c": fallbackSchema("Leave_Rule__c"),
		},
		queryFn: func(_ string) (*salesforce.QueryResult, error) {
			return rows(), nil
		},
	}

	engine := NewEngine(testLogger(), providerFor(source, target))
	result := engine.ValidateTemplate(context.Background(), template, runParams())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "leaveRuleExists", result.Warnings[0].CheckName)
	assert.Equal(t, "referenced leave rule does not exist in the target org", result.Warnings[0].Message)
	assert.Equal(t, 2, result.Summary.TotalChecks)
	assert.Equal(t, 1, result.Summary.PassedChecks)
}

func TestValidateTemplateMissingCacheKey(t *testing.T) {
	template := ruleTemplate()
	template.Steps[0].ValidationConfig.PreValidationQueries = nil

	source := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Rule__c": fallbackSchema("Rule__c")},
	}
	target := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Pay_Code__c": fallbackSchema("Pay_Code__c")},
	}

	engine := NewEngine(testLogger(), providerFor(source, target))
	result := engine.ValidateTemplate(context.Background(), template, runParams())

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "payCodeExists", result.Errors[0].CheckName)
	assert.Contains(t, result.Errors[0].Message, "never populated")
}

func TestValidateTemplateDataIntegrityChecks(t *testing.T) {
	template := &models.MigrationTemplate{
		ID:             "test-integrity",
		Version:        "1.0.0",
		ExecutionOrder: []string{"rules"},
		Steps: []models.ETLStep{{
			StepName: "rules",
			ExtractConfig: models.ExtractConfig{
				ObjectAPIName: "Rule__c",
				SoqlQuery:     "SELECT Id, Name, {externalIdField} FROM Rule__c",
			},
			LoadConfig: models.LoadConfig{TargetObject: "Rule__c", Operation: "upsert"},
			ValidationConfig: &models.ValidationConfig{
				DataIntegrityChecks: []models.DataIntegrityCheck{
					{
						CheckName:       "activeCount",
						ValidationQuery: "SELECT COUNT(Id) recordCount FROM Rule__c WHERE Id IN ({selectedRecordIds})",
						ExpectedResult:  models.ExpectNonEmpty,
						Severity:        models.SeverityWarning,
						ErrorMessage:    "no rules matched the selection",
					},
					{
						CheckName:       "missingExternalId",
						ValidationQuery: "SELECT Id, Name FROM Rule__c WHERE {externalIdField} = null",
						ExpectedResult:  models.ExpectEmpty,
						Severity:        models.SeverityError,
						ErrorMessage:    "rule is missing its external id",
					},
				},
			},
		}},
	}

	source := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Rule__c": fallbackSchema("Rule__c")},
		queryFn: func(query string) (*salesforce.QueryResult, error) {
			switch {
			case strings.Contains(query, "COUNT(Id)"):
				count := 0
				return &salesforce.QueryResult{AggregateCount: &count}, nil
			case strings.Contains(query, "External_Id__c = null"):
				return rows(
					salesforce.Record{"Id": "r1", "Name": "Rule 1"},
					salesforce.Record{"Id": "r2", "Name": "Rule 2"},
				), nil
			default:
				return rows(), nil
			}
		},
	}
	target := &stubClient{}

	engine := NewEngine(testLogger(), providerFor(source, target))
	result := engine.ValidateTemplate(context.Background(), template, RunParams{
		SourceOrgID:       "source-org",
		TargetOrgID:       "target-org",
		SelectedRecordIDs: []string{"a0X1", "a0X2"},
	})

	t.Run("aggregate shortfall lands in the warning bucket", func(t *testing.T) {
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "activeCount", result.Warnings[0].CheckName)
		assert.Equal(t, "no rules matched the selection", result.Warnings[0].Message)
		require.NotNil(t, result.Warnings[0].Context)
		assert.Equal(t, 0, result.Warnings[0].Context.RecordCount)
	})

	t.Run("row results produce one error per record", func(t *testing.T) {
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, "r1", result.Errors[0].RecordID)
		assert.Equal(t, "r2", result.Errors[1].RecordID)
		for _, issue := range result.Errors {
			assert.Equal(t, "missingExternalId", issue.CheckName)
			assert.Equal(t, "rule is missing its external id", issue.Message)
		}
	})

	t.Run("placeholders are substituted before execution", func(t *testing.T) {
		var countQuery, nullQuery string
		for _, query := range source.queries {
			if strings.Contains(query, "COUNT(Id)") {
				countQuery = query
			}
			if strings.Contains(query, "= null") {
				nullQuery = query
			}
		}
		assert.Contains(t, countQuery, "IN ('a0X1', 'a0X2')")
		assert.Equal(t, "SELECT Id, Name FROM Rule__c WHERE External_Id__c = null", nullQuery)
	})

	t.Run("summary counts both checks", func(t *testing.T) {
		assert.Equal(t, 2, result.Summary.TotalChecks)
		assert.Equal(t, 2, result.Summary.FailedChecks)
		assert.Equal(t, 1, result.Summary.WarningChecks)
	})
}

func picklistTemplate(check models.PicklistValidationCheck, stepNames ...string) *models.MigrationTemplate {
	template := &models.MigrationTemplate{
		ID:             "test-picklists",
		Version:        "1.0.0",
		ExecutionOrder: stepNames,
	}
	for _, name := range stepNames {
		template.Steps = append(template.Steps, models.ETLStep{
			StepName: name,
			ExtractConfig: models.ExtractConfig{
				ObjectAPIName: "Rule__c",
				SoqlQuery:     "SELECT Id, Name FROM Rule__c",
			},
			LoadConfig: models.LoadConfig{TargetObject: "Rule__c", Operation: "upsert"},
			ValidationConfig: &models.ValidationConfig{
				PicklistChecks: []models.PicklistValidationCheck{check},
			},
		})
	}
	return template
}

func TestValidateTemplatePicklistChecks(t *testing.T) {
	check := models.PicklistValidationCheck{
		CheckName:             "picklistValueValidation",
		FieldName:             "Status__c",
		ObjectName:            "Rule__c",
		ValidateAgainstTarget: true,
		Severity:              models.SeverityError,
	}
	// the same check in two steps must yield a single issue
	template := picklistTemplate(check, "rules", "rulesAgain")

	source := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Rule__c": fallbackSchema("Rule__c")},
		queryFn: func(query string) (*salesforce.QueryResult, error) {
			if strings.Contains(query, "GROUP BY Status__c") {
				return rows(
					salesforce.Record{"Status__c": "Active"},
					salesforce.Record{"Status__c": "Draft"},
					salesforce.Record{"Status__c": "Bogus"},
				), nil
			}
			return rows(), nil
		},
	}
	target := &stubClient{
		picklists: map[string]*salesforce.PicklistInfo{
			"Rule__c.Status__c": {Values: []salesforce.PicklistValue{
				{Value: "Active", Label: "Active", Active: true},
				{Value: "Draft", Label: "Draft", Active: true},
				{Value: "Bogus", Label: "Bogus", Active: false},
			}},
		},
	}

	engine := NewEngine(testLogger(), providerFor(source, target))
	result := engine.ValidateTemplate(context.Background(), template, runParams())

	t.Run("inactive target values do not count as valid", func(t *testing.T) {
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)

		issue := result.Errors[0]
		assert.Equal(t, "picklistValueValidation", issue.CheckName)
		assert.Equal(t, "Status__c", issue.Field)
		require.NotNil(t, issue.Context)
		assert.Equal(t, []string{"Bogus"}, issue.Context.InvalidValues)
		assert.Equal(t, []string{"Active", "Draft"}, issue.Context.AllowedValues)
	})

	t.Run("repeated findings are deduplicated across steps", func(t *testing.T) {
		assert.Equal(t, 2, result.Summary.TotalChecks)
		assert.Equal(t, 1, result.Summary.FailedChecks)
		assert.Equal(t, 1, result.Summary.PassedChecks)
	})
}

func TestValidateTemplateMultiSelectFallback(t *testing.T) {
	check := models.PicklistValidationCheck{
		CheckName:             "picklistValueValidation",
		FieldName:             "Tags__c",
		ObjectName:            "Rule__c",
		ValidateAgainstTarget: true,
	}
	template := picklistTemplate(check, "rules")

	source := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Rule__c": fallbackSchema("Rule__c")},
		queryFn: func(query string) (*salesforce.QueryResult, error) {
			if strings.Contains(query, "GROUP BY Tags__c") {
				return nil, fmt.Errorf("field Tags__c does not support grouping")
			}
			if strings.Contains(query, "Tags__c") {
				return rows(
					salesforce.Record{"Tags__c": "X;Y"},
					salesforce.Record{"Tags__c": "Y; Z"},
				), nil
			}
			return rows(), nil
		},
	}
	target := &stubClient{
		picklists: map[string]*salesforce.PicklistInfo{
			"Rule__c.Tags__c": {Values: []salesforce.PicklistValue{
				{Value: "X", Active: true},
				{Value: "Y", Active: true},
			}},
		},
	}

	engine := NewEngine(testLogger(), providerFor(source, target))
	result := engine.ValidateTemplate(context.Background(), template, runParams())

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	require.NotNil(t, result.Errors[0].Context)
	assert.Equal(t, []string{"Z"}, result.Errors[0].Context.InvalidValues)
}

func TestValidateTemplatePicklistAutoDetection(t *testing.T) {
	template := &models.MigrationTemplate{
		ID:             "test-auto-picklists",
		Version:        "1.0.0",
		ExecutionOrder: []string{"payCodes"},
		Steps: []models.ETLStep{{
			StepName: "payCodes",
			ExtractConfig: models.ExtractConfig{
				ObjectAPIName: "Rule__c",
				SoqlQuery:     "SELECT Id, Name FROM Rule__c",
			},
			TransformConfig: models.TransformConfig{
				FieldMappings: []models.FieldMapping{
					{SourceField: "Name", TargetField: "Name"},
					{SourceField: "Type__c", TargetField: "Type__c"},
				},
			},
			LoadConfig:       models.LoadConfig{TargetObject: "Pay_Code__c", Operation: "upsert"},
			ValidationConfig: &models.ValidationConfig{},
		}},
	}

	source := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Rule__c": fallbackSchema("Rule__c")},
		queryFn: func(query string) (*salesforce.QueryResult, error) {
			if strings.Contains(query, "GROUP BY Type__c") {
				return rows(salesforce.Record{"Type__c": "Overtime"}), nil
			}
			return rows(), nil
		},
	}
	target := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{
			"Pay_Code__c": fallbackSchema("Pay_Code__c", salesforce.FieldMetadata{Name: "Type__c", Type: "picklist"}),
		},
		picklists: map[string]*salesforce.PicklistInfo{
			"Pay_Code__c.Type__c": {Values: []salesforce.PicklistValue{
				{Value: "Standard", Active: true},
			}},
		},
	}

	engine := NewEngine(testLogger(), providerFor(source, target))
	result := engine.ValidateTemplate(context.Background(), template, runParams())

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "picklistValueValidation", result.Errors[0].CheckName)
	assert.Equal(t, "Type__c", result.Errors[0].Field)
	require.NotNil(t, result.Errors[0].Context)
	assert.Equal(t, "Pay_Code__c", result.Errors[0].Context.TargetObject)
	assert.Equal(t, []string{"Overtime"}, result.Errors[0].Context.InvalidValues)
	assert.Equal(t, 1, result.Summary.TotalChecks)
}

func TestValidateTemplateExecutionOrder(t *testing.T) {
	template := ruleTemplate()
	template.Steps[0].ValidationConfig = nil
	template.ExecutionOrder = []string{"rules", "ghost"}

	source := &stubClient{}
	target := &stubClient{}

	engine := NewEngine(testLogger(), providerFor(source, target))
	result := engine.ValidateTemplate(context.Background(), template, runParams())

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "executionOrder", result.Errors[0].CheckName)
	assert.Contains(t, result.Errors[0].Message, `"ghost"`)
	assert.Equal(t, 1, result.Summary.TotalChecks)
}

func TestValidateTemplateStepPanicRecovery(t *testing.T) {
	template := ruleTemplate()
	template.Steps = append([]models.ETLStep{{
		StepName: "payCodes",
		ExtractConfig: models.ExtractConfig{
			ObjectAPIName: "Pay_Code__c",
			SoqlQuery:     "SELECT Id, Name FROM Pay_Code__c",
		},
		LoadConfig:       models.LoadConfig{TargetObject: "Pay_Code__c", Operation: "upsert"},
		ValidationConfig: &models.ValidationConfig{},
	}}, template.Steps...)
	template.ExecutionOrder = []string{"payCodes", "rules"}

	source := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{
			"Pay_Code__c": fallbackSchema("Pay_Code__c"),
			"Rule__c":     fallbackSchema("Rule__c"),
		},
		queryFn: func(query string) (*salesforce.QueryResult, error) {
			if strings.Contains(query, "FROM Pay_Code__c") {
				panic("session state corrupted")
			}
			return rows(), nil
		},
	}
	target := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Pay_Code__c": fallbackSchema("Pay_Code__c")},
	}

	engine := NewEngine(testLogger(), providerFor(source, target))
	result := engine.ValidateTemplate(context.Background(), template, runParams())

	t.Run("the panicking step becomes one error issue", func(t *testing.T) {
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "stepValidation", result.Errors[0].CheckName)
		assert.Contains(t, result.Errors[0].Message, `"payCodes"`)
		assert.Contains(t, result.Errors[0].Message, "session state corrupted")
	})

	t.Run("subsequent steps still run", func(t *testing.T) {
		var ranSecondStep bool
		for _, query := range source.queries {
			if strings.Contains(query, "FROM Rule__c") {
				ranSecondStep = true
			}
		}
		assert.True(t, ranSecondStep)
		require.Len(t, target.queries, 1)
	})

	t.Run("summary counts the aborted step alongside the clean one", func(t *testing.T) {
		assert.Equal(t, 2, result.Summary.TotalChecks)
		assert.Equal(t, 1, result.Summary.FailedChecks)
		assert.Equal(t, 1, result.Summary.PassedChecks)
	})
}

func TestEngineReuse(t *testing.T) {
	source := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Rule__c": fallbackSchema("Rule__c")},
		queryFn: func(_ string) (*salesforce.QueryResult, error) {
			return rows(
				salesforce.Record{"Id": "r1", "Name": "Rule 1", "Pay_Code__r": map[string]any{"External_Id__c": "MISSING"}},
			), nil
		},
	}
	target := &stubClient{
		metadata: map[string]*salesforce.ObjectMetadata{"Pay_Code__c": fallbackSchema("Pay_Code__c")},
	}

	engine := NewEngine(testLogger(), providerFor(source, target))

	first := engine.ValidateTemplate(context.Background(), ruleTemplate(), runParams())
	engine.ClearCache()
	second := engine.ValidateTemplate(context.Background(), ruleTemplate(), runParams())

	assert.Equal(t, first.Summary, second.Summary)
	require.Len(t, first.Errors, 1)
	require.Len(t, second.Errors, 1)
	assert.Equal(t, first.Errors[0].Message, second.Errors[0].Message)
}
