package templates

import "github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"

// PayCodesTemplate migrates pay codes. Pay codes are leaf records with no
// outbound references, so the template carries integrity and picklist checks
// only.
func PayCodesTemplate() *models.MigrationTemplate {
	return &models.MigrationTemplate{
		ID:          "payroll-pay-codes",
		Name:        "Pay Codes",
		Description: "Migrates pay codes between orgs",
		Category:    "payroll",
		Version:     "1.0.0",
		Metadata: models.TemplateMetadata{
			Author:         "2cloudnine",
			ComplexityTier: "simple",
		},
		ExecutionOrder: []string{"payCodes"},
		Steps: []models.ETLStep{
			{
				StepName:  "payCodes",
				StepOrder: 1,
				ExtractConfig: models.ExtractConfig{
					ObjectAPIName: "tc9_pr__Pay_Code__c",
					SoqlQuery: "SELECT Id, Name, {externalIdField}, tc9_pr__Code__c, tc9_pr__Type__c, " +
						"tc9_pr__Rate__c, tc9_pr__Multiplier__c, tc9_pr__Status__c " +
						"FROM tc9_pr__Pay_Code__c",
					BatchSize: 200,
				},
				TransformConfig: models.TransformConfig{
					FieldMappings: []models.FieldMapping{
						{SourceField: "Name", TargetField: "Name", IsRequired: true},
						{SourceField: "tc9_pr__Code__c", TargetField: "tc9_pr__Code__c", IsRequired: true},
						{SourceField: "tc9_pr__Type__c", TargetField: "tc9_pr__Type__c"},
						{SourceField: "tc9_pr__Rate__c", TargetField: "tc9_pr__Rate__c"},
						{SourceField: "tc9_pr__Multiplier__c", TargetField: "tc9_pr__Multiplier__c"},
						{SourceField: "tc9_pr__Status__c", TargetField: "tc9_pr__Status__c"},
					},
					ExternalIdHandling: &models.ExternalIdHandling{
						SourceField:    "{externalIdField}",
						TargetField:    "{externalIdField}",
						ManagedField:   "tc9_edc__External_ID_Data_Creation__c",
						UnmanagedField: "External_ID_Data_Creation__c",
						FallbackField:  "External_Id__c",
						Strategy:       models.ExternalIdStrategyAutoDetect,
					},
				},
				LoadConfig: models.LoadConfig{
					TargetObject:    "tc9_pr__Pay_Code__c",
					Operation:       "upsert",
					ExternalIdField: "{externalIdField}",
					BatchSize:       200,
				},
				ValidationConfig: &models.ValidationConfig{
					DataIntegrityChecks: []models.DataIntegrityCheck{
						{
							CheckName:       "payCodeMissingCode",
							Description:     "Every pay code must carry a code value",
							ValidationQuery: "SELECT Id, Name FROM tc9_pr__Pay_Code__c WHERE tc9_pr__Code__c = null",
							ExpectedResult:  models.ExpectEmpty,
							Severity:        models.SeverityError,
							ErrorMessage:    "pay code is missing its code value",
						},
					},
				},
			},
		},
	}
}

// InterpretationRulesTemplate migrates interpretation rules and their
// breakpoints. Both reference pay codes, so the template caches the target
// org's pay codes up front and checks every reference against the cache.
func InterpretationRulesTemplate() *models.MigrationTemplate {
	return &models.MigrationTemplate{
		ID:          "payroll-interpretation-rules",
		Name:        "Interpretation Rules",
		Description: "Migrates interpretation rules and breakpoints between orgs",
		Category:    "payroll",
		Version:     "1.0.0",
		Metadata: models.TemplateMetadata{
			Author:         "2cloudnine",
			ComplexityTier: "complex",
		},
		ExecutionOrder: []string{"interpretationRules", "interpretationBreakpoints"},
		Steps: []models.ETLStep{
			{
				StepName:  "interpretationRules",
				StepOrder: 1,
				ExtractConfig: models.ExtractConfig{
					ObjectAPIName: "tc9_et__Interpretation_Rule__c",
					SoqlQuery: "SELECT Id, Name, {externalIdField}, tc9_et__Status__c, " +
						"tc9_et__Pay_Code__c, tc9_et__Pay_Code__r.Name, tc9_et__Pay_Code__r.{externalIdField}, " +
						"tc9_et__Leave_Rule__c, tc9_et__Leave_Rule__r.Name, tc9_et__Leave_Rule__r.{externalIdField} " +
						"FROM tc9_et__Interpretation_Rule__c " +
						"WHERE Id IN ({selectedRecordIds})",
					BatchSize: 200,
				},
				TransformConfig: models.TransformConfig{
					FieldMappings: []models.FieldMapping{
						{SourceField: "Name", TargetField: "Name", IsRequired: true},
						{SourceField: "tc9_et__Status__c", TargetField: "tc9_et__Status__c"},
					},
					LookupMappings: []models.LookupMapping{
						{
							SourceField:      "tc9_et__Pay_Code__r.{externalIdField}",
							TargetField:      "tc9_et__Pay_Code__c",
							LookupObject:     "tc9_pr__Pay_Code__c",
							LookupKeyField:   "{externalIdField}",
							LookupValueField: "Id",
						},
						{
							SourceField:      "tc9_et__Leave_Rule__r.{externalIdField}",
							TargetField:      "tc9_et__Leave_Rule__c",
							LookupObject:     "tc9_pr__Leave_Rule__c",
							LookupKeyField:   "{externalIdField}",
							LookupValueField: "Id",
							AllowNull:        true,
						},
					},
					ExternalIdHandling: &models.ExternalIdHandling{
						SourceField:    "{externalIdField}",
						TargetField:    "{externalIdField}",
						ManagedField:   "tc9_edc__External_ID_Data_Creation__c",
						UnmanagedField: "External_ID_Data_Creation__c",
						FallbackField:  "External_Id__c",
						Strategy:       models.ExternalIdStrategyAutoDetect,
					},
				},
				LoadConfig: models.LoadConfig{
					TargetObject:    "tc9_et__Interpretation_Rule__c",
					Operation:       "upsert",
					ExternalIdField: "{externalIdField}",
					BatchSize:       200,
				},
				ValidationConfig: &models.ValidationConfig{
					PreValidationQueries: []models.PreValidationQuery{
						{
							QueryName:   "targetPayCodes",
							Description: "Caches the target org's pay codes keyed by external id",
							SoqlQuery:   "SELECT Id, Name, {externalIdField} FROM tc9_pr__Pay_Code__c WHERE {externalIdField} != null",
							CacheKey:    "target_pay_codes",
						},
						{
							QueryName:   "targetLeaveRules",
							Description: "Caches the target org's leave rules keyed by external id",
							SoqlQuery:   "SELECT Id, Name, {externalIdField} FROM tc9_pr__Leave_Rule__c WHERE {externalIdField} != null",
							CacheKey:    "target_leave_rules",
						},
					},
					DependencyChecks: []models.DependencyCheck{
						{
							CheckName:    "payCodeExists",
							Description:  "Referenced pay codes must exist in the target org",
							SourceField:  "tc9_et__Pay_Code__r.{externalIdField}",
							TargetObject: "tc9_pr__Pay_Code__c",
							TargetField:  "{externalIdField}",
							CacheKey:     "target_pay_codes",
							IsRequired:   true,
						},
						{
							CheckName:      "leaveRuleExists",
							Description:    "Referenced leave rules should exist in the target org",
							SourceField:    "tc9_et__Leave_Rule__r.{externalIdField}",
							TargetObject:   "tc9_pr__Leave_Rule__c",
							TargetField:    "{externalIdField}",
							CacheKey:       "target_leave_rules",
							IsRequired:     false,
							WarningMessage: "referenced leave rule does not exist in the target org; the reference will load as null",
						},
					},
					DataIntegrityChecks: []models.DataIntegrityCheck{
						{
							CheckName:       "activeRuleCount",
							Description:     "At least one selected rule must exist",
							ValidationQuery: "SELECT COUNT(Id) recordCount FROM tc9_et__Interpretation_Rule__c WHERE Id IN ({selectedRecordIds})",
							ExpectedResult:  models.ExpectNonEmpty,
							Severity:        models.SeverityWarning,
							ErrorMessage:    "no interpretation rules matched the selection",
						},
					},
				},
			},
			{
				StepName:  "interpretationBreakpoints",
				StepOrder: 2,
				ExtractConfig: models.ExtractConfig{
					ObjectAPIName: "tc9_et__Interpretation_Breakpoint__c",
					SoqlQuery: "SELECT Id, Name, {externalIdField}, tc9_et__Breakpoint_Type__c, " +
						"tc9_et__Interpretation_Rule__c, tc9_et__Interpretation_Rule__r.{externalIdField}, " +
						"tc9_et__Pay_Code__c, tc9_et__Pay_Code__r.Name, tc9_et__Pay_Code__r.{externalIdField} " +
						"FROM tc9_et__Interpretation_Breakpoint__c " +
						"WHERE tc9_et__Interpretation_Rule__c IN ({selectedRecordIds})",
					BatchSize: 200,
				},
				TransformConfig: models.TransformConfig{
					FieldMappings: []models.FieldMapping{
						{SourceField: "Name", TargetField: "Name", IsRequired: true},
						{SourceField: "tc9_et__Breakpoint_Type__c", TargetField: "tc9_et__Breakpoint_Type__c"},
					},
					LookupMappings: []models.LookupMapping{
						{
							SourceField:      "tc9_et__Interpretation_Rule__r.{externalIdField}",
							TargetField:      "tc9_et__Interpretation_Rule__c",
							LookupObject:     "tc9_et__Interpretation_Rule__c",
							LookupKeyField:   "{externalIdField}",
							LookupValueField: "Id",
						},
						{
							SourceField:      "tc9_et__Pay_Code__r.{externalIdField}",
							TargetField:      "tc9_et__Pay_Code__c",
							LookupObject:     "tc9_pr__Pay_Code__c",
							LookupKeyField:   "{externalIdField}",
							LookupValueField: "Id",
						},
					},
					ExternalIdHandling: &models.ExternalIdHandling{
						SourceField:    "{externalIdField}",
						TargetField:    "{externalIdField}",
						ManagedField:   "tc9_edc__External_ID_Data_Creation__c",
						UnmanagedField: "External_ID_Data_Creation__c",
						FallbackField:  "External_Id__c",
						Strategy:       models.ExternalIdStrategyAutoDetect,
					},
				},
				LoadConfig: models.LoadConfig{
					TargetObject:    "tc9_et__Interpretation_Breakpoint__c",
					Operation:       "upsert",
					ExternalIdField: "{externalIdField}",
					BatchSize:       200,
				},
				Dependencies: []string{"interpretationRules"},
				ValidationConfig: &models.ValidationConfig{
					PreValidationQueries: []models.PreValidationQuery{
						{
							QueryName:   "targetPayCodes",
							Description: "Caches the target org's pay codes keyed by external id",
							SoqlQuery:   "SELECT Id, Name, {externalIdField} FROM tc9_pr__Pay_Code__c WHERE {externalIdField} != null",
							CacheKey:    "target_pay_codes",
						},
					},
					DependencyChecks: []models.DependencyCheck{
						{
							CheckName:    "breakpointPayCodeExists",
							Description:  "Breakpoint pay codes must exist in the target org",
							SourceField:  "tc9_et__Pay_Code__r.{externalIdField}",
							TargetObject: "tc9_pr__Pay_Code__c",
							TargetField:  "{externalIdField}",
							CacheKey:     "target_pay_codes",
							IsRequired:   true,
						},
					},
				},
			},
		},
	}
}
