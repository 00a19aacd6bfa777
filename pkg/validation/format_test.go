package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
)

func TestTitleForCheck(t *testing.T) {
	t.Run("curated titles win", func(t *testing.T) {
		assert.Equal(t, "Pay Code Reference", TitleForCheck("payCodeExists"))
		assert.Equal(t, "Org Connectivity", TitleForCheck("orgConnectivity"))
	})

	t.Run("unknown names fall back to a camel case split", func(t *testing.T) {
		assert.Equal(t, "Custom Rule Check", TitleForCheck("customRuleCheck"))
		assert.Equal(t, "Single", TitleForCheck("single"))
		assert.Equal(t, "", TitleForCheck(""))
	})
}

func TestFormatterRecordLinks(t *testing.T) {
	result := models.NewValidationResult()
	result.AddIssue(models.ValidationIssue{
		CheckName: "payCodeExists",
		Message:   "raw message",
		Severity:  models.SeverityError,
		RecordID:  "a0X1",
	})

	t.Run("links findings to the source org", func(t *testing.T) {
		formatter := NewFormatter("https://source.example.my.salesforce.com/")
		formatter.Format(result)

		issue := result.Errors[0]
		assert.Equal(t, "https://source.example.my.salesforce.com/a0X1", issue.RecordURL)
		assert.Equal(t, "Pay Code Reference", issue.CheckTitle)
		assert.Equal(t, "Migrate the referenced pay codes before this record set", issue.SuggestedAction)
	})

	t.Run("no instance url disables links", func(t *testing.T) {
		result := models.NewValidationResult()
		result.AddIssue(models.ValidationIssue{
			CheckName: "payCodeExists",
			Severity:  models.SeverityError,
			RecordID:  "a0X1",
		})
		NewFormatter("").Format(result)
		assert.Empty(t, result.Errors[0].RecordURL)
	})
}

func TestFormatterMessageRewrite(t *testing.T) {
	formatter := NewFormatter("")

	t.Run("missing reference messages name both records", func(t *testing.T) {
		result := models.NewValidationResult()
		result.AddIssue(models.ValidationIssue{
			CheckName: "payCodeExists",
			Message:   "raw",
			Severity:  models.SeverityError,
			Context: &models.IssueContext{
				SourceValue:       "EXT-MISSING",
				SourceRecordName:  "Rule 2",
				MissingRecordName: "Overtime 2x",
				TargetObject:      "tc9_pr__Pay_Code__c",
			},
		})
		formatter.Format(result)
		assert.Equal(t,
			`tc9_pr__Pay_Code__c "Overtime 2x" (EXT-MISSING) is missing from the target org, referenced by "Rule 2"`,
			result.Errors[0].Message)
	})

	t.Run("degrades gracefully without names", func(t *testing.T) {
		result := models.NewValidationResult()
		result.AddIssue(models.ValidationIssue{
			CheckName: "payCodeExists",
			Message:   "raw",
			Severity:  models.SeverityError,
			Context: &models.IssueContext{
				SourceValue:  "EXT-MISSING",
				TargetObject: "tc9_pr__Pay_Code__c",
			},
		})
		formatter.Format(result)
		assert.Equal(t,
			`tc9_pr__Pay_Code__c "EXT-MISSING" (EXT-MISSING) is missing from the target org`,
			result.Errors[0].Message)
	})

	t.Run("picklist findings list invalid and allowed values", func(t *testing.T) {
		result := models.NewValidationResult()
		result.AddIssue(models.ValidationIssue{
			CheckName: "picklistValueValidation",
			Message:   "raw",
			Severity:  models.SeverityError,
			Field:     "tc9_pr__Type__c",
			Context: &models.IssueContext{
				InvalidValues: []string{"Bogus", "Weird"},
				AllowedValues: []string{"Allowance", "Overtime"},
			},
		})
		formatter.Format(result)
		assert.Equal(t,
			"Field tc9_pr__Type__c contains values not available in the target org: Bogus, Weird. Allowed values: Allowance, Overtime",
			result.Errors[0].Message)
	})

	t.Run("findings without context keep their message", func(t *testing.T) {
		result := models.NewValidationResult()
		result.AddIssue(models.ValidationIssue{
			CheckName: "sourceExtraction",
			Message:   "source extraction failed",
			Severity:  models.SeverityError,
		})
		formatter.Format(result)
		assert.Equal(t, "source extraction failed", result.Errors[0].Message)
	})
}

func TestGroupIssues(t *testing.T) {
	result := models.NewValidationResult()
	result.AddIssue(models.ValidationIssue{CheckName: "payCodeExists", Severity: models.SeverityError, RecordID: "r1"})
	result.AddIssue(models.ValidationIssue{CheckName: "payCodeExists", Severity: models.SeverityError, RecordID: "r2"})
	result.AddIssue(models.ValidationIssue{CheckName: "activeRuleCount", Severity: models.SeverityError})
	result.AddIssue(models.ValidationIssue{CheckName: "leaveRuleExists", Severity: models.SeverityWarning})
	result.AddIssue(models.ValidationIssue{CheckName: "validationRun", Severity: models.SeverityInfo})

	groups := GroupIssues(result)
	require.Len(t, groups, 4)

	t.Run("errors come first, alphabetical within severity", func(t *testing.T) {
		assert.Equal(t, "activeRuleCount", groups[0].CheckName)
		assert.Equal(t, "payCodeExists", groups[1].CheckName)
		assert.Equal(t, "leaveRuleExists", groups[2].CheckName)
		assert.Equal(t, "validationRun", groups[3].CheckName)
	})

	t.Run("findings sharing a check are bucketed together", func(t *testing.T) {
		assert.Len(t, groups[1].Issues, 2)
		assert.Equal(t, "Pay Code Reference", groups[1].CheckTitle)
	})

	t.Run("summaries pluralize", func(t *testing.T) {
		assert.Equal(t, "Pay Code Reference: 2 error issues", SummarizeGroup(groups[1]))
		assert.Equal(t, "Leave Rule Reference: 1 warning issue", SummarizeGroup(groups[2]))
	})

	t.Run("nil result groups to nothing", func(t *testing.T) {
		assert.Nil(t, GroupIssues(nil))
	})
}
