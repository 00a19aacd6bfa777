package salesforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordField(t *testing.T) {
	record := Record{
		"Id":   "a0X1",
		"Name": "Rule 1",
		"tc9_et__Pay_Code__r": map[string]any{
			"Name":           "Standard",
			"External_Id__c": "EXT1",
		},
		"tc9_et__Leave_Rule__c": nil,
		"tc9_pr__Rate__c":       42.5,
		"Active__c":             true,
	}

	t.Run("resolves top level fields", func(t *testing.T) {
		assert.Equal(t, "Rule 1", record.Field("Name"))
	})

	t.Run("resolves relationship paths", func(t *testing.T) {
		assert.Equal(t, "EXT1", record.Field("tc9_et__Pay_Code__r.External_Id__c"))
	})

	t.Run("returns nil for missing segments", func(t *testing.T) {
		assert.Nil(t, record.Field("tc9_et__Pay_Code__r.Missing__c"))
		assert.Nil(t, record.Field("Nope__r.Name"))
	})

	t.Run("returns nil for null values", func(t *testing.T) {
		assert.Nil(t, record.Field("tc9_et__Leave_Rule__c"))
	})

	t.Run("renders non string values", func(t *testing.T) {
		assert.Equal(t, "42.5", record.FieldString("tc9_pr__Rate__c"))
		assert.Equal(t, "true", record.FieldString("Active__c"))
		assert.Equal(t, "", record.FieldString("tc9_et__Leave_Rule__c"))
	})

	t.Run("id and name helpers", func(t *testing.T) {
		assert.Equal(t, "a0X1", record.ID())
		assert.Equal(t, "Rule 1", record.Name())
	})
}

func TestQueryResultCount(t *testing.T) {
	t.Run("row results count records", func(t *testing.T) {
		res := &QueryResult{Records: []Record{{}, {}}}
		assert.False(t, res.IsAggregate())
		assert.Equal(t, 2, res.Count())
	})

	t.Run("aggregate results use the count", func(t *testing.T) {
		count := 7
		res := &QueryResult{AggregateCount: &count}
		assert.True(t, res.IsAggregate())
		assert.Equal(t, 7, res.Count())
	})
}
