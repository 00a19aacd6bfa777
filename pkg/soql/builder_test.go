package soql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
)

func TestJoinRecordIDs(t *testing.T) {
	t.Run("quotes every id", func(t *testing.T) {
		assert.Equal(t, "'a0X1', 'a0X2'", JoinRecordIDs([]string{"a0X1", "a0X2"}))
	})

	t.Run("empty set yields an always false literal", func(t *testing.T) {
		assert.Equal(t, "''", JoinRecordIDs(nil))
	})

	t.Run("escapes embedded quotes", func(t *testing.T) {
		assert.Equal(t, `'a\'b'`, JoinRecordIDs([]string{"a'b"}))
	})
}

func TestReplaceExternalIDField(t *testing.T) {
	t.Run("replaces every occurrence", func(t *testing.T) {
		query, err := ReplaceExternalIDField(
			"SELECT {externalIdField}, Pay_Code__r.{externalIdField} FROM Rule__c",
			"External_Id__c",
		)
		require.NoError(t, err)
		assert.Equal(t, "SELECT External_Id__c, Pay_Code__r.External_Id__c FROM Rule__c", query)
	})

	t.Run("rejects an invalid field name", func(t *testing.T) {
		_, err := ReplaceExternalIDField("SELECT {externalIdField} FROM Rule__c", "x; DROP")
		assert.Error(t, err)
	})
}

func TestBuildQuery(t *testing.T) {
	t.Run("substitutes the external id placeholder", func(t *testing.T) {
		cfg := models.ExtractConfig{
			SoqlQuery:     "SELECT Id, Name, {externalIdField} FROM tc9_pr__Pay_Code__c",
			ObjectAPIName: "tc9_pr__Pay_Code__c",
		}
		query, err := BuildQuery(cfg, "External_Id__c", nil)
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id, Name, External_Id__c FROM tc9_pr__Pay_Code__c", query)
	})

	t.Run("substitutes the selected record ids placeholder", func(t *testing.T) {
		cfg := models.ExtractConfig{
			SoqlQuery: "SELECT Id FROM Rule__c WHERE Id IN ({selectedRecordIds})",
		}
		query, err := BuildQuery(cfg, "External_Id__c", []string{"a0X1", "a0X2"})
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id FROM Rule__c WHERE Id IN ('a0X1', 'a0X2')", query)
	})

	t.Run("empty selection with placeholder matches nothing", func(t *testing.T) {
		cfg := models.ExtractConfig{
			SoqlQuery: "SELECT Id FROM Rule__c WHERE Id IN ({selectedRecordIds})",
		}
		query, err := BuildQuery(cfg, "External_Id__c", nil)
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id FROM Rule__c WHERE Id IN ('')", query)
	})

	t.Run("appends an id filter when the query has no placeholder", func(t *testing.T) {
		cfg := models.ExtractConfig{
			SoqlQuery: "SELECT Id, Name FROM Rule__c WHERE Active__c = true",
		}
		query, err := BuildQuery(cfg, "External_Id__c", []string{"a0X1"})
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id, Name FROM Rule__c WHERE Active__c = true AND Id IN ('a0X1')", query)
	})

	t.Run("introduces a where clause for the extra filter", func(t *testing.T) {
		cfg := models.ExtractConfig{
			SoqlQuery:   "SELECT Id FROM Rule__c",
			ExtraFilter: "Active__c = true",
		}
		query, err := BuildQuery(cfg, "External_Id__c", nil)
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id FROM Rule__c WHERE Active__c = true", query)
	})

	t.Run("appends order by last", func(t *testing.T) {
		cfg := models.ExtractConfig{
			SoqlQuery: "SELECT Id FROM Rule__c",
			OrderBy:   "Name ASC",
		}
		query, err := BuildQuery(cfg, "External_Id__c", nil)
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id FROM Rule__c ORDER BY Name ASC", query)
	})

	t.Run("rejects an invalid order by clause", func(t *testing.T) {
		cfg := models.ExtractConfig{
			SoqlQuery: "SELECT Id FROM Rule__c",
			OrderBy:   "Name; DELETE FROM Rule__c",
		}
		_, err := BuildQuery(cfg, "External_Id__c", nil)
		assert.Error(t, err)
	})

	t.Run("inserts conditions ahead of a trailing limit", func(t *testing.T) {
		cfg := models.ExtractConfig{
			SoqlQuery: "SELECT Id FROM Rule__c LIMIT 50",
		}
		query, err := BuildQuery(cfg, "External_Id__c", []string{"a0X1"})
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id FROM Rule__c WHERE Id IN ('a0X1') LIMIT 50", query)
	})

	t.Run("a limit inside a relationship subquery is not the tail", func(t *testing.T) {
		cfg := models.ExtractConfig{
			SoqlQuery: "SELECT Id, (SELECT Id FROM Items__r LIMIT 1) FROM Order__c",
		}
		query, err := BuildQuery(cfg, "External_Id__c", []string{"a0X1"})
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id, (SELECT Id FROM Items__r LIMIT 1) FROM Order__c WHERE Id IN ('a0X1')", query)
	})

	t.Run("a where inside a relationship subquery does not force AND", func(t *testing.T) {
		cfg := models.ExtractConfig{
			SoqlQuery:   "SELECT Id, (SELECT Id FROM Items__r WHERE Active__c = true) FROM Order__c",
			ExtraFilter: "Status__c = 'Open'",
		}
		query, err := BuildQuery(cfg, "External_Id__c", nil)
		require.NoError(t, err)
		assert.Equal(t, "SELECT Id, (SELECT Id FROM Items__r WHERE Active__c = true) FROM Order__c WHERE Status__c = 'Open'", query)
	})
}

func TestOptimizeForBatch(t *testing.T) {
	t.Run("appends a limit when absent", func(t *testing.T) {
		assert.Equal(t, "SELECT Id FROM Rule__c LIMIT 1000", OptimizeForBatch("SELECT Id FROM Rule__c", 1000))
	})

	t.Run("keeps an existing limit", func(t *testing.T) {
		assert.Equal(t, "SELECT Id FROM Rule__c LIMIT 50", OptimizeForBatch("SELECT Id FROM Rule__c LIMIT 50", 1000))
	})

	t.Run("ignores a non positive batch size", func(t *testing.T) {
		assert.Equal(t, "SELECT Id FROM Rule__c", OptimizeForBatch("SELECT Id FROM Rule__c", 0))
	})

	t.Run("a subquery limit does not cap the outer query", func(t *testing.T) {
		assert.Equal(t,
			"SELECT Id, (SELECT Id FROM Items__r LIMIT 1) FROM Order__c LIMIT 1000",
			OptimizeForBatch("SELECT Id, (SELECT Id FROM Items__r LIMIT 1) FROM Order__c", 1000))
	})
}

func TestValidateQuery(t *testing.T) {
	t.Run("clean query has no violations", func(t *testing.T) {
		assert.Empty(t, ValidateQuery("SELECT Id, Name FROM Rule__c WHERE Active__c = true"))
	})

	t.Run("flags unresolved placeholders", func(t *testing.T) {
		violations := ValidateQuery("SELECT {externalIdField} FROM Rule__c")
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "unresolved")
	})

	t.Run("flags a missing from clause and unbalanced parentheses", func(t *testing.T) {
		violations := ValidateQuery("SELECT Id, (Name")
		assert.Len(t, violations, 2)
	})
}

func TestToCountQuery(t *testing.T) {
	t.Run("rewrites the projection keeping the tail", func(t *testing.T) {
		query, err := ToCountQuery("SELECT Id, Name FROM Rule__c WHERE Active__c = true")
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(Id) recordCount FROM Rule__c WHERE Active__c = true", query)
	})

	t.Run("skips subquery projections", func(t *testing.T) {
		query, err := ToCountQuery("SELECT Id, (SELECT Id FROM Items__r) FROM Order__c WHERE Status__c = 'Open'")
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(Id) recordCount FROM Order__c WHERE Status__c = 'Open'", query)
	})

	t.Run("errors without a from clause", func(t *testing.T) {
		_, err := ToCountQuery("SELECT Id")
		assert.Error(t, err)
	})
}

func TestExtractObject(t *testing.T) {
	t.Run("returns the outermost object", func(t *testing.T) {
		object, err := ExtractObject("SELECT Id, (SELECT Id FROM Items__r) FROM Order__c WHERE Status__c = 'Open'")
		require.NoError(t, err)
		assert.Equal(t, "Order__c", object)
	})

	t.Run("errors without a from clause", func(t *testing.T) {
		_, err := ExtractObject("SELECT Id")
		assert.Error(t, err)
	})
}

func TestBuildDependencyCacheQuery(t *testing.T) {
	t.Run("selects key value and name", func(t *testing.T) {
		query, err := BuildDependencyCacheQuery("tc9_pr__Pay_Code__c", "External_Id__c", "")
		require.NoError(t, err)
		assert.Equal(t, "SELECT External_Id__c, Id, Name FROM tc9_pr__Pay_Code__c WHERE External_Id__c != null", query)
	})

	t.Run("deduplicates the name field", func(t *testing.T) {
		query, err := BuildDependencyCacheQuery("tc9_pr__Pay_Code__c", "Name", "Id")
		require.NoError(t, err)
		assert.Equal(t, "SELECT Name, Id FROM tc9_pr__Pay_Code__c WHERE Name != null", query)
	})

	t.Run("rejects invalid identifiers", func(t *testing.T) {
		_, err := BuildDependencyCacheQuery("Obj; DROP", "Key__c", "")
		assert.Error(t, err)
	})
}
