// Package salesforce provides the record-store client used to query and
// describe objects in a connected org, plus the org-keyed accessor that
// tracks org health.
package salesforce

import (
	"context"
	"fmt"
	"strings"
)

// Record is one row returned by a query. Relationship fields arrive nested
// as sub-objects, e.g. {"PayCode__r": {"External_Id__c": "EXT1"}}.
type Record map[string]any

// QueryResult holds the rows of an executed query. AggregateCount is set
// instead of Records when the projection is a single row-count aggregate.
type QueryResult struct {
	Records        []Record
	TotalSize      int
	AggregateCount *int
}

// PicklistValue is one allowed value of an enumerated field.
type PicklistValue struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// FieldMetadata describes one field of an object.
type FieldMetadata struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	PicklistValues []PicklistValue `json:"picklistValues,omitempty"`
}

// ObjectMetadata describes an object's schema.
type ObjectMetadata struct {
	Name   string          `json:"name"`
	Fields []FieldMetadata `json:"fields"`
}

// PicklistInfo is the live picklist metadata for one field.
type PicklistInfo struct {
	Values       []PicklistValue `json:"values"`
	Restricted   bool            `json:"restricted"`
	DefaultValue string          `json:"defaultValue,omitempty"`
}

// Client is the per-org record-store interface the validation engine runs
// against.
type Client interface {
	Query(ctx context.Context, soql string) (*QueryResult, error)
	GetObjectMetadata(ctx context.Context, objectName string) (*ObjectMetadata, error)
	GetPicklistValues(ctx context.Context, objectName, fieldName string) (*PicklistInfo, error)
	InstanceURL() string
	Ping(ctx context.Context) error
}

// Field resolves a possibly relationship-qualified field path on a record,
// e.g. "PayCode__r.External_Id__c". Returns nil when any path segment is
// absent or null.
func (r Record) Field(path string) any {
	var current any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			if rec, ok := current.(Record); ok {
				m = map[string]any(rec)
			} else {
				return nil
			}
		}
		value, exists := m[part]
		if !exists || value == nil {
			return nil
		}
		current = value
	}
	return current
}

// FieldString resolves a field path and renders the value as a string.
// Nil values yield the empty string.
func (r Record) FieldString(path string) string {
	value := r.Field(path)
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ID returns the record's Id field when present.
func (r Record) ID() string {
	return r.FieldString("Id")
}

// Name returns the record's Name field when present.
func (r Record) Name() string {
	return r.FieldString("Name")
}

// IsAggregate reports whether a query result is a bare row-count aggregate.
func (q *QueryResult) IsAggregate() bool {
	return q.AggregateCount != nil
}

// Count returns the aggregate count, or the number of rows for row results.
func (q *QueryResult) Count() int {
	if q.AggregateCount != nil {
		return *q.AggregateCount
	}
	return len(q.Records)
}
