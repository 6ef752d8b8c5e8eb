// Package store provides the tabular record store contract plus the Airtable
// and sqlite backends the sync pipeline runs on.
package store

import (
	"context"
	"time"
)

// Logical table names used by the pipeline.
const (
	TableUserActions = "user_actions"
	TableDisplayData = "display_data"
	TableAnalytics   = "analytics"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Record is a single row in a tabular store: an opaque field map plus a
// store-assigned identifier.
type Record struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"createdTime"`
}

// StringField returns a field as a string, or "" if absent or not a string.
func (r *Record) StringField(name string) string {
	if v, ok := r.Fields[name].(string); ok {
		return v
	}
	return ""
}

// BoolField returns a field as a bool, or false if absent or not a bool.
func (r *Record) BoolField(name string) bool {
	if v, ok := r.Fields[name].(bool); ok {
		return v
	}
	return false
}

// SortField is one element of a sort spec.
type SortField struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // "asc" or "desc"
}

// QueryOptions bound and order a Query.
type QueryOptions struct {
	MaxRecords int
	Filter     string // formula predicate, e.g. {user_id} = 'u1'
	Sort       []SortField
}

// RecordStore is the contract every backend implements. Records are returned
// in the requested sort order; identity is assigned by the store on Insert
// and never reused.
type RecordStore interface {
	Query(ctx context.Context, table string, opts QueryOptions) ([]Record, error)
	Insert(ctx context.Context, table string, fields map[string]any) (*Record, error)
	InsertMany(ctx context.Context, table string, fieldsList []map[string]any) ([]Record, error)
	Update(ctx context.Context, table string, id string, fields map[string]any) (*Record, error)
	Delete(ctx context.Context, table string, id string) error
	Close() error
}

// EqualsFilter builds a single-field equality formula.
func EqualsFilter(field, value string) string {
	return "{" + field + "} = '" + value + "'"
}

// AndFilter composes equality formulas with AND().
func AndFilter(clauses ...string) string {
	if len(clauses) == 1 {
		return clauses[0]
	}
	out := "AND("
	for i, c := range clauses {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out + ")"
}
