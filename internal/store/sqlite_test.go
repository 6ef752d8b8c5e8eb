package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteInsertAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, TableUserActions, map[string]any{
		"user_id":     "u1",
		"action_type": "item_selected",
		"timestamp":   "2026-08-01T10:00:00.000000000Z",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !strings.HasPrefix(rec.ID, "rec") {
		t.Errorf("record id %q should have rec prefix", rec.ID)
	}

	rows, err := s.Query(ctx, TableUserActions, QueryOptions{
		Filter: EqualsFilter("user_id", "u1"),
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].StringField("action_type") != "item_selected" {
		t.Errorf("action_type = %q", rows[0].StringField("action_type"))
	}
}

func TestSQLiteQueryFilterIsolatesUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, userID := range []string{"u1", "u1", "u2"} {
		if _, err := s.Insert(ctx, TableUserActions, map[string]any{"user_id": userID}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	rows, err := s.Query(ctx, TableUserActions, QueryOptions{Filter: EqualsFilter("user_id", "u1")})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows for u1, want 2", len(rows))
	}
}

func TestSQLiteQuerySortAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stamps := []string{
		"2026-08-01T10:00:00.000000000Z",
		"2026-08-03T10:00:00.000000000Z",
		"2026-08-02T10:00:00.000000000Z",
	}
	for _, ts := range stamps {
		if _, err := s.Insert(ctx, TableUserActions, map[string]any{"user_id": "u1", "timestamp": ts}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	rows, err := s.Query(ctx, TableUserActions, QueryOptions{
		MaxRecords: 2,
		Filter:     EqualsFilter("user_id", "u1"),
		Sort:       []SortField{{Field: "timestamp", Direction: SortDesc}},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].StringField("timestamp") != "2026-08-03T10:00:00.000000000Z" {
		t.Errorf("first row = %q, want newest", rows[0].StringField("timestamp"))
	}
	if rows[1].StringField("timestamp") != "2026-08-02T10:00:00.000000000Z" {
		t.Errorf("second row = %q", rows[1].StringField("timestamp"))
	}
}

func TestSQLiteTablesAreSeparate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, TableUserActions, map[string]any{"user_id": "u1"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, TableDisplayData, map[string]any{"user_id": "u1"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rows, err := s.Query(ctx, TableDisplayData, QueryOptions{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("display_data has %d rows, want 1", len(rows))
	}
}

func TestSQLiteInsertMany(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recs, err := s.InsertMany(ctx, TableUserActions, []map[string]any{
		{"user_id": "u1", "action_type": "checkbox_marked"},
		{"user_id": "u1", "action_type": "data_submitted"},
	})
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].ID == recs[1].ID {
		t.Error("records share an id")
	}
}

func TestSQLiteUpdateMergesFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, TableUserActions, map[string]any{"user_id": "u1", "completed": false})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	updated, err := s.Update(ctx, TableUserActions, rec.ID, map[string]any{"completed": true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.BoolField("completed") {
		t.Error("completed should be true after update")
	}
	if updated.StringField("user_id") != "u1" {
		t.Error("update dropped untouched field user_id")
	}
}

func TestSQLiteDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, TableUserActions, map[string]any{"user_id": "u1"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Delete(ctx, TableUserActions, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, TableUserActions, rec.ID); err == nil {
		t.Error("deleting a missing record should fail")
	}
}
