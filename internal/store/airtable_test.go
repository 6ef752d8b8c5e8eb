package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAirtableQueryBuildsRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{
				{"id": "rec1", "fields": map[string]any{"user_id": "u1"}},
			},
		})
	}))
	defer srv.Close()

	a := NewAirtableStore("key-123", "base-1", srv.URL)
	rows, err := a.Query(context.Background(), TableUserActions, QueryOptions{
		MaxRecords: 50,
		Filter:     EqualsFilter("user_id", "u1"),
		Sort:       []SortField{{Field: "timestamp", Direction: SortDesc}},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if gotPath != "/base-1/user_actions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer key-123" {
		t.Errorf("auth = %q", gotAuth)
	}
	if got := gotQuery["maxRecords"]; len(got) != 1 || got[0] != "50" {
		t.Errorf("maxRecords = %v", got)
	}
	if got := gotQuery["filterByFormula"]; len(got) != 1 || got[0] != "{user_id} = 'u1'" {
		t.Errorf("filterByFormula = %v", got)
	}
	if got := gotQuery["sort[0][field]"]; len(got) != 1 || got[0] != "timestamp" {
		t.Errorf("sort field = %v", got)
	}
	if got := gotQuery["sort[0][direction]"]; len(got) != 1 || got[0] != "desc" {
		t.Errorf("sort direction = %v", got)
	}

	if len(rows) != 1 || rows[0].ID != "rec1" || rows[0].StringField("user_id") != "u1" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestAirtableInsertPostsFields(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "recNew",
			"fields": gotBody["fields"],
		})
	}))
	defer srv.Close()

	a := NewAirtableStore("key", "base", srv.URL)
	rec, err := a.Insert(context.Background(), TableUserActions, map[string]any{"user_id": "u9"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if rec.ID != "recNew" {
		t.Errorf("id = %q", rec.ID)
	}
	fields, _ := gotBody["fields"].(map[string]any)
	if fields["user_id"] != "u9" {
		t.Errorf("posted fields = %v", gotBody)
	}
}

func TestAirtableErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"NOT_FOUND"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewAirtableStore("key", "base", srv.URL)
	if _, err := a.Query(context.Background(), TableUserActions, QueryOptions{}); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestAirtableDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"deleted": true, "id": "rec1"})
	}))
	defer srv.Close()

	a := NewAirtableStore("key", "base", srv.URL)
	if err := a.Delete(context.Background(), TableUserActions, "rec1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/base/user_actions/rec1" {
		t.Errorf("got %s %s", gotMethod, gotPath)
	}
}
