package display

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/tracksync/tracksync/internal/action"
)

func makeRecord(i int, typ action.Type, completed bool, ts time.Time, payload string) action.Record {
	return action.Record{
		ID:        fmt.Sprintf("rec%03d", i),
		UserID:    "u1",
		Type:      typ,
		Payload:   json.RawMessage(payload),
		Timestamp: ts,
		Screen:    "screen1",
		Completed: completed,
	}
}

func TestAggregateEmpty(t *testing.T) {
	proj, err := Aggregate(nil)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if proj.Summary.TotalActions != 0 {
		t.Errorf("TotalActions = %d", proj.Summary.TotalActions)
	}
	if proj.Chart.CompletionRate != 0 {
		t.Errorf("CompletionRate = %d, want 0 for no records", proj.Chart.CompletionRate)
	}
	if len(proj.List) != 0 || len(proj.Grid) != 0 {
		t.Error("empty input should produce empty list and grid")
	}
}

func TestAggregateSummaryCounts(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	records := []action.Record{
		makeRecord(0, action.TypeCheckboxMarked, true, base, `{}`),
		makeRecord(1, action.TypeCheckboxMarked, false, base, `{}`),
		makeRecord(2, action.TypeItemSelected, false, base, `{}`),
		makeRecord(3, action.TypeDataSubmitted, true, base, `{}`),
	}

	proj, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	s := proj.Summary
	if s.TotalActions != 4 {
		t.Errorf("TotalActions = %d", s.TotalActions)
	}
	if s.CompletedTasks+s.PendingTasks != s.TotalActions {
		t.Errorf("completed %d + pending %d != total %d", s.CompletedTasks, s.PendingTasks, s.TotalActions)
	}
	if s.CompletedTasks != 2 {
		t.Errorf("CompletedTasks = %d", s.CompletedTasks)
	}
	if s.Categories["checkbox_marked"] != 2 || s.Categories["item_selected"] != 1 {
		t.Errorf("Categories = %v", s.Categories)
	}
	if proj.Chart.CompletionRate != 50 {
		t.Errorf("CompletionRate = %d, want 50", proj.Chart.CompletionRate)
	}
}

func TestAggregateRecentActivityCap(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	var records []action.Record
	for i := 0; i < 8; i++ {
		records = append(records, makeRecord(i, action.TypeItemSelected, false, base.Add(-time.Duration(i)*time.Minute), `{}`))
	}

	proj, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(proj.Summary.RecentActivity) != 5 {
		t.Fatalf("RecentActivity has %d entries, want 5", len(proj.Summary.RecentActivity))
	}
	// Input is newest first; the cap keeps the head of the input.
	if proj.Summary.RecentActivity[0].ID != "rec000" {
		t.Errorf("first recent = %s", proj.Summary.RecentActivity[0].ID)
	}
}

func TestAggregateGridGroupsByDay(t *testing.T) {
	day1 := time.Date(2026, 8, 20, 22, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)
	records := []action.Record{
		makeRecord(0, action.TypeCheckboxMarked, true, day1, `{}`),
		makeRecord(1, action.TypeItemSelected, false, day1.Add(-time.Hour), `{}`),
		makeRecord(2, action.TypeDataSubmitted, false, day2, `{}`),
	}

	proj, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(proj.Grid) != 2 {
		t.Fatalf("grid has %d days, want 2", len(proj.Grid))
	}
	first := proj.Grid[0]
	if first.TotalItems != 2 || first.CompletedItems != 1 {
		t.Errorf("first day = %+v", first)
	}
	if len(first.Items) != 2 {
		t.Errorf("first day items = %d", len(first.Items))
	}
}

func TestAggregateListPresentation(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	records := []action.Record{
		makeRecord(0, action.TypeCheckboxMarked, false, base, `{"itemName":"Walk dog","isChecked":true}`),
		makeRecord(1, action.TypeDataSubmitted, false, base, `{"formType":"mood","fields":{"a":1,"b":2}}`),
		makeRecord(2, action.TypeItemSelected, false, base, `{"itemName":"Settings"}`),
		makeRecord(3, action.TypePreferenceChanged, false, base, `{}`),
	}

	proj, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	items := proj.List
	if items[0].Title != "Walk dog" || items[0].Subtitle != "Checked" || items[0].Icon != "✓" {
		t.Errorf("checkbox item = %+v", items[0])
	}
	if items[1].Title != "Form: mood" || items[1].Subtitle != "Fields: 2" || items[1].Icon != "📝" {
		t.Errorf("submission item = %+v", items[1])
	}
	if items[2].Title != "Settings" || items[2].Icon != "👆" {
		t.Errorf("selection item = %+v", items[2])
	}
	if items[3].Icon != "⚙️" {
		t.Errorf("preference icon = %q", items[3].Icon)
	}
}

func TestAggregateMalformedPayloadFailsWholePass(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	records := []action.Record{
		makeRecord(0, action.TypeItemSelected, false, base, `{}`),
		makeRecord(1, action.TypeItemSelected, false, base, `{broken`),
	}
	if _, err := Aggregate(records); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	var records []action.Record
	for i := 0; i < 10; i++ {
		typ := action.TypeItemSelected
		if i%3 == 0 {
			typ = action.TypeCheckboxMarked
		}
		records = append(records, makeRecord(i, typ, i%2 == 0, base.Add(-time.Duration(i)*time.Hour), `{}`))
	}

	a, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	b, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	a.LastUpdated, b.LastUpdated = time.Time{}, time.Time{}
	if !reflect.DeepEqual(a, b) {
		t.Error("same input produced different projections")
	}
}

func TestChartSeriesFirstSeenOrder(t *testing.T) {
	day1 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, -1)
	records := []action.Record{
		makeRecord(0, action.TypeItemSelected, false, day1, `{}`),
		makeRecord(1, action.TypeCheckboxMarked, false, day2, `{}`),
		makeRecord(2, action.TypeItemSelected, false, day1, `{}`),
	}

	proj, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	daily := proj.Chart.DailyActivity
	if len(daily.Labels) != 2 || daily.Data[0] != 2 || daily.Data[1] != 1 {
		t.Errorf("daily = %+v", daily)
	}
	types := proj.Chart.TypeDistribution
	if len(types.Labels) != 2 || types.Labels[0] != "item_selected" || types.Data[0] != 2 {
		t.Errorf("types = %+v", types)
	}
}
