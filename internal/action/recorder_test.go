package action

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tracksync/tracksync/internal/store"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "actions.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewRecorder(s)
}

func TestRecordActionRoundTrip(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	rec, err := r.RecordAction(ctx, "u1", TypeCheckboxMarked, CheckboxPayload{
		ItemID:    "item-1",
		ItemName:  "Morning run",
		IsChecked: true,
	}, "screen1")
	if err != nil {
		t.Fatalf("RecordAction: %v", err)
	}
	if rec.ID == "" {
		t.Error("record has no id")
	}
	if rec.UserID != "u1" || rec.Type != TypeCheckboxMarked || rec.Screen != "screen1" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Completed {
		t.Error("new records must start uncompleted")
	}

	data, err := rec.PayloadMap()
	if err != nil {
		t.Fatalf("PayloadMap: %v", err)
	}
	if data["itemName"] != "Morning run" || data["isChecked"] != true {
		t.Errorf("payload = %v", data)
	}
}

func TestRecordActionValidation(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	if _, err := r.RecordAction(ctx, "", TypeItemSelected, nil, "s"); err == nil {
		t.Error("empty user id should fail")
	}
	if _, err := r.RecordAction(ctx, "u1", Type("swiped"), nil, "s"); err == nil {
		t.Error("unknown action type should fail")
	}
}

func TestUserActionsNewestFirst(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	for i, typ := range []Type{TypeCheckboxMarked, TypeItemSelected, TypeDataSubmitted} {
		if _, err := r.RecordAction(ctx, "u1", typ, map[string]any{"n": i}, "s"); err != nil {
			t.Fatalf("RecordAction: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	records, err := r.UserActions(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("UserActions: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].Type != TypeDataSubmitted {
		t.Errorf("newest record = %s, want data_submitted", records[0].Type)
	}
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.After(records[i-1].Timestamp) {
			t.Errorf("records out of order at %d", i)
		}
	}
}

func TestUserActionsLimit(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := r.RecordAction(ctx, "u1", TypeItemSelected, nil, "s"); err != nil {
			t.Fatalf("RecordAction: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	records, err := r.UserActions(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("UserActions: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want 3", len(records))
	}
}

func TestCheckboxStatesLatestWins(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	check := func(itemID string, checked bool) {
		t.Helper()
		_, err := r.RecordAction(ctx, "u1", TypeCheckboxMarked, CheckboxPayload{
			ItemID:    itemID,
			IsChecked: checked,
			Timestamp: time.Now().Format(time.RFC3339),
		}, "screen1")
		if err != nil {
			t.Fatalf("RecordAction: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	check("item-a", true)
	check("item-b", true)
	check("item-a", false)

	states, err := r.CheckboxStates(ctx, "u1")
	if err != nil {
		t.Fatalf("CheckboxStates: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("got %d states, want 2", len(states))
	}
	if states["item-a"].IsChecked {
		t.Error("item-a should reflect the latest (unchecked) action")
	}
	if !states["item-b"].IsChecked {
		t.Error("item-b should stay checked")
	}
}

func TestCheckboxStatesSkipsOtherTypes(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	if _, err := r.RecordAction(ctx, "u1", TypeItemSelected, SelectionPayload{ItemID: "x"}, "s"); err != nil {
		t.Fatalf("RecordAction: %v", err)
	}

	states, err := r.CheckboxStates(ctx, "u1")
	if err != nil {
		t.Fatalf("CheckboxStates: %v", err)
	}
	if len(states) != 0 {
		t.Errorf("got %d states, want 0", len(states))
	}
}
