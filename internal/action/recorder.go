package action

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tracksync/tracksync/internal/store"
)

// timestampLayout is RFC3339 with fixed-width nanoseconds so that the string
// sort order used by the store matches chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Recorder persists user actions. On a store failure no record exists and
// nothing downstream fires; the caller may retry.
type Recorder struct {
	store store.RecordStore
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(s store.RecordStore) *Recorder {
	return &Recorder{store: s}
}

// RecordAction validates and persists one user action, returning the stored
// record. The payload may be any JSON-serializable value; typed payload
// structs (CheckboxPayload etc.) are the expected shapes per kind.
func (r *Recorder) RecordAction(ctx context.Context, userID string, typ Type, payload any, screen string) (*Record, error) {
	if userID == "" {
		return nil, fmt.Errorf("record action: empty user id")
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("record action: unknown action type %q", typ)
	}

	blob, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("record action: encode payload: %w", err)
	}

	now := time.Now().UTC()
	fields := map[string]any{
		"user_id":     userID,
		"action_type": string(typ),
		"action_data": string(blob),
		"timestamp":   now.Format(timestampLayout),
		"screen_name": screen,
		"completed":   false,
	}

	stored, err := r.store.Insert(ctx, store.TableUserActions, fields)
	if err != nil {
		return nil, fmt.Errorf("record action: %w", err)
	}
	return FromStoreRecord(stored)
}

// UserActions returns the user's actions newest first, bounded by limit.
func (r *Recorder) UserActions(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.store.Query(ctx, store.TableUserActions, store.QueryOptions{
		MaxRecords: limit,
		Filter:     store.EqualsFilter("user_id", userID),
		Sort:       []store.SortField{{Field: "timestamp", Direction: store.SortDesc}},
	})
	if err != nil {
		return nil, fmt.Errorf("user actions: %w", err)
	}

	out := make([]Record, 0, len(rows))
	for i := range rows {
		rec, err := FromStoreRecord(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("user actions: %w", err)
		}
		out = append(out, *rec)
	}
	return out, nil
}

// CheckboxStates replays checkbox_marked actions and returns the latest state
// per item id. Records with undecodable payloads are skipped.
func (r *Recorder) CheckboxStates(ctx context.Context, userID string) (map[string]CheckboxState, error) {
	records, err := r.UserActions(ctx, userID, 100)
	if err != nil {
		return nil, err
	}

	states := make(map[string]CheckboxState)
	// Newest first: the first payload seen per item wins.
	for i := range records {
		if records[i].Type != TypeCheckboxMarked {
			continue
		}
		var p CheckboxPayload
		if err := json.Unmarshal(records[i].Payload, &p); err != nil || p.ItemID == "" {
			continue
		}
		if _, seen := states[p.ItemID]; seen {
			continue
		}
		states[p.ItemID] = CheckboxState{IsChecked: p.IsChecked, LastUpdated: p.Timestamp}
	}
	return states, nil
}

// FromStoreRecord converts a raw store row into an action Record.
func FromStoreRecord(rec *store.Record) (*Record, error) {
	ts, err := time.Parse(time.RFC3339Nano, rec.StringField("timestamp"))
	if err != nil {
		return nil, fmt.Errorf("record %s: parse timestamp: %w", rec.ID, err)
	}
	return &Record{
		ID:        rec.ID,
		UserID:    rec.StringField("user_id"),
		Type:      Type(rec.StringField("action_type")),
		Payload:   json.RawMessage(rec.StringField("action_data")),
		Timestamp: ts,
		Screen:    rec.StringField("screen_name"),
		Completed: rec.BoolField("completed"),
	}, nil
}
