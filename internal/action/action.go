// Package action defines user action records and the Recorder that persists
// them as an append-only log in the record store.
package action

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type enumerates the recordable user action kinds.
type Type string

const (
	TypeCheckboxMarked    Type = "checkbox_marked"
	TypeItemSelected      Type = "item_selected"
	TypeDataSubmitted     Type = "data_submitted"
	TypePreferenceChanged Type = "preference_changed"
)

// NumTypes is the size of the action-kind alphabet, used by engagement scoring.
const NumTypes = 4

// Valid reports whether t is one of the enumerated kinds.
func (t Type) Valid() bool {
	switch t {
	case TypeCheckboxMarked, TypeItemSelected, TypeDataSubmitted, TypePreferenceChanged:
		return true
	}
	return false
}

// Record is one immutable user action. Identity is assigned by the store;
// records are never mutated after creation.
type Record struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      Type            `json:"action_type"`
	Payload   json.RawMessage `json:"action_data"`
	Timestamp time.Time       `json:"timestamp"`
	Screen    string          `json:"screen_name"`
	Completed bool            `json:"completed"`
}

// PayloadMap decodes the payload into a generic map. Malformed payload JSON
// is an error, not an empty map.
func (r *Record) PayloadMap() (map[string]any, error) {
	if len(r.Payload) == 0 {
		return map[string]any{}, nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(r.Payload, &out); err != nil {
		return nil, fmt.Errorf("record %s: decode payload: %w", r.ID, err)
	}
	return out, nil
}

// CheckboxPayload is the payload shape for checkbox_marked actions.
type CheckboxPayload struct {
	ItemID    string `json:"itemId"`
	ItemName  string `json:"itemName,omitempty"`
	IsChecked bool   `json:"isChecked"`
	Timestamp string `json:"timestamp,omitempty"`
}

// SelectionPayload is the payload shape for item_selected actions.
type SelectionPayload struct {
	ItemID   string `json:"itemId"`
	ItemName string `json:"itemName,omitempty"`
}

// SubmissionPayload is the payload shape for data_submitted actions.
type SubmissionPayload struct {
	FormType    string         `json:"formType"`
	Fields      map[string]any `json:"fields,omitempty"`
	SubmittedAt string         `json:"submittedAt,omitempty"`
}

// CheckboxState is the latest known state of one checkbox item.
type CheckboxState struct {
	IsChecked   bool   `json:"isChecked"`
	LastUpdated string `json:"lastUpdated"`
}
