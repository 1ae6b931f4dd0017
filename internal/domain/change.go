package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change is a row-level notification pushed by the hosted store.
type Change struct {
	Type            ChangeType     `json:"type"`
	Schema          string         `json:"schema"`
	Table           string         `json:"table"`
	Record          map[string]any `json:"record,omitempty"`
	OldRecord       map[string]any `json:"old_record,omitempty"`
	CommitTimestamp time.Time      `json:"commit_timestamp"`
}

// Decode converts the new record (or the old one for deletes) into v.
func (c Change) Decode(v any) error {
	src := c.Record
	if c.Type == ChangeDelete || len(src) == 0 {
		src = c.OldRecord
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode change record: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode change record: %w", err)
	}
	return nil
}

// ChangeFilter selects which notifications a subscription receives.
type ChangeFilter struct {
	Schema string
	Table  string
	// Event is INSERT, UPDATE, DELETE or * (default).
	Event string
	// Filter is a store filter expression such as "job_id=eq.42".
	Filter string
}
