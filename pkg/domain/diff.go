package domain

import (
	"reflect"
)

// SnapshotDiff represents the changes between two snapshots of a session.
// It is serialized to JSON for partial updates on streaming clients.
type SnapshotDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Current is the qualified id of the new active vertex.
	Current *string `json:"current,omitempty"`

	Status *SessionStatus `json:"status,omitempty"`
	Reason *EndReason     `json:"reason,omitempty"`

	// Data contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Data map[string]any `json:"data,omitempty"`

	// History contains the vertices appended since the previous snapshot.
	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents changes to the history.
type HistoryDelta struct {
	Appended []string `json:"appended"`
}

// Diff calculates the difference between two snapshots.
// If old is nil, it returns a diff representing the entire new snapshot (initial load).
func Diff(old, new *Snapshot) *SnapshotDiff {
	if new == nil {
		return nil
	}

	diff := &SnapshotDiff{SessionID: new.SessionID}

	if old == nil || old.Current() != new.Current() {
		cur := new.Current()
		diff.Current = &cur
	}
	if old == nil || old.Status != new.Status {
		diff.Status = &new.Status
	}
	if new.Reason != ReasonNone && (old == nil || old.Reason != new.Reason) {
		diff.Reason = &new.Reason
	}

	diff.Data = diffData(old, new)
	diff.History = diffHistory(old, new)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffData(old, new *Snapshot) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Data {
			delta[k] = v
		}
	} else {
		for k, newVal := range new.Data {
			oldVal, exists := old.Data[k]
			if !exists || !reflect.DeepEqual(oldVal, newVal) {
				delta[k] = newVal
			}
		}
		for k := range old.Data {
			if _, exists := new.Data[k]; !exists {
				delta[k] = nil
			}
		}
	}

	// nil lets omitempty drop the key
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory assumes append-only history.
func diffHistory(old, new *Snapshot) *HistoryDelta {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return &HistoryDelta{Appended: new.History}
	}
	if len(new.History) > len(old.History) {
		return &HistoryDelta{Appended: new.History[len(old.History):]}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.Current == nil &&
		d.Status == nil &&
		d.Reason == nil &&
		len(d.Data) == 0 &&
		d.History == nil
}
