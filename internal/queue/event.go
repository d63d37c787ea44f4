// Package queue defines message payloads exchanged over the message broker.
package queue

// Actions recorded in the note activity audit trail.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// NoteActivityEvent is published whenever a note is created, updated or
// deleted. It contains enough information for downstream consumers to log or
// trigger analytics without querying the primary database. Deletions carry
// only the ids since the row is already gone.
type NoteActivityEvent struct {
	NoteID     uint64 `json:"note_id"`
	OwnerID    uint64 `json:"owner_id"`
	Title      string `json:"title,omitempty"`
	Action     string `json:"action"`
	OccurredAt string `json:"occurred_at"`
}
