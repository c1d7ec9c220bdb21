package domain

import "encoding/json"

// TaskInput is the client-supplied body of a task create, PUT or PATCH.
// Every field is tri-state so the service can tell absent keys from
// explicit nulls.
type TaskInput struct {
	Title       Optional[string]     `json:"title"`
	Description Optional[string]     `json:"description"`
	DueAt       Optional[string]     `json:"dueAt"`
	Priority    Optional[string]     `json:"priority"`
	Status      Optional[string]     `json:"status"`
	Position    Optional[NumberText] `json:"position"`
	Tags        Optional[[]string]   `json:"tags"`

	// OwnerID is decoded only to be rejected.
	OwnerID Optional[json.RawMessage] `json:"ownerId"`
}
