// Package changefeed carries table-change notifications between the write
// paths and the cache/query layers. Events say that a row changed, never what
// it changed to; readers refetch.
package changefeed

import "time"

// Operation values carried on the feed.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
	// OpAny is a subscription mask, never published.
	OpAny = "*"
)

// Event is one change notification.
type Event struct {
	Table      string    `json:"table"`
	Op         string    `json:"op"`
	RecordID   string    `json:"record_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
