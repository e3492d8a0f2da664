package domain

import "time"

// Domain entity, independent of Gin, Postgres, Redis and the blob store.
type Todo struct {
	ID     string
	UserID int64

	Name    string
	DueDate time.Time // calendar date, midnight UTC
	Done    bool

	CreatedAt time.Time

	// AttachmentURL is derived from the blob store, never persisted.
	// Empty until an upload to the item's object key has completed.
	AttachmentURL string
}
