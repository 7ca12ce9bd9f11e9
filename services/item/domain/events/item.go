// Package events defines the item lifecycle domain events and their topics.
// Events are published transactionally by the postgres repository (outbox
// pattern) and consumed by the worker process.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topic names for item lifecycle events.
const (
	TopicItemCreated  = "item.created"
	TopicItemUpdated  = "item.updated"
	TopicItemDeleted  = "item.deleted"
	TopicItemsCleared = "items.cleared"
)

// ItemCreatedEvent is published after an item is persisted.
type ItemCreatedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ItemID     uuid.UUID `json:"item_id"`
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ItemUpdatedEvent is published after a partial update commits.
type ItemUpdatedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ItemID     uuid.UUID `json:"item_id"`
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ItemDeletedEvent is published after an individual delete commits.
type ItemDeletedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ItemID     uuid.UUID `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ItemsClearedEvent is published after a confirmed clear-all commits.
type ItemsClearedEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	Version      int       `json:"version"`
	RemovedCount int64     `json:"removed_count"`
	OccurredAt   time.Time `json:"occurred_at"`
}
