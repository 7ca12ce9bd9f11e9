package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is the core aggregate for this bounded context: a named opaque
// binary payload with creation and modification timestamps.
// Data is held as raw bytes; the base64 boundary encoding is a transport
// concern and never leaks into the domain.
type Item struct {
	ID        uuid.UUID
	Name      ItemName
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewItem constructs a valid Item aggregate with a generated ID.
// CreatedAt and UpdatedAt are set to the same instant; UpdatedAt never
// precedes CreatedAt afterwards.
func NewItem(name ItemName, data []byte) (*Item, error) {
	now := time.Now().UTC()
	return &Item{
		ID:        uuid.New(),
		Name:      name,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Size returns the payload size in bytes.
func (i *Item) Size() int64 {
	return int64(len(i.Data))
}
