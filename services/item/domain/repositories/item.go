package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/datavault/services/item/domain/models"
)

// UpdateItem carries the partial fields of an update request. A nil field
// means "leave unchanged"; a present field replaces the stored value. An
// update with no fields set is a valid no-op that still refreshes the
// item's UpdatedAt.
type UpdateItem struct {
	Name *string
	Data *[]byte
}

// IsEmpty reports whether no fields are set.
func (u UpdateItem) IsEmpty() bool {
	return u.Name == nil && u.Data == nil
}

// StoreStats is the aggregate report over all present items.
// OldestCreatedAt and NewestCreatedAt are nil when the store is empty.
type StoreStats struct {
	Count           int64
	TotalBytes      int64
	OldestCreatedAt *time.Time
	NewestCreatedAt *time.Time
}

// ItemRepository is the persistence interface for the Item aggregate.
// The domain layer owns this interface; infrastructure implements it.
// It is the sole owner of durable item state: every mutation applies fully
// within one backend transaction or not at all.
type ItemRepository interface {
	Save(ctx context.Context, item *models.Item) error

	// GetByID retrieves an item. Returns ErrItemNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// FindAll retrieves every present item ordered by creation time
	// ascending, with ID as the tie-break for equal timestamps.
	// An empty store yields an empty slice, never an error.
	FindAll(ctx context.Context) ([]*models.Item, error)

	// Update applies the supplied partial fields to an existing item inside
	// a single transaction, refreshes UpdatedAt, and returns the merged row.
	// Returns ErrItemNotFound when absent.
	Update(ctx context.Context, id uuid.UUID, fields UpdateItem) (*models.Item, error)

	// Delete permanently removes an item. Returns ErrItemNotFound when absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the number of present items.
	Count(ctx context.Context) (int64, error)

	// Stats returns the aggregate report. An empty store is not an error.
	Stats(ctx context.Context) (*StoreStats, error)

	// Clear deletes every present item atomically and returns the number
	// removed. When confirmed is false it returns ErrConfirmationRequired
	// without touching the store.
	Clear(ctx context.Context, confirmed bool) (int64, error)
}
