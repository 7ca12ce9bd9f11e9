package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/datavault/pkg/database"
	"github.com/ghuser/datavault/pkg/events"
	itemdomain "github.com/ghuser/datavault/services/item/domain"
	domainevents "github.com/ghuser/datavault/services/item/domain/events"
	"github.com/ghuser/datavault/services/item/domain/models"
	"github.com/ghuser/datavault/services/item/domain/repositories"
)

// ItemRepository implements repositories.ItemRepository against PostgreSQL.
// Every mutation runs inside a single transaction; lifecycle events publish
// through the same transaction (outbox pattern) so "mutate + publish" is
// atomic. The bus may be nil (admin tool), in which case no events publish.
type ItemRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewItemRepository returns an ItemRepository backed by the given connection
// pool and event bus.
func NewItemRepository(db *database.Database, bus *events.EventBus) *ItemRepository {
	return &ItemRepository{db: db, bus: bus}
}

// Save persists a new Item and publishes an ItemCreatedEvent within the same
// transaction. Returns ErrItemAlreadyExists on a duplicate ID, which is
// effectively unreachable for freshly generated v4 UUIDs.
func (r *ItemRepository) Save(ctx context.Context, item *models.Item) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (id, name, data, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			item.ID, item.Name.String(), item.Data, item.CreatedAt, item.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return itemdomain.ErrItemAlreadyExists
			}
			return storageErr("insert item", err)
		}

		return r.publish(tx, domainevents.TopicItemCreated, domainevents.ItemCreatedEvent{
			EventID:    uuid.New(),
			Version:    1,
			ItemID:     item.ID,
			Name:       item.Name.String(),
			SizeBytes:  item.Size(),
			OccurredAt: item.CreatedAt,
		})
	})
}

// GetByID retrieves an Item by ID. Returns ErrItemNotFound if not found.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT id, name, data, created_at, updated_at FROM items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, itemdomain.ErrItemNotFound
		}
		return nil, storageErr("query item", err)
	}
	return item, nil
}

// FindAll retrieves every item ordered by creation time ascending, ID as the
// tie-break. An empty store yields an empty slice.
func (r *ItemRepository) FindAll(ctx context.Context) ([]*models.Item, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT id, name, data, created_at, updated_at FROM items
		 ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, storageErr("query items", err)
	}
	defer rows.Close() //nolint:errcheck

	items := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, storageErr("scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate items", err)
	}
	return items, nil
}

// Update applies the supplied partial fields inside one transaction: the row
// is locked, missing fields keep their stored values, and UpdatedAt is
// refreshed. Last applier wins; the row lock serializes concurrent updates.
func (r *ItemRepository) Update(ctx context.Context, id uuid.UUID, fields repositories.UpdateItem) (*models.Item, error) {
	var updated *models.Item
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT id, name, data, created_at, updated_at FROM items
			 WHERE id = $1 FOR UPDATE`, id)
		current, err := scanItem(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return itemdomain.ErrItemNotFound
			}
			return storageErr("lock item", err)
		}

		merged := mergeUpdate(current, fields, time.Now().UTC())

		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET name = $2, data = $3, updated_at = $4 WHERE id = $1`,
			merged.ID, merged.Name.String(), merged.Data, merged.UpdatedAt,
		); err != nil {
			return storageErr("update item", err)
		}

		if err := r.publish(tx, domainevents.TopicItemUpdated, domainevents.ItemUpdatedEvent{
			EventID:    uuid.New(),
			Version:    1,
			ItemID:     merged.ID,
			Name:       merged.Name.String(),
			SizeBytes:  merged.Size(),
			OccurredAt: merged.UpdatedAt,
		}); err != nil {
			return err
		}

		updated = merged
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete permanently removes an item. Returns ErrItemNotFound if absent.
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
		if err != nil {
			return storageErr("delete item", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return storageErr("delete item", err)
		}
		if affected == 0 {
			return itemdomain.ErrItemNotFound
		}

		return r.publish(tx, domainevents.TopicItemDeleted, domainevents.ItemDeletedEvent{
			EventID:    uuid.New(),
			Version:    1,
			ItemID:     id,
			OccurredAt: time.Now().UTC(),
		})
	})
}

// Count returns the number of present items.
func (r *ItemRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	if err != nil {
		return 0, storageErr("count items", err)
	}
	return count, nil
}

// Stats returns the aggregate report. The timestamp fields are nil when the
// store is empty; an empty store is not an error.
func (r *ItemRepository) Stats(ctx context.Context) (*repositories.StoreStats, error) {
	var (
		stats  repositories.StoreStats
		oldest sql.NullTime
		newest sql.NullTime
	)
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(data)), 0), MIN(created_at), MAX(created_at)
		 FROM items`).Scan(&stats.Count, &stats.TotalBytes, &oldest, &newest)
	if err != nil {
		return nil, storageErr("query stats", err)
	}
	if oldest.Valid {
		t := oldest.Time
		stats.OldestCreatedAt = &t
	}
	if newest.Valid {
		t := newest.Time
		stats.NewestCreatedAt = &t
	}
	return &stats, nil
}

// Clear deletes every item in one transaction and returns the number removed.
// Unconfirmed calls return ErrConfirmationRequired before any transaction is
// opened; a concurrent reader sees either the full set or an empty store,
// never a partially cleared one.
func (r *ItemRepository) Clear(ctx context.Context, confirmed bool) (int64, error) {
	if !confirmed {
		return 0, itemdomain.ErrConfirmationRequired
	}

	var removed int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM items`)
		if err != nil {
			return storageErr("clear items", err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return storageErr("clear items", err)
		}

		return r.publish(tx, domainevents.TopicItemsCleared, domainevents.ItemsClearedEvent{
			EventID:      uuid.New(),
			Version:      1,
			RemovedCount: removed,
			OccurredAt:   time.Now().UTC(),
		})
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// publish marshals evt and publishes it on topic through a publisher bound to
// tx. A nil bus skips publishing.
func (r *ItemRepository) publish(tx *sql.Tx, topic string, evt any) error {
	if r.bus == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_version", "1")
	p, err := r.bus.NewTxPublisher(tx)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	return p.Publish(topic, msg)
}

// mergeUpdate applies the supplied partial fields onto current and refreshes
// UpdatedAt. UpdatedAt never precedes CreatedAt even under clock adjustment.
func mergeUpdate(current *models.Item, fields repositories.UpdateItem, now time.Time) *models.Item {
	merged := *current
	if fields.Name != nil {
		merged.Name = models.ItemName(*fields.Name)
	}
	if fields.Data != nil {
		merged.Data = *fields.Data
	}
	if now.Before(merged.CreatedAt) {
		now = merged.CreatedAt
	}
	merged.UpdatedAt = now
	return &merged
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item models.Item
		name string
	)
	if err := row.Scan(&item.ID, &name, &item.Data, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Name = models.ItemName(name)
	return &item, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, itemdomain.ErrStorageUnavailable, err)
}
