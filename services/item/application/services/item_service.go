package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgcache "github.com/ghuser/datavault/pkg/cache"
	itemdomain "github.com/ghuser/datavault/services/item/domain"
	"github.com/ghuser/datavault/services/item/domain/models"
	"github.com/ghuser/datavault/services/item/domain/repositories"
	domainsvcs "github.com/ghuser/datavault/services/item/domain/services"
)

// ItemService orchestrates the item lifecycle. Event publishing is handled
// by the repository layer (outbox pattern). Single-item reads are served
// from the Redis read model when available; list, count and stats always
// hit the repository.
type ItemService struct {
	repo  repositories.ItemRepository
	cache *pkgcache.ItemCache
}

// NewItemService returns an ItemService wired with the given repository and
// cache. A nil cache disables the read model.
func NewItemService(repo repositories.ItemRepository, itemCache *pkgcache.ItemCache) *ItemService {
	return &ItemService{repo: repo, cache: itemCache}
}

// Create validates and persists a new Item. The repository publishes
// ItemCreatedEvent in the same transaction.
func (s *ItemService) Create(ctx context.Context, name string, data []byte) (*models.Item, error) {
	itemName, err := models.NewItemName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", itemdomain.ErrInvalidItem, err)
	}

	item, err := models.NewItem(itemName, data)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	if err := domainsvcs.ValidateItemForCreation(item); err != nil {
		return nil, fmt.Errorf("%w: %w", itemdomain.ErrInvalidItem, err)
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}

	return item, nil
}

// GetByID retrieves an Item using a read-through cache pattern:
//  1. Check Redis cache first.
//  2. On cache miss (or cache error), query Postgres.
//  3. Asynchronously warm the cache with the Postgres result. The warm is
//     an NX write, so it cannot overwrite the tombstone left by a mutation
//     that committed while this read was in flight.
func (s *ItemService) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if s.cache != nil {
		// Miss (redis.Nil) and cache faults both fall through to Postgres.
		if cached, err := s.cache.Get(ctx, id); err == nil {
			return &models.Item{
				ID:        cached.ID,
				Name:      models.ItemName(cached.Name),
				Data:      cached.Data,
				CreatedAt: cached.CreatedAt,
				UpdatedAt: cached.UpdatedAt,
			}, nil
		}
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if s.cache != nil {
		go func() {
			_ = s.cache.Set(context.Background(), cachedFrom(item))
		}()
	}

	return item, nil
}

// List returns every item ordered by creation time ascending.
func (s *ItemService) List(ctx context.Context) ([]*models.Item, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Update applies the supplied partial fields to an existing item. A name, if
// supplied, must satisfy the same rules as at creation. After the repository
// commits, the cache entry is replaced with a tombstone that also blocks
// racing warms from re-inserting the pre-update row.
func (s *ItemService) Update(ctx context.Context, id uuid.UUID, fields repositories.UpdateItem) (*models.Item, error) {
	if fields.Name != nil {
		itemName, err := models.NewItemName(*fields.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", itemdomain.ErrInvalidItem, err)
		}
		if err := domainsvcs.ValidateName(itemName); err != nil {
			return nil, fmt.Errorf("%w: %w", itemdomain.ErrInvalidItem, err)
		}
	}

	item, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(context.Background(), id)
	}

	return item, nil
}

// Delete permanently removes an item and tombstones its cache entry so no
// racing warm can resurrect it. Returns ErrItemNotFound if no matching item
// exists.
func (s *ItemService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(context.Background(), id)
	}
	return nil
}

func cachedFrom(item *models.Item) *pkgcache.CachedItem {
	return &pkgcache.CachedItem{
		ID:        item.ID,
		Name:      item.Name.String(),
		Data:      item.Data,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}
