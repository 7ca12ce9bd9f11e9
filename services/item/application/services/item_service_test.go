package services

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	itemdomain "github.com/ghuser/datavault/services/item/domain"
	"github.com/ghuser/datavault/services/item/domain/models"
	"github.com/ghuser/datavault/services/item/domain/repositories"
)

// fakeRepo is an in-memory ItemRepository with the same observable semantics
// as the postgres implementation.
type fakeRepo struct {
	items map[uuid.UUID]*models.Item
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[uuid.UUID]*models.Item)}
}

func (f *fakeRepo) Save(_ context.Context, item *models.Item) error {
	if _, ok := f.items[item.ID]; ok {
		return itemdomain.ErrItemAlreadyExists
	}
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, itemdomain.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeRepo) FindAll(_ context.Context) ([]*models.Item, error) {
	out := make([]*models.Item, 0, len(f.items))
	for _, item := range f.items {
		cp := *item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, fields repositories.UpdateItem) (*models.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, itemdomain.ErrItemNotFound
	}
	merged := *item
	if fields.Name != nil {
		merged.Name = models.ItemName(*fields.Name)
	}
	if fields.Data != nil {
		merged.Data = *fields.Data
	}
	merged.UpdatedAt = time.Now().UTC()
	f.items[id] = &merged
	cp := merged
	return &cp, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return itemdomain.ErrItemNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.items)), nil
}

func (f *fakeRepo) Stats(_ context.Context) (*repositories.StoreStats, error) {
	stats := &repositories.StoreStats{Count: int64(len(f.items))}
	for _, item := range f.items {
		stats.TotalBytes += item.Size()
		if stats.OldestCreatedAt == nil || item.CreatedAt.Before(*stats.OldestCreatedAt) {
			t := item.CreatedAt
			stats.OldestCreatedAt = &t
		}
		if stats.NewestCreatedAt == nil || item.CreatedAt.After(*stats.NewestCreatedAt) {
			t := item.CreatedAt
			stats.NewestCreatedAt = &t
		}
	}
	return stats, nil
}

func (f *fakeRepo) Clear(_ context.Context, confirmed bool) (int64, error) {
	if !confirmed {
		return 0, itemdomain.ErrConfirmationRequired
	}
	n := int64(len(f.items))
	f.items = make(map[uuid.UUID]*models.Item)
	return n, nil
}

func newService() (*ItemService, *fakeRepo) {
	repo := newFakeRepo()
	return NewItemService(repo, nil), repo
}

func TestCreate_RoundTrip(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "My Data", []byte("Hello World"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Fatal("created_at must equal updated_at at creation")
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != created.Name || !bytes.Equal(got.Data, created.Data) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, created)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) || !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatal("timestamps must survive the round trip unchanged")
	}
}

func TestCreate_InvalidName(t *testing.T) {
	svc, _ := newService()

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"padded", " padded "},
		{"control char", "bad\x00name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input, []byte("x"))
			if !errors.Is(err, itemdomain.ErrInvalidItem) {
				t.Fatalf("expected ErrInvalidItem, got %v", err)
			}
		})
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "Original", []byte("payload"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("name only leaves data unchanged", func(t *testing.T) {
		name := "Updated Name"
		updated, err := svc.Update(ctx, created.ID, repositories.UpdateItem{Name: &name})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Name.String() != "Updated Name" {
			t.Errorf("name: got %q", updated.Name)
		}
		if !bytes.Equal(updated.Data, created.Data) {
			t.Error("data changed on name-only update")
		}
		if updated.UpdatedAt.Before(created.UpdatedAt) {
			t.Error("updated_at must never decrease")
		}
	})

	t.Run("data only leaves name unchanged", func(t *testing.T) {
		data := []byte("new payload")
		updated, err := svc.Update(ctx, created.ID, repositories.UpdateItem{Data: &data})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !bytes.Equal(updated.Data, data) {
			t.Errorf("data: got %q", updated.Data)
		}
		if updated.Name.String() != "Updated Name" {
			t.Errorf("name changed on data-only update: %q", updated.Name)
		}
	})

	t.Run("invalid name rejected", func(t *testing.T) {
		bad := ""
		_, err := svc.Update(ctx, created.ID, repositories.UpdateItem{Name: &bad})
		if !errors.Is(err, itemdomain.ErrInvalidItem) {
			t.Fatalf("expected ErrInvalidItem, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		name := "x"
		_, err := svc.Update(ctx, uuid.New(), repositories.UpdateItem{Name: &name})
		if !errors.Is(err, itemdomain.ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})
}

func TestDelete_ThenGetFails(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "Doomed", []byte("x"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, itemdomain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, itemdomain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound on double delete, got %v", err)
	}
}

func TestList_OrderedByCreation(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	for i, name := range []string{"first", "second", "third"} {
		item, err := svc.Create(ctx, name, []byte{byte(i)})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		// Space creation times out so the ordering is unambiguous.
		stored := repo.items[item.ID]
		stored.CreatedAt = stored.CreatedAt.Add(time.Duration(i) * time.Second)
	}

	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].CreatedAt.Before(items[i-1].CreatedAt) {
			t.Fatal("list must be ordered by created_at ascending")
		}
	}
}

func TestCountAndClear_Semantics(t *testing.T) {
	_, repo := newService()
	ctx := context.Background()

	for range 3 {
		item, _ := models.NewItem("n", []byte("abc"))
		if err := repo.Save(ctx, item); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("count: got %d, %v", count, err)
	}

	if _, err := repo.Clear(ctx, false); !errors.Is(err, itemdomain.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if count, _ := repo.Count(ctx); count != 3 {
		t.Fatalf("unconfirmed clear mutated the store: count %d", count)
	}

	removed, err := repo.Clear(ctx, true)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	if count, _ := repo.Count(ctx); count != 0 {
		t.Fatalf("expected empty store, got count %d", count)
	}
}

func TestStats_EmptyStore(t *testing.T) {
	_, repo := newService()

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Count != 0 || stats.TotalBytes != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
	if stats.OldestCreatedAt != nil || stats.NewestCreatedAt != nil {
		t.Fatal("empty store must not report timestamps")
	}
}
