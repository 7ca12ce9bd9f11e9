package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	itemdomain "github.com/ghuser/datavault/services/item/domain"
	"github.com/ghuser/datavault/services/item/domain/models"
	"github.com/ghuser/datavault/services/item/domain/repositories"
)

// adminRepo is a canned-response ItemRepository. Only the admin surface
// (Count, Stats, Clear) has real behavior; the rest is unreachable from
// this binary.
type adminRepo struct {
	count      int64
	stats      *repositories.StoreStats
	clearCalls int
	cleared    int64
	err        error
}

func (r *adminRepo) Count(_ context.Context) (int64, error) {
	return r.count, r.err
}

func (r *adminRepo) Stats(_ context.Context) (*repositories.StoreStats, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.stats, nil
}

func (r *adminRepo) Clear(_ context.Context, confirmed bool) (int64, error) {
	r.clearCalls++
	if !confirmed {
		return 0, itemdomain.ErrConfirmationRequired
	}
	if r.err != nil {
		return 0, r.err
	}
	return r.cleared, nil
}

func (r *adminRepo) Save(_ context.Context, _ *models.Item) error { panic("not used") }
func (r *adminRepo) GetByID(_ context.Context, _ uuid.UUID) (*models.Item, error) {
	panic("not used")
}
func (r *adminRepo) FindAll(_ context.Context) ([]*models.Item, error) { panic("not used") }
func (r *adminRepo) Update(_ context.Context, _ uuid.UUID, _ repositories.UpdateItem) (*models.Item, error) {
	panic("not used")
}
func (r *adminRepo) Delete(_ context.Context, _ uuid.UUID) error { panic("not used") }

func TestRunCount(t *testing.T) {
	var out, errOut bytes.Buffer
	repo := &adminRepo{count: 42}

	code := run(context.Background(), repo, nil, "count", nil, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut.String())
	}
	if got := out.String(); got != "items: 42\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestRunStats(t *testing.T) {
	oldest := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	newest := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	repo := &adminRepo{stats: &repositories.StoreStats{
		Count:           3,
		TotalBytes:      1024,
		OldestCreatedAt: &oldest,
		NewestCreatedAt: &newest,
	}}

	var out, errOut bytes.Buffer
	code := run(context.Background(), repo, nil, "stats", nil, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut.String())
	}
	got := out.String()
	for _, want := range []string{"items:       3", "total bytes: 1024", "2026-01-02T03:04:05Z", "2026-08-30T12:00:00Z"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunStats_EmptyStore(t *testing.T) {
	repo := &adminRepo{stats: &repositories.StoreStats{}}

	var out, errOut bytes.Buffer
	code := run(context.Background(), repo, nil, "stats", nil, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "store is empty") {
		t.Errorf("expected empty-store notice, got:\n%s", out.String())
	}
}

func TestRunClear_RequiresConfirm(t *testing.T) {
	repo := &adminRepo{cleared: 5}

	var out, errOut bytes.Buffer
	code := run(context.Background(), repo, nil, "clear", nil, &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit 1 without --confirm, got %d", code)
	}
	if repo.clearCalls != 0 {
		t.Errorf("repository must not be touched without --confirm, got %d calls", repo.clearCalls)
	}
	if !strings.Contains(errOut.String(), "--confirm") {
		t.Errorf("refusal message should mention --confirm: %q", errOut.String())
	}
}

func TestRunClear_Confirmed(t *testing.T) {
	repo := &adminRepo{cleared: 5}

	var out, errOut bytes.Buffer
	code := run(context.Background(), repo, nil, "clear", []string{"--confirm"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut.String())
	}
	if repo.clearCalls != 1 {
		t.Errorf("expected one Clear call, got %d", repo.clearCalls)
	}
	if got := out.String(); got != "removed 5 items\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestRunClear_FlushesCacheAfterConfirmedClear(t *testing.T) {
	repo := &adminRepo{cleared: 2}
	flushes := 0
	flush := func(_ context.Context) error { flushes++; return nil }

	var out, errOut bytes.Buffer
	if code := run(context.Background(), repo, flush, "clear", []string{"--confirm"}, &out, &errOut); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut.String())
	}
	if flushes != 1 {
		t.Errorf("expected one cache flush, got %d", flushes)
	}

	// Refusal must not flush either.
	if code := run(context.Background(), repo, flush, "clear", nil, &out, &errOut); code != 1 {
		t.Fatalf("expected exit 1 without --confirm, got %d", code)
	}
	if flushes != 1 {
		t.Errorf("refusal must not flush the cache, got %d flushes", flushes)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), &adminRepo{}, nil, "bogus", nil, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(errOut.String(), "unknown command") {
		t.Errorf("expected usage on stderr: %q", errOut.String())
	}
}

func TestRun_StorageError(t *testing.T) {
	repo := &adminRepo{err: errors.New("connection refused")}

	var out, errOut bytes.Buffer
	if code := run(context.Background(), repo, nil, "count", nil, &out, &errOut); code != 1 {
		t.Errorf("count: expected exit 1, got %d", code)
	}
	if code := run(context.Background(), repo, nil, "stats", nil, &out, &errOut); code != 1 {
		t.Errorf("stats: expected exit 1, got %d", code)
	}
	if code := run(context.Background(), repo, nil, "clear", []string{"--confirm"}, &out, &errOut); code != 1 {
		t.Errorf("clear: expected exit 1, got %d", code)
	}
}
