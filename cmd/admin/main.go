// Command admin is the out-of-band maintenance tool for the item store.
// It talks to PostgreSQL directly and never goes through the HTTP API.
//
// Usage:
//
//	admin count
//	admin stats
//	admin clear --confirm
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ghuser/datavault/pkg/cache"
	"github.com/ghuser/datavault/pkg/config"
	"github.com/ghuser/datavault/pkg/database"
	"github.com/ghuser/datavault/pkg/logger"
	"github.com/ghuser/datavault/services/item/domain/repositories"
	"github.com/ghuser/datavault/services/item/infrastructure/persistence/postgres"
)

const commandTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// No event bus: admin operations are out-of-band and the repository
	// publishes nothing when the bus is nil. That also means no worker sees
	// a cleared event, so the cache flush happens here instead.
	repo := postgres.NewItemRepository(pool, nil)

	var flushCache func(context.Context) error
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Warn("redis unreachable, clear will not flush the item cache", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			flushCache = cache.NewItemCache(redisClient).Flush
		}
	}

	code := run(ctx, repo, flushCache, os.Args[1], os.Args[2:], os.Stdout, os.Stderr)
	os.Exit(code) //nolint:gocritic // deferred closes are best-effort on exit
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, repo repositories.ItemRepository, flushCache func(context.Context) error, command string, args []string, out, errOut io.Writer) int {
	switch command {
	case "count":
		return runCount(ctx, repo, out, errOut)
	case "stats":
		return runStats(ctx, repo, out, errOut)
	case "clear":
		return runClear(ctx, repo, flushCache, args, out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", command)
		printUsage(errOut)
		return 2
	}
}

func runCount(ctx context.Context, repo repositories.ItemRepository, out, errOut io.Writer) int {
	n, err := repo.Count(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "count failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "items: %d\n", n)
	return 0
}

func runStats(ctx context.Context, repo repositories.ItemRepository, out, errOut io.Writer) int {
	stats, err := repo.Stats(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "stats failed: %v\n", err)
		return 1
	}

	fmt.Fprintf(out, "items:       %d\n", stats.Count)
	fmt.Fprintf(out, "total bytes: %d\n", stats.TotalBytes)
	if stats.Count == 0 {
		fmt.Fprintln(out, "store is empty")
		return 0
	}
	fmt.Fprintf(out, "oldest:      %s\n", stats.OldestCreatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "newest:      %s\n", stats.NewestCreatedAt.Format(time.RFC3339))
	return 0
}

func runClear(ctx context.Context, repo repositories.ItemRepository, flushCache func(context.Context) error, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(errOut)
	confirm := fs.Bool("confirm", false, "actually delete every item")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Refuse up front: the repository is not touched without --confirm.
	if !*confirm {
		fmt.Fprintln(errOut, "refusing to clear the store: pass --confirm to delete every item")
		return 1
	}

	n, err := repo.Clear(ctx, true)
	if err != nil {
		fmt.Fprintf(errOut, "clear failed: %v\n", err)
		return 1
	}

	// No reader may be served a cached item that no longer exists durably.
	if flushCache != nil {
		if err := flushCache(ctx); err != nil {
			fmt.Fprintf(errOut, "warning: item cache flush failed: %v\n", err)
		}
	}

	fmt.Fprintf(out, "removed %d items\n", n)
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: admin <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  count            print the number of stored items")
	fmt.Fprintln(w, "  stats            print count, total payload bytes, and age range")
	fmt.Fprintln(w, "  clear --confirm  delete every item (refuses without --confirm)")
}
