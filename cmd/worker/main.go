package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/datavault/pkg/app"
	"github.com/ghuser/datavault/pkg/cache"
	"github.com/ghuser/datavault/pkg/config"
	"github.com/ghuser/datavault/pkg/database"
	"github.com/ghuser/datavault/pkg/events"
	"github.com/ghuser/datavault/pkg/logger"
	"github.com/ghuser/datavault/pkg/telemetry"
	itemEvents "github.com/ghuser/datavault/services/item/domain/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx := context.Background()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer pool.Close()
	log.Info("database pool connected")

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	var redisClient *cache.RedisClient
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(cfg)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer redisClient.Close() //nolint:errcheck
		log.Info("redis connected")
	}

	appConfig := &app.Application{
		Db:       pool,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
	}

	if err := registerSubscribers(ctx, appConfig); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("worker stopped")
}

// registerSubscribers wires handlers for every item lifecycle topic.
// Add new topics here as more services publish events.
func registerSubscribers(ctx context.Context, a *app.Application) error {
	var itemCache *cache.ItemCache
	if a.Redis != nil {
		itemCache = cache.NewItemCache(a.Redis)
	}

	subscriptions := map[string]func(context.Context, *message.Message) error{
		itemEvents.TopicItemCreated:  handleItemCreated(a),
		itemEvents.TopicItemUpdated:  handleItemUpdated(a, itemCache),
		itemEvents.TopicItemDeleted:  handleItemDeleted(a, itemCache),
		itemEvents.TopicItemsCleared: handleItemsCleared(a, itemCache),
	}

	topics := make([]string, 0, len(subscriptions))
	for topic, handler := range subscriptions {
		errCh, err := a.EventBus.Subscribe(ctx, topic, handler)
		if err != nil {
			return err
		}
		topics = append(topics, topic)

		// Drain subscriber errors in background so the channel never blocks.
		go func(topic string) {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}(topic)
	}

	a.Logger.Info("event subscribers registered", "topics", topics)
	return nil
}

// handleItemCreated writes an audit log line for every new item.
// Handlers must be idempotent, the EventBus retries up to 3 times on failure.
func handleItemCreated(a *app.Application) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt itemEvents.ItemCreatedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}
		a.Logger.InfoContext(ctx, "audit: item created",
			"item_id", evt.ItemID, "name", evt.Name, "size_bytes", evt.SizeBytes)
		return nil
	}
}

// handleItemUpdated audit-logs the update and drops any stale cache entry.
// The API invalidates synchronously; this covers crashes between the
// transaction commit and that invalidation.
func handleItemUpdated(a *app.Application, itemCache *cache.ItemCache) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt itemEvents.ItemUpdatedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}
		a.Logger.InfoContext(ctx, "audit: item updated",
			"item_id", evt.ItemID, "name", evt.Name, "size_bytes", evt.SizeBytes)
		if itemCache != nil {
			if err := itemCache.Invalidate(ctx, evt.ItemID); err != nil {
				a.Logger.WarnContext(ctx, "cache invalidation failed",
					"item_id", evt.ItemID, "error", err)
			}
		}
		return nil
	}
}

func handleItemDeleted(a *app.Application, itemCache *cache.ItemCache) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt itemEvents.ItemDeletedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}
		a.Logger.InfoContext(ctx, "audit: item deleted", "item_id", evt.ItemID)
		if itemCache != nil {
			if err := itemCache.Invalidate(ctx, evt.ItemID); err != nil {
				a.Logger.WarnContext(ctx, "cache invalidation failed",
					"item_id", evt.ItemID, "error", err)
			}
		}
		return nil
	}
}

// handleItemsCleared flushes the whole item cache after an admin clear.
func handleItemsCleared(a *app.Application, itemCache *cache.ItemCache) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt itemEvents.ItemsClearedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}
		a.Logger.InfoContext(ctx, "audit: store cleared", "removed_count", evt.RemovedCount)
		if itemCache != nil {
			if err := itemCache.Flush(ctx); err != nil {
				a.Logger.WarnContext(ctx, "cache flush failed", "error", err)
			}
		}
		return nil
	}
}
