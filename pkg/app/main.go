package app

import (
	"github.com/ghuser/datavault/pkg/cache"
	"github.com/ghuser/datavault/pkg/database"
	"github.com/ghuser/datavault/pkg/events"
	"github.com/ghuser/datavault/pkg/logger"
)

// Application holds shared infrastructure dependencies for all services.
// Pass to all service ItemRoutes calls during server initialization.
//
// Logging: app.Logger is backed by a trace-aware handler. Use slog's context
// methods and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "processing item", "item_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Db       *database.Database
	Logger   logger.Logger
	EventBus *events.EventBus
	Redis    *cache.RedisClient // nil when Redis is not configured
}
