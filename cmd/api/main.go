// Command api runs the multi-tenant CRM HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"camicam_crm_backend/internal/bot"
	"camicam_crm_backend/internal/calendar"
	"camicam_crm_backend/internal/events"
	apphttp "camicam_crm_backend/internal/http"
	"camicam_crm_backend/internal/http/router"
	"camicam_crm_backend/internal/intake"
	"camicam_crm_backend/internal/leads"
	leadsvc "camicam_crm_backend/internal/leads/service"
	"camicam_crm_backend/internal/messages"
	"camicam_crm_backend/internal/notification"
	"camicam_crm_backend/internal/notification/sse"
	"camicam_crm_backend/internal/tenant"
	"camicam_crm_backend/platform/config"
	"camicam_crm_backend/platform/db"
	"camicam_crm_backend/platform/logger"
	"camicam_crm_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *db.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Outbound bot client; nil when no BOT_URL is configured. The interfaces
	// stay nil in that case so callers see the disabled state.
	var sender messages.Sender
	var botNotifier leadsvc.BotNotifier
	if botClient := bot.NewClient(cfg, log); botClient != nil {
		sender = botClient
		botNotifier = botClient
	} else {
		log.Warn("BOT_URL not configured; outbound messaging and context drops disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	tenantResolver := tenant.NewResolver(tenant.NewRepository(pool), cfg.GetBaseDomain(), log)

	sseService := sse.New(log)
	defer sseService.Close()

	// Notification module subscribes to domain events and streams them out
	notificationModule := notification.NewModule(sseService, log)
	notificationModule.RegisterHandlers(eventBus)

	calendarModule := calendar.NewModule(pool, eventBus, val, log)
	leadsModule := leads.NewModule(pool, eventBus, botNotifier, val, log)
	messagesModule := messages.NewModule(pool, eventBus, sender, val, log)
	intakeModule := intake.NewModule(leadsModule.Service(), messagesModule.Service(), val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:                  cfg,
		Logger:                  log,
		Health:                  db.NewPoolAdapter(pool),
		EventBus:                eventBus,
		TenantMiddleware:        tenant.Middleware(tenantResolver),
		WebhookTenantMiddleware: tenant.WebhookMiddleware(tenantResolver),
		Modules: []apphttp.Module{
			calendarModule,
			leadsModule,
			messagesModule,
			intakeModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
