package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maintops_backend/internal/attachments"
	"maintops_backend/internal/auth"
	"maintops_backend/internal/autosend"
	"maintops_backend/internal/changefeed"
	"maintops_backend/internal/classifier"
	"maintops_backend/internal/config"
	"maintops_backend/internal/duplicates"
	"maintops_backend/internal/email"
	"maintops_backend/internal/events"
	apphttp "maintops_backend/internal/http"
	"maintops_backend/internal/http/router"
	"maintops_backend/internal/messages"
	"maintops_backend/internal/morninggate"
	"maintops_backend/internal/notification"
	"maintops_backend/internal/outbox"
	"maintops_backend/internal/scheduler"
	"maintops_backend/internal/storage"
	"maintops_backend/internal/workorders"
	"maintops_backend/migrations"
	"maintops_backend/platform/db"
	"maintops_backend/platform/logger"
	"maintops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// Row-change feed for reconciliation and auto-send triggers.
	feed := changefeed.NewListener(pool, log)
	go feed.Run(ctx)

	// Classifier: Gemini when configured, deterministic heuristics always.
	var remote classifier.Classifier
	if cfg.GenAIAPIKey != "" {
		gemini, err := classifier.NewGemini(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
		if err != nil {
			log.Error("failed to initialize classifier client", "error", err)
		} else {
			remote = gemini
			log.Info("classifier client initialized", "model", cfg.GenAIModel)
		}
	} else {
		log.Warn("GENAI_API_KEY not configured; classifier runs on heuristics only")
	}
	clf := classifier.NewResolver(remote, log)

	// Compensation outbox, enqueued via asynq when Redis is configured.
	var queue outbox.Enqueuer
	if cfg.RedisURL != "" {
		schedClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client", "error", err)
		} else {
			queue = schedClient
			defer func() { _ = schedClient.Close() }()
		}
	} else {
		log.Warn("REDIS_URL not configured; compensation replay relies on the sweep dispatcher")
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(pool), queue, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.NewModule(log)
	defer notificationModule.Close()

	authModule := auth.NewModule(pool, cfg, val)
	workOrdersModule := workorders.NewModule(pool, clf, eventBus, notificationModule.Notifier, log, val)
	duplicatesModule := duplicates.NewModule(pool, clf, outboxSvc, feed, eventBus, notificationModule.Notifier, cfg, log, val)
	duplicatesModule.Start(ctx)
	gateModule := morninggate.NewModule(pool, eventBus, notificationModule.Notifier, log, val)
	messagesModule := messages.NewModule(pool, eventBus, log, val)
	autosendModule := autosend.NewModule(messagesModule.Service, notificationModule.SSE, feed, cfg, log, val)
	autosendModule.Start(ctx)

	// Escalation digests to the coordinator mailbox.
	if cfg.EmailEnabled {
		email.Subscribe(eventBus, email.NewSMTPSender(cfg), log)
		log.Info("escalation email sender initialized", "to", cfg.EscalationEmail)
	}

	modules := []apphttp.Module{
		authModule,
		notificationModule,
		workOrdersModule,
		duplicatesModule,
		gateModule,
		messagesModule,
		autosendModule,
	}

	// Photo attachments, only when object storage is configured.
	if cfg.MinIOEndpoint != "" {
		storageSvc, err := storage.New(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		attachmentsModule := attachments.NewModule(pool, storageSvc, cfg, val)
		if err := withRetry(ctx, log, "ensure photo bucket", 5, 2*time.Second, func() error {
			return attachmentsModule.EnsureBucket(ctx)
		}); err != nil {
			log.Error("failed to ensure photo bucket", "error", err)
			panic("failed to ensure photo bucket: " + err.Error())
		}
		modules = append(modules, attachmentsModule)
		log.Info("storage service initialized", "photoBucket", cfg.MinIOBucketWOPhotos)
	} else {
		log.Warn("MINIO_ENDPOINT not configured; photo attachments disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules:  modules,
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

	return errors.New(name + ": " + lastErr.Error())
}
