package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maintops_backend/internal/classifier"
	"maintops_backend/internal/config"
	duplicaterepo "maintops_backend/internal/duplicates/repository"
	duplicateservice "maintops_backend/internal/duplicates/service"
	"maintops_backend/internal/email"
	"maintops_backend/internal/events"
	"maintops_backend/internal/notification"
	"maintops_backend/internal/outbox"
	"maintops_backend/internal/scheduler"
	"maintops_backend/platform/db"
	"maintops_backend/platform/logger"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if cfg.RedisURL == "" {
		panic("REDIS_URL is required for the scheduler")
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	schedClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = schedClient.Close() }()

	outboxRepo := outbox.NewRepository(pool)
	outboxSvc := outbox.NewService(outboxRepo, schedClient, log)

	// Registers the merge/dismiss replay handlers on the outbox; the worker
	// side needs no classifier, HTTP surface, or live working set.
	duplicateservice.New(
		duplicaterepo.New(pool),
		classifier.NewResolver(nil, log),
		outboxSvc,
		eventBus,
		notification.NopNotifier{},
		log,
		rate.Every(cfg.ClassifierPace),
		cfg.AutoMergeThreshold,
	)

	if cfg.EmailEnabled {
		email.Subscribe(eventBus, email.NewSMTPSender(cfg), log)
		log.Info("escalation email sender initialized", "to", cfg.EscalationEmail)
	}

	worker, err := scheduler.NewWorker(cfg, outboxSvc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	dispatcher := scheduler.NewOutboxDispatcher(outboxRepo, schedClient, log)
	sweep := scheduler.NewEscalationSweep(pool, eventBus, log, time.Hour, 2)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { dispatcher.Run(gctx); return nil })
	g.Go(func() error { sweep.Run(gctx); return nil })
	g.Go(func() error { worker.Run(gctx); return nil })
	_ = g.Wait()
}
