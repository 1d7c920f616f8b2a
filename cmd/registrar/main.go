package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/0m3kk/registrar/app"
	"github.com/0m3kk/registrar/config"
	"github.com/0m3kk/registrar/cqrs"
	"github.com/0m3kk/registrar/domain/aggregate"
	"github.com/0m3kk/registrar/eventsrc"
	"github.com/0m3kk/registrar/infra/nats"
	"github.com/0m3kk/registrar/infra/postgres"
	"github.com/0m3kk/registrar/metrics"
	"github.com/0m3kk/registrar/outbox"
	"github.com/0m3kk/registrar/readmodel"
	"github.com/0m3kk/registrar/views"
)

// topicForEventType routes outbox events to the per-aggregate topics the
// projections subscribe to.
func topicForEventType(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "Student"):
		return string(aggregate.StudentAggregateType)
	case strings.HasPrefix(eventType, "Teacher"):
		return string(aggregate.TeacherAggregateType)
	case strings.HasPrefix(eventType, "Class"):
		return string(aggregate.ClassAggregateType)
	}
	return ""
}

// instrumented counts projection outcomes around a subscription handler.
func instrumented(
	subscriber string,
	handle func(context.Context, eventsrc.OutboxEvent) error,
	m *metrics.Service,
) func(context.Context, eventsrc.OutboxEvent) error {
	return func(ctx context.Context, evt eventsrc.OutboxEvent) error {
		err := handle(ctx, evt)
		m.ObserveProjection(subscriber, err == nil)
		return err
	}
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	// Create a context that we can cancel on shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Dependency Injection ---

	// Infrastructure
	db, err := postgres.NewDB(cfg.DSN)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Database connection established")

	if err := db.ApplySchema(ctx); err != nil {
		slog.Error("Failed to apply schema", "error", err)
		os.Exit(1)
	}

	broker, err := nats.NewBroker(cfg.NATSURL)
	if err != nil {
		slog.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer broker.Close()
	slog.Info("NATS connection established")

	metricsService := metrics.NewService()

	outboxStore := postgres.NewOutboxStore(db)
	eventStore := postgres.NewEventStore(db, outboxStore, cfg.SnapshotFrequency,
		postgres.WithEventObserver(metricsService))
	idempotencyStore := postgres.NewIdempotencyStore(db)

	// Application
	appOpts := []app.Option{app.WithRegistrationObserver(metricsService.ObserveDuplicateCheck)}
	if cfg.EnforceUniqueKeys {
		appOpts = append(appOpts, app.WithKeyIndex(postgres.NewKeyIndex(db)))
		slog.Info("Unique business key enforcement enabled")
	}
	application := app.New(eventStore, db, appOpts...)

	// Framework Components
	// Start multiple relay workers for concurrency
	relays := make([]*outbox.Relay, 0, cfg.RelayWorkers)
	for range cfg.RelayWorkers {
		relay := outbox.NewRelay(outboxStore, broker, topicForEventType, cfg.OutboxBatchSize, cfg.OutboxInterval,
			outbox.WithObserver(metricsService))
		relay.Start(ctx)
		relays = append(relays, relay)
	}
	slog.Info("Outbox relays started", "workers", cfg.RelayWorkers)

	// --- Projections (Subscribers) ---

	studentViewRepo := views.NewStudentViewRepository(db.Pool)
	teacherViewRepo := views.NewTeacherViewRepository(db.Pool)
	classViewRepo := views.NewClassViewRepository(db.Pool)

	subscriptions := []struct {
		topic      string
		subscriber string
		projection *cqrs.Projection
	}{
		{
			topic:      string(aggregate.StudentAggregateType),
			subscriber: "StudentViewProjection",
			projection: cqrs.NewProjection(
				"StudentViewProjection",
				idempotencyStore,
				studentViewRepo,
				db,
				views.NewStudentProjectionHandler(studentViewRepo).Handle,
			),
		},
		{
			topic:      string(aggregate.TeacherAggregateType),
			subscriber: "TeacherViewProjection",
			projection: cqrs.NewProjection(
				"TeacherViewProjection",
				idempotencyStore,
				teacherViewRepo,
				db,
				views.NewTeacherProjectionHandler(teacherViewRepo).Handle,
			),
		},
		{
			topic:      string(aggregate.ClassAggregateType),
			subscriber: "ClassViewProjection",
			projection: cqrs.NewProjection(
				"ClassViewProjection",
				idempotencyStore,
				classViewRepo,
				db,
				views.NewClassProjectionHandler(classViewRepo).Handle,
			),
		},
	}
	for _, sub := range subscriptions {
		handler := instrumented(sub.subscriber, sub.projection.Handle, metricsService)
		if err := broker.Subscribe(ctx, sub.topic, sub.subscriber, handler); err != nil {
			slog.Error("Failed to subscribe to topic", "error", err, "topic", sub.topic)
			os.Exit(1)
		}
	}
	slog.Info("Projections subscribed")

	// --- Metrics ---

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsService.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		slog.Info("Metrics server listening", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	// Log a startup snapshot of the registry by replaying the event log.
	go func() {
		start := time.Now()
		students, err := application.Queries.ListStudents(ctx, readmodel.StudentFilter{})
		if err != nil {
			slog.ErrorContext(ctx, "Startup replay failed", "error", err)
			return
		}
		metricsService.ObserveReplay(string(aggregate.StudentAggregateType), time.Since(start).Seconds())
		slog.InfoContext(ctx, "Registry ready", "activeStudents", len(students))
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("Shutdown signal received. Exiting.")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Metrics server shutdown failed", "error", err)
	}
	for _, relay := range relays {
		relay.Stop()
	}
}
