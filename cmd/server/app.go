package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/task-api/internal/config"
	"github.com/phrazzld/task-api/internal/events"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/platform/metrics"
	"github.com/phrazzld/task-api/internal/platform/sqlstore"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/phrazzld/task-api/internal/service/auth"
	"github.com/phrazzld/task-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds the shared dependencies of the server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	jwtService  auth.JWTService
	userService service.UserService
	taskService service.TaskService
}

// newApplication wires stores, services and the event emitter on top of an
// open database.
func newApplication(cfg *config.Config, log *slog.Logger, db *sql.DB, dialect store.Dialect) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   log,
		db:       db,
		registry: prometheus.NewRegistry(),
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	log.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	userStore := sqlstore.NewUserStore(db, dialect, log)
	taskStore := sqlstore.NewTaskStore(db, dialect, log)

	app.userService, err = service.NewUserService(userStore, db, auth.NewBcryptHasher(cfg.Auth.BCryptCost), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(app.metrics)
	emitter.RegisterHandler(events.HandlerFunc(func(ctx context.Context, event *events.TaskEvent) error {
		logger.FromContextOrDefault(ctx, log).Debug("task event",
			slog.String("event_type", string(event.Type)),
			slog.String("task_id", event.TaskID.String()))
		return nil
	}))

	app.taskService, err = service.NewTaskService(taskStore, db, emitter, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	log.Info("application initialized successfully")
	return app, nil
}

// Run serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
