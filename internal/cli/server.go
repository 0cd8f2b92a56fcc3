package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-authoring-service/internal/app"
	"course-authoring-service/internal/auth"
	"course-authoring-service/internal/config"
	"course-authoring-service/internal/infra/memory"
	"course-authoring-service/internal/infra/postgres"
	redisinfra "course-authoring-service/internal/infra/redis"
	"course-authoring-service/internal/logger"
	transport "course-authoring-service/internal/transport/http"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const devJWTSecret = "dev-only-secret"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the course authoring API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	deps, cleanup, err := buildDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	service := app.NewCourseService(deps.courses, deps.users, deps.catalog, deps.locker, deps.events, log)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn("auth.jwt_secret not set, using development secret")
		secret = devJWTSecret
	}
	issuer := auth.NewTokenIssuer(secret, cfg.Auth.Issuer, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	authService := app.NewAuthService(deps.users, issuer, log)

	if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.NewRouter(
		transport.NewHandler(service, authService, log),
		transport.NewWSHandler(service, log),
		log,
		cfg.Server.CORSOrigins,
	)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the events websocket is long-lived.
	}

	go func() {
		log.Info("starting course authoring service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

type dependencies struct {
	courses app.CourseRepository
	users   app.UserDirectory
	catalog app.CourseCatalog
	locker  app.CourseLocker
	events  app.EventBus
}

// buildDependencies picks Postgres or memory storage and Redis or memory coordination
// depending on which URLs are configured.
func buildDependencies(ctx context.Context, cfg config.Config, log *logger.Logger) (dependencies, func(), error) {
	var (
		deps     dependencies
		closers  []func()
		redisCli *redis.Client
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return deps, cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		db := openBun(cfg)
		closers = append(closers, func() { _ = db.Close() })

		deps.users = postgres.NewUserDirectory(pool)
		deps.courses = postgres.NewCourseRepository(db)
		log.Info("using postgres storage")
	} else {
		users, err := demoUsers()
		if err != nil {
			return deps, cleanup, err
		}
		deps.users = memory.NewStaticUserDirectory(users)
		deps.courses = memory.NewCourseRepository()
		log.Warn("postgres url not configured, using in-memory storage with demo users")
	}

	if cfg.Redis.Addr != "" {
		redisCli = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisCli.Ping(ctx).Err(); err != nil {
			_ = redisCli.Close()
			return deps, cleanup, fmt.Errorf("ping redis: %w", err)
		}
		closers = append(closers, func() { _ = redisCli.Close() })
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	loader := app.NewRepositoryLoader(deps.courses)
	if redisCli != nil {
		deps.catalog = redisinfra.NewCourseCatalog(redisCli, loader, catalogTTL)
		deps.locker = redisinfra.NewCourseLocker(redisCli, config.TTLDuration(cfg.Lock.TTL, 10*time.Second))
		deps.events = redisinfra.NewEventBus(redisCli)
		log.Info("using redis for catalog, locks and events", "addr", cfg.Redis.Addr)
	} else {
		deps.catalog = memory.NewCourseCatalog(loader, catalogTTL)
		deps.locker = memory.NewCourseLocker()
		deps.events = memory.NewEventBus()
	}
	return deps, cleanup, nil
}
