package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"codenest/config"
	"codenest/internal/application/usecase"
	"codenest/internal/application/verifier"
	"codenest/internal/domain"
	"codenest/internal/infrastructure/cache"
	"codenest/internal/infrastructure/catalog"
	"codenest/internal/infrastructure/executor"
	"codenest/internal/infrastructure/repository"
	"codenest/internal/infrastructure/security"
	"codenest/internal/infrastructure/tutor"
	"codenest/internal/middleware"
	"codenest/internal/observability"
	"codenest/internal/platform/logger"
	grpc_server "codenest/internal/transport/grpc"
	handlers "codenest/internal/transport/http"
)

const serviceName = "codenest"

type deps struct {
	cfg config.Config
	log *logger.Logger
	db  *gorm.DB
	rdb *redis.Client
}

// bootstrap читает конфиг и поднимает соединения с БД и Redis
func bootstrap(withRedis bool) (*deps, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := repository.Open(repository.DBConfig{
		Driver:   cfg.DBDriver,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Path:     cfg.DBPath,
	})
	if err != nil {
		return nil, err
	}

	d := &deps{cfg: cfg, log: log, db: db}
	if withRedis {
		d.rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := d.rdb.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Info("connected to redis", "addr", cfg.RedisAddr)
	}
	return d, nil
}

func (d *deps) close() {
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
	if sqlDB, err := d.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	d.log.Sync()
}

func runMigrate(_ *cobra.Command, _ []string) error {
	d, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer d.close()

	d.log.Info("running migrations")
	return repository.AutoMigrate(d.db)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	d, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer d.close()

	if err := repository.AutoMigrate(d.db); err != nil {
		return err
	}
	topics := repository.NewTopicRepository(d.db, cache.NewRoadmapCache(d.rdb, d.cfg.RoadmapCacheTTL, d.log))
	return catalog.Seed(cmd.Context(), topics, d.log)
}

func runServe(_ *cobra.Command, _ []string) error {
	d, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer d.close()
	cfg, log := d.cfg, d.log

	if err := repository.AutoMigrate(d.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	shutdownTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: serviceName,
		SampleRatio: cfg.OtelSampleRatio,
	})

	// Инфраструктура
	users := repository.NewUserRepository(d.db)
	progressRepo := repository.NewProgressRepository(d.db)
	topics := repository.NewTopicRepository(d.db, cache.NewRoadmapCache(d.rdb, cfg.RoadmapCacheTTL, log))
	if roadmap, err := topics.Roadmap(context.Background(), domain.LanguagePython); err == nil && len(roadmap) == 0 {
		// пустая база: заливаем встроенный каталог
		if err := catalog.Seed(context.Background(), topics, log); err != nil {
			return err
		}
	}

	sandbox := executor.NewPistonClient(executor.Config{
		BaseURL: cfg.PistonURL,
		RPS:     cfg.PistonRPS,
		Timeout: cfg.ExecutionTimeout,
	}, log)
	tutorClient := tutor.NewClient(tutor.Config{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
	}, log)

	// Usecases
	authUC := usecase.NewAuthUseCase(users, cache.NewTokenCache(d.rdb), security.NewPasswordHasher(),
		security.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret), log)
	progressUC := usecase.NewProgressUseCase(progressRepo, topics, users, log)
	projectUC := usecase.NewProjectUseCase(repository.NewProjectRepository(d.db), log)
	execUC := usecase.NewExecutionUseCase(sandbox, progressUC, log).WithProjects(projectUC)
	submitUC := usecase.NewSubmissionUseCase(verifier.New(sandbox, cfg.CaseTimeout, log), progressUC, topics, log)
	tutorUC := usecase.NewTutorUseCase(tutorClient, progressUC, log)

	router := handlers.NewRouter(handlers.RouterConfig{
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
		Auth:           handlers.NewAuthHandler(authUC, cfg.CookieDomain, cfg.CookieSecure),
		Execution:      handlers.NewExecutionHandler(execUC),
		Submission:     handlers.NewSubmissionHandler(submitUC),
		Progress:       handlers.NewProgressHandler(progressUC),
		Tutor:          handlers.NewTutorHandler(tutorUC),
		Projects:       handlers.NewProjectHandler(projectUC),
		Access:         authUC,
		Limiter:        middleware.NewRateLimiter(d.rdb, log),
		Health: map[string]handlers.HealthCheck{
			"redis": func(ctx context.Context) error { return d.rdb.Ping(ctx).Err() },
			"db": func(ctx context.Context) error {
				sqlDB, err := d.db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		},
	})

	httpServer := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer := grpc_server.NewGRPCServer(grpc_server.NewProgressServer(progressUC), log)

	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCPort, err)
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("gRPC server running", "addr", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() {
		log.Info("HTTP server running", "addr", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	select {
	case <-quit:
	case err = <-errCh:
		log.Error("server failed", "error", err)
	}

	log.Info("shutting down servers")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if shutdownErr := httpServer.Shutdown(ctx); shutdownErr != nil {
		log.Warn("http shutdown", "error", shutdownErr)
	}
	grpcServer.GracefulStop()
	if shutdownErr := shutdownTracing(ctx); shutdownErr != nil {
		log.Warn("otel shutdown", "error", shutdownErr)
	}
	return err
}
