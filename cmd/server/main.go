package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	accountrepo "task-board/backend/internal/account/repository"
	"task-board/backend/internal/audit"
	auditrepo "task-board/backend/internal/audit/repository"
	boardhandler "task-board/backend/internal/board/handler"
	boardrepo "task-board/backend/internal/board/repository"
	boardservice "task-board/backend/internal/board/service"
	"task-board/backend/internal/config"
	"task-board/backend/internal/db"
	healthhandler "task-board/backend/internal/health/handler"
	identityhandler "task-board/backend/internal/identity/handler"
	identityservice "task-board/backend/internal/identity/service"
	"task-board/backend/internal/logging"
	"task-board/backend/internal/policy/engine"
	"task-board/backend/internal/security"
	"task-board/backend/internal/server"
	"task-board/backend/internal/server/middleware"
	"task-board/backend/internal/session"
	"task-board/backend/internal/telemetry"
	telemetryotel "task-board/backend/internal/telemetry/otel"
	"task-board/backend/internal/telemetry/producer"
	"task-board/backend/internal/throttle"
)

const (
	serviceName     = "task-board"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dev := cfg.IsDevelopment()
	logger := logging.New(os.Stdout, cfg.LogLevel, dev)
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	metrics, err := telemetry.NewMetrics(providers.MeterProvider)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer conn.Close()

	registry, redisCheck, closeRegistry, err := openRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRegistry()

	tokens, err := security.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	emitters := telemetry.MultiEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuditKafkaTopic)
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
		logger.Info(ctx, "auth event stream enabled", "topic", cfg.AuditKafkaTopic)
	}
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), emitters, middleware.ClientIP, logger)

	authSvc := identityservice.NewAuthService(
		accountrepo.NewPostgresRepository(conn),
		security.NewHasher(cfg.BcryptCost),
		tokens,
		registry,
		throttle.New(cfg.MaxLoginFailures, cfg.LockoutWindow()),
		identityservice.Options{MinPasswordLength: cfg.MinPasswordLength, Audit: auditLogger, Metrics: metrics},
	)

	policy, err := engine.NewOPAEvaluator(ctx, "")
	if err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	boardSvc := boardservice.NewBoardService(boardrepo.NewPostgresRepository(conn), policy)

	gate := middleware.NewGate(tokens, registry, logger,
		middleware.WithGateMetrics(metrics),
		middleware.WithGateAudit(auditLogger),
		middleware.WithErrorDetail(dev),
	)

	var extraChecks []healthhandler.Check
	if redisCheck != nil {
		extraChecks = append(extraChecks, healthhandler.Check{Name: "redis", Fn: redisCheck})
	}
	health := healthhandler.NewServer(conn, policy, extraChecks...)

	handler := server.NewHTTPHandler(server.HTTPDeps{
		Auth:        identityhandler.NewAuthHandler(authSvc, gate, logger, dev),
		Board:       boardhandler.NewBoardHandler(boardSvc, logger, dev),
		Gate:        gate,
		Health:      health,
		Audit:       auditLogger,
		Log:         logger,
		StaticDir:   cfg.StaticDir,
		Development: dev,
	})
	httpSrv := server.NewHTTPServer(cfg.HTTPAddr, handler, server.HTTPTimeouts{
		Read:  cfg.ReadTimeout(),
		Write: cfg.WriteTimeout(),
		Idle:  cfg.IdleTimeout(),
	})

	errCh := make(chan error, 2)
	go func() {
		logger.Info(ctx, "http server listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = server.NewGRPCServer(health)
		go func() {
			logger.Info(ctx, "grpc health server listening", "addr", cfg.GRPCHealthAddr)
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info(context.Background(), "shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "http shutdown", "error", err)
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}

	// Let in-flight async auth events finish before the exporters go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := kafkaProducer.Close(); err != nil {
		logger.Warn(shutdownCtx, "kafka producer close", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "otel shutdown", "error", err)
	}
	return runErr
}

// openRegistry returns the Redis-backed registry when REDIS_ADDR is set and the in-memory one otherwise.
func openRegistry(ctx context.Context, cfg *config.Config) (session.Registry, func(context.Context) error, func(), error) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryRegistry(), nil, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	reg := session.NewRedisRegistry(rdb, cfg.TokenTTL())
	if err := reg.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, nil, nil, fmt.Errorf("redis: %w", err)
	}
	return reg, reg.Ping, func() { _ = rdb.Close() }, nil
}
