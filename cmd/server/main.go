package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/todolist/api/handler"
	"github.com/fastygo/todolist/internal/config"
	"github.com/fastygo/todolist/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/todolist/internal/infrastructure/postgres"
	"github.com/fastygo/todolist/internal/infrastructure/telemetry"
	"github.com/fastygo/todolist/internal/middleware"
	"github.com/fastygo/todolist/internal/router"
	"github.com/fastygo/todolist/internal/services/lifecycle"
	"github.com/fastygo/todolist/pkg/credential"
	"github.com/fastygo/todolist/pkg/httpcontext"
	"github.com/fastygo/todolist/pkg/logger"
	"github.com/fastygo/todolist/pkg/token"
	"github.com/fastygo/todolist/repository"
	"github.com/fastygo/todolist/repository/memory"
	"github.com/fastygo/todolist/repository/postgres"
	authUC "github.com/fastygo/todolist/usecase/auth"
	taskUC "github.com/fastygo/todolist/usecase/task"
	userUC "github.com/fastygo/todolist/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("service", cfg.AppName), zap.String("env", cfg.Environment))

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	shutdownTracing, err := telemetry.Setup(appCtx, cfg.Telemetry, cfg.Environment, zapLogger)
	if err != nil {
		zapLogger.Fatal("telemetry setup failed", zap.Error(err))
	}
	manager.Register("telemetry", shutdownTracing)

	var (
		userRepo repository.UserRepository
		taskRepo repository.TaskRepository
		pinger   monitor.Pinger
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		userRepo, taskRepo, pinger = store.Users(), store.Tasks(), store
		zapLogger.Warn("using in-memory storage; data is lost on restart")
	default:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}

		pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		userRepo, taskRepo, pinger = postgres.NewUserRepository(pool), postgres.NewTaskRepository(pool), pool
	}

	mon := monitor.New(pinger, cfg.Storage.Driver, cfg.Monitor.Interval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	hasher := credential.NewBcryptHasher(cfg.Security.BcryptCost)
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn)

	userUseCase := userUC.New(userRepo, hasher, zapLogger)
	authUseCase := authUC.New(userUseCase, hasher, tokens, zapLogger)
	taskUseCase := taskUC.New(taskRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, userUseCase, ctxAdapter, zapLogger),
		User:   apiHandler.NewUserHandler(userUseCase, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(tokens, authUseCase, ctxAdapter, zapLogger)
	r := router.New(handlers, authMiddleware, zapLogger)

	server := &fasthttp.Server{
		Handler: router.Chain(r.Handler,
			middleware.Tracing(nil),
			middleware.RequestLogger(zapLogger),
		),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
