package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/ip-manager/internal/activity"
	"github.com/iliyamo/ip-manager/internal/backoffice"
	"github.com/iliyamo/ip-manager/internal/config"
	"github.com/iliyamo/ip-manager/internal/database"
	"github.com/iliyamo/ip-manager/internal/handler"
	"github.com/iliyamo/ip-manager/internal/ledger"
	"github.com/iliyamo/ip-manager/internal/middleware"
	"github.com/iliyamo/ip-manager/internal/model"
	"github.com/iliyamo/ip-manager/internal/queue"
	"github.com/iliyamo/ip-manager/internal/repository"
	"github.com/iliyamo/ip-manager/internal/router"
	queue_publisher "github.com/iliyamo/ip-manager/internal/service"
	"github.com/iliyamo/ip-manager/internal/session"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("migrate database", zap.Error(err))
		}
	}
	rdb := config.NewRedisClient(logger)

	users := repository.NewUserRepo(db)
	inventory := repository.NewInventoryRepo(db)
	transactions := repository.NewTransactionRepo(db)
	activityRepo := repository.NewActivityRepo(db)

	// The recorder reports appended entries to the coordinator, which is
	// created below; entries recorded before that are only stored.
	var bo *backoffice.Coordinator
	recorder := activity.NewRecorder(activityRepo, logger, func(e model.ActivityLogEntry) {
		if bo != nil {
			bo.AppendActivity(e)
		}
	})

	publisher := queue_publisher.New(config.AMQPURL(), logger)
	led := ledger.New(
		ledger.Stores{Inventory: inventory, Transactions: transactions},
		logger,
		ledger.WithTxRunner(repository.NewTxRunner(db)),
		ledger.WithPublisher(publisher),
		ledger.WithRecorder(recorder),
	)

	bo = backoffice.New(backoffice.Deps{
		Inventory:    inventory,
		Transactions: transactions,
		Users:        users,
		Suppliers:    repository.NewSupplierRepo(db),
		Settings:     repository.NewSettingsRepo(db),
		Activity:     activityRepo,
		Ledger:       led,
		Recorder:     recorder,
	}, logger)

	seedAdmin(ctx, cfg, users, bo, logger)
	if err := bo.Load(ctx); err != nil {
		logger.Warn("initial snapshot incomplete", zap.Error(err))
	}
	go bo.Run(ctx, cfg.SnapshotRefresh)

	store, slots := sessionStores(cfg, db, rdb, logger)
	sessions := session.NewManager(users, store, logger,
		session.WithRecorder(recorder),
		session.WithSlots(slots),
	)

	consumer := &queue.SalesConsumer{URL: config.AMQPURL(), Dir: "logs", Log: logger}
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("sales consumer stopped", zap.Error(err))
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover(), echomw.RequestID(), middleware.RequestLogger(logger))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger))

	cacheCfg := config.LoadCacheConfig()
	guards := router.Guards{
		Session:    middleware.RequireSession(cfg.JWTSecret, sessions, logger),
		LoginLimit: middleware.NewTokenBucket(config.LoadLoginRateLimitConfig(), rdb, logger),
		Cache:      middleware.NewRedisCache(cacheCfg, rdb),
		Invalidate: middleware.InvalidateOnWrite(cacheCfg, rdb, logger),
	}
	bh := handler.NewBackofficeHandler(bo, logger)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg.JWTSecret, sessions, logger), guards)
	router.RegisterBackoffice(e, bh, guards)
	router.RegisterAdmin(e, bh, guards)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	led.Wait()
	sessions.Wait()
	recorder.Wait()
}

// sessionStores picks the backend of the session slots: one slot per
// user, plus the default slot the manager falls back to. Redis is used
// when configured and reachable, MySQL otherwise.
func sessionStores(cfg config.Config, db *sqlx.DB, rdb *redis.Client, log *zap.Logger) (session.Store, func(string) session.Store) {
	backend := cfg.SessionBackend
	if backend == config.SessionRedis && rdb == nil {
		log.Warn("redis unavailable; keeping sessions in mysql")
		backend = config.SessionMySQL
	}
	switch backend {
	case config.SessionRedis:
		return session.NewRedisStore(rdb, cfg.SessionKey), func(userID string) session.Store {
			return session.NewRedisStore(rdb, cfg.SessionKey+":"+userID)
		}
	case config.SessionFile:
		log.Warn("file session backend shares one slot between all users", zap.String("path", cfg.SessionFile))
		return session.NewFileStore(cfg.SessionFile), nil
	default:
		return repository.NewSessionSlot(db, cfg.SessionKey), func(userID string) session.Store {
			return repository.NewSessionSlot(db, cfg.SessionKey+":"+userID)
		}
	}
}

// seedAdmin creates the first Admin account on an empty users table.
func seedAdmin(ctx context.Context, cfg config.Config, users *repository.UserRepo, bo *backoffice.Coordinator, log *zap.Logger) {
	if cfg.SeedAdminPassword == "" {
		return
	}
	n, err := users.CountUsers(ctx)
	if err != nil {
		log.Warn("count users", zap.Error(err))
		return
	}
	if n > 0 {
		return
	}
	_, err = bo.CreateUser(ctx, "", backoffice.NewUser{
		Username: cfg.SeedAdminUser,
		Name:     "Administrator",
		Role:     model.RoleAdmin,
		Password: cfg.SeedAdminPassword,
	})
	if err != nil {
		log.Error("seed admin", zap.Error(err))
		return
	}
	log.Info("seeded admin account", zap.String("username", cfg.SeedAdminUser))
}
