package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/desk-reservation-planner/internal/config"
	"github.com/iliyamo/desk-reservation-planner/internal/database"
	"github.com/iliyamo/desk-reservation-planner/internal/handler"
	"github.com/iliyamo/desk-reservation-planner/internal/logger"
	"github.com/iliyamo/desk-reservation-planner/internal/middleware"
	"github.com/iliyamo/desk-reservation-planner/internal/queue"
	"github.com/iliyamo/desk-reservation-planner/internal/repository"
	"github.com/iliyamo/desk-reservation-planner/internal/router"
	"github.com/iliyamo/desk-reservation-planner/internal/service"
	"github.com/iliyamo/desk-reservation-planner/internal/sweeper"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zl, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "desk-planner")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	floors, db, err := openFloors(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("open floor storage failed", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	// Redis backs the history log, the response cache and the rate limiter.
	// Without it the planner still runs on in-process fallbacks.
	rdb := config.NewRedisClient(cfg.Redis)
	var history repository.HistoryLog
	if rdb != nil {
		defer rdb.Close()
		history = repository.NewHistoryRepo(rdb, cfg.HistoryPrefix)
		zl.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		history = repository.NewMemoryHistory()
		zl.Warn("redis unavailable, using in-memory history and no cache", zap.String("addr", cfg.Redis.Addr))
	}

	cache := middleware.NewResponseCache(cfg.Cache, rdb, zl)
	floors = repository.WithSaveHook(floors, func(ctx context.Context, floorID int64) {
		if err := cache.Invalidate(ctx); err != nil {
			zl.Warn("cache invalidation failed", zap.Int64("floor_id", floorID), zap.Error(err))
		}
	})

	var publisher service.Publisher
	if cfg.QueueEnabled {
		publisher = service.NewQueuePublisher(cfg.AMQPURL, zl)
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.QueueLogDir, zl)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("queue consumer stopped", zap.Error(err))
			}
		}()
	} else {
		publisher = service.NewLogPublisher(zl)
	}

	sessions := service.NewCanvasSessions(floors,
		service.WithSessionLocation(cfg.ReservationTZ),
		service.WithSessionIdleTTL(cfg.SessionIdleTTL),
		service.WithSessionLogger(zl),
	)
	go sessions.RunJanitor(ctx)

	sw := sweeper.New(floors, history,
		sweeper.WithInterval(cfg.SweepInterval),
		sweeper.WithLocation(cfg.ReservationTZ),
		sweeper.WithLogger(zl),
		sweeper.WithPublisher(publisher),
	)
	if cfg.SweepEnabled {
		if err := sw.Start(ctx); err != nil {
			zl.Fatal("start sweeper failed", zap.Error(err))
		}
		defer sw.Stop()
	}

	e := newServer(cfg, zl, rdb, router.Handlers{
		Ready:   &handler.ReadyHandler{Floors: floors, Redis: rdb},
		Floors:  handler.NewFloorHandler(floors, cfg.ReservationTZ),
		Canvas:  handler.NewCanvasHandler(sessions),
		Guests:  &handler.GuestHandler{Guests: service.NewGuestService(floors, publisher, zl)},
		History: &handler.HistoryHandler{History: history},
		Sweeps:  &handler.SweepHandler{Sweeper: sw},
	}, cache)

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("storage", cfg.StorageDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown failed", zap.Error(err))
	}
}

// openFloors returns the floor gateway selected by STORAGE_DRIVER.  For
// mysql it also returns the pool so main can close it.
func openFloors(ctx context.Context, cfg config.Config, zl *zap.Logger) (repository.FloorGateway, *sql.DB, error) {
	if cfg.StorageDriver != config.StorageMySQL {
		zl.Info("using in-memory floor storage")
		return repository.NewMemoryFloorStore(repository.DefaultFloors()...), nil, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, err
	}
	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.Migrate(mctx, db, repository.DefaultFloors()); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repository.NewFloorRepo(db), db, nil
}

func newServer(cfg config.Config, zl *zap.Logger, rdb *redis.Client, h router.Handlers, cache *middleware.ResponseCache) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestLogger(zl))
	router.RegisterRoutes(e, h, cache.Middleware(), middleware.NewTokenBucket(cfg.RateLimit, rdb, zl))
	return e
}
