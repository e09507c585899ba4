package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fintrack_backend/internal/app/di"
	"fintrack_backend/internal/app/router"
	"fintrack_backend/internal/platform/db"
	jwtmw "fintrack_backend/internal/platform/jwt"
	"fintrack_backend/internal/platform/logger"
	platformredis "fintrack_backend/internal/platform/redis"
	"fintrack_backend/internal/shared/ratelimiter"
)

const (
	defaultPort     = "8080"
	shutdownTimeout = 10 * time.Second
	janitorInterval = time.Hour

	loginAttempts = 10
	loginWindow   = time.Minute
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "[INFO] .env not found; using system environment variables")
	}

	log, flush, err := logger.Init(logger.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	if err := run(log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		flush()
		os.Exit(1)
	}
}

func run(log *zap.Logger) error {
	// グレースフルシャットダウン
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// JWT_SECRETチェック
	jwtCfg, err := jwtmw.LoadConfigFromEnv()
	if err != nil {
		return err
	}

	// db
	dbCfg := db.LoadConfigFromEnv()
	gdb, err := db.OpenDB(dbCfg)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	if os.Getenv("RUN_MIGRATIONS") == "true" {
		if err := di.Migrate(gdb); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	// Redis（任意）
	rdb, err := connectRedis(ctx, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error("failed to close Redis client", zap.Error(err))
			}
		}()
	}

	container := di.NewContainer(gdb, rdb, jwtCfg)
	handlers, err := container.Handlers()
	if err != nil {
		return err
	}
	engine := router.NewRouter(router.Config{
		AllowedOrigins: router.AllowedOriginsFromEnv(),
		LoginLimiter:   ratelimiter.NewRateLimiter(loginAttempts, loginWindow),
		Logger:         log,
	}, handlers)

	go purgeExpiredSessions(ctx, log, container.Sessions)

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// connectRedis は REDIS_HOST が未設定またはサーバーに到達できない場合に nil を返します。
// その場合セッションはデータベースに保存されます。
func connectRedis(ctx context.Context, log *zap.Logger) (*redisv9.Client, error) {
	cfg, enabled, err := platformredis.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if !enabled {
		log.Info("REDIS_HOST not set; storing sessions in the database")
		return nil, nil
	}
	rdb, err := platformredis.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Warn("Redis unavailable; storing sessions in the database", zap.Error(err))
		return nil, nil
	}
	return rdb, nil
}

type expiredSessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func purgeExpiredSessions(ctx context.Context, log *zap.Logger, sessions expiredSessionPurger) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				log.Warn("failed to purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
