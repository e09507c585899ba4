// Command seed creates the first ADMIN account. Re-running it with an
// already registered email is a no-op.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"fintrack_backend/internal/app/di"
	userusecase "fintrack_backend/internal/feature/user/usecase"
	"fintrack_backend/internal/platform/db"
	jwtmw "fintrack_backend/internal/platform/jwt"
	"fintrack_backend/internal/platform/logger"
)

func main() {
	_ = godotenv.Load()

	var in userusecase.CreateUserInput
	flag.StringVar(&in.Email, "email", os.Getenv("SEED_ADMIN_EMAIL"), "admin email")
	flag.StringVar(&in.Password, "password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password (min 8 characters)")
	flag.StringVar(&in.FirstName, "first-name", envOr("SEED_ADMIN_FIRST_NAME", "System"), "admin first name")
	flag.StringVar(&in.LastName, "last-name", envOr("SEED_ADMIN_LAST_NAME", "Administrator"), "admin last name")
	flag.Parse()

	log, flush, err := logger.Init(logger.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	if err := seed(log, in); err != nil {
		log.Error("seed failed", zap.Error(err))
		flush()
		os.Exit(1)
	}
}

func seed(log *zap.Logger, in userusecase.CreateUserInput) error {
	if in.Email == "" || in.Password == "" {
		return errors.New("-email and -password (or SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD) are required")
	}

	gdb, err := db.OpenDB(db.LoadConfigFromEnv())
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := di.Migrate(gdb); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// No tokens are issued, so the signing config can stay empty.
	container := di.NewContainer(gdb, nil, jwtmw.Config{})
	user, created, err := container.Users.BootstrapAdmin(ctx, in)
	if err != nil {
		return err
	}
	if !created {
		log.Info("admin already exists; nothing to do", zap.String("email", user.Email), zap.Uint("user_id", user.ID))
		return nil
	}
	log.Info("admin created", zap.String("email", user.Email), zap.Uint("user_id", user.ID))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
