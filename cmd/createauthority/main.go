// Command createauthority provisions a site-wide authority account.
//
//	createauthority -name "Dean of Students" -email dean@example.edu -password '...' [-designation Dean]
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/campus-clubs/backend/config"
	"github.com/campus-clubs/backend/internal/auth"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/database"
	"github.com/campus-clubs/backend/pkg/utils"
)

func main() {
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "initial password (at least 6 characters)")
	designation := flag.String("designation", "", "job title shown on the profile")
	contact := flag.String("contact", "", "contact number")
	flag.Parse()

	logger := newLogger()
	defer logger.Sync()

	if *name == "" || *email == "" || len(*password) < 6 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{MaxConns: 2}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	hash, err := utils.HashPassword(*password)
	if err != nil {
		logger.Fatal("hash password", zap.Error(err))
	}
	a := &models.Authority{Name: *name, Email: *email, Password: hash, Designation: *designation, ContactNo: *contact}
	if err := auth.NewRepository(pool).CreateAuthority(ctx, a); err != nil {
		logger.Fatal("create authority", zap.Error(err))
	}
	logger.Info("authority created", zap.Int64("id", a.ID), zap.String("email", a.Email))
}

func newLogger() *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
