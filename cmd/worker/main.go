// Package main runs the background job worker (monthly roster snapshots to S3).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/smartnex-ai/backend/config"
	"github.com/smartnex-ai/backend/internal/billing"
	"github.com/smartnex-ai/backend/internal/worker"
	"github.com/smartnex-ai/backend/pkg/database"
	"github.com/smartnex-ai/backend/pkg/queue"
	"github.com/smartnex-ai/backend/pkg/redis"
	"github.com/smartnex-ai/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.PGDatabase.URL == "" {
		logger.Fatal("PG_DATABASE_URL is required")
	}
	loc, err := cfg.Billing.Location()
	if err != nil {
		logger.Fatal("billing timezone", zap.Error(err))
	}
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.PGDatabase.URL, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		ReportsBucket:        cfg.AWS.ReportsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	engine := billing.NewEngine(billing.NewRepository(pool), loc)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewRosterProcessor(jobQueue, engine, s3Client, loc, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started", zap.String("bucket", s3Client.ReportsBucket()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
