// Package main runs the SmartNex API server with the realtime feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/smartnex-ai/backend/config"
	"github.com/smartnex-ai/backend/internal/access"
	"github.com/smartnex-ai/backend/internal/admins"
	"github.com/smartnex-ai/backend/internal/auth"
	"github.com/smartnex-ai/backend/internal/billing"
	"github.com/smartnex-ai/backend/internal/ledger"
	"github.com/smartnex-ai/backend/internal/menus"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/internal/payments"
	"github.com/smartnex-ai/backend/internal/pgs"
	"github.com/smartnex-ai/backend/internal/products"
	"github.com/smartnex-ai/backend/internal/realtime"
	"github.com/smartnex-ai/backend/internal/reports"
	"github.com/smartnex-ai/backend/internal/tenants"
	"github.com/smartnex-ai/backend/internal/tickets"
	"github.com/smartnex-ai/backend/internal/worker"
	"github.com/smartnex-ai/backend/pkg/database"
	"github.com/smartnex-ai/backend/pkg/queue"
	"github.com/smartnex-ai/backend/pkg/redis"
	"github.com/smartnex-ai/backend/pkg/response"
	"github.com/smartnex-ai/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	loc, _ := cfg.Billing.Location()
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	pools := database.NewRegistry(nil, logger)
	defer pools.Close()
	corePool, err := pools.Pool(ctx, cfg.CoreDatabase.URL)
	if err != nil {
		logger.Fatal("core database", zap.Error(err))
	}
	pgPool, err := pools.Pool(ctx, cfg.PGDatabase.URL)
	if err != nil {
		logger.Fatal("pg database", zap.Error(err))
	}
	if err := database.Migrate(ctx, corePool, database.SegmentCore); err != nil {
		logger.Fatal("migrate core", zap.Error(err))
	}
	if err := database.Migrate(ctx, pgPool, database.SegmentPG); err != nil {
		logger.Fatal("migrate pg", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.ReportsBucket != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ReportsBucket:        cfg.AWS.ReportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	sessions := auth.NewSessions(auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours), auth.NewSessionStore(rdb.Client))
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Core database: accounts and products
	userRepo := auth.NewRepository(corePool)
	productRepo := products.NewRepository(corePool)
	adminRepo := admins.NewRepository(corePool)

	// PG database: properties, tenants and everything billed against them
	pgRepo := pgs.NewRepository(pgPool)
	tenantRepo := tenants.NewRepository(pgPool)
	guard := access.NewGuard(pgRepo, tenantRepo)

	ledgerSvc := ledger.NewService(ledger.NewRepository(pgPool), hub, logger)
	billingEngine := billing.NewEngine(billing.NewRepository(pgPool), loc)
	gateway := payments.NewRazorpay(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	authHandler := auth.NewHandler(userRepo, tenantRepo, pgRepo, sessions, logger)
	productHandler := products.NewHandler(productRepo, logger)
	adminHandler := admins.NewHandler(adminRepo, productRepo, pgRepo, logger)
	pgHandler := pgs.NewHandler(pgRepo, guard, logger)
	tenantHandler := tenants.NewHandler(tenantRepo, guard, logger)
	ledgerHandler := ledger.NewHandler(ledgerSvc, guard, logger)
	billingHandler := billing.NewHandler(billingEngine, guard, logger)
	paymentHandler := payments.NewHandler(payments.NewRepository(pgPool), gateway, guard, hub, payments.Options{
		KeySecret:    cfg.Razorpay.KeySecret,
		Currency:     cfg.Billing.Currency,
		DummyEnabled: cfg.Payments.DummyEnabled,
		Location:     loc,
	}, logger)
	ticketHandler := tickets.NewHandler(tickets.NewRepository(pgPool), guard, hub, logger)
	menuHandler := menus.NewHandler(menus.NewRepository(pgPool), guard, loc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.SplitOrigins()))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	api := router.Group("/api")

	// Auth (public)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/user-login", authHandler.TenantLogin)
		authGroup.POST("/tenant-check-mobile", authHandler.CheckMobile)
	}

	// WebSocket (token in query; admin sessions only)
	api.GET("/ws", realtime.ServeWs(hub, sessions, logger))

	// Protected API (JWT required)
	protected := api.Group("")
	protected.Use(middleware.JWT(sessions))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/products", productHandler.List)

		// Admin accounts
		superadmin := middleware.RequireRole(models.RoleSuperAdmin)
		staff := middleware.RequireRole(models.RoleSuperAdmin, models.RoleAdmin)
		protected.POST("/admins", superadmin, adminHandler.Create)
		protected.PUT("/admins", superadmin, adminHandler.Update)
		protected.DELETE("/admins", superadmin, adminHandler.Delete)
		protected.GET("/admins", superadmin, adminHandler.List)
		protected.GET("/admins/:id", staff, adminHandler.Get)
		protected.GET("/admins/:id/pgs", staff, adminHandler.PGs)

		// PGs and their structure
		protected.POST("/pgs", staff, pgHandler.Create)
		protected.GET("/pgs", staff, pgHandler.List)
		structure := protected.Group("/pg-structure", staff)
		{
			structure.POST("/floors", pgHandler.CreateFloor)
			structure.GET("/floors", pgHandler.ListFloors)
			structure.POST("/rooms", pgHandler.CreateRoom)
			structure.GET("/rooms", pgHandler.ListRooms)
			structure.PUT("/set-rent", pgHandler.SetRent)
			structure.GET("/view-tenants", pgHandler.ViewTenants)
			structure.GET("/all", pgHandler.All)
		}

		// Tenants
		protected.POST("/tenants", staff, tenantHandler.Create)
		protected.GET("/tenants", staff, tenantHandler.List)
		protected.PUT("/tenants", staff, tenantHandler.Update)
		protected.DELETE("/tenants", staff, tenantHandler.Delete)
		protected.GET("/tenants/unassigned", staff, tenantHandler.Unassigned)
		protected.PUT("/tenants/assign", staff, ledgerHandler.Assign)
		protected.PUT("/tenants/change-password", tenantHandler.ChangePassword)

		// Tenancy ledger
		protected.POST("/assignments", staff, ledgerHandler.Assign)
		protected.PUT("/assignments/upgrade", staff, ledgerHandler.Upgrade)
		protected.GET("/assignments", ledgerHandler.History)

		// Billing and payments
		pay := protected.Group("/payments")
		{
			pay.GET("/tenant-details", billingHandler.TenantDetails)
			pay.GET("/status", staff, billingHandler.Status)
			pay.POST("/create-order", paymentHandler.CreateOrder)
			pay.POST("/verify", paymentHandler.Verify)
			pay.POST("/dummy-verify", staff, paymentHandler.DummyVerify)
			pay.GET("/receipt", paymentHandler.Receipt)
			pay.GET("/export", staff, paymentHandler.Export)
		}

		// Tickets and menus
		protected.POST("/tickets", ticketHandler.Create)
		protected.GET("/tickets", ticketHandler.List)
		protected.PUT("/tickets", staff, ticketHandler.Update)
		protected.POST("/pg-menu", staff, menuHandler.Upsert)
		protected.GET("/pg-menu", menuHandler.Today)

		// Roster archive
		if s3Client != nil {
			reportHandler := reports.NewHandler(jobQueue, s3Client, guard, loc, logger)
			protected.POST("/reports/roster", staff, reportHandler.Archive)
			protected.GET("/reports/roster", staff, reportHandler.Download)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (roster snapshots to S3)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if s3Client != nil && cfg.Server.RunReportWorker {
		processor := worker.NewRosterProcessor(jobQueue, billingEngine, s3Client, loc, logger)
		go processor.Run(workerCtx)
		logger.Info("report worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.Int("db_pools", pools.Len()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
