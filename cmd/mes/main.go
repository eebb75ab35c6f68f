package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/handler"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/middleware"
	"github.com/bitfantasy/nimo-mes/internal/shared/feishu"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nimo-mes service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := migrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis（成本分解缓存）
	rdb := initRedis(cfg.Redis)

	// 飞书通知（未配置时关闭）
	var notifier service.Notifier
	if cfg.Feishu.AppID != "" {
		notifier = feishu.NewNotifier(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
		zapLogger.Info("Feishu notifications enabled")
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, notifier)
	handlers := handler.NewHandlers(services, repos)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.Product{},
		&entity.Workcenter{},
		&entity.BOM{},
		&entity.BOMLine{},
		&entity.BOMOperation{},
		&entity.ECO{},
		&entity.ECOLine{},
		&entity.ECOHistory{},
		&entity.ProductionPlan{},
		&entity.PlanDependency{},
		&entity.ResourceRequirement{},
		&entity.Milestone{},
		&entity.QualityCheck{},
		&entity.WorkOrder{},
	); err != nil {
		return err
	}

	// 编码序列
	sequences := []string{
		"CREATE SEQUENCE IF NOT EXISTS bom_code_seq START 1",
		"CREATE SEQUENCE IF NOT EXISTS eco_code_seq START 1",
		"CREATE SEQUENCE IF NOT EXISTS plan_code_seq START 1",
		"CREATE SEQUENCE IF NOT EXISTS wo_code_seq START 1",
	}
	for _, sql := range sequences {
		if err := db.Exec(sql).Error; err != nil {
			return err
		}
	}
	return nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	{
		// SSE 实时推送（需要认证，支持 query param token）
		sseGroup := v1.Group("/sse")
		sseGroup.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			sseGroup.GET("/events", h.SSE.Stream)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 产品主数据
			products := authorized.Group("/products")
			{
				products.GET("", h.BOM.ListProducts)
				products.POST("", h.BOM.CreateProduct)
			}

			// 工作中心
			workcenters := authorized.Group("/workcenters")
			{
				workcenters.GET("", h.BOM.ListWorkcenters)
				workcenters.POST("", h.BOM.CreateWorkcenter)
			}

			// BOM
			boms := authorized.Group("/boms")
			{
				boms.POST("", h.BOM.Create)
				boms.GET("", h.BOM.List)
				boms.GET("/:id", h.BOM.Get)
				boms.GET("/:id/cost-breakdown", h.BOM.GetCostBreakdown)
				boms.POST("/:id/lines", h.BOM.AddLine)
				boms.PUT("/:id/lines/:lineId", h.BOM.UpdateLine)
				boms.DELETE("/:id/lines/:lineId", h.BOM.RemoveLine)
				boms.POST("/:id/operations", h.BOM.AddOperation)
				boms.PUT("/:id/operations/:opId", h.BOM.UpdateOperation)
				boms.DELETE("/:id/operations/:opId", h.BOM.RemoveOperation)
				boms.POST("/:id/submit", h.BOM.SubmitForReview)
				boms.POST("/:id/approve", h.BOM.Approve)
				boms.POST("/:id/revise", h.BOM.Revise)
			}

			// 工程变更
			ecos := authorized.Group("/ecos")
			{
				ecos.POST("", h.ECO.Create)
				ecos.GET("", h.ECO.List)
				ecos.GET("/pending-reviews", h.ECO.PendingReviews)
				ecos.GET("/:id", h.ECO.Get)
				ecos.PUT("/:id", h.ECO.Update)
				ecos.GET("/:id/history", h.ECO.History)
				ecos.POST("/:id/lines", h.ECO.AddLine)
				ecos.DELETE("/:id/lines/:lineId", h.ECO.RemoveLine)
				ecos.POST("/:id/submit", h.ECO.Submit)
				ecos.POST("/:id/approve", h.ECO.Approve)
				ecos.POST("/:id/reject", h.ECO.Reject)
				ecos.POST("/:id/implement", h.ECO.Implement)
				ecos.POST("/:id/cancel", h.ECO.Cancel)
				ecos.POST("/:id/reset", h.ECO.Reset)
			}

			// 生产计划
			plans := authorized.Group("/plans")
			{
				plans.POST("", h.Plan.Create)
				plans.GET("", h.Plan.List)
				plans.GET("/:id", h.Plan.Get)
				plans.PUT("/:id", h.Plan.Update)
				plans.POST("/:id/confirm", h.Plan.Confirm)
				plans.POST("/:id/schedule", h.Plan.Schedule)
				plans.POST("/:id/start", h.Plan.Start)
				plans.POST("/:id/complete", h.Plan.Complete)
				plans.POST("/:id/cancel", h.Plan.Cancel)
				plans.POST("/:id/actual-duration", h.Plan.SetActualDuration)
				plans.POST("/:id/dependencies", h.Plan.AddDependency)
				plans.POST("/:id/requirements", h.Plan.AddRequirement)
				plans.PUT("/:id/requirements/:reqId", h.Plan.UpdateRequirement)
				plans.DELETE("/:id/requirements/:reqId", h.Plan.RemoveRequirement)
				plans.POST("/:id/milestones", h.Plan.AddMilestone)
				plans.POST("/:id/milestones/:msId/complete", h.Plan.CompleteMilestone)
				plans.POST("/:id/milestones/:msId/reopen", h.Plan.ReopenMilestone)
				plans.POST("/:id/quality-checks", h.Plan.AddQualityCheck)
				plans.POST("/:id/quality-checks/:qcId/result", h.Plan.RecordQualityCheck)
			}

			// 制造工单
			authorized.GET("/work-orders", h.Plan.ListWorkOrders)
		}
	}
}
