package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/thehallofegress/class-schedules/config"
	"github.com/thehallofegress/class-schedules/internal/api/handler"
	"github.com/thehallofegress/class-schedules/internal/api/router"
	"github.com/thehallofegress/class-schedules/internal/api/ws"
	"github.com/thehallofegress/class-schedules/internal/repository"
	"github.com/thehallofegress/class-schedules/internal/service"
	"github.com/thehallofegress/class-schedules/pkg/database"
	"github.com/thehallofegress/class-schedules/pkg/jwt"
	applogger "github.com/thehallofegress/class-schedules/pkg/logger"
	"github.com/thehallofegress/class-schedules/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.DB, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，编辑 Token 吊销与限流将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	hub := ws.NewHub(logger)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, hub, logger)
	h := handler.NewHandler(svc)

	// 7. 首次全量拉取：启动即持有可用快照
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := svc.Sync.FetchAll(startupCtx, true); err != nil {
		// 启动拉取失败不中断服务，后台任务会持续重试
		logger.Warn("启动时数据拉取未完全成功", zap.Error(err))
	}
	cancelStartup()

	// 8. 后台定时刷新
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Sync.RefreshInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := svc.Sync.FetchAll(ctx, false); err != nil {
			logger.Warn("定时刷新未完全成功", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("注册定时刷新任务失败",
			zap.String("interval", cfg.Sync.RefreshInterval),
			zap.Error(err),
		)
	}
	scheduler.Start()

	// 9. 初始化路由
	engine := router.Setup(cfg, h, hub, jwtMgr, rdb, logger)

	// 10. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	scheduler.Stop()
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
