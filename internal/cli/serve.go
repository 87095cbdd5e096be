package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bzrkr/raspisanie/config"
	"github.com/Bzrkr/raspisanie/internal/api/handler"
	"github.com/Bzrkr/raspisanie/internal/api/middleware"
	"github.com/Bzrkr/raspisanie/internal/api/router"
	"github.com/Bzrkr/raspisanie/internal/iis"
	"github.com/Bzrkr/raspisanie/internal/repository"
	"github.com/Bzrkr/raspisanie/internal/service"
	applogger "github.com/Bzrkr/raspisanie/pkg/logger"
	"github.com/Bzrkr/raspisanie/pkg/redis"
)

// NewServerCommand HTTP 服务入口（cmd/server）
func NewServerCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := newServeCommand(opts)
	cmd.Use = "raspisanie-server"
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "启动 HTTP 服务",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logger, err := applogger.NewLogger(&cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runServer(ctx, cfg, logger)
		},
	}
}

// runServer 组装依赖并运行 HTTP 服务，ctx 取消时优雅关闭
func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Strings("rooms", cfg.Schedule.Rooms),
	)

	// 1. 连接 Redis（可选：连接失败时降级运行，不缓存、不限流）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，缓存与限流将不可用", zap.Error(err))
		} else {
			rdb = client
			defer rdb.Close()
		}
	}
	var (
		cache   repository.Cache
		limiter middleware.RateLimitStore
	)
	if rdb != nil {
		cache = rdb
		limiter = rdb
	}

	// 2. IIS 客户端
	client, err := iis.NewClient(&cfg.IIS, nil)
	if err != nil {
		return fmt.Errorf("初始化 IIS 客户端失败: %w", err)
	}

	// 3. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(client, cache, cfg.IIS.CacheTTL, logger)
	svc, err := service.NewService(cfg, repo, logger)
	if err != nil {
		return fmt.Errorf("初始化服务失败: %w", err)
	}
	h := handler.NewHandler(svc)

	// 4. 首次加载课表；失败时仍启动服务，查询返回 503，等待 /session/reload
	loadCtx, loadCancel := context.WithTimeout(ctx, 5*time.Minute)
	if _, err := svc.Schedule.Reload(loadCtx); err != nil {
		logger.Error("首次加载课表失败，服务以不可用状态启动", zap.Error(err))
	}
	loadCancel()

	// 5. 初始化路由
	gin.SetMode(gin.ReleaseMode)
	engine := router.Setup(cfg, h, limiter, logger)

	// 6. 启动 HTTP 服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 7. 等待关闭信号或服务异常
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("收到关闭信号，开始优雅关闭...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
		return err
	}
	logger.Info("服务器已关闭")
	return nil
}
