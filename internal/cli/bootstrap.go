package cli

import (
	"context"

	"go.uber.org/zap"

	"github.com/Bzrkr/raspisanie/config"
	"github.com/Bzrkr/raspisanie/internal/iis"
	"github.com/Bzrkr/raspisanie/internal/repository"
	"github.com/Bzrkr/raspisanie/internal/service"
	"github.com/Bzrkr/raspisanie/pkg/redis"
)

// NewScheduleService 组装 IIS 客户端、可选的 Redis 缓存与课表服务
func NewScheduleService(_ context.Context, cfg *config.Config, logger *zap.Logger) (service.ScheduleService, func(), error) {
	client, err := iis.NewClient(&cfg.IIS, nil)
	if err != nil {
		return nil, nil, err
	}

	// Redis 可选：连接失败时不使用缓存
	var cache repository.Cache
	cleanup := func() {}
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，课表不使用缓存", zap.Error(err))
		} else {
			cache = rdb
			cleanup = func() { _ = rdb.Close() }
		}
	}

	repo := repository.NewRepository(client, cache, cfg.IIS.CacheTTL, logger)
	svc, err := service.NewScheduleService(cfg, repo, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}
