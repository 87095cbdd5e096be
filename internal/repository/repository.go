package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Bzrkr/raspisanie/internal/model"
)

// Source 上游课表数据源（iis.Client 实现）
type Source interface {
	CurrentWeek(ctx context.Context) (int, error)
	Employees(ctx context.Context) ([]model.Teacher, error)
	EmployeeSchedule(ctx context.Context, urlID string) (model.TeacherScheduleFeed, error)
}

// Cache JSON 缓存（pkg/redis.Client 实现），未启用时传 nil
type Cache interface {
	GetJSON(ctx context.Context, key string, out interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Week     WeekRepository
	Employee EmployeeRepository
	Feed     FeedRepository
}

// NewRepository 创建基于 IIS 的 Repository 聚合
// cache 为 nil 或 ttl<=0 时每次直接请求上游
func NewRepository(src Source, cache Cache, ttl time.Duration, logger *zap.Logger) *Repository {
	if ttl <= 0 {
		cache = nil
	}
	c := &cachedFetcher{cache: cache, ttl: ttl, logger: logger}
	return &Repository{
		Week:     NewWeekRepo(src),
		Employee: newEmployeeRepo(src, c),
		Feed:     newFeedRepo(src, c),
	}
}
