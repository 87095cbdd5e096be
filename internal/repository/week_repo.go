package repository

import "context"

// WeekRepository 当前教学周数据访问接口
type WeekRepository interface {
	// Current 当前教学周，从不缓存
	Current(ctx context.Context) (int, error)
}

type weekRepo struct {
	src Source
}

// NewWeekRepo 创建 WeekRepository 实例
func NewWeekRepo(src Source) WeekRepository {
	return &weekRepo{src: src}
}

func (r *weekRepo) Current(ctx context.Context) (int, error) {
	return r.src.CurrentWeek(ctx)
}
