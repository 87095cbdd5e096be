package repository

import (
	"context"

	"github.com/Bzrkr/raspisanie/internal/model"
)

const feedCacheKeyPrefix = "iis:feed:"

// FeedRepository 教师课表数据访问接口
type FeedRepository interface {
	GetByTeacher(ctx context.Context, urlID string) (model.TeacherScheduleFeed, error)
}

type feedRepo struct {
	src   Source
	cache *cachedFetcher
}

// newFeedRepo 创建 FeedRepository 实例
func newFeedRepo(src Source, cache *cachedFetcher) FeedRepository {
	return &feedRepo{src: src, cache: cache}
}

func (r *feedRepo) GetByTeacher(ctx context.Context, urlID string) (model.TeacherScheduleFeed, error) {
	var feed model.TeacherScheduleFeed
	err := r.cache.fetch(ctx, feedCacheKeyPrefix+urlID, &feed, func() (interface{}, error) {
		f, err := r.src.EmployeeSchedule(ctx, urlID)
		if err != nil {
			return nil, err
		}
		feed = f
		return f, nil
	})
	if err != nil {
		return model.TeacherScheduleFeed{}, err
	}
	// 缓存中的 null 版本同样规范化为空表
	if feed.Schedules == nil {
		feed.Schedules = model.DaySchedule{}
	}
	if feed.PreviousSchedules == nil {
		feed.PreviousSchedules = model.DaySchedule{}
	}
	return feed, nil
}
