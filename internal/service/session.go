package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Bzrkr/raspisanie/internal/model"
	"github.com/Bzrkr/raspisanie/internal/repository"
	"github.com/Bzrkr/raspisanie/internal/schedule"
	pkgerrors "github.com/Bzrkr/raspisanie/pkg/errors"
)

// Session 一次加载得到的只读快照
//
// 创建后不再修改，可被任意数量的并发查询共享；重新加载时整体替换。
type Session struct {
	AnchorWeek       schedule.Week
	AnchorDate       time.Time // 加载当天（配置时区下的日历日期）
	Teachers         []model.Teacher
	Feeds            []schedule.TeacherFeed // 与 Teachers 一一对应，顺序一致
	LoadedAt         time.Time
	FailedTeachers   int
	Lessons          int // 全部课表记录数，含格式不完整的记录
	MalformedRecords int
}

// WeekOf 推算 target 的教学周；锚点周未知时返回 false
func (s *Session) WeekOf(target time.Time) (schedule.Week, bool) {
	return schedule.ResolveWeek(s.AnchorWeek, s.AnchorDate, target)
}

// LoadOptions 会话加载参数
type LoadOptions struct {
	Concurrency int
	Location    *time.Location
	Now         func() time.Time
}

// LoadSession 从 Repository 构建新的会话
//
// 当前教学周与教师列表任一获取失败即整体失败；
// 单个教师课表失败时记录告警并使用空课表，不影响其他教师。
func LoadSession(ctx context.Context, repo *repository.Repository, opts LoadOptions, logger *zap.Logger) (*Session, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	loadedAt := now().In(loc)

	// 1. 当前教学周
	rawWeek, err := repo.Week.Current(ctx)
	if err != nil {
		logger.Error("获取当前教学周失败", zap.Error(err))
		return nil, fmt.Errorf("获取当前教学周: %w", asFetchFailure(err))
	}
	anchor := schedule.Week(rawWeek)
	if !anchor.Valid() {
		logger.Warn("上游返回的教学周超出范围，按未知处理",
			zap.Int("week", rawWeek),
			zap.Error(pkgerrors.ErrWeekUnknown),
		)
		anchor = schedule.WeekUnknown
	}

	// 2. 教师列表
	teachers, err := repo.Employee.List(ctx)
	if err != nil {
		logger.Error("获取教师列表失败", zap.Error(err))
		return nil, fmt.Errorf("获取教师列表: %w", asFetchFailure(err))
	}

	// 3. 并发获取教师课表，结果按下标写入以保持教师顺序
	feeds := make([]schedule.TeacherFeed, len(teachers))
	failed := make([]bool, len(teachers))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i := range teachers {
		g.Go(func() error {
			feed, err := repo.Feed.GetByTeacher(gctx, teachers[i].URLID)
			if err != nil {
				// 单个教师失败不返回错误，避免取消其他请求
				logger.Warn("获取教师课表失败，使用空课表",
					zap.String("url_id", teachers[i].URLID),
					zap.String("fio", teachers[i].FIO),
					zap.Error(err),
				)
				feed = model.EmptyFeed()
				failed[i] = true
			}
			feeds[i] = schedule.TeacherFeed{Teacher: teachers[i], Feed: feed}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session := &Session{
		AnchorWeek: anchor,
		AnchorDate: schedule.CalendarDate(loadedAt),
		Teachers:   teachers,
		Feeds:      feeds,
		LoadedAt:   loadedAt,
	}
	for _, f := range failed {
		if f {
			session.FailedTeachers++
		}
	}

	// 4. 统计格式不完整的记录，只写调试日志
	for i := range feeds {
		session.Lessons += feeds[i].Feed.LessonCount()
		session.MalformedRecords += logMalformedRecords(&feeds[i], logger)
	}

	logger.Info("课表会话加载完成",
		zap.Int("anchor_week", int(anchor)),
		zap.Int("teachers", len(teachers)),
		zap.Int("lessons", session.Lessons),
		zap.Int("failed_teachers", session.FailedTeachers),
		zap.Int("malformed_records", session.MalformedRecords),
	)
	return session, nil
}

func logMalformedRecords(tf *schedule.TeacherFeed, logger *zap.Logger) int {
	count := 0
	tf.Feed.EachLesson(func(v model.Variant, weekday string, rec *model.LessonRecord) {
		problems := rec.Problems()
		if len(problems) == 0 {
			return
		}
		count++
		logger.Debug(pkgerrors.ErrMalformedRecord.Error(),
			zap.String("url_id", tf.Teacher.URLID),
			zap.String("variant", string(v)),
			zap.String("weekday", weekday),
			zap.String("subject", rec.Subject),
			zap.Strings("problems", problems),
		)
	})
	return count
}

// asFetchFailure 保证上游失败可用 errors.Is(err, ErrFetchFailed) 判断
func asFetchFailure(err error) error {
	if errors.Is(err, pkgerrors.ErrFetchFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", pkgerrors.ErrFetchFailed, err)
}

// sessionHolder 当前会话，查询路径无锁
type sessionHolder struct {
	p atomic.Pointer[Session]
}

func (h *sessionHolder) load() *Session { return h.p.Load() }

func (h *sessionHolder) store(s *Session) { h.p.Store(s) }
