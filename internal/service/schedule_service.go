package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Bzrkr/raspisanie/config"
	"github.com/Bzrkr/raspisanie/internal/dto"
	"github.com/Bzrkr/raspisanie/internal/repository"
	"github.com/Bzrkr/raspisanie/internal/schedule"
	pkgerrors "github.com/Bzrkr/raspisanie/pkg/errors"
)

// ── 教室课表模块业务错误 ──

var (
	ErrSessionUnavailable = errors.New("课表数据尚未加载成功")
	ErrRoomNotFound       = errors.New("教室不在配置列表中")
)

// DateLayout 接口日期参数格式
const DateLayout = "2006-01-02"

// ScheduleService 教室课表业务接口
type ScheduleService interface {
	// GetWeek 推算 date 的教学周
	GetWeek(ctx context.Context, date time.Time) (*dto.WeekResponse, error)
	// GetRoomSchedules 全部配置教室的课表，顺序与配置一致
	GetRoomSchedules(ctx context.Context, date time.Time) (*dto.SchedulesResponse, error)
	// GetRoomSchedule 单个教室的课表；教学周未知时 slots 为空
	GetRoomSchedule(ctx context.Context, room string, date time.Time) (*dto.RoomScheduleResponse, error)
	// ExportText 纯文本导出
	ExportText(ctx context.Context, date time.Time) (string, error)
	// Share 导出文本及 Telegram 分享链接
	Share(ctx context.Context, date time.Time) (*dto.ShareResponse, error)
	// Reload 重新加载会话；失败时保留原会话
	Reload(ctx context.Context) (*dto.ReloadResponse, error)
	// Rooms 配置的教室列表
	Rooms() []string
	// Today 配置时区下的当前时间
	Today() time.Time
	// ParseDate 解析 YYYY-MM-DD，空串表示今天
	ParseDate(s string) (time.Time, error)
}

type scheduleService struct {
	repo        *repository.Repository
	rooms       []string
	roomSet     map[string]bool
	groupURL    string
	concurrency int
	loc         *time.Location
	now         func() time.Time
	logger      *zap.Logger

	current  sessionHolder
	reloadMu sync.Mutex
}

// NewScheduleService 创建 ScheduleService 实例；会话需调用 Reload 加载
func NewScheduleService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) (ScheduleService, error) {
	return newScheduleService(cfg, repo, logger)
}

func newScheduleService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) (*scheduleService, error) {
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}

	rooms := make([]string, len(cfg.Schedule.Rooms))
	copy(rooms, cfg.Schedule.Rooms)
	roomSet := make(map[string]bool, len(rooms))
	for _, r := range rooms {
		roomSet[r] = true
	}

	return &scheduleService{
		repo:        repo,
		rooms:       rooms,
		roomSet:     roomSet,
		groupURL:    cfg.IIS.GroupURL,
		concurrency: cfg.IIS.MaxConcurrency,
		loc:         loc,
		now:         time.Now,
		logger:      logger,
	}, nil
}

// ────────────────────── 日期 ──────────────────────

func (s *scheduleService) Today() time.Time {
	return s.now().In(s.loc)
}

func (s *scheduleService) ParseDate(str string) (time.Time, error) {
	if str == "" {
		return s.Today(), nil
	}
	return time.ParseInLocation(DateLayout, str, s.loc)
}

func (s *scheduleService) Rooms() []string {
	out := make([]string, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// ────────────────────── GetWeek ──────────────────────

func (s *scheduleService) GetWeek(_ context.Context, date time.Time) (*dto.WeekResponse, error) {
	sess := s.current.load()
	if sess == nil {
		return nil, ErrSessionUnavailable
	}
	date = date.In(s.loc)
	week, _ := sess.WeekOf(date)
	resp := toWeekResponse(date, week)
	return &resp, nil
}

// ────────────────────── GetRoomSchedules ──────────────────────

func (s *scheduleService) GetRoomSchedules(ctx context.Context, date time.Time) (*dto.SchedulesResponse, error) {
	sess := s.current.load()
	if sess == nil {
		return nil, ErrSessionUnavailable
	}
	date = date.In(s.loc)
	week, err := s.weekOf(sess, date)

	resp := &dto.SchedulesResponse{
		Week:  toWeekResponse(date, week),
		Rooms: []dto.RoomScheduleResponse{},
	}
	if err != nil {
		return resp, nil
	}

	for _, rs := range s.resolveRooms(ctx, sess, date, week) {
		resp.Rooms = append(resp.Rooms, s.toRoomScheduleResponse(rs))
	}
	return resp, nil
}

// ────────────────────── GetRoomSchedule ──────────────────────

func (s *scheduleService) GetRoomSchedule(_ context.Context, room string, date time.Time) (*dto.RoomScheduleResponse, error) {
	if !s.roomSet[room] {
		return nil, ErrRoomNotFound
	}
	sess := s.current.load()
	if sess == nil {
		return nil, ErrSessionUnavailable
	}
	date = date.In(s.loc)

	week, err := s.weekOf(sess, date)
	if err != nil {
		return &dto.RoomScheduleResponse{Room: room, Slots: []dto.SlotResponse{}}, nil
	}

	slots := schedule.Aggregate(schedule.ResolveRoom(room, date, week, sess.Feeds))
	resp := s.toRoomScheduleResponse(schedule.RoomSlots{Room: room, Slots: slots})
	return &resp, nil
}

// ────────────────────── ExportText / Share ──────────────────────

func (s *scheduleService) ExportText(ctx context.Context, date time.Time) (string, error) {
	sess := s.current.load()
	if sess == nil {
		return "", ErrSessionUnavailable
	}
	date = date.In(s.loc)

	week, err := s.weekOf(sess, date)
	if err != nil {
		return schedule.WeekHeader(date, schedule.WeekUnknown), nil
	}
	return schedule.RenderText(date, week, s.resolveRooms(ctx, sess, date, week)), nil
}

func (s *scheduleService) Share(ctx context.Context, date time.Time) (*dto.ShareResponse, error) {
	text, err := s.ExportText(ctx, date)
	if err != nil {
		return nil, err
	}
	return &dto.ShareResponse{Text: text, URL: schedule.TelegramShareURL(text)}, nil
}

// ────────────────────── Reload ──────────────────────

func (s *scheduleService) Reload(ctx context.Context) (*dto.ReloadResponse, error) {
	// 串行化重新加载，避免并发请求重复拉取上游
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	sess, err := LoadSession(ctx, s.repo, LoadOptions{
		Concurrency: s.concurrency,
		Location:    s.loc,
		Now:         s.now,
	}, s.logger)
	if err != nil {
		if s.current.load() != nil {
			s.logger.Warn("重新加载失败，继续使用原会话", zap.Error(err))
		}
		return nil, err
	}

	s.current.store(sess)
	return toReloadResponse(sess), nil
}

// ────────────────────── 内部方法 ──────────────────────

// weekOf 推算教学周；未知时返回 ErrWeekUnknown，调用方跳过解析
func (s *scheduleService) weekOf(sess *Session, date time.Time) (schedule.Week, error) {
	week, ok := sess.WeekOf(date)
	if !ok {
		err := fmt.Errorf("%w: 锚点周 %d", pkgerrors.ErrWeekUnknown, int(sess.AnchorWeek))
		s.logger.Debug("跳过教室解析", zap.String("date", date.Format(DateLayout)), zap.Error(err))
		return schedule.WeekUnknown, err
	}
	return week, nil
}

// resolveRooms 并发解析全部教室，结果按配置下标放置
func (s *scheduleService) resolveRooms(ctx context.Context, sess *Session, date time.Time, week schedule.Week) []schedule.RoomSlots {
	out := make([]schedule.RoomSlots, len(s.rooms))

	g, _ := errgroup.WithContext(ctx)
	for i, room := range s.rooms {
		g.Go(func() error {
			resolved := schedule.ResolveRoom(room, date, week, sess.Feeds)
			out[i] = schedule.RoomSlots{Room: room, Slots: schedule.Aggregate(resolved)}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *scheduleService) toRoomScheduleResponse(rs schedule.RoomSlots) dto.RoomScheduleResponse {
	slots := make([]dto.SlotResponse, 0, len(rs.Slots))
	for _, slot := range rs.Slots {
		groups := make([]dto.GroupLink, 0, len(slot.Entry.Groups))
		for _, g := range slot.Entry.Groups {
			groups = append(groups, dto.GroupLink{Name: g, URL: schedule.GroupURL(s.groupURL, g)})
		}
		slots = append(slots, dto.SlotResponse{
			Time:        slot.Label,
			Subject:     slot.Entry.Subject,
			Kind:        slot.Entry.Kind,
			Teacher:     slot.Entry.Teacher,
			Groups:      groups,
			Variant:     string(slot.Entry.Variant),
			Description: slot.Entry.Description,
		})
	}
	return dto.RoomScheduleResponse{Room: rs.Room, Slots: slots}
}

func toWeekResponse(date time.Time, week schedule.Week) dto.WeekResponse {
	return dto.WeekResponse{
		Date:       date.Format(DateLayout),
		Weekday:    schedule.WeekdayName(date),
		WeekNumber: int(week),
		WeekKnown:  week.Valid(),
		Label:      schedule.WeekHeader(date, week),
	}
}

func toReloadResponse(sess *Session) *dto.ReloadResponse {
	return &dto.ReloadResponse{
		AnchorWeek:     int(sess.AnchorWeek),
		AnchorDate:     sess.AnchorDate.Format(DateLayout),
		Teachers:       len(sess.Teachers),
		FailedTeachers: sess.FailedTeachers,
		LoadedAt:       sess.LoadedAt.Format(time.RFC3339),
	}
}
