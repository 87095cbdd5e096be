package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Bzrkr/raspisanie/config"
	"github.com/Bzrkr/raspisanie/internal/model"
	pkgerrors "github.com/Bzrkr/raspisanie/pkg/errors"
)

// ── 测试辅助 ──

// 2025-10-13 为周一，锚点为第 2 周
var loadTime = time.Date(2025, 10, 13, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		IIS: config.IISConfig{
			GroupURL:       "https://iis.bsuir.by/schedule",
			MaxConcurrency: 2,
		},
		Schedule: config.ScheduleConfig{
			Timezone: "UTC",
			Rooms:    []string{"502-2 к.", "601-2 к.", "603-2 к."},
		},
	}
}

func mustDate(s string) model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func lesson(room, start, end string, weeks ...int) model.LessonRecord {
	return model.LessonRecord{
		Subject:         "ОАиП",
		LessonTypeKind:  "ЛК",
		Rooms:           []string{room},
		WeekNumbers:     model.WeekNumbers(weeks),
		StartTime:       start,
		EndTime:         end,
		RecurrenceStart: mustDate("01.09.2025"),
		RecurrenceEnd:   mustDate("27.12.2025"),
		StudentGroups:   []model.StudentGroup{{Name: "350501"}},
	}
}

// seedBasicData 三位教师：ivanov 每周一 502 有课，petrov 第 2 周一 601 有课，sidorov 获取失败
func seedBasicData(repos *testRepos) {
	repos.week.week = 2
	repos.employee.teachers = []model.Teacher{
		{URLID: "i-ivanov", FIO: "Иванов И. И."},
		{URLID: "p-petrov", FIO: "Петров П. П."},
		{URLID: "s-sidorov", FIO: "Сидоров С. С."},
	}
	repos.feed.feeds["i-ivanov"] = model.TeacherScheduleFeed{
		Schedules: model.DaySchedule{
			"Понедельник": {lesson("502-2 к.", "08:00", "09:30", 1, 2, 3, 4)},
		},
		PreviousSchedules: model.DaySchedule{},
	}
	repos.feed.feeds["p-petrov"] = model.TeacherScheduleFeed{
		Schedules: model.DaySchedule{
			"Понедельник": {lesson("601-2 к.", "09:45", "11:20", 2)},
		},
		PreviousSchedules: model.DaySchedule{},
	}
	repos.feed.failing["s-sidorov"] = true
}

func setupTestScheduleService(t *testing.T) (*scheduleService, *testRepos) {
	t.Helper()
	repos := newTestRepos()
	svc, err := newScheduleService(testConfig(), repos.toRepository(), zap.NewNop())
	if err != nil {
		t.Fatalf("创建服务失败: %v", err)
	}
	svc.now = func() time.Time { return loadTime }
	return svc, repos
}

func setupLoadedService(t *testing.T) (*scheduleService, *testRepos) {
	t.Helper()
	svc, repos := setupTestScheduleService(t)
	seedBasicData(repos)
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload 失败: %v", err)
	}
	return svc, repos
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// ════════════════════════════════════════════════════════════
// LoadSession
// ════════════════════════════════════════════════════════════

func TestLoadSession_FailedFeedFallsBackToEmpty(t *testing.T) {
	repos := newTestRepos()
	seedBasicData(repos)

	sess, err := LoadSession(context.Background(), repos.toRepository(), LoadOptions{
		Concurrency: 2,
		Location:    time.UTC,
		Now:         func() time.Time { return loadTime },
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("单个教师失败不应导致整体失败: %v", err)
	}
	if sess.FailedTeachers != 1 {
		t.Errorf("期望 1 位教师失败, 实际 %d", sess.FailedTeachers)
	}
	if len(sess.Feeds) != 3 {
		t.Fatalf("期望 3 份课表, 实际 %d", len(sess.Feeds))
	}
	for i, tf := range sess.Feeds {
		if tf.Teacher.URLID != repos.employee.teachers[i].URLID {
			t.Errorf("课表顺序应与教师列表一致: 下标 %d 为 %s", i, tf.Teacher.URLID)
		}
	}
	if n := sess.Feeds[2].Feed.LessonCount(); n != 0 {
		t.Errorf("失败教师应使用空课表, 实际 %d 条记录", n)
	}
	if sess.Lessons != 2 {
		t.Errorf("期望共 2 条课表记录, 实际 %d", sess.Lessons)
	}
	if sess.AnchorWeek != 2 || !sess.AnchorDate.Equal(time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("锚点错误: week=%d date=%s", sess.AnchorWeek, sess.AnchorDate)
	}
}

func TestLoadSession_RespectsConcurrencyLimit(t *testing.T) {
	repos := newTestRepos()
	repos.week.week = 1
	for i := 0; i < 20; i++ {
		repos.employee.teachers = append(repos.employee.teachers, model.Teacher{URLID: fmt.Sprintf("t-%d", i)})
	}

	_, err := LoadSession(context.Background(), repos.toRepository(), LoadOptions{Concurrency: 3}, zap.NewNop())
	if err != nil {
		t.Fatalf("LoadSession 失败: %v", err)
	}
	if repos.feed.calls != 20 {
		t.Errorf("期望请求 20 次, 实际 %d", repos.feed.calls)
	}
	if repos.feed.maxSeen > 3 {
		t.Errorf("并发数不应超过 3, 实际 %d", repos.feed.maxSeen)
	}
}

func TestLoadSession_FatalFailures(t *testing.T) {
	t.Run("current week", func(t *testing.T) {
		repos := newTestRepos()
		seedBasicData(repos)
		repos.week.err = errors.New("timeout")

		_, err := LoadSession(context.Background(), repos.toRepository(), LoadOptions{}, zap.NewNop())
		if !errors.Is(err, pkgerrors.ErrFetchFailed) {
			t.Errorf("期望 ErrFetchFailed, 实际 %v", err)
		}
		if repos.feed.calls != 0 {
			t.Error("教学周失败后不应继续拉取课表")
		}
	})

	t.Run("teacher list", func(t *testing.T) {
		repos := newTestRepos()
		seedBasicData(repos)
		repos.employee.err = fmt.Errorf("%w: HTTP 502", pkgerrors.ErrFetchFailed)

		_, err := LoadSession(context.Background(), repos.toRepository(), LoadOptions{}, zap.NewNop())
		if !errors.Is(err, pkgerrors.ErrFetchFailed) {
			t.Errorf("期望 ErrFetchFailed, 实际 %v", err)
		}
	})
}

func TestLoadSession_OutOfRangeWeekIsUnknown(t *testing.T) {
	repos := newTestRepos()
	seedBasicData(repos)
	repos.week.week = 7

	sess, err := LoadSession(context.Background(), repos.toRepository(), LoadOptions{}, zap.NewNop())
	if err != nil {
		t.Fatalf("LoadSession 失败: %v", err)
	}
	if sess.AnchorWeek.Valid() {
		t.Errorf("超出范围的教学周应视为未知, 实际 %d", sess.AnchorWeek)
	}
	if _, ok := sess.WeekOf(loadTime); ok {
		t.Error("锚点未知时不应推算出周次")
	}
}

func TestLoadSession_CountsMalformedRecords(t *testing.T) {
	repos := newTestRepos()
	seedBasicData(repos)
	broken := lesson("502-2 к.", "13:00", "14:35")
	broken.WeekNumbers = nil
	repos.feed.feeds["i-ivanov"].Schedules["Вторник"] = []model.LessonRecord{broken}

	sess, err := LoadSession(context.Background(), repos.toRepository(), LoadOptions{}, zap.NewNop())
	if err != nil {
		t.Fatalf("LoadSession 失败: %v", err)
	}
	if sess.MalformedRecords != 1 {
		t.Errorf("期望 1 条格式不完整的记录, 实际 %d", sess.MalformedRecords)
	}
	if sess.Lessons != 3 {
		t.Errorf("格式不完整的记录也应计入总数, 实际 %d", sess.Lessons)
	}
}

// ════════════════════════════════════════════════════════════
// ScheduleService
// ════════════════════════════════════════════════════════════

func TestScheduleService_NoSession(t *testing.T) {
	svc, _ := setupTestScheduleService(t)
	ctx := context.Background()

	if _, err := svc.GetWeek(ctx, loadTime); !errors.Is(err, ErrSessionUnavailable) {
		t.Errorf("GetWeek 期望 ErrSessionUnavailable, 实际 %v", err)
	}
	if _, err := svc.GetRoomSchedules(ctx, loadTime); !errors.Is(err, ErrSessionUnavailable) {
		t.Errorf("GetRoomSchedules 期望 ErrSessionUnavailable, 实际 %v", err)
	}
	if _, err := svc.ExportText(ctx, loadTime); !errors.Is(err, ErrSessionUnavailable) {
		t.Errorf("ExportText 期望 ErrSessionUnavailable, 实际 %v", err)
	}
}

func TestScheduleService_GetWeek(t *testing.T) {
	svc, _ := setupLoadedService(t)

	tests := []struct {
		name    string
		date    time.Time
		want    int
		weekday string
	}{
		{"anchor day", day(2025, 10, 13), 2, "Понедельник"},
		{"sunday same week", day(2025, 10, 19), 2, "Воскресенье"},
		{"next week", day(2025, 10, 20), 3, "Понедельник"},
		{"wraps to 1", day(2025, 11, 3), 1, "Понедельник"},
		{"previous week", day(2025, 10, 10), 1, "Пятница"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetWeek(context.Background(), tt.date)
			if err != nil {
				t.Fatalf("GetWeek 失败: %v", err)
			}
			if resp.WeekNumber != tt.want || !resp.WeekKnown {
				t.Errorf("期望第 %d 周, 实际 %+v", tt.want, resp)
			}
			if resp.Weekday != tt.weekday {
				t.Errorf("期望 %s, 实际 %s", tt.weekday, resp.Weekday)
			}
		})
	}
}

func TestScheduleService_GetRoomSchedules(t *testing.T) {
	svc, _ := setupLoadedService(t)

	resp, err := svc.GetRoomSchedules(context.Background(), day(2025, 10, 13))
	if err != nil {
		t.Fatalf("GetRoomSchedules 失败: %v", err)
	}
	if len(resp.Rooms) != 3 {
		t.Fatalf("期望 3 个教室, 实际 %d", len(resp.Rooms))
	}
	for i, room := range svc.Rooms() {
		if resp.Rooms[i].Room != room {
			t.Errorf("教室顺序应与配置一致: 下标 %d 期望 %s, 实际 %s", i, room, resp.Rooms[i].Room)
		}
	}

	r502 := resp.Rooms[0]
	if len(r502.Slots) != 1 || r502.Slots[0].Time != "08:00—09:30" {
		t.Fatalf("502 课表错误: %+v", r502.Slots)
	}
	slot := r502.Slots[0]
	if slot.Description != "ОАиП (ЛК) Иванов И. И. гр. 350501" {
		t.Errorf("描述错误: %q", slot.Description)
	}
	if len(slot.Groups) != 1 || slot.Groups[0].URL != "https://iis.bsuir.by/schedule/350501" {
		t.Errorf("学生组链接错误: %+v", slot.Groups)
	}
	if len(resp.Rooms[1].Slots) != 1 {
		t.Errorf("第 2 周 601 应有课, 实际 %+v", resp.Rooms[1].Slots)
	}
	if len(resp.Rooms[2].Slots) != 0 {
		t.Errorf("603 应无课, 实际 %+v", resp.Rooms[2].Slots)
	}

	// 第 3 周 petrov 的课不生效
	resp, err = svc.GetRoomSchedules(context.Background(), day(2025, 10, 20))
	if err != nil {
		t.Fatalf("GetRoomSchedules 失败: %v", err)
	}
	if len(resp.Rooms[1].Slots) != 0 {
		t.Errorf("第 3 周 601 应无课, 实际 %+v", resp.Rooms[1].Slots)
	}
}

func TestScheduleService_UnknownWeek(t *testing.T) {
	svc, repos := setupTestScheduleService(t)
	seedBasicData(repos)
	repos.week.week = 0
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload 失败: %v", err)
	}

	resp, err := svc.GetRoomSchedules(context.Background(), day(2025, 10, 13))
	if err != nil {
		t.Fatalf("GetRoomSchedules 失败: %v", err)
	}
	if resp.Week.WeekKnown || len(resp.Rooms) != 0 {
		t.Errorf("教学周未知时不应解析教室, 实际 %+v", resp)
	}

	text, err := svc.ExportText(context.Background(), day(2025, 10, 13))
	if err != nil {
		t.Fatalf("ExportText 失败: %v", err)
	}
	if !strings.HasSuffix(text, "учебная неделя неизвестна") {
		t.Errorf("文本应提示教学周未知, 实际 %q", text)
	}
}

func TestScheduleService_WeekOfWrapsErrWeekUnknown(t *testing.T) {
	svc, repos := setupTestScheduleService(t)
	seedBasicData(repos)
	repos.week.week = 0
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload 失败: %v", err)
	}
	sess := svc.current.load()

	week, err := svc.weekOf(sess, day(2025, 10, 20))
	if !errors.Is(err, pkgerrors.ErrWeekUnknown) {
		t.Errorf("期望 ErrWeekUnknown, 实际 %v", err)
	}
	if week.Valid() {
		t.Errorf("教学周未知时不应返回有效周次, 实际 %d", week)
	}

	resp, err := svc.GetRoomSchedule(context.Background(), "502-2 к.", day(2025, 10, 13))
	if err != nil {
		t.Fatalf("GetRoomSchedule 不应把未知周作为错误返回: %v", err)
	}
	if len(resp.Slots) != 0 {
		t.Errorf("教学周未知时应返回空时段, 实际 %+v", resp.Slots)
	}
}

func TestScheduleService_GetRoomSchedule(t *testing.T) {
	svc, _ := setupLoadedService(t)

	resp, err := svc.GetRoomSchedule(context.Background(), "601-2 к.", day(2025, 10, 13))
	if err != nil {
		t.Fatalf("GetRoomSchedule 失败: %v", err)
	}
	if resp.Room != "601-2 к." || len(resp.Slots) != 1 || resp.Slots[0].Teacher != "Петров П. П." {
		t.Errorf("601 课表错误: %+v", resp)
	}

	if _, err := svc.GetRoomSchedule(context.Background(), "999-9 к.", day(2025, 10, 13)); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("期望 ErrRoomNotFound, 实际 %v", err)
	}
}

func TestScheduleService_ExportTextAndShare(t *testing.T) {
	svc, _ := setupLoadedService(t)

	text, err := svc.ExportText(context.Background(), day(2025, 10, 13))
	if err != nil {
		t.Fatalf("ExportText 失败: %v", err)
	}
	want := "13.10.2025 (Понедельник), 2-я учебная неделя 🗓️\n\n" +
		"———502-2 к.———\n08:00—09:30 —— ОАиП (ЛК) Иванов И. И. гр. 350501\n" +
		"———601-2 к.———\n09:45—11:20 —— ОАиП (ЛК) Петров П. П. гр. 350501\n" +
		"———603-2 к.———"
	if text != want {
		t.Errorf("导出文本错误:\n期望 %q\n实际 %q", want, text)
	}

	share, err := svc.Share(context.Background(), day(2025, 10, 13))
	if err != nil {
		t.Fatalf("Share 失败: %v", err)
	}
	if share.Text != text {
		t.Error("分享文本应与导出文本一致")
	}
	if !strings.HasPrefix(share.URL, "tg://msg?text=") || strings.Contains(share.URL, "+") {
		t.Errorf("分享链接格式错误: %s", share.URL)
	}
}

func TestScheduleService_ReloadKeepsPreviousOnFailure(t *testing.T) {
	svc, repos := setupLoadedService(t)

	repos.employee.err = errors.New("HTTP 503")
	if _, err := svc.Reload(context.Background()); err == nil {
		t.Fatal("教师列表失败时 Reload 应返回错误")
	}

	resp, err := svc.GetRoomSchedules(context.Background(), day(2025, 10, 13))
	if err != nil {
		t.Fatalf("原会话应继续可用: %v", err)
	}
	if len(resp.Rooms[0].Slots) != 1 {
		t.Errorf("原会话数据应保留, 实际 %+v", resp.Rooms[0])
	}

	// 恢复后重新加载成功，新会话生效
	repos.employee.err = nil
	repos.week.week = 3
	reload, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload 失败: %v", err)
	}
	if reload.AnchorWeek != 3 || reload.Teachers != 3 || reload.FailedTeachers != 1 {
		t.Errorf("Reload 结果错误: %+v", reload)
	}
	week, _ := svc.GetWeek(context.Background(), day(2025, 10, 13))
	if week.WeekNumber != 3 {
		t.Errorf("新会话应生效, 实际第 %d 周", week.WeekNumber)
	}
}

func TestScheduleService_ParseDate(t *testing.T) {
	svc, _ := setupTestScheduleService(t)

	d, err := svc.ParseDate("")
	if err != nil || !d.Equal(loadTime) {
		t.Errorf("空日期应为今天, 实际 %s (%v)", d, err)
	}
	d, err = svc.ParseDate("2025-10-20")
	if err != nil || d.Day() != 20 || d.Location() != time.UTC {
		t.Errorf("日期解析错误: %s (%v)", d, err)
	}
	if _, err := svc.ParseDate("20.10.2025"); err == nil {
		t.Error("错误格式应返回错误")
	}
}

func TestScheduleService_RoomsIsCopy(t *testing.T) {
	svc, _ := setupTestScheduleService(t)
	rooms := svc.Rooms()
	rooms[0] = "changed"
	if svc.Rooms()[0] != "502-2 к." {
		t.Error("Rooms 返回值被修改不应影响服务配置")
	}
}
