package schedule

import (
	"math"
	"strconv"
	"time"
)

// CycleLength 教学周循环长度
const CycleLength = 4

// Week 循环中的教学周（1-4），0 表示未知
type Week int

// WeekUnknown 当前教学周未获取或无效
const WeekUnknown Week = 0

// Valid 是否落在 [1, CycleLength] 内
func (w Week) Valid() bool {
	return w >= 1 && w <= CycleLength
}

// String 未知周返回 "?"
func (w Week) String() string {
	if !w.Valid() {
		return "?"
	}
	return strconv.Itoa(int(w))
}

// weekdayNames 星期名表（按 time.Weekday 索引，0=周日）
//
// IIS 课表以俄语星期名为键，这里固定映射，不依赖运行环境的 locale。
var weekdayNames = [7]string{
	"Воскресенье",
	"Понедельник",
	"Вторник",
	"Среда",
	"Четверг",
	"Пятница",
	"Суббота",
}

// WeekdayName 返回日期对应的俄语星期名
func WeekdayName(t time.Time) string {
	return weekdayNames[t.Weekday()]
}

// CalendarDate 截取 t 在其自身时区下的年月日，返回 UTC 零点
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MondayOf 返回 t 所在周的周一（周一为一周的第一天，周日归属前一个周一）
func MondayOf(t time.Time) time.Time {
	d := CalendarDate(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// ResolveWeek 推算 target 所在的教学周
//
// anchor 为 anchorDate 当周的教学周。两个日期先对齐到各自的周一，
// 周差 = round(天数差 / 7)，对齐后天数差必为 7 的整数倍。
// 结果恒在 [1, 4]；anchor 无效时返回 (WeekUnknown, false)，调用方应跳过解析。
func ResolveWeek(anchor Week, anchorDate, target time.Time) (Week, bool) {
	if !anchor.Valid() {
		return WeekUnknown, false
	}

	days := MondayOf(target).Sub(MondayOf(anchorDate)).Hours() / 24
	offset := int(math.Round(days / 7))

	n := (int(anchor) - 1 + offset) % CycleLength
	if n < 0 {
		n += CycleLength
	}
	return Week(n + 1), true
}
