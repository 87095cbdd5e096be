package schedule

import (
	"time"

	"github.com/Bzrkr/raspisanie/internal/model"
)

// IsActive 判断课程记录在 (room, target, week) 下是否生效
//
// 三个条件同时满足：
//  1. room 在记录的教室列表中；
//  2. week 在记录的周次中（周次缺失或为空时永不匹配）；
//  3. 起止日期都存在且 target 落在 [起, 止] 闭区间内，或单次课日期与 target 为同一天。
//
// 前置条件：rec 已按 target 的星期名从课表中取出，这里不再校验星期。
func IsActive(rec *model.LessonRecord, room string, target time.Time, week Week) bool {
	if !rec.HasRoom(room) {
		return false
	}
	if !rec.WeekNumbers.Contains(int(week)) {
		return false
	}

	day := model.DateOf(target)

	if rec.HasRecurrence() &&
		!day.Before(rec.RecurrenceStart) && !day.After(rec.RecurrenceEnd) {
		return true
	}
	return rec.SingleOccurrenceDate.Equal(day)
}
