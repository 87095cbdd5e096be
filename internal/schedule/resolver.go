package schedule

import (
	"strings"
	"time"

	"github.com/Bzrkr/raspisanie/internal/model"
)

// NoGroup 无学生组时的占位文本
const NoGroup = "нет группы"

// TeacherFeed 教师及其课表，切片顺序即解析顺序
type TeacherFeed struct {
	Teacher model.Teacher
	Feed    model.TeacherScheduleFeed
}

// Entry 某个时间段上的课程
type Entry struct {
	Subject     string        `json:"subject"`
	Kind        string        `json:"kind"`
	Teacher     string        `json:"teacher"`
	Groups      []string      `json:"groups"`
	Variant     model.Variant `json:"variant"`
	Description string        `json:"description"`
}

// ResolvedSchedule 时间段标签 "HH:MM—HH:MM" → 课程
type ResolvedSchedule map[string]Entry

// ResolveRoom 解析教室 room 在 target 当天（第 week 周）的课程
//
// 遍历顺序：教师按列表顺序，每位教师先当前版本后上一版本。
// 同一时间段标签出现多条生效记录时，后处理的覆盖先处理的。
// 纯函数，空课表的教师不产生任何记录。
func ResolveRoom(room string, target time.Time, week Week, feeds []TeacherFeed) ResolvedSchedule {
	result := make(ResolvedSchedule)
	weekday := WeekdayName(target)

	for i := range feeds {
		tf := &feeds[i]
		teacherName := tf.Teacher.DisplayName()

		for _, variant := range model.Variants {
			lessons := tf.Feed.Lessons(variant, weekday)
			for j := range lessons {
				rec := &lessons[j]
				if !IsActive(rec, room, target, week) {
					continue
				}
				result[rec.TimeLabel()] = newEntry(rec, teacherName, variant)
			}
		}
	}

	return result
}

func newEntry(rec *model.LessonRecord, teacherName string, variant model.Variant) Entry {
	groups := rec.GroupNames()
	return Entry{
		Subject:     rec.Subject,
		Kind:        rec.LessonTypeKind,
		Teacher:     teacherName,
		Groups:      groups,
		Variant:     variant,
		Description: Describe(rec.Subject, rec.LessonTypeKind, teacherName, groups),
	}
}

// Describe 课程描述："предмет (тип) ФИО гр. A, гр. B"
func Describe(subject, kind, teacherName string, groups []string) string {
	groupText := NoGroup
	if len(groups) > 0 {
		parts := make([]string, len(groups))
		for i, g := range groups {
			parts[i] = "гр. " + g
		}
		groupText = strings.Join(parts, ", ")
	}
	return subject + " (" + kind + ") " + teacherName + " " + groupText
}
