package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StudentGroup 学生组，对应 studentGroups[]
type StudentGroup struct {
	Name             string `json:"name"`
	SpecialityName   string `json:"specialityName,omitempty"`
	NumberOfStudents int    `json:"numberOfStudents,omitempty"`
}

// WeekNumbers 课程所在的教学周（1-4）
//
// nil 表示字段缺失（JSON null 或未出现），空切片表示字段存在但为空；
// 两种情况都永不匹配，区分仅用于日志。
type WeekNumbers []int

// UnmarshalJSON 非整数数组（如 "1"、[1,"2"]）按缺失处理，不影响同一课表中的其他记录
func (w *WeekNumbers) UnmarshalJSON(data []byte) error {
	var weeks []int
	if err := json.Unmarshal(data, &weeks); err != nil {
		*w = nil
		return nil
	}
	*w = weeks
	return nil
}

// Present 字段是否存在
func (w WeekNumbers) Present() bool { return w != nil }

// Contains 是否包含第 week 周
func (w WeekNumbers) Contains(week int) bool {
	for _, n := range w {
		if n == week {
			return true
		}
	}
	return false
}

// LessonRecord 教师课表中的一条课程记录，对应 IIS lesson 对象
//
// 解析后只读，不做任何修改。
type LessonRecord struct {
	Subject              string         `json:"subject"`
	SubjectFullName      string         `json:"subjectFullName,omitempty"`
	LessonTypeKind       string         `json:"lessonTypeAbbrev"`
	Rooms                []string       `json:"auditories"`
	WeekNumbers          WeekNumbers    `json:"weekNumber"`
	StartTime            string         `json:"startLessonTime"`
	EndTime              string         `json:"endLessonTime"`
	RecurrenceStart      Date           `json:"startLessonDate"`
	RecurrenceEnd        Date           `json:"endLessonDate"`
	SingleOccurrenceDate Date           `json:"dateLesson"`
	StudentGroups        []StudentGroup `json:"studentGroups"`
	NumSubgroup          int            `json:"numSubgroup,omitempty"`
	Note                 string         `json:"note,omitempty"`

	decodeErr string // 整条记录无法解码时的原因；此时其余字段为零值，永不匹配
}

// HasRoom 是否在教室 room 上课
func (r *LessonRecord) HasRoom(room string) bool {
	for _, a := range r.Rooms {
		if a == room {
			return true
		}
	}
	return false
}

// HasRecurrence 起止日期是否都存在
func (r *LessonRecord) HasRecurrence() bool {
	return r.RecurrenceStart.Valid && r.RecurrenceEnd.Valid
}

// TimeLabel 时间段标签 "HH:MM—HH:MM"（排序与展示共用）
func (r *LessonRecord) TimeLabel() string {
	return r.StartTime + "—" + r.EndTime
}

// GroupNames 按原顺序返回学生组名称，跳过名称为空的组
func (r *LessonRecord) GroupNames() []string {
	names := make([]string, 0, len(r.StudentGroups))
	for _, g := range r.StudentGroups {
		if g.Name == "" {
			continue
		}
		names = append(names, g.Name)
	}
	return names
}

// Problems 列出记录缺失的必要字段；为空表示记录完整
func (r *LessonRecord) Problems() []string {
	if r.decodeErr != "" {
		return []string{"记录无法解析: " + r.decodeErr}
	}
	var problems []string
	if len(r.Rooms) == 0 {
		problems = append(problems, "无教室")
	}
	switch {
	case !r.WeekNumbers.Present():
		problems = append(problems, "缺少周次或格式错误")
	case len(r.WeekNumbers) == 0:
		problems = append(problems, "周次为空")
	}
	for _, d := range []struct {
		name string
		date Date
	}{
		{"startLessonDate", r.RecurrenceStart},
		{"endLessonDate", r.RecurrenceEnd},
		{"dateLesson", r.SingleOccurrenceDate},
	} {
		if d.date.Malformed() {
			problems = append(problems, fmt.Sprintf("%s 无法解析", d.name))
		}
	}
	if !r.HasRecurrence() && !r.SingleOccurrenceDate.Valid {
		problems = append(problems, "无有效日期")
	}
	if strings.TrimSpace(r.StartTime) == "" || strings.TrimSpace(r.EndTime) == "" {
		problems = append(problems, "缺少上课时间")
	}
	return problems
}
