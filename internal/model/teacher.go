package model

import (
	"bytes"
	"encoding/json"
)

// Teacher 教师，对应 IIS employees/all 列表项
type Teacher struct {
	ID                 int      `json:"id"`
	URLID              string   `json:"urlId"`
	FIO                string   `json:"fio"`
	FirstName          string   `json:"firstName"`
	LastName           string   `json:"lastName"`
	MiddleName         string   `json:"middleName"`
	Degree             string   `json:"degree,omitempty"`
	Rank               string   `json:"rank,omitempty"`
	AcademicDepartment []string `json:"academicDepartment,omitempty"`
}

// DisplayName 展示名：优先 fio，缺失时拼接姓名
func (t *Teacher) DisplayName() string {
	if t.FIO != "" {
		return t.FIO
	}
	name := t.LastName
	if t.FirstName != "" {
		name += " " + string([]rune(t.FirstName)[:1]) + "."
	}
	if t.MiddleName != "" {
		name += " " + string([]rune(t.MiddleName)[:1]) + "."
	}
	return name
}

// Variant 课表版本
type Variant string

const (
	VariantCurrent  Variant = "schedules"
	VariantPrevious Variant = "previousSchedules"
)

// Variants 解析时的遍历顺序：当前版本在前，上一版本在后
var Variants = []Variant{VariantCurrent, VariantPrevious}

// DaySchedule 星期名 → 当天课程列表
type DaySchedule map[string][]LessonRecord

// UnmarshalJSON 逐条解码课程记录
//
// 单条记录结构错误（字段类型不符等）时保留一条无法匹配的占位记录，
// 同一教师的其他记录照常解析；只有整体不是对象时才返回错误。
func (d *DaySchedule) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var days map[string]json.RawMessage
	if err := json.Unmarshal(data, &days); err != nil {
		return err
	}

	out := make(DaySchedule, len(days))
	for weekday, raw := range days {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			out[weekday] = []LessonRecord{{decodeErr: err.Error()}}
			continue
		}
		lessons := make([]LessonRecord, 0, len(items))
		for _, item := range items {
			var rec LessonRecord
			if err := json.Unmarshal(item, &rec); err != nil {
				rec = LessonRecord{decodeErr: err.Error()}
			}
			lessons = append(lessons, rec)
		}
		out[weekday] = lessons
	}
	*d = out
	return nil
}

// TeacherScheduleFeed 单个教师的课表，对应 IIS employees/schedule/{urlId}
//
// 学校可能同时运行两版课表，两版都要检查，是否生效由记录的起止日期决定。
type TeacherScheduleFeed struct {
	Schedules         DaySchedule `json:"schedules"`
	PreviousSchedules DaySchedule `json:"previousSchedules"`
	StartDate         Date        `json:"startDate"`
	EndDate           Date        `json:"endDate"`
}

// EmptyFeed 获取失败时使用的空课表
func EmptyFeed() TeacherScheduleFeed {
	return TeacherScheduleFeed{
		Schedules:         DaySchedule{},
		PreviousSchedules: DaySchedule{},
	}
}

// Lessons 返回指定版本、指定星期的课程列表（缺失时为 nil）
func (f *TeacherScheduleFeed) Lessons(v Variant, weekday string) []LessonRecord {
	switch v {
	case VariantCurrent:
		return f.Schedules[weekday]
	case VariantPrevious:
		return f.PreviousSchedules[weekday]
	}
	return nil
}

// LessonCount 两版课表中的课程总数
func (f *TeacherScheduleFeed) LessonCount() int {
	n := 0
	for _, lessons := range f.Schedules {
		n += len(lessons)
	}
	for _, lessons := range f.PreviousSchedules {
		n += len(lessons)
	}
	return n
}

// EachLesson 依次遍历两版课表中的所有记录
func (f *TeacherScheduleFeed) EachLesson(fn func(v Variant, weekday string, rec *LessonRecord)) {
	for _, v := range Variants {
		days := f.Schedules
		if v == VariantPrevious {
			days = f.PreviousSchedules
		}
		for weekday, lessons := range days {
			for i := range lessons {
				fn(v, weekday, &lessons[i])
			}
		}
	}
}
