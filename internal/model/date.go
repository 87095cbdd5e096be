package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout IIS 接口使用的日期格式（dd.MM.yyyy）
const DateLayout = "02.01.2006"

// Date 可选的日历日期
//
// Valid=false 表示字段缺失、为 null、为空串或无法解析。
// Time 固定为 UTC 零点，只比较年月日。
type Date struct {
	Time  time.Time
	Valid bool

	raw string // 无法解析时保留原文，用于日志
}

// DateOf 取 t 在其自身时区下的日历日期
func DateOf(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
}

// ParseDate 解析 dd.MM.yyyy 格式日期（严格校验，31.02 之类视为无效）
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("无法解析日期 %q: %w", s, err)
	}
	return Date{Time: t, Valid: true}, nil
}

// Malformed 字段存在但无法解析
func (d Date) Malformed() bool {
	return !d.Valid && d.raw != ""
}

// Equal 两个有效日期是否为同一天
func (d Date) Equal(o Date) bool {
	return d.Valid && o.Valid && d.Time.Equal(o.Time)
}

// Before 日历日期 d 是否早于 o
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After 日历日期 d 是否晚于 o
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// String 返回 dd.MM.yyyy，无效日期返回空串
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// UnmarshalJSON 接受 "dd.MM.yyyy"、""、null
// 非字符串或格式错误都不报错，保留原文并标记为无效
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		d.raw = string(data)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		// 单条记录的日期错误不应导致整个教师课表解析失败
		d.raw = strings.TrimSpace(s)
		return nil
	}
	*d = parsed
	return nil
}

// MarshalJSON 缺失输出 null，无法解析的保留原文
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		if d.raw != "" {
			return json.Marshal(d.raw)
		}
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}
