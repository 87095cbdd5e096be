package schedule

import (
	"net/url"
	"strings"
	"time"
)

// DisplayDateLayout 展示用日期格式
const DisplayDateLayout = "02.01.2006"

// RoomSlots 一个教室的排序后课程
type RoomSlots struct {
	Room  string `json:"room"`
	Slots []Slot `json:"slots"`
}

// WeekHeader 标题行，如 "15.10.2026 (Четверг), 3-я учебная неделя 🗓️"
func WeekHeader(date time.Time, week Week) string {
	prefix := date.Format(DisplayDateLayout) + " (" + WeekdayName(date) + "), "
	if !week.Valid() {
		return prefix + "учебная неделя неизвестна"
	}
	return prefix + week.String() + "-я учебная неделя 🗓️"
}

// RoomHeader 教室分隔行
func RoomHeader(room string) string {
	return "———" + room + "———"
}

// SlotLine 单个时间段的文本行
func SlotLine(slot Slot) string {
	return slot.Label + " —— " + slot.Entry.Description
}

// RenderText 生成可复制的纯文本：标题行、空行、各教室块
func RenderText(date time.Time, week Week, rooms []RoomSlots) string {
	var b strings.Builder
	b.WriteString(WeekHeader(date, week))
	b.WriteString("\n\n")

	for i, r := range rooms {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(RoomHeader(r.Room))
		for _, slot := range r.Slots {
			b.WriteString("\n")
			b.WriteString(SlotLine(slot))
		}
	}
	return b.String()
}

// TelegramShareURL 生成 Telegram 分享链接
func TelegramShareURL(text string) string {
	// 与 encodeURIComponent 一致，空格编码为 %20
	return "tg://msg?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// GroupURL 学生组课表页面地址
func GroupURL(base, group string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(group)
}
