package schedule

import "sort"

// Slot 排序后的一个时间段
type Slot struct {
	Label string `json:"time"`
	Entry Entry  `json:"lesson"`
}

// Aggregate 按时间段标签字典序排序
//
// 所有标签都是固定宽度的 "HH:MM—HH:MM"，字典序即时间顺序。
// 返回新切片，不修改输入。
func Aggregate(rs ResolvedSchedule) []Slot {
	labels := make([]string, 0, len(rs))
	for label := range rs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	slots := make([]Slot, 0, len(labels))
	for _, label := range labels {
		slots = append(slots, Slot{Label: label, Entry: rs[label]})
	}
	return slots
}
