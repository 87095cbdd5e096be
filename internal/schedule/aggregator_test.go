package schedule

import (
	"reflect"
	"testing"
)

func TestAggregate_SortsByLabel(t *testing.T) {
	rs := ResolvedSchedule{
		"10:00—11:30": {Description: "A"},
		"08:00—09:30": {Description: "B"},
	}

	got := Aggregate(rs)
	want := []Slot{
		{Label: "08:00—09:30", Entry: Entry{Description: "B"}},
		{Label: "10:00—11:30", Entry: Entry{Description: "A"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Aggregate = %+v, want %+v", got, want)
	}
}

func TestAggregate_ChronologicalAndRestartable(t *testing.T) {
	rs := ResolvedSchedule{
		"17:05—18:25": {Description: "E"},
		"08:30—09:50": {Description: "A"},
		"13:45—15:05": {Description: "C"},
		"10:05—11:25": {Description: "B"},
		"15:20—16:40": {Description: "D"},
	}

	first := Aggregate(rs)
	order := ""
	for _, s := range first {
		order += s.Entry.Description
	}
	if order != "ABCDE" {
		t.Errorf("期望按时间排序 ABCDE, 实际 %s", order)
	}

	if len(rs) != 5 {
		t.Error("Aggregate 不应修改输入")
	}
	if second := Aggregate(rs); !reflect.DeepEqual(first, second) {
		t.Error("重复调用结果应一致")
	}
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(ResolvedSchedule{})
	if got == nil || len(got) != 0 {
		t.Errorf("空输入应返回空切片, 实际 %#v", got)
	}
}
