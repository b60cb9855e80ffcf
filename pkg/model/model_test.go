package model

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("解析时间失败: %v", err)
	}
	return ts
}

func TestShiftIsNightShift(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"白班不是夜班", "2026-03-02T09:00:00Z", "2026-03-02T17:00:00Z", false},
		{"20点开始算夜班", "2026-03-02T20:00:00Z", "2026-03-03T02:00:00Z", true},
		{"6点前结束算夜班", "2026-03-02T22:00:00Z", "2026-03-03T05:00:00Z", true},
		{"恰好6点结束算夜班", "2026-03-02T00:00:00Z", "2026-03-02T06:00:00Z", true},
		{"7点结束的早班不算", "2026-03-02T07:00:00Z", "2026-03-02T15:00:00Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Shift{Start: mustTime(t, tt.start), End: mustTime(t, tt.end)}
			if got := s.IsNightShift(); got != tt.want {
				t.Errorf("IsNightShift() = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestShiftPenaltyFactor(t *testing.T) {
	tests := []struct {
		name  string
		start string
		want  int
	}{
		{"工作日白班系数为1", "2026-03-02T09:00:00Z", 1},
		{"夜间开始系数加倍", "2026-03-02T20:00:00Z", 2},
		{"周六班次系数加倍", "2026-03-07T09:00:00Z", 2},
		{"周日班次系数加倍", "2026-03-08T09:00:00Z", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Shift{
				Start: mustTime(t, tt.start),
				End:   mustTime(t, tt.start).Add(8 * time.Hour),
			}
			if got := s.PenaltyFactor(); got != tt.want {
				t.Errorf("PenaltyFactor() = %d, 期望 %d", got, tt.want)
			}
		})
	}
}

func TestEmployeeIsAvailableFor(t *testing.T) {
	emp := &Employee{
		ID: "emp1",
		Availability: []TimeRange{
			{Start: mustTime(t, "2026-03-02T08:00:00Z"), End: mustTime(t, "2026-03-02T18:00:00Z")},
		},
	}

	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"完整覆盖可用", "2026-03-02T09:00:00Z", "2026-03-02T17:00:00Z", true},
		{"边界对齐可用", "2026-03-02T08:00:00Z", "2026-03-02T18:00:00Z", true},
		{"开始早于窗口不可用", "2026-03-02T07:00:00Z", "2026-03-02T12:00:00Z", false},
		{"结束晚于窗口不可用", "2026-03-02T12:00:00Z", "2026-03-02T19:00:00Z", false},
		{"其他日期不可用", "2026-03-03T09:00:00Z", "2026-03-03T17:00:00Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := emp.IsAvailableFor(mustTime(t, tt.start), mustTime(t, tt.end))
			if got != tt.want {
				t.Errorf("IsAvailableFor() = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestEmployeeHasAllSkills(t *testing.T) {
	emp := &Employee{ID: "emp1", Skills: []string{"cooking", "cleaning"}}

	tests := []struct {
		name   string
		skills []string
		want   bool
	}{
		{"全部具备", []string{"cooking"}, true},
		{"空要求恒为真", nil, true},
		{"缺少一项", []string{"cooking", "serving"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emp.HasAllSkills(tt.skills); got != tt.want {
				t.Errorf("HasAllSkills(%v) = %v, 期望 %v", tt.skills, got, tt.want)
			}
		})
	}
}

func TestTimeRangeContainsRange(t *testing.T) {
	outer := TimeRange{
		Start: mustTime(t, "2026-03-02T08:00:00Z"),
		End:   mustTime(t, "2026-03-02T18:00:00Z"),
	}
	inner := TimeRange{
		Start: mustTime(t, "2026-03-02T09:00:00Z"),
		End:   mustTime(t, "2026-03-02T17:00:00Z"),
	}

	if !outer.ContainsRange(inner) {
		t.Error("外层范围应包含内层范围")
	}
	if inner.ContainsRange(outer) {
		t.Error("内层范围不应包含外层范围")
	}
	if !outer.Overlaps(inner) {
		t.Error("两个范围应重叠")
	}
}
