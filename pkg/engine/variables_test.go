package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/model"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("解析时间失败: %v", err)
	}
	return parsed
}

// allDay 返回覆盖某天全天的可用时间段
func allDay(t *testing.T, day string) model.TimeRange {
	t.Helper()
	return model.TimeRange{
		Start: ts(t, day+"T00:00:00Z"),
		End:   ts(t, day+"T23:59:59Z"),
	}
}

func newEmployee(id string, skills []string, windows ...model.TimeRange) *model.Employee {
	return &model.Employee{
		ID:             id,
		Name:           "员工" + id,
		Skills:         skills,
		Availability:   windows,
		MaxDailyHours:  12,
		MaxPeriodHours: 60,
		MinRestHours:   0,
		HourlyRate:     18,
	}
}

func newShift(id, role, start, end string, t *testing.T) *model.Shift {
	return &model.Shift{
		ID:            id,
		Role:          role,
		Start:         ts(t, start),
		End:           ts(t, end),
		RequiredCount: 1,
	}
}

func TestEligible(t *testing.T) {
	window := model.TimeRange{
		Start: ts(t, "2026-03-02T08:00:00Z"),
		End:   ts(t, "2026-03-02T20:00:00Z"),
	}

	tests := []struct {
		name string
		emp  *model.Employee
		s    *model.Shift
		want bool
	}{
		{
			"岗位技能匹配且时间可用",
			newEmployee("e1", []string{"cook"}, window),
			newShift("s1", "cook", "2026-03-02T09:00:00Z", "2026-03-02T17:00:00Z", t),
			true,
		},
		{
			"缺少岗位技能",
			newEmployee("e1", []string{"server"}, window),
			newShift("s1", "cook", "2026-03-02T09:00:00Z", "2026-03-02T17:00:00Z", t),
			false,
		},
		{
			"通用岗位不要求技能",
			newEmployee("e1", nil, window),
			newShift("s1", "general", "2026-03-02T09:00:00Z", "2026-03-02T17:00:00Z", t),
			true,
		},
		{
			"缺少所需技能",
			newEmployee("e1", []string{"cook"}, window),
			&model.Shift{
				ID: "s1", Role: "cook", RequiredSkills: []string{"grill"},
				Start: ts(t, "2026-03-02T09:00:00Z"), End: ts(t, "2026-03-02T17:00:00Z"),
				RequiredCount: 1,
			},
			false,
		},
		{
			"时间段只覆盖一部分",
			newEmployee("e1", []string{"cook"}, window),
			newShift("s1", "cook", "2026-03-02T18:00:00Z", "2026-03-02T22:00:00Z", t),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(tt.emp, tt.s); got != tt.want {
				t.Errorf("Eligible() = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestBuildCandidates(t *testing.T) {
	e1 := newEmployee("e1", []string{"cook"}, allDay(t, "2026-03-02"))
	e2 := newEmployee("e2", []string{"server"}, allDay(t, "2026-03-02"))
	s1 := newShift("s1", "cook", "2026-03-02T09:00:00Z", "2026-03-02T17:00:00Z", t)
	s2 := newShift("s2", "cleaner", "2026-03-02T09:00:00Z", "2026-03-02T17:00:00Z", t)

	p := model.NewProblem(uuid.New(), []*model.Employee{e1, e2}, []*model.Shift{s1, s2})
	cand := BuildCandidates(p)

	if len(cand.Pairs) != 1 {
		t.Fatalf("候选数量 = %d, 期望 1", len(cand.Pairs))
	}
	if cand.Pairs[0].Employee.ID != "e1" || cand.Pairs[0].Shift.ID != "s1" {
		t.Errorf("候选配对 = %s/%s, 期望 e1/s1", cand.Pairs[0].Employee.ID, cand.Pairs[0].Shift.ID)
	}
	if len(cand.Uncoverable) != 1 || cand.Uncoverable[0] != "s2" {
		t.Errorf("无候选班次 = %v, 期望 [s2]", cand.Uncoverable)
	}
	if len(cand.ByEmployee["e2"]) != 0 {
		t.Errorf("员工e2不应有任何候选")
	}
}
