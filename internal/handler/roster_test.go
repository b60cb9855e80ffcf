package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/pkg/engine"
	"github.com/paigang/paigang/pkg/model"
)

func newTestHandler() *RosterHandler {
	return NewRosterHandler(engine.NewDefault(), nil, 10*time.Second)
}

func doSolve(t *testing.T, h *RosterHandler, body interface{}) (*httptest.ResponseRecorder, *SolveResponse) {
	t.Helper()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("编码请求失败: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/roster/solve", &buf)
	rec := httptest.NewRecorder()
	h.Solve(rec, req)

	resp := &SolveResponse{}
	if err := json.NewDecoder(rec.Body).Decode(resp); err != nil {
		t.Fatalf("解码响应失败: %v", err)
	}
	return rec, resp
}

func weekdayAvailability() []AvailabilityInput {
	return []AvailabilityInput{
		{DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "22:00"},
		{DayOfWeek: "TUESDAY", StartTime: "08:00", EndTime: "22:00"},
	}
}

func TestSolveEndpoint(t *testing.T) {
	req := SolveRequest{
		OrganizationID: uuid.New().String(),
		Employees: []EmployeeInput{
			{ID: "e1", Name: "张三", Skills: []string{"cook"}, Availability: weekdayAvailability()},
			{ID: "e2", Name: "李四", Skills: []string{"server"}, Availability: weekdayAvailability()},
		},
		Shifts: []ShiftInput{
			// 2026-03-02 是周一
			{ID: "s1", Role: "cook", StartTime: "2026-03-02T09:00:00Z", EndTime: "2026-03-02T17:00:00Z"},
			{ID: "s2", Role: "server", StartTime: "2026-03-03T09:00:00Z", EndTime: "2026-03-03T17:00:00Z"},
		},
	}

	rec, resp := doSolve(t, newTestHandler(), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("HTTP状态 = %d, 期望 200, 响应: %s", rec.Code, rec.Body.String())
	}
	if resp.Status != model.StatusOptimal {
		t.Errorf("状态 = %s, 期望 OPTIMAL", resp.Status)
	}
	if len(resp.Assignments) != 2 {
		t.Errorf("分配数量 = %d, 期望 2", len(resp.Assignments))
	}
	if resp.Metrics.CoverageRate != 1.0 {
		t.Errorf("覆盖率 = %v, 期望 1.0", resp.Metrics.CoverageRate)
	}
	if resp.Error != nil {
		t.Errorf("成功求解不应携带错误: %+v", resp.Error)
	}
}

func TestSolveEndpointUnassignableShift(t *testing.T) {
	req := SolveRequest{
		OrganizationID: uuid.New().String(),
		Employees: []EmployeeInput{
			{ID: "e1", Name: "张三", Skills: []string{"cook"}, Availability: weekdayAvailability()},
		},
		Shifts: []ShiftInput{
			{ID: "s1", Role: "cook", StartTime: "2026-03-02T09:00:00Z", EndTime: "2026-03-02T17:00:00Z"},
			{ID: "s2", Role: "pilot", StartTime: "2026-03-03T09:00:00Z", EndTime: "2026-03-03T17:00:00Z"},
		},
	}

	rec, resp := doSolve(t, newTestHandler(), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("HTTP状态 = %d, 期望 200", rec.Code)
	}
	if len(resp.Unassignable) != 1 || resp.Unassignable[0].ShiftID != "s2" {
		t.Errorf("不可分配 = %+v, 期望仅s2", resp.Unassignable)
	}
	if resp.Unassignable[0].Reason != engine.ReasonNoEligible {
		t.Errorf("原因 = %q, 期望无符合条件员工", resp.Unassignable[0].Reason)
	}
}

func TestSolveEndpointValidation(t *testing.T) {
	tests := []struct {
		name     string
		req      SolveRequest
		wantCode int
	}{
		{
			"缺少组织ID",
			SolveRequest{
				Shifts: []ShiftInput{{ID: "s1", StartTime: "2026-03-02T09:00:00Z", EndTime: "2026-03-02T17:00:00Z"}},
			},
			http.StatusBadRequest,
		},
		{
			"组织ID格式错误",
			SolveRequest{
				OrganizationID: "not-a-uuid",
				Shifts:         []ShiftInput{{ID: "s1", StartTime: "2026-03-02T09:00:00Z", EndTime: "2026-03-02T17:00:00Z"}},
			},
			http.StatusBadRequest,
		},
		{
			"没有班次",
			SolveRequest{OrganizationID: uuid.New().String()},
			http.StatusBadRequest,
		},
		{
			"班次时间格式错误",
			SolveRequest{
				OrganizationID: uuid.New().String(),
				Shifts:         []ShiftInput{{ID: "s1", StartTime: "昨天", EndTime: "今天"}},
			},
			http.StatusBadRequest,
		},
		{
			"星期名称错误",
			SolveRequest{
				OrganizationID: uuid.New().String(),
				Employees: []EmployeeInput{{
					ID: "e1",
					Availability: []AvailabilityInput{
						{DayOfWeek: "星期一", StartTime: "08:00", EndTime: "17:00"},
					},
				}},
				Shifts: []ShiftInput{{ID: "s1", StartTime: "2026-03-02T09:00:00Z", EndTime: "2026-03-02T17:00:00Z"}},
			},
			http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := doSolve(t, newTestHandler(), tt.req)
			if rec.Code != tt.wantCode {
				t.Errorf("HTTP状态 = %d, 期望 %d", rec.Code, tt.wantCode)
			}
			if resp.Status != model.StatusError {
				t.Errorf("文档状态 = %s, 期望 ERROR", resp.Status)
			}
			if resp.Error == nil {
				t.Error("错误文档应携带错误信息")
			}
		})
	}
}

func TestSolveEndpointRejectsGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/roster/solve", nil)
	rec := httptest.NewRecorder()
	newTestHandler().Solve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("HTTP状态 = %d, 期望 400", rec.Code)
	}
}

func TestSolveEndpointMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/roster/solve", bytes.NewBufferString("{不是JSON"))
	rec := httptest.NewRecorder()
	newTestHandler().Solve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("HTTP状态 = %d, 期望 400", rec.Code)
	}
}

func TestExpandAvailability(t *testing.T) {
	// 周期 2026-03-02（周一）到 2026-03-08（周日）
	periodStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	windows, err := expandAvailability([]AvailabilityInput{
		{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "17:00"},
	}, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("展开失败: %v", err)
	}

	if len(windows) != 1 {
		t.Fatalf("窗口数量 = %d, 期望 1", len(windows))
	}
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if !windows[0].Start.Equal(want) {
		t.Errorf("窗口开始 = %v, 期望 %v", windows[0].Start, want)
	}
	if windows[0].Duration() != 8*time.Hour {
		t.Errorf("窗口时长 = %v, 期望 8h", windows[0].Duration())
	}
}

func TestExpandAvailabilityOvernight(t *testing.T) {
	periodStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	windows, err := expandAvailability([]AvailabilityInput{
		{DayOfWeek: "MONDAY", StartTime: "22:00", EndTime: "06:00"},
	}, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("展开失败: %v", err)
	}

	if len(windows) != 1 {
		t.Fatalf("窗口数量 = %d, 期望 1", len(windows))
	}
	// 跨午夜的时段延伸到次日
	if windows[0].Duration() != 8*time.Hour {
		t.Errorf("窗口时长 = %v, 期望 8h", windows[0].Duration())
	}
	if windows[0].End.Day() != 3 {
		t.Errorf("窗口结束日 = %d, 期望次日", windows[0].End.Day())
	}
}

func TestPeriodBounds(t *testing.T) {
	shifts := []*model.Shift{
		{Start: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 4, 17, 0, 0, 0, time.UTC)},
		{Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)},
	}

	start, end := periodBounds(shifts)
	if !start.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("周期开始 = %v", start)
	}
	if !end.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("周期结束 = %v", end)
	}
}

func TestEmployeeDefaults(t *testing.T) {
	orgID := uuid.New()
	req := &SolveRequest{
		Employees: []EmployeeInput{{ID: "e1"}},
		Shifts: []ShiftInput{
			{ID: "s1", StartTime: "2026-03-02T09:00:00Z", EndTime: "2026-03-02T17:00:00Z"},
		},
	}

	p, appErr := buildProblem(orgID, req)
	if appErr != nil {
		t.Fatalf("构建问题失败: %v", appErr)
	}

	emp := p.GetEmployee("e1")
	if emp.MaxPeriodHours != 40 {
		t.Errorf("周期工时缺省 = %v, 期望 40", emp.MaxPeriodHours)
	}
	if emp.MaxDailyHours != 8 {
		t.Errorf("单日工时缺省 = %v, 期望 8", emp.MaxDailyHours)
	}
	if emp.MaxConsecutiveDays != 5 {
		t.Errorf("连续工作日缺省 = %d, 期望 5", emp.MaxConsecutiveDays)
	}
	if emp.MinRestHours != 12 {
		t.Errorf("最短休息缺省 = %d, 期望 12", emp.MinRestHours)
	}
	if emp.HourlyRate != 15 {
		t.Errorf("时薪缺省 = %v, 期望 15", emp.HourlyRate)
	}

	shift := p.GetShift("s1")
	if shift.Role != model.RoleGeneral {
		t.Errorf("岗位缺省 = %s, 期望 general", shift.Role)
	}
	if shift.RequiredCount != 1 {
		t.Errorf("所需人数缺省 = %d, 期望 1", shift.RequiredCount)
	}
}
