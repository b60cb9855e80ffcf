// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/paigang/paigang/internal/metrics"
	"github.com/paigang/paigang/internal/repository"
	"github.com/paigang/paigang/pkg/engine"
	"github.com/paigang/paigang/pkg/errors"
	"github.com/paigang/paigang/pkg/logger"
	"github.com/paigang/paigang/pkg/model"
)

// 员工约束字段缺省值
const (
	defaultMaxWeeklyHours     = 40.0
	defaultMaxConsecutiveDays = 5
	defaultMinRestHours       = 12
	defaultHourlyRate         = 15.0
)

// RosterHandler 排岗求解处理器
type RosterHandler struct {
	engine  *engine.Engine
	repo    repository.ResultRepositoryInterface
	timeout time.Duration
}

// NewRosterHandler 创建排岗处理器，repo 为 nil 时不持久化
func NewRosterHandler(eng *engine.Engine, repo repository.ResultRepositoryInterface, timeout time.Duration) *RosterHandler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RosterHandler{engine: eng, repo: repo, timeout: timeout}
}

// SolveRequest 排岗求解请求
type SolveRequest struct {
	OrganizationID string          `json:"organization_id"`
	Employees      []EmployeeInput `json:"employees"`
	Shifts         []ShiftInput    `json:"shifts"`
}

// EmployeeInput 员工输入
type EmployeeInput struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Skills              []string            `json:"skills,omitempty"`
	Availability        []AvailabilityInput `json:"availability,omitempty"`
	MaxHoursPerDay      *float64            `json:"max_hours_per_day,omitempty"`
	MaxHoursPerWeek     *float64            `json:"max_hours_per_week,omitempty"`
	MaxConsecutiveDays  *int                `json:"max_consecutive_days,omitempty"`
	MinRestHours        *int                `json:"min_rest_hours,omitempty"`
	Preferences         map[string]int      `json:"preferences,omitempty"`
	HourlyRate          *float64            `json:"hourly_rate,omitempty"`
	PreferredLocationID string              `json:"preferred_location_id,omitempty"`
}

// AvailabilityInput 每周重复的可用时间段
type AvailabilityInput struct {
	DayOfWeek string `json:"day_of_week"` // MONDAY..SUNDAY
	StartTime string `json:"start_time"`  // HH:MM
	EndTime   string `json:"end_time"`    // HH:MM
}

// ShiftInput 班次输入
type ShiftInput struct {
	ID             string   `json:"id"`
	Role           string   `json:"role,omitempty"`
	LocationID     string   `json:"location_id,omitempty"`
	StartTime      string   `json:"start_time"` // RFC3339
	EndTime        string   `json:"end_time"`   // RFC3339
	RequiredCount  int      `json:"required_count,omitempty"`
	RequiredSkills []string `json:"required_skills,omitempty"`
}

// SolveResponse 排岗求解响应，任何调用路径都返回该结构
type SolveResponse struct {
	OrganizationID string                    `json:"organization_id,omitempty"`
	RecordID       string                    `json:"record_id,omitempty"`
	Status         model.Status              `json:"status"`
	Assignments    []model.Assignment        `json:"assignments"`
	Unassignable   []model.UnassignableShift `json:"unassignable_shifts,omitempty"`
	Metrics        model.Metrics             `json:"metrics"`
	Explanation    string                    `json:"explanation,omitempty"`
	SolveTimeMs    int64                     `json:"solve_time_ms"`
	ObjectiveCost  int64                     `json:"objective_cost"`
	Error          *ErrorInfo                `json:"error,omitempty"`
}

// ErrorInfo 响应中的错误信息
type ErrorInfo struct {
	Code    errors.Code            `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// Solve 处理排岗求解请求
func (h *RosterHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondErrorDocument(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorDocument(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	orgID, appErr := validateSolveRequest(&req)
	if appErr != nil {
		respondErrorDocument(w, appErr)
		return
	}

	problem, appErr := buildProblem(orgID, &req)
	if appErr != nil {
		respondErrorDocument(w, appErr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	metrics.SolveStarted()
	defer metrics.SolveFinished()

	start := time.Now()
	result, solveErr := h.engine.Solve(ctx, problem)
	metrics.RecordSolve(string(result.Status), time.Since(start))

	resp := SolveResponse{
		OrganizationID: req.OrganizationID,
		Status:         result.Status,
		Assignments:    result.Assignments,
		Unassignable:   result.Unassignable,
		Metrics:        result.Metrics,
		Explanation:    result.Explanation,
		SolveTimeMs:    result.SolveTimeMs,
		ObjectiveCost:  result.ObjectiveCost,
	}

	if result.IsSuccess() {
		metrics.SetSolutionQuality(req.OrganizationID,
			float64(result.Metrics.TotalScore),
			result.Metrics.CoverageRate,
			result.Metrics.FairnessScore)

		if h.repo != nil {
			record, err := h.repo.Save(ctx, orgID, result)
			if err != nil {
				logger.WithError(err).Msg("求解结果持久化失败")
			} else {
				resp.RecordID = record.ID.String()
			}
		}
	}

	status := http.StatusOK
	if solveErr != nil {
		status = errors.GetHTTPStatus(solveErr)
		resp.Error = errorInfo(solveErr)
	}
	respondJSON(w, status, resp)
}

// validateSolveRequest 在建模前校验请求文档
func validateSolveRequest(req *SolveRequest) (uuid.UUID, *errors.AppError) {
	ve := &errors.ValidationErrors{}

	if req.OrganizationID == "" {
		ve.Add("organization_id", "不能为空")
	}
	if len(req.Shifts) == 0 {
		ve.Add("shifts", "至少需要一个班次")
	}
	for i, e := range req.Employees {
		if e.ID == "" {
			ve.Add(fmt.Sprintf("employees[%d].id", i), "不能为空")
		}
		for j, a := range e.Availability {
			field := fmt.Sprintf("employees[%d].availability[%d]", i, j)
			if _, err := parseWeekday(a.DayOfWeek); err != nil {
				ve.Add(field+".day_of_week", err.Error())
			}
			if _, err := parseClock(a.StartTime); err != nil {
				ve.Add(field+".start_time", err.Error())
			}
			if _, err := parseClock(a.EndTime); err != nil {
				ve.Add(field+".end_time", err.Error())
			}
		}
	}
	for i, s := range req.Shifts {
		field := fmt.Sprintf("shifts[%d]", i)
		if s.ID == "" {
			ve.Add(field+".id", "不能为空")
		}
		if _, err := time.Parse(time.RFC3339, s.StartTime); err != nil {
			ve.Add(field+".start_time", "需要RFC3339格式时间")
		}
		if _, err := time.Parse(time.RFC3339, s.EndTime); err != nil {
			ve.Add(field+".end_time", "需要RFC3339格式时间")
		}
	}

	if ve.HasErrors() {
		return uuid.Nil, ve.ToAppError()
	}

	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式")
	}
	return orgID, nil
}

// buildProblem 把请求文档转换为求解问题
func buildProblem(orgID uuid.UUID, req *SolveRequest) (*model.Problem, *errors.AppError) {
	shifts := make([]*model.Shift, 0, len(req.Shifts))
	for _, s := range req.Shifts {
		start, _ := time.Parse(time.RFC3339, s.StartTime)
		end, _ := time.Parse(time.RFC3339, s.EndTime)

		role := s.Role
		if role == "" {
			role = model.RoleGeneral
		}
		requiredCount := s.RequiredCount
		if requiredCount == 0 {
			requiredCount = 1
		}
		shifts = append(shifts, &model.Shift{
			ID:             s.ID,
			Role:           role,
			LocationID:     s.LocationID,
			Start:          start.UTC(),
			End:            end.UTC(),
			RequiredCount:  requiredCount,
			RequiredSkills: s.RequiredSkills,
		})
	}

	periodStart, periodEnd := periodBounds(shifts)

	employees := make([]*model.Employee, 0, len(req.Employees))
	for _, e := range req.Employees {
		weekly := defaultMaxWeeklyHours
		if e.MaxHoursPerWeek != nil {
			weekly = *e.MaxHoursPerWeek
		}
		daily := weekly / 5
		if e.MaxHoursPerDay != nil {
			daily = *e.MaxHoursPerDay
		}
		consecutive := defaultMaxConsecutiveDays
		if e.MaxConsecutiveDays != nil {
			consecutive = *e.MaxConsecutiveDays
		}
		rest := defaultMinRestHours
		if e.MinRestHours != nil {
			rest = *e.MinRestHours
		}
		rate := defaultHourlyRate
		if e.HourlyRate != nil {
			rate = *e.HourlyRate
		}

		windows, err := expandAvailability(e.Availability, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}

		employees = append(employees, &model.Employee{
			ID:                  e.ID,
			Name:                e.Name,
			Skills:              e.Skills,
			Availability:        windows,
			MaxDailyHours:       daily,
			MaxPeriodHours:      weekly,
			MaxConsecutiveDays:  consecutive,
			MinRestHours:        rest,
			Preferences:         e.Preferences,
			HourlyRate:          rate,
			PreferredLocationID: e.PreferredLocationID,
		})
	}

	return model.NewProblem(orgID, employees, shifts), nil
}

// periodBounds 从班次集合推导排班周期的日期跨度
func periodBounds(shifts []*model.Shift) (time.Time, time.Time) {
	if len(shifts) == 0 {
		return time.Time{}, time.Time{}
	}
	start, end := shifts[0].Start, shifts[0].End
	for _, s := range shifts[1:] {
		if s.Start.Before(start) {
			start = s.Start
		}
		if s.End.After(end) {
			end = s.End
		}
	}
	return start.UTC().Truncate(24 * time.Hour), end.UTC().Truncate(24 * time.Hour)
}

// expandAvailability 把每周重复的可用时段展开到周期内的具体日期
// 结束早于开始的时段视为跨午夜，延伸到次日
func expandAvailability(inputs []AvailabilityInput, periodStart, periodEnd time.Time) ([]model.TimeRange, *errors.AppError) {
	if len(inputs) == 0 || periodStart.IsZero() {
		return nil, nil
	}

	var windows []model.TimeRange
	for date := periodStart; !date.After(periodEnd); date = date.AddDate(0, 0, 1) {
		for _, in := range inputs {
			weekday, err := parseWeekday(in.DayOfWeek)
			if err != nil {
				return nil, errors.InvalidInput("day_of_week", err.Error())
			}
			if date.Weekday() != weekday {
				continue
			}

			startClock, err := parseClock(in.StartTime)
			if err != nil {
				return nil, errors.InvalidInput("start_time", err.Error())
			}
			endClock, err := parseClock(in.EndTime)
			if err != nil {
				return nil, errors.InvalidInput("end_time", err.Error())
			}

			start := date.Add(startClock)
			end := date.Add(endClock)
			if !end.After(start) {
				end = end.AddDate(0, 0, 1)
			}
			windows = append(windows, model.TimeRange{Start: start, End: end})
		}
	}
	return windows, nil
}

// parseWeekday 解析星期名称
func parseWeekday(name string) (time.Weekday, error) {
	switch name {
	case "SUNDAY":
		return time.Sunday, nil
	case "MONDAY":
		return time.Monday, nil
	case "TUESDAY":
		return time.Tuesday, nil
	case "WEDNESDAY":
		return time.Wednesday, nil
	case "THURSDAY":
		return time.Thursday, nil
	case "FRIDAY":
		return time.Friday, nil
	case "SATURDAY":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("无效的星期名称: %s", name)
}

// parseClock 解析 HH:MM 时刻为当日偏移
func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("需要HH:MM格式时刻: %s", value)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回统一错误JSON
func respondError(w http.ResponseWriter, err *errors.AppError) {
	respondJSON(w, err.HTTPStatus, map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
	})
}

// respondErrorDocument 以结构化文档形式返回错误
func respondErrorDocument(w http.ResponseWriter, err *errors.AppError) {
	respondJSON(w, err.HTTPStatus, SolveResponse{
		Status:      model.StatusError,
		Assignments: []model.Assignment{},
		Explanation: err.Message,
		Error:       errorInfo(err),
	})
}

// errorInfo 把错误转换为响应中的错误信息
func errorInfo(err error) *ErrorInfo {
	code := errors.GetCode(err)
	info := &ErrorInfo{Code: code, Message: err.Error()}
	if appErr, ok := err.(*errors.AppError); ok {
		info.Message = appErr.Message
		info.Details = appErr.Details
		info.Fields = appErr.Fields
	}
	return info
}
