package model

// Assignment 一条排班分配：某员工承担某班次
type Assignment struct {
	ShiftID    string   `json:"shift_id"`
	EmployeeID string   `json:"employee_id"`
	Score      int      `json:"score"`
	Reasons    []string `json:"reasons,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// UnassignableShift 无法分配的班次及原因
type UnassignableShift struct {
	ShiftID string `json:"shift_id"`
	Reason  string `json:"reason"`
}

// Metrics 排班方案的量化指标
type Metrics struct {
	TotalScore          int     `json:"total_score"`
	TotalCost           float64 `json:"total_cost"`
	AvgCostPerHour      float64 `json:"avg_cost_per_hour"`
	CoverageRate        float64 `json:"coverage_rate"`
	FairnessScore       float64 `json:"fairness_score"`
	CostEfficiency      float64 `json:"cost_efficiency"`
	EmployeesUsed       int     `json:"employees_used"`
	NightShiftsAssigned int     `json:"night_shifts_assigned"`
}

// SchedulingResult 一次求解的完整结果
// 任何调用路径都返回该结构，出错时状态为 ERROR
type SchedulingResult struct {
	Status        Status              `json:"status"`
	Assignments   []Assignment        `json:"assignments"`
	Unassignable  []UnassignableShift `json:"unassignable_shifts,omitempty"`
	Metrics       Metrics             `json:"metrics"`
	Explanation   string              `json:"explanation,omitempty"`
	SolveTimeMs   int64               `json:"solve_time_ms"`
	ObjectiveCost int64               `json:"objective_cost"`
}

// IsSuccess 判断结果是否产出了可用方案
func (r *SchedulingResult) IsSuccess() bool {
	return r.Status == StatusOptimal || r.Status == StatusFeasible
}
