package engine

import (
	"github.com/paigang/paigang/pkg/model"
	"github.com/paigang/paigang/pkg/solver"
)

// 解释器输出的面向用户的固定文案
const (
	ReasonAssigned          = "Optimal assignment by constraint solver"
	ReasonPreferredLocation = "Matches preferred location"
	WarningNightShift       = "Night shift assignment"
	WarningHighCost         = "High-cost employee"
	ReasonNoEligible        = "no eligible employees"
	ReasonConstraintBlocked = "conflicts with other constraints"
)

// 评分常量，独立于目标函数
const (
	scoreBase          = 50
	scoreLocationBonus = 20
	scoreSkillBonus    = 15
	scoreNightPenalty  = 10
	scoreCostThreshold = 25
	scoreCostPerDollar = 2
)

// InterpretSolution 把求解器取值还原为排班分配与不可分配清单
// 分配顺序跟随候选变量顺序，保证同一输入产出稳定
func InterpretSolution(p *model.Problem, cand *Candidates, sol *solver.Solution) ([]model.Assignment, []model.UnassignableShift) {
	assignments := make([]model.Assignment, 0, len(cand.Pairs))
	assignedShifts := make(map[string]bool)

	for i, c := range cand.Pairs {
		if !sol.Values[i] {
			continue
		}
		assignments = append(assignments, buildAssignment(c))
		assignedShifts[c.Shift.ID] = true
	}

	var unassignable []model.UnassignableShift
	for _, shift := range p.Shifts {
		if assignedShifts[shift.ID] {
			continue
		}
		reason := ReasonConstraintBlocked
		if len(cand.ByShift[shift.ID]) == 0 {
			reason = ReasonNoEligible
		}
		unassignable = append(unassignable, model.UnassignableShift{
			ShiftID: shift.ID,
			Reason:  reason,
		})
	}
	return assignments, unassignable
}

// buildAssignment 生成单条分配记录，附评分、原因与提醒
func buildAssignment(c Candidate) model.Assignment {
	emp, shift := c.Employee, c.Shift

	a := model.Assignment{
		ShiftID:    shift.ID,
		EmployeeID: emp.ID,
		Score:      AssignmentScore(emp, shift),
		Reasons:    []string{ReasonAssigned},
	}
	if emp.PreferredLocationID != "" && emp.PreferredLocationID == shift.LocationID {
		a.Reasons = append(a.Reasons, ReasonPreferredLocation)
	}
	if shift.IsNightShift() {
		a.Warnings = append(a.Warnings, WarningNightShift)
	}
	if emp.HourlyRate > scoreCostThreshold {
		a.Warnings = append(a.Warnings, WarningHighCost)
	}
	return a
}

// AssignmentScore 分配的合意度评分，与目标惩罚相互独立
// 基础50分，门店匹配加20，技能全匹配加15，
// 时薪每超出25元扣2分，夜班扣10分，下限为0
func AssignmentScore(emp *model.Employee, shift *model.Shift) int {
	score := scoreBase

	if emp.PreferredLocationID != "" && emp.PreferredLocationID == shift.LocationID {
		score += scoreLocationBonus
	}
	if len(shift.RequiredSkills) > 0 && emp.HasAllSkills(shift.RequiredSkills) {
		score += scoreSkillBonus
	}
	if emp.HourlyRate > scoreCostThreshold {
		score -= int((emp.HourlyRate - scoreCostThreshold) * scoreCostPerDollar)
	}
	if shift.IsNightShift() {
		score -= scoreNightPenalty
	}

	if score < 0 {
		score = 0
	}
	return score
}
