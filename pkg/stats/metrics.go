// Package stats 计算排班方案的质量指标与摘要
package stats

import (
	"math"

	"github.com/paigang/paigang/pkg/model"
)

// 成本效率基准：围绕每小时15元归一化，跨度20元
const (
	costBaseline = 15.0
	costSpan     = 20.0
)

// Compute 根据分配结果计算完整指标
// 没有任何分配时所有指标归零
func Compute(p *model.Problem, assignments []model.Assignment) model.Metrics {
	if len(assignments) == 0 {
		return model.Metrics{}
	}

	var (
		totalScore  int
		totalCost   float64
		totalHours  float64
		nightShifts int
	)
	empCounts := make(map[string]int)
	assignedShifts := make(map[string]bool)

	for _, a := range assignments {
		totalScore += a.Score
		empCounts[a.EmployeeID]++
		assignedShifts[a.ShiftID] = true

		emp := p.GetEmployee(a.EmployeeID)
		shift := p.GetShift(a.ShiftID)
		if emp == nil || shift == nil {
			continue
		}
		hours := shift.LengthHours()
		totalCost += emp.HourlyRate * hours
		totalHours += hours
		if shift.IsNightShift() {
			nightShifts++
		}
	}

	coverageRate := 0.0
	if len(p.Shifts) > 0 {
		coverageRate = float64(len(assignedShifts)) / float64(len(p.Shifts))
	}

	avgCostPerHour := 0.0
	if totalHours > 0 {
		avgCostPerHour = totalCost / totalHours
	}
	costEfficiency := math.Max(0, 1-(avgCostPerHour-costBaseline)/costSpan)

	return model.Metrics{
		TotalScore:          totalScore,
		TotalCost:           round2(totalCost),
		AvgCostPerHour:      round2(avgCostPerHour),
		CoverageRate:        round3(coverageRate),
		FairnessScore:       round3(Fairness(empCounts)),
		CostEfficiency:      round3(costEfficiency),
		EmployeesUsed:       len(empCounts),
		NightShiftsAssigned: nightShifts,
	}
}

// Fairness 班次分布公平度，方差越小越公平
// 只有一名员工参与时视为完全公平
func Fairness(empCounts map[string]int) float64 {
	if len(empCounts) < 2 {
		return 1.0
	}

	var sum float64
	for _, c := range empCounts {
		sum += float64(c)
	}
	mean := sum / float64(len(empCounts))
	if mean <= 0 {
		return 1.0
	}

	var variance float64
	for _, c := range empCounts {
		d := float64(c) - mean
		variance += d * d
	}
	variance /= float64(len(empCounts))

	return math.Max(0, 1-variance/mean)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
