package stats

import (
	"fmt"
	"strings"

	"github.com/paigang/paigang/pkg/model"
)

// Explain 生成排班结果的可读摘要，固定顺序便于前端展示与比对
func Explain(totalShifts, assigned int, m model.Metrics) string {
	parts := []string{
		fmt.Sprintf("Successfully assigned %d out of %d shifts", assigned, totalShifts),
		fmt.Sprintf("Coverage rate: %.1f%%", m.CoverageRate*100),
		fmt.Sprintf("Fairness score: %.2f/1.0", m.FairnessScore),
		fmt.Sprintf("Cost efficiency: %.2f/1.0", m.CostEfficiency),
		fmt.Sprintf("Using %d employees", m.EmployeesUsed),
	}
	if m.NightShiftsAssigned > 0 {
		parts = append(parts, fmt.Sprintf("%d night shifts distributed", m.NightShiftsAssigned))
	}
	return strings.Join(parts, " | ")
}

// ExplainInfeasible 无可行解时的摘要
func ExplainInfeasible() string {
	return "No feasible solution exists with current constraints. Try relaxing some constraints."
}

// ExplainError 求解出错时的摘要
func ExplainError(err error) string {
	return fmt.Sprintf("Solver error: %v", err)
}
