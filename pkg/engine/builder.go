package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/paigang/paigang/pkg/model"
	"github.com/paigang/paigang/pkg/solver"
)

// hourScale 工时系数放大倍数，求解器只接受整数系数
const hourScale = 100

// BuildResult 约束构建的输出
// NumVars 包含候选变量与连续工作日的辅助指示变量
type BuildResult struct {
	Constraints []solver.LinearConstraint
	NumVars     int
}

// hours100 班次时长换算为百分之一小时
func hours100(s *model.Shift) int64 {
	return int64(math.Round(s.LengthHours() * hourScale))
}

// cap100 工时上限换算为百分之一小时
func cap100(hours float64) int64 {
	return int64(math.Round(hours * hourScale))
}

// BuildConstraints 把问题编译为线性约束集合
// 返回值不可变，构建过程不共享任何可变模型
func BuildConstraints(p *model.Problem, cand *Candidates) BuildResult {
	var cons []solver.LinearConstraint
	cons = append(cons, coverageConstraints(p, cand)...)
	cons = append(cons, hourLimitConstraints(p, cand)...)
	cons = append(cons, restConstraints(p, cand)...)

	dayCons, numVars := consecutiveDayConstraints(p, cand)
	cons = append(cons, dayCons...)

	return BuildResult{Constraints: cons, NumVars: numVars}
}

// coverageConstraints 每个班次恰好安排所需人数
// 无候选员工的班次不进模型，由解释器单独上报
func coverageConstraints(p *model.Problem, cand *Candidates) []solver.LinearConstraint {
	var cons []solver.LinearConstraint
	for _, shift := range p.Shifts {
		vars := cand.ByShift[shift.ID]
		if len(vars) == 0 {
			continue
		}
		terms := make([]solver.Term, 0, len(vars))
		for _, v := range vars {
			terms = append(terms, solver.Term{Var: v, Coef: 1})
		}
		cons = append(cons, solver.LinearConstraint{
			Name:  fmt.Sprintf("coverage_%s", shift.ID),
			Terms: terms,
			Op:    solver.OpEq,
			Bound: int64(shift.RequiredCount),
		})
	}
	return cons
}

// hourLimitConstraints 每人每日与整个排班周期的工时上限
func hourLimitConstraints(p *model.Problem, cand *Candidates) []solver.LinearConstraint {
	var cons []solver.LinearConstraint

	shiftsByDay := groupShiftsByDay(p.Shifts)
	days := sortedDays(shiftsByDay)

	for _, emp := range p.Employees {
		varOfShift := make(map[string]int, len(cand.ByEmployee[emp.ID]))
		for _, v := range cand.ByEmployee[emp.ID] {
			varOfShift[cand.Pairs[v].Shift.ID] = v
		}

		// 单日上限
		for _, day := range days {
			var terms []solver.Term
			for _, shift := range shiftsByDay[day] {
				if v, ok := varOfShift[shift.ID]; ok {
					terms = append(terms, solver.Term{Var: v, Coef: hours100(shift)})
				}
			}
			if len(terms) > 0 {
				cons = append(cons, solver.LinearConstraint{
					Name:  fmt.Sprintf("daily_%s_%s", emp.ID, day),
					Terms: terms,
					Op:    solver.OpLe,
					Bound: cap100(emp.MaxDailyHours),
				})
			}
		}

		// 周期上限
		var terms []solver.Term
		for _, shift := range p.Shifts {
			if v, ok := varOfShift[shift.ID]; ok {
				terms = append(terms, solver.Term{Var: v, Coef: hours100(shift)})
			}
		}
		if len(terms) > 0 {
			cons = append(cons, solver.LinearConstraint{
				Name:  fmt.Sprintf("period_%s", emp.ID),
				Terms: terms,
				Op:    solver.OpLe,
				Bound: cap100(emp.MaxPeriodHours),
			})
		}
	}
	return cons
}

// restConstraints 最短休息时间：间隔不足的两个班次同一员工最多承担一个
// 对所有班次对检查，休息约束可以跨日生效
func restConstraints(p *model.Problem, cand *Candidates) []solver.LinearConstraint {
	var cons []solver.LinearConstraint

	for _, emp := range p.Employees {
		varOfShift := make(map[string]int, len(cand.ByEmployee[emp.ID]))
		for _, v := range cand.ByEmployee[emp.ID] {
			varOfShift[cand.Pairs[v].Shift.ID] = v
		}
		rest := time.Duration(emp.MinRestHours) * time.Hour

		for i := 0; i < len(p.Shifts); i++ {
			for j := i + 1; j < len(p.Shifts); j++ {
				s1, s2 := p.Shifts[i], p.Shifts[j]
				v1, ok1 := varOfShift[s1.ID]
				v2, ok2 := varOfShift[s2.ID]
				if !ok1 || !ok2 {
					continue
				}
				if s1.End.Add(rest).After(s2.Start) && s2.End.Add(rest).After(s1.Start) {
					cons = append(cons, solver.LinearConstraint{
						Name:  fmt.Sprintf("rest_%s_%s_%s", emp.ID, s1.ID, s2.ID),
						Terms: []solver.Term{{Var: v1, Coef: 1}, {Var: v2, Coef: 1}},
						Op:    solver.OpLe,
						Bound: 1,
					})
				}
			}
		}
	}
	return cons
}

// consecutiveDayConstraints 连续工作日上限
// 为每人每天引入指示变量，在排序后的日列表上滑动窗口限制
// 返回约束与总变量数（候选变量加辅助变量）
func consecutiveDayConstraints(p *model.Problem, cand *Candidates) ([]solver.LinearConstraint, int) {
	var cons []solver.LinearConstraint
	nextVar := len(cand.Pairs)

	shiftsByDay := groupShiftsByDay(p.Shifts)
	days := sortedDays(shiftsByDay)

	for _, emp := range p.Employees {
		if emp.MaxConsecutiveDays <= 0 || emp.MaxConsecutiveDays >= len(days) {
			continue
		}

		varOfShift := make(map[string]int, len(cand.ByEmployee[emp.ID]))
		for _, v := range cand.ByEmployee[emp.ID] {
			varOfShift[cand.Pairs[v].Shift.ID] = v
		}

		// 指示变量：员工当天承担了至少一个班次
		dayVar := make(map[string]int, len(days))
		for _, day := range days {
			var dayAssign []int
			for _, shift := range shiftsByDay[day] {
				if v, ok := varOfShift[shift.ID]; ok {
					dayAssign = append(dayAssign, v)
				}
			}
			if len(dayAssign) == 0 {
				continue
			}

			d := nextVar
			nextVar++
			dayVar[day] = d

			// 任一班次被分配则指示变量为1
			for _, v := range dayAssign {
				cons = append(cons, solver.LinearConstraint{
					Name:  fmt.Sprintf("worked_lb_%s_%s", emp.ID, day),
					Terms: []solver.Term{{Var: v, Coef: 1}, {Var: d, Coef: -1}},
					Op:    solver.OpLe,
					Bound: 0,
				})
			}
			// 没有班次被分配则指示变量为0
			terms := []solver.Term{{Var: d, Coef: 1}}
			for _, v := range dayAssign {
				terms = append(terms, solver.Term{Var: v, Coef: -1})
			}
			cons = append(cons, solver.LinearConstraint{
				Name:  fmt.Sprintf("worked_ub_%s_%s", emp.ID, day),
				Terms: terms,
				Op:    solver.OpLe,
				Bound: 0,
			})
		}

		// 滑动窗口：任意 max+1 个相邻日中最多工作 max 天
		maxDays := emp.MaxConsecutiveDays
		for i := 0; i+maxDays < len(days); i++ {
			var terms []solver.Term
			for _, day := range days[i : i+maxDays+1] {
				if d, ok := dayVar[day]; ok {
					terms = append(terms, solver.Term{Var: d, Coef: 1})
				}
			}
			if len(terms) > maxDays {
				cons = append(cons, solver.LinearConstraint{
					Name:  fmt.Sprintf("consecutive_%s_%s", emp.ID, days[i]),
					Terms: terms,
					Op:    solver.OpLe,
					Bound: int64(maxDays),
				})
			}
		}
	}
	return cons, nextVar
}

// groupShiftsByDay 按UTC日历日分组班次
func groupShiftsByDay(shifts []*model.Shift) map[string][]*model.Shift {
	byDay := make(map[string][]*model.Shift)
	for _, s := range shifts {
		byDay[s.Day()] = append(byDay[s.Day()], s)
	}
	return byDay
}

// sortedDays 返回升序排列的日历日键
func sortedDays(byDay map[string][]*model.Shift) []string {
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}
