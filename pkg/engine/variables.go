// Package engine 实现排班问题到布尔线性模型的编译与解的还原
package engine

import (
	"github.com/paigang/paigang/pkg/model"
)

// Candidate 一个可行的员工-班次配对
// 在求解模型中对应一个布尔决策变量
type Candidate struct {
	Employee *model.Employee
	Shift    *model.Shift
}

// Candidates 可行性过滤的输出
// Pairs 的下标就是求解器中的变量下标
type Candidates struct {
	Pairs      []Candidate
	ByShift    map[string][]int
	ByEmployee map[string][]int
	// Uncoverable 没有任何候选员工的班次ID，保持输入顺序
	Uncoverable []string
}

// Eligible 判断员工能否承担班次
// 要求技能匹配、岗位匹配，且某个可用时间段完整覆盖班次区间
func Eligible(e *model.Employee, s *model.Shift) bool {
	if s.Role != model.RoleGeneral && !e.HasAllSkills(s.RequiredSkills) {
		return false
	}
	if s.Role != model.RoleGeneral && !e.HasSkill(s.Role) {
		return false
	}
	return e.IsAvailableFor(s.Start, s.End)
}

// BuildCandidates 枚举全部可行配对并建立双向索引
func BuildCandidates(p *model.Problem) *Candidates {
	c := &Candidates{
		ByShift:    make(map[string][]int, len(p.Shifts)),
		ByEmployee: make(map[string][]int, len(p.Employees)),
	}

	for _, emp := range p.Employees {
		for _, shift := range p.Shifts {
			if !Eligible(emp, shift) {
				continue
			}
			idx := len(c.Pairs)
			c.Pairs = append(c.Pairs, Candidate{Employee: emp, Shift: shift})
			c.ByShift[shift.ID] = append(c.ByShift[shift.ID], idx)
			c.ByEmployee[emp.ID] = append(c.ByEmployee[emp.ID], idx)
		}
	}

	for _, shift := range p.Shifts {
		if len(c.ByShift[shift.ID]) == 0 {
			c.Uncoverable = append(c.Uncoverable, shift.ID)
		}
	}
	return c
}
