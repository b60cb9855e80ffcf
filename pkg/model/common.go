// Package model 定义排岗引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// Status 求解结果状态
type Status string

const (
	StatusOptimal    Status = "OPTIMAL"    // 已证明最优
	StatusFeasible   Status = "FEASIBLE"   // 可行但未证明最优
	StatusInfeasible Status = "INFEASIBLE" // 无可行解
	StatusError      Status = "ERROR"      // 求解过程出错
)

// RoleGeneral 通用岗位标识，不要求特定技能
const RoleGeneral = "general"

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// ContainsRange 检查时间范围是否完整包含另一个范围
// 部分覆盖不算包含
func (tr TimeRange) ContainsRange(other TimeRange) bool {
	return !other.Start.Before(tr.Start) && !other.End.After(tr.End)
}

// Problem 一次排岗求解的完整问题描述
// 构建后不可变，每次求解独立构造一份
type Problem struct {
	OrgID     uuid.UUID   `json:"org_id"`
	Employees []*Employee `json:"employees"`
	Shifts    []*Shift    `json:"shifts"`

	// 索引缓存（构造时建立，避免按ID反复扫描）
	employeeMap map[string]*Employee
	shiftMap    map[string]*Shift
}

// NewProblem 创建问题并建立ID索引
func NewProblem(orgID uuid.UUID, employees []*Employee, shifts []*Shift) *Problem {
	p := &Problem{
		OrgID:       orgID,
		Employees:   employees,
		Shifts:      shifts,
		employeeMap: make(map[string]*Employee, len(employees)),
		shiftMap:    make(map[string]*Shift, len(shifts)),
	}
	for _, e := range employees {
		p.employeeMap[e.ID] = e
	}
	for _, s := range shifts {
		p.shiftMap[s.ID] = s
	}
	return p
}

// GetEmployee 按ID获取员工
func (p *Problem) GetEmployee(id string) *Employee {
	return p.employeeMap[id]
}

// GetShift 按ID获取班次
func (p *Problem) GetShift(id string) *Shift {
	return p.shiftMap[id]
}
