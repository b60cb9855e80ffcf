// Package solver 提供布尔线性模型的求解器抽象
// 引擎只依赖 Solver 接口，具体搜索实现可替换
package solver

import (
	"context"
	"fmt"
	"math"
	"time"

	apperrors "github.com/paigang/paigang/pkg/errors"
)

// Status 求解器返回的状态
type Status int

const (
	StatusOptimal    Status = iota // 找到解且已证明最优
	StatusFeasible                 // 找到解但未证明最优
	StatusInfeasible               // 已证明无可行解
	StatusAborted                  // 超时且无任何可行解
)

// String 返回状态的可读名称
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Op 线性约束的比较算子
type Op int

const (
	OpEq Op = iota // 等于
	OpLe           // 小于等于
)

// Term 线性约束中的一项：变量下标与整数系数
type Term struct {
	Var  int
	Coef int64
}

// LinearConstraint 布尔变量上的线性约束
// sum(Coef[i] * x[Var[i]]) Op Bound
type LinearConstraint struct {
	Name  string
	Terms []Term
	Op    Op
	Bound int64
}

// Model 待求解的布尔线性模型
// 构建完成后不再修改
type Model struct {
	NumVars     int
	Constraints []LinearConstraint
	// Objective 目标函数系数，长度等于 NumVars，目标为最小化
	Objective []int64
	TimeLimit time.Duration
	Workers   int
}

// Solution 求解结果
type Solution struct {
	Status    Status
	Values    []bool
	Objective int64
}

// Solver 求解器接口
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

// validateModel 检查模型结构是否合法
// 变量下标越界或系数累加可能溢出时拒绝求解
func validateModel(m *Model) error {
	if m == nil {
		return apperrors.SolverFault("模型为空")
	}
	if m.NumVars < 0 {
		return apperrors.SolverFault(fmt.Sprintf("变量数非法: %d", m.NumVars))
	}
	if len(m.Objective) != m.NumVars {
		return apperrors.SolverFault(fmt.Sprintf("目标系数数量 %d 与变量数 %d 不一致", len(m.Objective), m.NumVars))
	}

	var objAbs uint64
	for _, c := range m.Objective {
		objAbs += absU64(c)
		if objAbs > math.MaxInt64 {
			return apperrors.SolverFault("目标系数累加溢出")
		}
	}

	for ci, cons := range m.Constraints {
		var sumAbs uint64
		for _, term := range cons.Terms {
			if term.Var < 0 || term.Var >= m.NumVars {
				return apperrors.SolverFault(fmt.Sprintf("约束 %d 引用了非法变量下标 %d", ci, term.Var))
			}
			sumAbs += absU64(term.Coef)
			if sumAbs > math.MaxInt64 {
				return apperrors.SolverFault(fmt.Sprintf("约束 %d 系数累加溢出", ci))
			}
		}
	}
	return nil
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}
