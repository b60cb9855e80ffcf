package solver

import (
	"context"
	"testing"
	"time"
)

func solveModel(t *testing.T, m *Model) *Solution {
	t.Helper()
	sol, err := NewCPSolver().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	return sol
}

func TestSolveCoverageEquality(t *testing.T) {
	m := &Model{
		NumVars: 2,
		Constraints: []LinearConstraint{
			{Name: "coverage", Terms: []Term{{Var: 0, Coef: 1}, {Var: 1, Coef: 1}}, Op: OpEq, Bound: 1},
		},
		Objective: []int64{5, 3},
	}

	sol := solveModel(t, m)
	if sol.Status != StatusOptimal {
		t.Fatalf("状态 = %v, 期望 optimal", sol.Status)
	}
	if sol.Objective != 3 {
		t.Errorf("目标值 = %d, 期望 3", sol.Objective)
	}
	if sol.Values[0] || !sol.Values[1] {
		t.Errorf("取值 = %v, 期望选择成本更低的变量1", sol.Values)
	}
}

func TestSolveInfeasibleEquality(t *testing.T) {
	m := &Model{
		NumVars: 2,
		Constraints: []LinearConstraint{
			{Terms: []Term{{Var: 0, Coef: 1}, {Var: 1, Coef: 1}}, Op: OpEq, Bound: 3},
		},
		Objective: []int64{0, 0},
	}

	sol := solveModel(t, m)
	if sol.Status != StatusInfeasible {
		t.Errorf("状态 = %v, 期望 infeasible", sol.Status)
	}
}

func TestSolveNegativeObjective(t *testing.T) {
	// 互斥约束下应选择目标贡献最小的那个变量
	m := &Model{
		NumVars: 2,
		Constraints: []LinearConstraint{
			{Terms: []Term{{Var: 0, Coef: 1}, {Var: 1, Coef: 1}}, Op: OpLe, Bound: 1},
		},
		Objective: []int64{-5, -3},
	}

	sol := solveModel(t, m)
	if sol.Status != StatusOptimal {
		t.Fatalf("状态 = %v, 期望 optimal", sol.Status)
	}
	if sol.Objective != -5 {
		t.Errorf("目标值 = %d, 期望 -5", sol.Objective)
	}
	if !sol.Values[0] || sol.Values[1] {
		t.Errorf("取值 = %v, 期望只选变量0", sol.Values)
	}
}

func TestSolveCapacityConstraint(t *testing.T) {
	// 三个变量各占200个单位，上限500，最多取两个
	m := &Model{
		NumVars: 3,
		Constraints: []LinearConstraint{
			{Terms: []Term{{Var: 0, Coef: 200}, {Var: 1, Coef: 200}, {Var: 2, Coef: 200}}, Op: OpLe, Bound: 500},
		},
		Objective: []int64{-1, -1, -1},
	}

	sol := solveModel(t, m)
	if sol.Status != StatusOptimal {
		t.Fatalf("状态 = %v, 期望 optimal", sol.Status)
	}
	if sol.Objective != -2 {
		t.Errorf("目标值 = %d, 期望 -2（最多两个变量取1）", sol.Objective)
	}
}

func TestSolveEmptyModel(t *testing.T) {
	sol := solveModel(t, &Model{NumVars: 0, Objective: []int64{}})
	if sol.Status != StatusOptimal {
		t.Errorf("状态 = %v, 期望 optimal", sol.Status)
	}
}

func TestSolveEmptyConstraintInfeasible(t *testing.T) {
	m := &Model{
		NumVars: 1,
		Constraints: []LinearConstraint{
			{Terms: nil, Op: OpEq, Bound: 2},
		},
		Objective: []int64{0},
	}

	sol := solveModel(t, m)
	if sol.Status != StatusInfeasible {
		t.Errorf("状态 = %v, 期望 infeasible", sol.Status)
	}
}

func TestSolveMalformedModel(t *testing.T) {
	tests := []struct {
		name string
		m    *Model
	}{
		{
			"变量下标越界",
			&Model{
				NumVars:     1,
				Constraints: []LinearConstraint{{Terms: []Term{{Var: 5, Coef: 1}}, Op: OpEq, Bound: 1}},
				Objective:   []int64{0},
			},
		},
		{
			"目标系数数量不匹配",
			&Model{NumVars: 2, Objective: []int64{1}},
		},
		{
			"负数变量下标",
			&Model{
				NumVars:     1,
				Constraints: []LinearConstraint{{Terms: []Term{{Var: -1, Coef: 1}}, Op: OpLe, Bound: 1}},
				Objective:   []int64{0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCPSolver().Solve(context.Background(), tt.m)
			if err == nil {
				t.Error("期望返回求解器故障错误，实际为 nil")
			}
		})
	}
}

func TestSolveParallelWorkersAgree(t *testing.T) {
	// 多协程搜索与单协程应得到相同的最优目标值
	m := &Model{
		NumVars: 6,
		Constraints: []LinearConstraint{
			{Terms: []Term{{Var: 0, Coef: 1}, {Var: 1, Coef: 1}}, Op: OpEq, Bound: 1},
			{Terms: []Term{{Var: 2, Coef: 1}, {Var: 3, Coef: 1}}, Op: OpEq, Bound: 1},
			{Terms: []Term{{Var: 4, Coef: 1}, {Var: 5, Coef: 1}}, Op: OpEq, Bound: 1},
			{Terms: []Term{{Var: 0, Coef: 1}, {Var: 2, Coef: 1}}, Op: OpLe, Bound: 1},
		},
		Objective: []int64{4, 7, 2, 9, -3, 5},
	}

	single := solveModel(t, &Model{
		NumVars: m.NumVars, Constraints: m.Constraints, Objective: m.Objective, Workers: 1,
	})
	multi := solveModel(t, &Model{
		NumVars: m.NumVars, Constraints: m.Constraints, Objective: m.Objective, Workers: 4,
	})

	if single.Status != StatusOptimal || multi.Status != StatusOptimal {
		t.Fatalf("状态 = %v/%v, 期望均为 optimal", single.Status, multi.Status)
	}
	if single.Objective != multi.Objective {
		t.Errorf("单协程目标值 %d 与多协程 %d 不一致", single.Objective, multi.Objective)
	}
}

func TestSolveWithTimeLimitReturnsSolution(t *testing.T) {
	// 宽裕的时限下小模型应正常求到最优
	m := &Model{
		NumVars: 2,
		Constraints: []LinearConstraint{
			{Terms: []Term{{Var: 0, Coef: 1}, {Var: 1, Coef: 1}}, Op: OpEq, Bound: 1},
		},
		Objective: []int64{1, 2},
		TimeLimit: 5 * time.Second,
	}

	sol := solveModel(t, m)
	if sol.Status != StatusOptimal {
		t.Errorf("状态 = %v, 期望 optimal", sol.Status)
	}
	if len(sol.Values) != 2 {
		t.Errorf("取值数量 = %d, 期望 2", len(sol.Values))
	}
}
