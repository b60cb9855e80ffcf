package engine

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/paigang/paigang/pkg/errors"
	"github.com/paigang/paigang/pkg/logger"
	"github.com/paigang/paigang/pkg/model"
	"github.com/paigang/paigang/pkg/solver"
	"github.com/paigang/paigang/pkg/stats"
)

// 默认求解参数
const (
	DefaultTimeLimit = 30 * time.Second
	DefaultWorkers   = 4
)

// ReasonNoFeasible 整体无可行解时每个班次的统一原因
const ReasonNoFeasible = "No feasible assignment found"

// Options 求解选项
type Options struct {
	TimeLimit time.Duration
	Workers   int
}

// Engine 排班求解引擎
// 负责校验、编译、求解、解释的完整流程
type Engine struct {
	solver solver.Solver
	opts   Options
	log    *logger.SolveLogger
}

// New 创建引擎，未填的选项取默认值
func New(s solver.Solver, opts Options) *Engine {
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = DefaultTimeLimit
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Engine{solver: s, opts: opts, log: logger.NewSolveLogger()}
}

// NewDefault 创建使用内置分支定界求解器的引擎
func NewDefault() *Engine {
	return New(solver.NewCPSolver(), Options{})
}

// Solve 求解排班问题
// 任何路径都返回非空结果；出错时结果状态为 ERROR 并附带错误
func (e *Engine) Solve(ctx context.Context, p *model.Problem) (result *model.SchedulingResult, err error) {
	start := time.Now()

	// 求解器实现异常不允许击穿调用方
	defer func() {
		if r := recover(); r != nil {
			appErr := apperrors.SolverFault(fmt.Sprintf("panic: %v", r))
			logger.WithError(appErr).Msg("求解过程发生panic")
			result = errorResult(appErr, time.Since(start))
			err = appErr
		}
	}()

	if vErr := ValidateProblem(p); vErr != nil {
		return errorResult(vErr, time.Since(start)), vErr
	}

	e.log.StartSolve(p.OrgID.String(), len(p.Employees), len(p.Shifts))

	cand := BuildCandidates(p)
	for _, shiftID := range cand.Uncoverable {
		e.log.ShiftUnassignable(shiftID, ReasonNoEligible)
	}

	build := BuildConstraints(p, cand)
	obj := BuildObjective(cand, build.NumVars)
	e.log.ModelBuilt(build.NumVars, len(build.Constraints))

	sol, solveErr := e.solver.Solve(ctx, &solver.Model{
		NumVars:     build.NumVars,
		Constraints: build.Constraints,
		Objective:   obj,
		TimeLimit:   e.opts.TimeLimit,
		Workers:     e.opts.Workers,
	})
	elapsed := time.Since(start)

	if solveErr != nil {
		appErr := apperrors.Wrap(solveErr, apperrors.CodeSolverFault, "求解器拒绝模型")
		e.log.SolveComplete(p.OrgID.String(), string(model.StatusError), elapsed, 0)
		return errorResult(appErr, elapsed), appErr
	}

	result = e.interpret(p, cand, sol, elapsed)
	e.log.SolveComplete(p.OrgID.String(), string(result.Status), elapsed, len(result.Assignments))

	switch result.Status {
	case model.StatusInfeasible:
		return result, apperrors.ModelInfeasible(stats.ExplainInfeasible())
	case model.StatusError:
		timeoutErr := apperrors.New(apperrors.CodeSolverTimeout, "求解超时且未找到可行解")
		return result, timeoutErr
	default:
		return result, nil
	}
}

// interpret 把求解器输出转换为排班结果
func (e *Engine) interpret(p *model.Problem, cand *Candidates, sol *solver.Solution, elapsed time.Duration) *model.SchedulingResult {
	switch sol.Status {
	case solver.StatusOptimal, solver.StatusFeasible:
		assignments, unassignable := InterpretSolution(p, cand, sol)
		metrics := stats.Compute(p, assignments)

		status := model.StatusFeasible
		if sol.Status == solver.StatusOptimal {
			status = model.StatusOptimal
		}
		return &model.SchedulingResult{
			Status:        status,
			Assignments:   assignments,
			Unassignable:  unassignable,
			Metrics:       metrics,
			Explanation:   stats.Explain(len(p.Shifts), len(assignments), metrics),
			SolveTimeMs:   elapsed.Milliseconds(),
			ObjectiveCost: sol.Objective,
		}

	case solver.StatusInfeasible:
		unassignable := make([]model.UnassignableShift, 0, len(p.Shifts))
		for _, shift := range p.Shifts {
			unassignable = append(unassignable, model.UnassignableShift{
				ShiftID: shift.ID,
				Reason:  ReasonNoFeasible,
			})
		}
		return &model.SchedulingResult{
			Status:       model.StatusInfeasible,
			Assignments:  []model.Assignment{},
			Unassignable: unassignable,
			Explanation:  stats.ExplainInfeasible(),
			SolveTimeMs:  elapsed.Milliseconds(),
		}

	default:
		// 超时且一个可行解都没有
		return &model.SchedulingResult{
			Status:      model.StatusError,
			Assignments: []model.Assignment{},
			Explanation: "Solver aborted before finding any feasible solution",
			SolveTimeMs: elapsed.Milliseconds(),
		}
	}
}

// errorResult 构造状态为 ERROR 的结果
func errorResult(err error, elapsed time.Duration) *model.SchedulingResult {
	return &model.SchedulingResult{
		Status:      model.StatusError,
		Assignments: []model.Assignment{},
		Explanation: stats.ExplainError(err),
		SolveTimeMs: elapsed.Milliseconds(),
	}
}

// ValidateProblem 在建模前校验问题数据
func ValidateProblem(p *model.Problem) *apperrors.AppError {
	ve := &apperrors.ValidationErrors{}

	if p == nil {
		ve.Add("problem", "问题不能为空")
		return ve.ToAppError()
	}

	seenEmp := make(map[string]bool, len(p.Employees))
	for i, emp := range p.Employees {
		field := fmt.Sprintf("employees[%d]", i)
		if emp.ID == "" {
			ve.Add(field+".id", "员工ID不能为空")
			continue
		}
		if seenEmp[emp.ID] {
			ve.Add(field+".id", fmt.Sprintf("员工ID重复: %s", emp.ID))
		}
		seenEmp[emp.ID] = true

		if emp.MaxDailyHours < 0 {
			ve.Add(field+".max_hours_per_day", "不能为负数")
		}
		if emp.MaxPeriodHours < 0 {
			ve.Add(field+".max_hours_per_week", "不能为负数")
		}
		if emp.MinRestHours < 0 {
			ve.Add(field+".min_rest_hours", "不能为负数")
		}
		if emp.HourlyRate < 0 {
			ve.Add(field+".hourly_rate", "不能为负数")
		}
		for j, w := range emp.Availability {
			if !w.End.After(w.Start) {
				ve.Add(fmt.Sprintf("%s.availability[%d]", field, j), "结束时间必须晚于开始时间")
			}
		}
	}

	seenShift := make(map[string]bool, len(p.Shifts))
	for i, shift := range p.Shifts {
		field := fmt.Sprintf("shifts[%d]", i)
		if shift.ID == "" {
			ve.Add(field+".id", "班次ID不能为空")
			continue
		}
		if seenShift[shift.ID] {
			ve.Add(field+".id", fmt.Sprintf("班次ID重复: %s", shift.ID))
		}
		seenShift[shift.ID] = true

		if !shift.End.After(shift.Start) {
			ve.Add(field+".end", "结束时间必须晚于开始时间")
		}
		if shift.RequiredCount < 1 {
			ve.Add(field+".required_count", "所需人数至少为1")
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}
