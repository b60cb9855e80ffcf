package solver

import (
	"context"
	"sort"
	"sync"

	"github.com/paigang/paigang/pkg/logger"
)

// CPSolver 进程内分支定界求解器
// Workers 大于1时以多种变量顺序并行搜索，共享当前最优解
type CPSolver struct{}

// NewCPSolver 创建求解器
func NewCPSolver() *CPSolver {
	return &CPSolver{}
}

// checkInterval 每搜索多少节点检查一次取消信号
const checkInterval = 1024

// incumbent 各搜索协程共享的当前最优解
type incumbent struct {
	mu     sync.Mutex
	found  bool
	obj    int64
	values []bool
}

// get 读取当前最优目标值
func (inc *incumbent) get() (int64, bool) {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	return inc.obj, inc.found
}

// offer 尝试以更优解替换当前最优解
func (inc *incumbent) offer(obj int64, values []bool) {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	if inc.found && obj >= inc.obj {
		return
	}
	inc.found = true
	inc.obj = obj
	inc.values = append(inc.values[:0], values...)
}

// Solve 求解模型
// 搜索完整结束返回 OPTIMAL 或 INFEASIBLE；超时返回已找到的
// 最优可行解（FEASIBLE），无解则返回 ABORTED
func (s *CPSolver) Solve(ctx context.Context, m *Model) (*Solution, error) {
	if err := validateModel(m); err != nil {
		return nil, err
	}

	if m.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.TimeLimit)
		defer cancel()
	}

	if m.NumVars == 0 {
		return solveEmpty(m), nil
	}

	// 无变量项的约束不会被搜索触碰，提前判定
	for _, c := range m.Constraints {
		if len(c.Terms) == 0 && !emptySatisfied(c) {
			return &Solution{Status: StatusInfeasible}, nil
		}
	}

	orders := variableOrders(m)
	workers := m.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(orders) {
		workers = len(orders)
	}

	inc := &incumbent{}
	exhausted := false
	var exhaustedMu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(order []int) {
			defer wg.Done()
			st := newSearchState(m, order, inc, ctx)
			if st.search(0) {
				exhaustedMu.Lock()
				exhausted = true
				exhaustedMu.Unlock()
			}
		}(orders[w])
	}
	wg.Wait()

	sol := &Solution{}
	if inc.found {
		sol.Values = inc.values
		sol.Objective = inc.obj
		if exhausted {
			sol.Status = StatusOptimal
		} else {
			sol.Status = StatusFeasible
		}
	} else {
		if exhausted {
			sol.Status = StatusInfeasible
		} else {
			sol.Status = StatusAborted
		}
	}

	logger.Debug().
		Int("vars", m.NumVars).
		Int("constraints", len(m.Constraints)).
		Int("workers", workers).
		Str("status", sol.Status.String()).
		Msg("分支定界搜索结束")
	return sol, nil
}

// solveEmpty 处理没有变量的退化模型
func solveEmpty(m *Model) *Solution {
	for _, c := range m.Constraints {
		if !emptySatisfied(c) {
			return &Solution{Status: StatusInfeasible}
		}
	}
	return &Solution{Status: StatusOptimal, Values: []bool{}}
}

// emptySatisfied 判断所有项系数和为0时约束是否成立
func emptySatisfied(c LinearConstraint) bool {
	switch c.Op {
	case OpEq:
		return c.Bound == 0
	case OpLe:
		return c.Bound >= 0
	}
	return false
}

// variableOrders 生成并行搜索使用的变量顺序组合
// 不同顺序探索树的不同区域，先到的可行解帮助其余协程剪枝
func variableOrders(m *Model) [][]int {
	n := m.NumVars

	identity := make([]int, n)
	for i := range identity {
		identity[i] = i
	}

	reversed := make([]int, n)
	for i := range reversed {
		reversed[i] = n - 1 - i
	}

	// 目标系数升序：先定惩罚小的变量
	byObjAsc := make([]int, n)
	copy(byObjAsc, identity)
	sort.SliceStable(byObjAsc, func(a, b int) bool {
		return m.Objective[byObjAsc[a]] < m.Objective[byObjAsc[b]]
	})

	byObjDesc := make([]int, n)
	for i := range byObjDesc {
		byObjDesc[i] = byObjAsc[n-1-i]
	}

	return [][]int{identity, byObjAsc, reversed, byObjDesc}
}

// varUse 变量出现在某条约束中的位置与系数
type varUse struct {
	cons int
	coef int64
}

// searchState 单个搜索协程的可变状态
type searchState struct {
	m     *Model
	order []int
	ctx   context.Context
	inc   *incumbent

	uses [][]varUse // 每个变量涉及的约束
	sums []int64    // 每条约束已赋值部分的和
	lo   []int64    // 每条约束未赋值部分可达的最小增量
	hi   []int64    // 每条约束未赋值部分可达的最大增量

	objSum int64 // 已赋值部分的目标值
	objLo  int64 // 未赋值部分目标值的下界

	values  []bool
	nodes   int
	stopped bool
}

// newSearchState 按给定变量顺序初始化搜索状态
func newSearchState(m *Model, order []int, inc *incumbent, ctx context.Context) *searchState {
	st := &searchState{
		m:      m,
		order:  order,
		ctx:    ctx,
		inc:    inc,
		uses:   make([][]varUse, m.NumVars),
		sums:   make([]int64, len(m.Constraints)),
		lo:     make([]int64, len(m.Constraints)),
		hi:     make([]int64, len(m.Constraints)),
		values: make([]bool, m.NumVars),
	}
	for ci, c := range m.Constraints {
		for _, term := range c.Terms {
			st.uses[term.Var] = append(st.uses[term.Var], varUse{cons: ci, coef: term.Coef})
			if term.Coef < 0 {
				st.lo[ci] += term.Coef
			} else {
				st.hi[ci] += term.Coef
			}
		}
	}
	for _, c := range m.Objective {
		if c < 0 {
			st.objLo += c
		}
	}
	return st
}

// reachable 检查约束在当前部分赋值下是否仍可满足
func (st *searchState) reachable(ci int) bool {
	c := &st.m.Constraints[ci]
	min := st.sums[ci] + st.lo[ci]
	max := st.sums[ci] + st.hi[ci]
	switch c.Op {
	case OpEq:
		return min <= c.Bound && c.Bound <= max
	case OpLe:
		return min <= c.Bound
	}
	return false
}

// assign 给变量赋值并增量更新约束与目标的界
// 返回受影响的约束是否全部仍可满足
func (st *searchState) assign(v int, val bool) bool {
	ok := true
	for _, use := range st.uses[v] {
		if use.coef < 0 {
			st.lo[use.cons] -= use.coef
		} else {
			st.hi[use.cons] -= use.coef
		}
		if val {
			st.sums[use.cons] += use.coef
		}
		if !st.reachable(use.cons) {
			ok = false
		}
	}
	if c := st.m.Objective[v]; c < 0 {
		st.objLo -= c
	}
	if val {
		st.objSum += st.m.Objective[v]
	}
	st.values[v] = val
	return ok
}

// unassign 撤销变量赋值
func (st *searchState) unassign(v int, val bool) {
	for _, use := range st.uses[v] {
		if use.coef < 0 {
			st.lo[use.cons] += use.coef
		} else {
			st.hi[use.cons] += use.coef
		}
		if val {
			st.sums[use.cons] -= use.coef
		}
	}
	if c := st.m.Objective[v]; c < 0 {
		st.objLo += c
	}
	if val {
		st.objSum -= st.m.Objective[v]
	}
}

// search 深度优先搜索，返回是否完整遍历了子树
func (st *searchState) search(depth int) bool {
	st.nodes++
	if st.nodes%checkInterval == 0 {
		select {
		case <-st.ctx.Done():
			st.stopped = true
		default:
		}
	}
	if st.stopped {
		return false
	}

	// 目标下界剪枝：当前分支不可能优于已知最优解
	if best, found := st.inc.get(); found && st.objSum+st.objLo >= best {
		return true
	}

	if depth == st.m.NumVars {
		st.inc.offer(st.objSum, st.values)
		return true
	}

	v := st.order[depth]

	// 目标系数为负的变量先试取1，尽早压低目标值
	first := st.m.Objective[v] < 0

	complete := true
	for _, val := range [2]bool{first, !first} {
		feasible := st.assign(v, val)
		if feasible {
			if !st.search(depth + 1) {
				complete = false
			}
		}
		st.unassign(v, val)
		if st.stopped {
			return false
		}
	}
	return complete
}
