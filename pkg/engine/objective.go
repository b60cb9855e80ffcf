package engine

// 目标函数常量，来源于排班业务规则
const (
	nightPenaltyWeight   = 10 // 夜班基础惩罚
	locationBonus        = 15 // 首选门店的惩罚减免
	costPenaltyThreshold = 20 // 时薪超过该值开始计入成本惩罚
	costPenaltyPerDollar = 2  // 每超出1元的惩罚
)

// BuildObjective 计算每个候选变量的目标系数，目标为最小化总惩罚
// 辅助变量（候选之后的下标）系数为0
func BuildObjective(cand *Candidates, numVars int) []int64 {
	obj := make([]int64, numVars)
	for i, c := range cand.Pairs {
		obj[i] = assignmentPenalty(c)
	}
	return obj
}

// assignmentPenalty 单个配对的惩罚值
// 夜班与周末加重，员工偏好与首选门店降低，时薪过高升高
func assignmentPenalty(c Candidate) int64 {
	emp, shift := c.Employee, c.Shift

	base := 1
	if shift.IsNightShift() {
		base = nightPenaltyWeight
	}
	penalty := int64(shift.PenaltyFactor() * base)

	penalty += int64(emp.Preference(shift.ID))

	if emp.PreferredLocationID != "" && emp.PreferredLocationID == shift.LocationID {
		penalty -= locationBonus
	}

	if emp.HourlyRate > costPenaltyThreshold {
		penalty += int64((emp.HourlyRate - costPenaltyThreshold) * costPenaltyPerDollar)
	}
	return penalty
}
