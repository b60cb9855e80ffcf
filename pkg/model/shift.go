package model

import "time"

// Shift 班次
type Shift struct {
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	LocationID     string    `json:"location_id,omitempty"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	RequiredCount  int       `json:"required_count"`
	RequiredSkills []string  `json:"required_skills,omitempty"`
}

// LengthHours 返回班次时长（小时）
func (s *Shift) LengthHours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// Day 返回班次所在的UTC日历日，格式 2006-01-02
func (s *Shift) Day() string {
	return s.Start.UTC().Format("2006-01-02")
}

// IsNightShift 判断是否为夜班
// 开始时间在20点及之后，或结束时间在6点及之前
func (s *Shift) IsNightShift() bool {
	return s.Start.UTC().Hour() >= 20 || s.End.UTC().Hour() <= 6
}

// IsWeekend 判断班次是否在周末
func (s *Shift) IsWeekend() bool {
	wd := s.Start.UTC().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// PenaltyFactor 返回班次的基础惩罚系数
// 夜间开始或周末班次的系数加倍，引导求解器优先安排常规时段
func (s *Shift) PenaltyFactor() int {
	if s.Start.UTC().Hour() >= 20 || s.IsWeekend() {
		return 2
	}
	return 1
}

// Range 返回班次的时间范围
func (s *Shift) Range() TimeRange {
	return TimeRange{Start: s.Start, End: s.End}
}
