package model

import "time"

// Employee 员工
type Employee struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Skills              []string       `json:"skills"`
	Availability        []TimeRange    `json:"availability"`
	MaxDailyHours       float64        `json:"max_hours_per_day"`
	MaxPeriodHours      float64        `json:"max_hours_per_week"`
	MaxConsecutiveDays  int            `json:"max_consecutive_days"`
	MinRestHours        int            `json:"min_rest_hours"`
	Preferences         map[string]int `json:"preferences,omitempty"`
	HourlyRate          float64        `json:"hourly_rate"`
	PreferredLocationID string         `json:"preferred_location_id,omitempty"`
}

// HasSkill 检查员工是否具备某项技能
func (e *Employee) HasSkill(skill string) bool {
	for _, s := range e.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// HasAllSkills 检查员工是否具备全部所需技能
func (e *Employee) HasAllSkills(skills []string) bool {
	for _, s := range skills {
		if !e.HasSkill(s) {
			return false
		}
	}
	return true
}

// IsAvailableFor 检查某个可用时间段是否完整覆盖给定区间
// 只覆盖一部分不算可用
func (e *Employee) IsAvailableFor(start, end time.Time) bool {
	target := TimeRange{Start: start, End: end}
	for _, window := range e.Availability {
		if window.ContainsRange(target) {
			return true
		}
	}
	return false
}

// Preference 返回员工对某班次的偏好值，未设置时为0
// 负值表示偏好，正值表示排斥
func (e *Employee) Preference(shiftID string) int {
	if e.Preferences == nil {
		return 0
	}
	return e.Preferences[shiftID]
}
