package models

import "time"

const DefaultTimezone = "America/Chicago"

// Settings is the per-user preferences and streak state. Zero values are
// filled in by WithDefaults when the row is read, never stored half-shaped.
type Settings struct {
	Timezone         string     `json:"timezone"`
	DailyPageGoal    int        `json:"dailyPageGoal"`
	DailyMinutesGoal int        `json:"dailyMinutesGoal"`
	StreakDays       int        `json:"streakDays"`
	LastActiveDate   *time.Time `json:"lastActiveDate"`
}

func (s Settings) WithDefaults() Settings {
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	if s.DailyPageGoal < 0 {
		s.DailyPageGoal = 0
	}
	if s.DailyMinutesGoal < 0 {
		s.DailyMinutesGoal = 0
	}
	if s.StreakDays < 1 {
		s.StreakDays = 1
	}
	return s
}
