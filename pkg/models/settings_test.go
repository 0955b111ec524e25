package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsWithDefaults(t *testing.T) {
	got := Settings{}.WithDefaults()
	assert.Equal(t, DefaultTimezone, got.Timezone)
	assert.Equal(t, 1, got.StreakDays)
	assert.Equal(t, 0, got.DailyPageGoal)
	assert.Nil(t, got.LastActiveDate)

	kept := Settings{Timezone: "Europe/Berlin", DailyPageGoal: 30, StreakDays: 4}.WithDefaults()
	assert.Equal(t, "Europe/Berlin", kept.Timezone)
	assert.Equal(t, 30, kept.DailyPageGoal)
	assert.Equal(t, 4, kept.StreakDays)

	negative := Settings{DailyPageGoal: -3, StreakDays: -1}.WithDefaults()
	assert.Equal(t, 0, negative.DailyPageGoal)
	assert.Equal(t, 1, negative.StreakDays)
}
