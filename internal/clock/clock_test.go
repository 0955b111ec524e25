package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOnlyAndDayKey(t *testing.T) {
	ts := time.Date(2024, 3, 9, 23, 59, 10, 5, time.Local)
	d := DateOnly(ts)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.Local), d)
	assert.Equal(t, "2024-03-09", DayKey(ts))

	parsed, err := ParseDay("2024-03-09", time.Local)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(d))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 3, 9, 0, 0, 1, 0, time.Local)
	b := time.Date(2024, 3, 9, 23, 0, 0, 0, time.Local)
	c := time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(b, c))
}

func TestFixedAdvance(t *testing.T) {
	f := &Fixed{T: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	f.Advance(24 * time.Hour)
	assert.Equal(t, 2, f.Now().Day())
}
