package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(time.Date(2026, time.February, 14, 13, 5, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestMonthBounds_December(t *testing.T) {
	start, end := MonthBounds(time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC))

	assert.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestFixed(t *testing.T) {
	base := time.Date(2026, time.January, 31, 23, 0, 0, 0, time.UTC)
	c := NewFixed(base)
	assert.Equal(t, base, c.Now())

	c.Advance(2 * time.Hour)
	assert.Equal(t, time.February, c.Now().Month())

	c.Set(base)
	assert.Equal(t, base, c.Now())
}

func TestRealClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, New().Now().Location())
}

func TestAddMonth(t *testing.T) {
	assert.Equal(t,
		time.Date(2026, time.April, 10, 9, 0, 0, 0, time.UTC),
		AddMonth(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t,
		time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
		AddMonth(time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)))
}
