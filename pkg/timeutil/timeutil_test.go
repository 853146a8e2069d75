package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayString(t *testing.T) {
	day := time.Date(2025, time.March, 7, 23, 59, 12, 0, time.UTC)
	assert.Equal(t, "2025-03-07", DayString(day), "Day string should be zero padded")
}

func TestHistoryStamp(t *testing.T) {
	day := time.Date(2025, time.March, 7, 9, 5, 2, 0, time.UTC)
	assert.Equal(t, "20250307_090502", HistoryStamp(day))
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, time.March, 7, 15, 30, 0, 0, time.UTC)

	today := PeriodStart(now, "today")
	assert.Equal(t, time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC), today)

	week := PeriodStart(now, "week")
	assert.Equal(t, now.AddDate(0, 0, -7), week)

	month := PeriodStart(now, "month")
	assert.Equal(t, now.AddDate(0, 0, -30), month)

	all := PeriodStart(now, "all")
	assert.True(t, all.IsZero(), "Unknown periods should have no lower bound")
}
