package timeframe

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tideflow/tideflow-server/internal/model"
)

func TestBounds_Daily(t *testing.T) {
	monday := time.Date(2025, 8, 18, 14, 30, 0, 0, time.UTC)

	start, end := Bounds(model.ViewKindDaily, monday, time.UTC)

	assert.Equal(t, time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC), end)
}

func TestBounds_Weekly(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "monday is its own week start",
			date:      time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "midweek",
			date:      time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "sunday belongs to the preceding monday",
			date:      time.Date(2025, 8, 24, 23, 59, 0, 0, time.UTC),
			wantStart: time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "week crossing a year boundary",
			date:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Bounds(model.ViewKindWeekly, tt.date, time.UTC)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestBounds_Monthly(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "august",
			date:      time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "february in a leap year",
			date:      time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "december",
			date:      time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Bounds(model.ViewKindMonthly, tt.date, time.UTC)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestBounds_TimezoneAware(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2025-08-18 23:30 UTC is already tuesday the 19th in Tokyo.
	moment := time.Date(2025, 8, 18, 23, 30, 0, 0, time.UTC)

	start, end := Bounds(model.ViewKindDaily, moment, tokyo)

	assert.Equal(t, "2025-08-19", start.Format(DateFormat))
	assert.Equal(t, "2025-08-19", end.Format(DateFormat))
	assert.Equal(t, tokyo, start.Location())
}

func TestBounds_HierarchyContainment(t *testing.T) {
	// Daily buckets always sit inside their weekly bucket, and both sit
	// inside the monthly bucket as long as the week does not straddle a
	// month boundary.
	dates := []time.Time{
		time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 24, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 20, 6, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	}

	for _, date := range dates {
		dayStart, dayEnd := Bounds(model.ViewKindDaily, date, time.UTC)
		weekStart, weekEnd := Bounds(model.ViewKindWeekly, date, time.UTC)
		monthStart, monthEnd := Bounds(model.ViewKindMonthly, date, time.UTC)

		assert.False(t, dayStart.Before(weekStart), "day %v starts before its week", date)
		assert.False(t, dayEnd.After(weekEnd), "day %v ends after its week", date)
		assert.False(t, weekStart.Before(monthStart), "week of %v starts before its month", date)
		assert.False(t, weekEnd.After(monthEnd), "week of %v ends after its month", date)
	}
}

func TestTideID_Deterministic(t *testing.T) {
	userID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	day := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)

	first := TideID(userID, model.ViewKindDaily, day)
	second := TideID(userID, model.ViewKindDaily, day)

	assert.Equal(t, first, second)
}

func TestTideID_DistinctPerKey(t *testing.T) {
	userID := uuid.New()
	otherUser := uuid.New()
	day := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)
	nextDay := day.AddDate(0, 0, 1)

	base := TideID(userID, model.ViewKindDaily, day)

	assert.NotEqual(t, base, TideID(userID, model.ViewKindWeekly, day))
	assert.NotEqual(t, base, TideID(userID, model.ViewKindDaily, nextDay))
	assert.NotEqual(t, base, TideID(otherUser, model.ViewKindDaily, day))
}

func TestTideID_LocationIndependentForSameCalendarDay(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	userID := uuid.New()
	utcDay := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)
	berlinDay := time.Date(2025, 8, 18, 0, 0, 0, 0, berlin)

	// Ids key off the formatted calendar date, not the instant.
	assert.Equal(t, TideID(userID, model.ViewKindDaily, utcDay), TideID(userID, model.ViewKindDaily, berlinDay))
}

func TestParentKind(t *testing.T) {
	assert.Equal(t, model.ViewKindWeekly, ParentKind(model.ViewKindDaily))
	assert.Equal(t, model.ViewKindMonthly, ParentKind(model.ViewKindWeekly))
	assert.Empty(t, ParentKind(model.ViewKindMonthly))
	assert.Empty(t, ParentKind(model.ViewKindProject))
}

func TestChildKinds(t *testing.T) {
	assert.Equal(t, []model.ViewKind{model.ViewKindWeekly}, ChildKinds(model.ViewKindMonthly))
	assert.Equal(t, []model.ViewKind{model.ViewKindDaily}, ChildKinds(model.ViewKindWeekly))
	assert.Nil(t, ChildKinds(model.ViewKindDaily))
}

func TestLocation(t *testing.T) {
	loc, err := Location("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = Location("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	_, err = Location("Atlantis/Nowhere")
	assert.Error(t, err)
}
