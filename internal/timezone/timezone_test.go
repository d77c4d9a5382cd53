package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestResolveViewerTimezone(t *testing.T) {
	assert.Equal(t, time.UTC, ResolveViewerTimezone(""))
	assert.Equal(t, time.UTC, ResolveViewerTimezone("Not/AZone"))
	assert.Equal(t, "Europe/Berlin", ResolveViewerTimezone(" Europe/Berlin ").String())
}

func TestLoadServerLocation(t *testing.T) {
	loc, err := LoadServerLocation("Local")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = LoadServerLocation("Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())

	_, err = LoadServerLocation("Nowhere/City")
	assert.Error(t, err)
}

func TestParseWallClock(t *testing.T) {
	date, clock, err := ParseWallClock("2025-01-02T09:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", date)
	assert.Equal(t, "09:00", clock)

	for _, bad := range []string{"", "2025-01-02", "T09:00", "2025-01-02T"} {
		_, _, err := ParseWallClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestCalendar_LocalWallClockToInstant(t *testing.T) {
	ny := newYork(t)
	cal := NewCalendar(ny, fixedClock(time.Date(2025, 1, 1, 10, 0, 0, 0, ny)))

	got, err := cal.LocalWallClockToInstant("2025-01-02", "09:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 1, 2, 14, 0, 0, 0, time.UTC)), "got %s", got)

	got, err = cal.LocalWallClockToInstant("2025-07-02", "09:00:30")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 7, 2, 13, 0, 30, 0, time.UTC)), "got %s", got)

	_, err = cal.LocalWallClockToInstant("2025-13-02", "09:00")
	assert.Error(t, err)
	_, err = cal.LocalWallClockToInstant("2025-01-02", "9am")
	assert.Error(t, err)
}

func TestCalendar_NextOccurrenceOfDailyTime(t *testing.T) {
	ny := newYork(t)

	tests := []struct {
		name  string
		now   time.Time
		label string
		want  time.Time
	}{
		{
			name:  "before the hour schedules today",
			now:   time.Date(2025, 3, 10, 8, 0, 0, 0, ny),
			label: "9am",
			want:  time.Date(2025, 3, 10, 9, 0, 0, 0, ny),
		},
		{
			name:  "after the hour schedules tomorrow",
			now:   time.Date(2025, 3, 10, 9, 1, 0, 0, ny),
			label: "9am",
			want:  time.Date(2025, 3, 11, 9, 0, 0, 0, ny),
		},
		{
			name:  "exactly on the hour schedules tomorrow",
			now:   time.Date(2025, 3, 10, 9, 0, 0, 0, ny),
			label: "9am",
			want:  time.Date(2025, 3, 11, 9, 0, 0, 0, ny),
		},
		{
			name:  "preference path from ten in the morning",
			now:   time.Date(2025, 1, 1, 10, 0, 0, 0, ny),
			label: "9am",
			want:  time.Date(2025, 1, 2, 9, 0, 0, 0, ny),
		},
		{
			name:  "afternoon label",
			now:   time.Date(2025, 1, 1, 10, 0, 0, 0, ny),
			label: "7pm",
			want:  time.Date(2025, 1, 1, 19, 0, 0, 0, ny),
		},
		{
			name:  "rolls over month end",
			now:   time.Date(2025, 1, 31, 20, 0, 0, 0, ny),
			label: "8am",
			want:  time.Date(2025, 2, 1, 8, 0, 0, 0, ny),
		},
		{
			name:  "keeps wall clock across DST start",
			now:   time.Date(2025, 3, 8, 12, 0, 0, 0, ny),
			label: "9am",
			want:  time.Date(2025, 3, 9, 9, 0, 0, 0, ny),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cal := NewCalendar(ny, fixedClock(tc.now))
			got, err := cal.NextOccurrenceOfDailyTime(tc.label)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "want %s, got %s", tc.want, got)
			assert.True(t, got.After(tc.now))
		})
	}
}

func TestCalendar_NextOccurrenceOfDailyTime_UnknownLabel(t *testing.T) {
	cal := NewCalendar(time.UTC, fixedClock(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)))
	_, err := cal.NextOccurrenceOfDailyTime("3am")
	assert.ErrorIs(t, err, ErrUnknownPostingTime)
}

func TestPostingTimeLabels(t *testing.T) {
	labels := PostingTimeLabels()
	require.Len(t, labels, 12)
	assert.Equal(t, "8am", labels[0])
	assert.Equal(t, "7pm", labels[11])
	for _, l := range labels {
		assert.True(t, IsPostingTime(l), l)
	}
	assert.False(t, IsPostingTime("9:00"))
}

func TestCalendar_FormatRelative(t *testing.T) {
	ny := newYork(t)
	// Wednesday
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	cal := NewCalendar(time.UTC, fixedClock(now))

	tests := []struct {
		name string
		at   time.Time
		loc  *time.Location
		want string
	}{
		{"today", time.Date(2025, 1, 1, 15, 30, 0, 0, time.UTC), time.UTC, "Today, 3:30 PM"},
		{"tomorrow", time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC), time.UTC, "Tomorrow, 9:00 AM"},
		{"weekday", time.Date(2025, 1, 4, 9, 0, 0, 0, time.UTC), time.UTC, "Saturday, 9:00 AM"},
		{"seven days out", time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC), time.UTC, "Wednesday, 9:00 AM"},
		{"beyond a week", time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC), time.UTC, "Jan 9, 2025, 9:00 AM"},
		{"viewer zone shifts the day", time.Date(2025, 1, 2, 2, 0, 0, 0, time.UTC), ny, "Today, 9:00 PM"},
		{"nil zone renders UTC", time.Date(2025, 1, 1, 11, 5, 0, 0, time.UTC), nil, "Today, 11:05 AM"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cal.FormatRelative(tc.at, tc.loc))
		})
	}
}

func TestCalendar_RemainingDuration(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	cal := NewCalendar(time.UTC, fixedClock(now))

	got, ok := cal.RemainingDuration(now.Add(2*24*time.Hour + 3*time.Hour + 10*time.Minute))
	assert.True(t, ok)
	assert.Equal(t, "2d 3h remaining", got)

	got, ok = cal.RemainingDuration(now.Add(5*time.Hour + 12*time.Minute))
	assert.True(t, ok)
	assert.Equal(t, "5h 12m remaining", got)

	got, ok = cal.RemainingDuration(now.Add(40 * time.Minute))
	assert.True(t, ok)
	assert.Equal(t, "40m remaining", got)

	// the two coarsest units are kept even when the smaller one is zero
	got, ok = cal.RemainingDuration(now.Add(2 * 24 * time.Hour))
	assert.True(t, ok)
	assert.Equal(t, "2d 0h remaining", got)

	got, ok = cal.RemainingDuration(now.Add(30 * time.Second))
	assert.True(t, ok)
	assert.Equal(t, "0m remaining", got)

	_, ok = cal.RemainingDuration(now)
	assert.False(t, ok)
	_, ok = cal.RemainingDuration(now.Add(-time.Minute))
	assert.False(t, ok)
}

func TestCalendar_FormatAndRemainingAgreeOnFuture(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	cal := NewCalendar(time.UTC, fixedClock(now))
	today := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, d := range []time.Duration{time.Minute, 3 * time.Hour, 20 * time.Hour, 50 * time.Hour, 10 * 24 * time.Hour} {
		at := now.Add(d)
		remaining, ok := cal.RemainingDuration(at)
		assert.True(t, ok, d.String())
		assert.NotEmpty(t, remaining)
		assert.NotEmpty(t, cal.FormatRelative(at, time.UTC))
		assert.False(t, at.Before(today), d.String())
	}
}
