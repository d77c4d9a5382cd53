// Package timezone converts between wall-clock labels and stored instants and
// renders instants for display. All timezone arithmetic in the service goes
// through here; everything else handles absolute time.Time values only.
package timezone

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is used when the viewer's zone is unknown, for example in
// the sweeper or other non-interactive callers.
const DefaultTimezone = "UTC"

const (
	dateLayout      = "2006-01-02"
	clockLayout     = "15:04"
	clockLayoutSecs = "15:04:05"
)

var ErrUnknownPostingTime = errors.New("unknown posting time")

var postingTimeLabels = []string{
	"8am", "9am", "10am", "11am", "12pm", "1pm", "2pm", "3pm", "4pm", "5pm", "6pm", "7pm",
}

var postingTimeHours = map[string]int{
	"8am":  8,
	"9am":  9,
	"10am": 10,
	"11am": 11,
	"12pm": 12,
	"1pm":  13,
	"2pm":  14,
	"3pm":  15,
	"4pm":  16,
	"5pm":  17,
	"6pm":  18,
	"7pm":  19,
}

// PostingTimeLabels returns the accepted daily posting time labels in order.
func PostingTimeLabels() []string {
	labels := make([]string, len(postingTimeLabels))
	copy(labels, postingTimeLabels)
	return labels
}

func IsPostingTime(label string) bool {
	_, ok := postingTimeHours[label]
	return ok
}

// ResolveViewerTimezone returns the named IANA zone, or UTC when the name is
// empty or cannot be loaded.
func ResolveViewerTimezone(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadServerLocation resolves the zone used to interpret wall-clock input.
// "Local" and the empty string mean the process's local zone.
func LoadServerLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// ParseWallClock splits a picker value such as "2025-01-02T09:00" into its
// date and time labels.
func ParseWallClock(value string) (string, string, error) {
	date, clock, ok := strings.Cut(strings.TrimSpace(value), "T")
	if !ok || date == "" || clock == "" {
		return "", "", fmt.Errorf("invalid wall clock %q: expected YYYY-MM-DDTHH:MM", value)
	}
	return date, clock, nil
}

// Calendar performs wall-clock arithmetic in the server's zone against an
// injectable clock.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

func NewCalendar(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

func (c *Calendar) Location() *time.Location { return c.loc }

func (c *Calendar) Now() time.Time { return c.now() }

// LocalWallClockToInstant interprets the date and time labels as wall-clock
// values in the server's zone, not the viewer's. Callers in another zone get
// an instant offset by the difference between the two zones.
func (c *Calendar) LocalWallClockToInstant(dateLabel, timeLabel string) (time.Time, error) {
	dateLabel = strings.TrimSpace(dateLabel)
	timeLabel = strings.TrimSpace(timeLabel)

	t, err := time.ParseInLocation(dateLayout+" "+clockLayout, dateLabel+" "+timeLabel, c.loc)
	if err != nil {
		t, err = time.ParseInLocation(dateLayout+" "+clockLayoutSecs, dateLabel+" "+timeLabel, c.loc)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q or time %q: %w", dateLabel, timeLabel, err)
	}
	return t, nil
}

// NextOccurrenceOfDailyTime returns the next instant, strictly after now, at
// which the labelled wall-clock hour occurs in the server's zone.
func (c *Calendar) NextOccurrenceOfDailyTime(label string) (time.Time, error) {
	hour, ok := postingTimeHours[label]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownPostingTime, label)
	}

	now := c.now().In(c.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, c.loc)
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, 0, 0, 0, c.loc)
	}
	return next, nil
}

// FormatRelative renders t in loc as "Today, 3:04 PM", "Tomorrow, 3:04 PM",
// "Monday, 3:04 PM" for two to seven days out, or "Jan 2, 2006, 3:04 PM".
func (c *Calendar) FormatRelative(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	now := c.now().In(loc)
	clock := local.Format("3:04 PM")

	if sameDay(local, now) {
		return "Today, " + clock
	}
	if sameDay(local, now.AddDate(0, 0, 1)) {
		return "Tomorrow, " + clock
	}

	diffDays := int(math.Ceil(t.Sub(now).Hours() / 24))
	if diffDays > 1 && diffDays <= 7 {
		return local.Format("Monday, 3:04 PM")
	}
	return local.Format("Jan 2, 2006, 3:04 PM")
}

// RemainingDuration counts down to t using the two coarsest units, zero
// units included, so under a minute reads "0m remaining". It returns false
// once t is not in the future. The result is the same in every zone.
func (c *Calendar) RemainingDuration(t time.Time) (string, bool) {
	diff := t.Sub(c.now())
	if diff <= 0 {
		return "", false
	}

	days := int(diff / (24 * time.Hour))
	hours := int(diff % (24 * time.Hour) / time.Hour)
	minutes := int(diff % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh remaining", days, hours), true
	case hours > 0:
		return fmt.Sprintf("%dh %dm remaining", hours, minutes), true
	default:
		return fmt.Sprintf("%dm remaining", minutes), true
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
