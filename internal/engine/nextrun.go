package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/draftmill/draftmill/internal/models"
)

// cronParser accepts standard 5-field expressions plus @descriptors.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// maxSkipRolls bounds how many skip dates a single computation will roll
// past before giving up and returning the last candidate.
const maxSkipRolls = 36

// NextRun computes the next fire time for a schedule, strictly after now for
// the fixed frequencies. It is pure: no state is read or written beyond its
// arguments.
//
// Monthly day-of-month values above 28 are clipped to 28 rather than rolled
// to the month's real last day. That is a deliberate simplification to avoid
// invalid dates in short months.
func NextRun(sched *models.Schedule, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		loc = time.UTC
	}
	now = now.In(loc)

	if sched.Frequency == models.FrequencyCustom {
		expr, err := cronParser.Parse(sched.CronExpr)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", sched.CronExpr, err)
		}
		next := expr.Next(now)
		return rollPastSkips(sched, next, func(t time.Time) time.Time {
			return expr.Next(t)
		}), nil
	}

	hour, minute, err := parseTimeOfDay(sched.TimeOfDay)
	if err != nil {
		return time.Time{}, err
	}

	var next time.Time
	var step func(time.Time) time.Time

	switch sched.Frequency {
	case models.FrequencyDaily:
		next = time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }

	case models.FrequencyWeekly:
		// Configured day uses Monday=0..Sunday=6. An offset of zero or less
		// always wraps to next week, even when today's time has not passed.
		target := 0
		if sched.DayOfWeek != nil {
			target = *sched.DayOfWeek
		}
		current := (int(now.Weekday()) + 6) % 7
		offset := target - current
		if offset <= 0 {
			offset += 7
		}
		next = time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc).AddDate(0, 0, offset)
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }

	case models.FrequencyMonthly:
		day := 1
		if sched.DayOfMonth != nil {
			day = *sched.DayOfMonth
		}
		if day > 28 {
			day = 28
		}
		next = time.Date(now.Year(), now.Month(), day, hour, minute, 0, 0, loc)
		if !next.After(now) {
			next = nextMonth(next)
		}
		step = nextMonth

	default:
		return time.Time{}, fmt.Errorf("unknown frequency %q", sched.Frequency)
	}

	return rollPastSkips(sched, next, step), nil
}

// nextMonth moves a fire time to the same clock time and day in the
// following month, handling the December to January year rollover.
func nextMonth(t time.Time) time.Time {
	year, month := t.Year(), t.Month()
	if month == time.December {
		year++
		month = time.January
	} else {
		month++
	}
	return time.Date(year, month, t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// rollPastSkips advances a candidate fire time one interval at a time while
// its calendar date is in the schedule's skip set.
func rollPastSkips(sched *models.Schedule, next time.Time, step func(time.Time) time.Time) time.Time {
	for i := 0; i < maxSkipRolls && sched.SkipsDate(next); i++ {
		next = step(next)
	}
	return next
}

func parseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid time of day %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q", s)
	}
	return hour, minute, nil
}
