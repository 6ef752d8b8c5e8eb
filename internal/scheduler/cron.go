// Package scheduler runs cron-driven maintenance jobs with a file lock for
// overlap prevention and per-category concurrency caps.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronExpr is a parsed 5-field cron expression (minute, hour, day-of-month,
// month, day-of-week). Each field is held as a bit set.
type CronExpr struct {
	minutes  uint64
	hours    uint64
	days     uint64
	months   uint64
	weekdays uint64
}

type cronField struct {
	name string
	lo   int
	hi   int
}

var cronFields = [5]cronField{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 6},
}

// ParseCron parses a standard 5-field cron expression. Each field supports
// *, */N, N, N-M, N-M/S, and comma-separated combinations.
func ParseCron(expr string) (*CronExpr, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, fmt.Errorf("cron: expected 5 fields, got %d", len(parts))
	}

	var sets [5]uint64
	for i, field := range cronFields {
		set, err := parseCronField(parts[i], field.lo, field.hi)
		if err != nil {
			return nil, fmt.Errorf("cron: %s: %w", field.name, err)
		}
		sets[i] = set
	}

	return &CronExpr{
		minutes:  sets[0],
		hours:    sets[1],
		days:     sets[2],
		months:   sets[3],
		weekdays: sets[4],
	}, nil
}

// Matches reports whether t satisfies the expression.
func (c *CronExpr) Matches(t time.Time) bool {
	return bitSet(c.minutes, t.Minute()) &&
		bitSet(c.hours, t.Hour()) &&
		bitSet(c.days, t.Day()) &&
		bitSet(c.months, int(t.Month())) &&
		bitSet(c.weekdays, int(t.Weekday()))
}

// Next returns the first matching time after t, searching up to two years
// ahead. Returns the zero time if nothing matches within that horizon.
func (c *CronExpr) Next(t time.Time) time.Time {
	candidate := t.Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(2, 0, 0)

	for candidate.Before(limit) {
		switch {
		case !bitSet(c.months, int(candidate.Month())):
			candidate = time.Date(candidate.Year(), candidate.Month()+1, 1, 0, 0, 0, 0, candidate.Location())
		case !bitSet(c.days, candidate.Day()) || !bitSet(c.weekdays, int(candidate.Weekday())):
			candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day()+1, 0, 0, 0, 0, candidate.Location())
		case !bitSet(c.hours, candidate.Hour()):
			candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), candidate.Hour()+1, 0, 0, 0, candidate.Location())
		case !bitSet(c.minutes, candidate.Minute()):
			candidate = candidate.Add(time.Minute)
		default:
			return candidate
		}
	}
	return time.Time{}
}

// parseCronField parses one cron field into a bit set over [lo, hi].
func parseCronField(spec string, lo, hi int) (uint64, error) {
	var set uint64
	for _, part := range strings.Split(spec, ",") {
		bits, err := parseCronPart(part, lo, hi)
		if err != nil {
			return 0, err
		}
		set |= bits
	}
	return set, nil
}

// parseCronPart handles a single comma-separated component.
func parseCronPart(part string, lo, hi int) (uint64, error) {
	body, stepStr, hasStep := strings.Cut(part, "/")
	step := 1
	if hasStep {
		n, err := strconv.Atoi(stepStr)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid step in %q", part)
		}
		step = n
	}

	start, end := lo, hi
	switch {
	case body == "*":
		// Full range.
	case strings.Contains(body, "-"):
		loStr, hiStr, _ := strings.Cut(body, "-")
		a, errA := strconv.Atoi(loStr)
		b, errB := strconv.Atoi(hiStr)
		if errA != nil || errB != nil {
			return 0, fmt.Errorf("invalid range %q", part)
		}
		if a < lo || b > hi || a > b {
			return 0, fmt.Errorf("range %d-%d out of bounds [%d,%d]", a, b, lo, hi)
		}
		start, end = a, b
	default:
		v, err := strconv.Atoi(body)
		if err != nil {
			return 0, fmt.Errorf("invalid value %q", part)
		}
		if v < lo || v > hi {
			return 0, fmt.Errorf("value %d out of bounds [%d,%d]", v, lo, hi)
		}
		if hasStep {
			return 0, fmt.Errorf("step requires a range in %q", part)
		}
		start, end = v, v
	}

	var set uint64
	for v := start; v <= end; v += step {
		set |= 1 << uint(v)
	}
	return set, nil
}

func bitSet(set uint64, v int) bool {
	return set&(1<<uint(v)) != 0
}
