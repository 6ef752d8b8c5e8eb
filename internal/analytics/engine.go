package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/tracksync/tracksync/internal/action"
)

// streakWindowDays bounds the backward scan when counting consecutive
// active days.
const streakWindowDays = 30

// Engine computes analytics snapshots. The clock is injectable so
// period boundaries and streaks are deterministic under test.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an Engine on the wall clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineAt creates an Engine with a custom clock.
func NewEngineAt(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Analyze computes the full snapshot from the user's action history.
// Records are expected newest first, the order the recorder returns them.
func (e *Engine) Analyze(records []action.Record) *Snapshot {
	return &Snapshot{
		Daily:        e.AnalyzePeriod(records, PeriodDaily),
		Weekly:       e.AnalyzePeriod(records, PeriodWeekly),
		Monthly:      e.AnalyzePeriod(records, PeriodMonthly),
		Advanced:     e.analyzeAdvanced(records),
		LastAnalyzed: e.now(),
	}
}

// AnalyzePeriod computes one period's report. The window is the trailing
// Days() from now; streak and the consistency component of the productivity
// score always look at the full history so a short window does not zero them.
func (e *Engine) AnalyzePeriod(records []action.Record, period Period) PeriodReport {
	now := e.now()
	start := now.AddDate(0, 0, -period.Days())

	var windowed []action.Record
	for i := range records {
		if !records[i].Timestamp.Before(start) {
			windowed = append(windowed, records[i])
		}
	}

	consistency := consistencyScore(records)
	m := Metrics{
		TotalActions:        len(windowed),
		CompletionRate:      completionRate(windowed),
		ActivityByType:      countByType(windowed),
		PeakHours:           peakHours(windowed),
		StreakDays:          e.streakDays(records),
		AverageDailyActions: round2(float64(len(windowed)) / float64(period.Days())),
		MostActiveScreen:    mostActiveScreen(windowed),
		ProductivityScore:   productivityScore(windowed, consistency),
	}

	return PeriodReport{
		Period:    period,
		StartDate: start,
		EndDate:   now,
		Metrics:   m,
		Insights:  insights(m, period),
	}
}

// streakDays counts consecutive active days scanning backward from today.
// Leading inactive days are skipped; the scan stops at the first gap after
// the streak has started, or after streakWindowDays days.
func (e *Engine) streakDays(records []action.Record) int {
	active := make(map[string]bool, len(records))
	for i := range records {
		active[localDay(records[i].Timestamp)] = true
	}

	streak := 0
	day := e.now()
	for i := 0; i < streakWindowDays; i++ {
		if active[localDay(day)] {
			streak++
		} else if streak > 0 {
			break
		}
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func completionRate(records []action.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	completed := 0
	for i := range records {
		if records[i].Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(records))
}

func countByType(records []action.Record) map[string]int {
	out := make(map[string]int)
	for i := range records {
		out[string(records[i].Type)]++
	}
	return out
}

// peakHours returns the three busiest hours of day, most active first.
// Ties keep the hour that appeared first in the input.
func peakHours(records []action.Record) []HourCount {
	counts := make(map[int]int)
	var order []int
	for i := range records {
		h := records[i].Timestamp.Local().Hour()
		if _, seen := counts[h]; !seen {
			order = append(order, h)
		}
		counts[h]++
	}

	var top []HourCount
	for _, h := range order {
		top = append(top, HourCount{Hour: h, Count: counts[h]})
	}
	stableSortByCountDesc(top)
	if len(top) > 3 {
		top = top[:3]
	}
	return top
}

// stableSortByCountDesc is an insertion sort keeping equal counts in their
// original relative order.
func stableSortByCountDesc(hs []HourCount) {
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0 && hs[j].Count > hs[j-1].Count; j-- {
			hs[j], hs[j-1] = hs[j-1], hs[j]
		}
	}
}

func mostActiveScreen(records []action.Record) string {
	counts := make(map[string]int)
	var order []string
	for i := range records {
		s := records[i].Screen
		if _, seen := counts[s]; !seen {
			order = append(order, s)
		}
		counts[s]++
	}

	best := "Unknown"
	bestCount := 0
	for _, s := range order {
		if counts[s] > bestCount {
			best, bestCount = s, counts[s]
		}
	}
	return best
}

// productivityScore blends completion, volume, and consistency into a 0..100
// integer: round((completionRate + min(n/10, 1) + consistency) / 3 * 100).
func productivityScore(records []action.Record, consistency float64) int {
	rate := completionRate(records)
	activity := math.Min(float64(len(records))/10, 1)
	return int(math.Round((rate + activity + consistency) / 3 * 100))
}

// consistencyScore measures how evenly activity spreads across active days:
// max(0, 1 - stddev/mean) over per-day counts, 0 when there is no activity.
func consistencyScore(records []action.Record) float64 {
	daily := make(map[string]int)
	for i := range records {
		daily[localDay(records[i].Timestamp)]++
	}
	if len(daily) == 0 {
		return 0
	}

	var sum float64
	for _, n := range daily {
		sum += float64(n)
	}
	mean := sum / float64(len(daily))

	var variance float64
	for _, n := range daily {
		variance += (float64(n) - mean) * (float64(n) - mean)
	}
	variance /= float64(len(daily))

	return math.Max(0, 1-math.Sqrt(variance)/mean)
}

func insights(m Metrics, period Period) []string {
	out := []string{}

	if m.ProductivityScore > 80 {
		out = append(out, fmt.Sprintf("Excellent productivity! Your score is %d%% for the %s period", m.ProductivityScore, period))
	} else if m.ProductivityScore < 50 {
		out = append(out, fmt.Sprintf("Room to improve productivity. Current score: %d%%", m.ProductivityScore))
	}

	if m.CompletionRate > 0.8 {
		out = append(out, "Outstanding task completion rate!")
	}
	if m.AverageDailyActions > 10 {
		out = append(out, "High level of daily activity")
	}
	if m.StreakDays > 7 {
		out = append(out, fmt.Sprintf("Congratulations on a %d-day streak!", m.StreakDays))
	}

	return out
}

func localDay(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
