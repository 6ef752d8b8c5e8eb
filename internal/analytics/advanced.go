package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tracksync/tracksync/internal/action"
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func (e *Engine) analyzeAdvanced(records []action.Record) Advanced {
	return Advanced{
		Patterns:        detectPatterns(records),
		Trends:          analyzeTrends(records),
		Predictions:     e.predictions(records),
		Recommendations: e.recommendations(records),
		Behavior:        behavior(records),
	}
}

func detectPatterns(records []action.Record) Patterns {
	p := Patterns{
		TimePatterns:      []TimePattern{},
		SequencePatterns:  findSequences(records),
		FrequencyPatterns: []FrequencyPattern{},
	}

	peaks := peakHours(records)
	points := make([]PeakPoint, 0, len(peaks))
	for _, hc := range peaks {
		points = append(points, PeakPoint{
			Hour:       hc.Hour,
			Count:      hc.Count,
			Percentage: round2(float64(hc.Count) / float64(len(records)) * 100),
		})
	}
	p.TimePatterns = append(p.TimePatterns, TimePattern{Type: "peak_activity_hours", Data: points})

	p.FrequencyPatterns = append(p.FrequencyPatterns, FrequencyPattern{
		Type: "day_of_week_activity",
		Data: dayOfWeekBins(records),
	})

	return p
}

// findSequences counts 3-action windows over the chronological order and
// keeps the five most common that occur more than twice.
func findSequences(records []action.Record) []SequencePattern {
	chrono := chronological(records)

	counts := make(map[string]int)
	var order []string
	for i := 0; i+2 < len(chrono); i++ {
		key := string(chrono[i].Type) + " → " + string(chrono[i+1].Type) + " → " + string(chrono[i+2].Type)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	var frequent []string
	for _, key := range order {
		if counts[key] > 2 {
			frequent = append(frequent, key)
		}
	}
	sort.SliceStable(frequent, func(i, j int) bool {
		return counts[frequent[i]] > counts[frequent[j]]
	})
	if len(frequent) > 5 {
		frequent = frequent[:5]
	}

	out := []SequencePattern{}
	for _, key := range frequent {
		out = append(out, SequencePattern{
			Sequence:  key,
			Count:     counts[key],
			Frequency: round2(float64(counts[key]) / float64(len(records)) * 100),
		})
	}
	return out
}

func dayOfWeekBins(records []action.Record) []DayOfWeekBin {
	var byDay [7]int
	for i := range records {
		byDay[int(records[i].Timestamp.Local().Weekday())]++
	}

	bins := make([]DayOfWeekBin, 0, 7)
	for i, name := range dayNames {
		pct := 0.0
		if len(records) > 0 {
			pct = round2(float64(byDay[i]) / float64(len(records)) * 100)
		}
		bins = append(bins, DayOfWeekBin{Day: name, Count: byDay[i], Percentage: pct})
	}
	return bins
}

type weekBucket struct {
	start     time.Time
	count     int
	completed int
}

func (w *weekBucket) completionRate() float64 {
	if w.count == 0 {
		return 0
	}
	return float64(w.completed) / float64(w.count)
}

// groupByWeek buckets records into Sunday-aligned calendar weeks, oldest
// first.
func groupByWeek(records []action.Record) []weekBucket {
	byStart := make(map[time.Time]*weekBucket)
	for i := range records {
		t := records[i].Timestamp.Local()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		start := day.AddDate(0, 0, -int(day.Weekday()))

		w, ok := byStart[start]
		if !ok {
			w = &weekBucket{start: start}
			byStart[start] = w
		}
		w.count++
		if records[i].Completed {
			w.completed++
		}
	}

	weeks := make([]weekBucket, 0, len(byStart))
	for _, w := range byStart {
		weeks = append(weeks, *w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].start.Before(weeks[j].start) })
	return weeks
}

// analyzeTrends compares the two most recent calendar weeks. With fewer than
// two weeks of data the defaults stand: stable activity, improving
// completion. Engagement stays "high" until a richer signal exists.
func analyzeTrends(records []action.Record) Trends {
	t := Trends{
		Activity:   TrendStable,
		Completion: TrendImproving,
		Engagement: "high",
	}

	weeks := groupByWeek(records)
	if len(weeks) < 2 {
		return t
	}
	last, prev := weeks[len(weeks)-1], weeks[len(weeks)-2]

	if float64(last.count) > float64(prev.count)*1.1 {
		t.Activity = TrendIncreasing
	} else if float64(last.count) < float64(prev.count)*0.9 {
		t.Activity = TrendDecreasing
	}

	if last.completionRate() > prev.completionRate() {
		t.Completion = TrendImproving
	} else {
		t.Completion = TrendDeclining
	}

	return t
}

func (e *Engine) predictions(records []action.Record) Predictions {
	recent := records
	if len(recent) > 50 {
		recent = recent[:50]
	}

	likelihood := 0.5
	if e.streakDays(records) > 7 {
		likelihood = 0.8
	}

	return Predictions{
		NextWeekActivity:       int(math.Round(float64(len(records)) / 4)),
		StreakLikelihood:       likelihood,
		ExpectedCompletionRate: completionRate(recent),
	}
}

func (e *Engine) recommendations(records []action.Record) []Recommendation {
	out := []Recommendation{}

	rate := completionRate(records)
	if rate < 0.7 {
		out = append(out, Recommendation{
			Type:     "completion",
			Priority: PriorityHigh,
			Message:  "Try breaking work into smaller subtasks to raise your completion rate",
			Metric:   fmt.Sprintf("Current completion rate: %.0f%%", rate*100),
		})
	}

	if peaks := peakHours(records); len(peaks) > 0 {
		out = append(out, Recommendation{
			Type:     "timing",
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("Your most productive time: %d:00-%d:00", peaks[0].Hour, peaks[0].Hour+1),
			Metric:   "Plan important tasks for this window",
		})
	}

	if streak := e.streakDays(records); streak > 0 && streak < 7 {
		out = append(out, Recommendation{
			Type:     "streak",
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("Great streak of %d days! %d more to a full week", streak, 7-streak),
			Metric:   "Keep up the daily activity",
		})
	}

	return out
}

func behavior(records []action.Record) Behavior {
	return Behavior{
		ConsistencyScore:     consistencyScore(records),
		EngagementLevel:      engagementLevel(records),
		TaskPreferences:      taskPreferences(records),
		ActivityDistribution: activityDistribution(records),
	}
}

// engagementLevel scores the 20 most recent actions on kind diversity and
// sheer volume: round(((distinctTypes/4 + min(n/20, 1)) / 2) * 100).
func engagementLevel(records []action.Record) int {
	recent := records
	if len(recent) > 20 {
		recent = recent[:20]
	}

	kinds := make(map[action.Type]bool)
	for i := range recent {
		kinds[recent[i].Type] = true
	}

	diversity := float64(len(kinds)) / action.NumTypes
	frequency := math.Min(float64(len(recent))/20, 1)
	return int(math.Round((diversity + frequency) / 2 * 100))
}

func taskPreferences(records []action.Record) map[string]TaskPreference {
	counts := countByType(records)
	total := float64(len(records))

	out := make(map[string]TaskPreference, len(counts))
	for typ, n := range counts {
		level := "low"
		switch {
		case float64(n) > total*0.3:
			level = "high"
		case float64(n) > total*0.1:
			level = "medium"
		}
		out[typ] = TaskPreference{
			Count:      n,
			Percentage: round2(float64(n) / total * 100),
			Level:      level,
		}
	}
	return out
}

func activityDistribution(records []action.Record) ActivityDistribution {
	d := ActivityDistribution{
		ByHour:      make(map[int]int),
		ByDayOfWeek: make(map[int]int),
		ByScreen:    make(map[string]int),
	}
	for i := range records {
		t := records[i].Timestamp.Local()
		d.ByHour[t.Hour()]++
		d.ByDayOfWeek[int(t.Weekday())]++
		d.ByScreen[records[i].Screen]++
	}
	return d
}

// chronological returns records oldest first without mutating the input.
func chronological(records []action.Record) []action.Record {
	out := make([]action.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
