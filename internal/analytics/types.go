// Package analytics computes trend, streak, and productivity metrics from a
// user's full action history.
package analytics

import "time"

// Period selects the reporting window.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Days returns the window length in days.
func (p Period) Days() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return 30
	default:
		return 1
	}
}

// Metrics is one period's computed metric set.
type Metrics struct {
	TotalActions        int            `json:"total_actions"`
	CompletionRate      float64        `json:"completion_rate"`
	ActivityByType      map[string]int `json:"activity_by_type"`
	PeakHours           []HourCount    `json:"peak_hours"`
	StreakDays          int            `json:"streak_days"`
	AverageDailyActions float64        `json:"average_daily_actions"`
	MostActiveScreen    string         `json:"most_active_screen"`
	ProductivityScore   int            `json:"productivity_score"`
}

// HourCount pairs an hour of day with its activity count.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// PeriodReport is the per-period analytics block.
type PeriodReport struct {
	Period    Period    `json:"period"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Metrics   Metrics   `json:"metrics"`
	Insights  []string  `json:"insights"`
}

// Snapshot is the full analytics result: three period breakdowns plus the
// cross-period advanced block.
type Snapshot struct {
	Daily        PeriodReport `json:"daily"`
	Weekly       PeriodReport `json:"weekly"`
	Monthly      PeriodReport `json:"monthly"`
	Advanced     Advanced     `json:"advanced"`
	LastAnalyzed time.Time    `json:"lastAnalyzed"`
}

// Advanced holds pattern detection, trends, predictions, recommendations, and
// behavior analysis over the whole history.
type Advanced struct {
	Patterns        Patterns         `json:"patterns"`
	Trends          Trends           `json:"trends"`
	Predictions     Predictions      `json:"predictions"`
	Recommendations []Recommendation `json:"recommendations"`
	Behavior        Behavior         `json:"behaviorAnalysis"`
}

// Patterns groups detected time, sequence, and frequency patterns.
type Patterns struct {
	TimePatterns      []TimePattern      `json:"timePatterns"`
	SequencePatterns  []SequencePattern  `json:"sequencePatterns"`
	FrequencyPatterns []FrequencyPattern `json:"frequencyPatterns"`
}

// TimePattern is one detected time-based pattern.
type TimePattern struct {
	Type string      `json:"type"`
	Data []PeakPoint `json:"data"`
}

// PeakPoint is one peak-activity hour with its share of total activity.
type PeakPoint struct {
	Hour       int     `json:"hour"`
	Count      int     `json:"activity_count"`
	Percentage float64 `json:"percentage"`
}

// SequencePattern is a frequent 3-action sequence.
type SequencePattern struct {
	Sequence  string  `json:"sequence"`
	Count     int     `json:"count"`
	Frequency float64 `json:"frequency"`
}

// FrequencyPattern is one detected frequency-based pattern.
type FrequencyPattern struct {
	Type string         `json:"type"`
	Data []DayOfWeekBin `json:"data"`
}

// DayOfWeekBin is one day-of-week activity bucket, Sunday first.
type DayOfWeekBin struct {
	Day        string  `json:"day"`
	Count      int     `json:"activity_count"`
	Percentage float64 `json:"percentage"`
}

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
	TrendImproving  = "improving"
	TrendDeclining  = "declining"
)

// Trends compares the two most recent calendar weeks.
type Trends struct {
	Activity   string `json:"activity_trend"`
	Completion string `json:"completion_trend"`
	Engagement string `json:"engagement_trend"`
}

// Predictions holds naive linear extrapolations.
type Predictions struct {
	NextWeekActivity       int     `json:"next_week_activity"`
	StreakLikelihood       float64 `json:"likelihood_of_maintaining_streak"`
	ExpectedCompletionRate float64 `json:"expected_completion_rate"`
}

// Recommendation priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

// Recommendation is one threshold-driven advisory.
type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
	Metric   string `json:"metric"`
}

// Behavior summarizes how the user behaves across the full history.
type Behavior struct {
	ConsistencyScore     float64                   `json:"consistency_score"`
	EngagementLevel      int                       `json:"engagement_level"`
	TaskPreferences      map[string]TaskPreference `json:"task_preferences"`
	ActivityDistribution ActivityDistribution      `json:"activity_distribution"`
}

// TaskPreference describes how often one action kind is used.
type TaskPreference struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Level      string  `json:"preference_level"` // high, medium, low
}

// ActivityDistribution buckets activity by hour, weekday, and origin screen.
type ActivityDistribution struct {
	ByHour      map[int]int    `json:"by_hour"`
	ByDayOfWeek map[int]int    `json:"by_day_of_week"`
	ByScreen    map[string]int `json:"by_screen"`
}
