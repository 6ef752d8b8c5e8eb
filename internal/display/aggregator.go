// Package display builds the display-oriented projection of a user's action
// history: summary counts, list view, grouped-by-day grid, and chart series.
package display

import (
	"fmt"
	"math"
	"time"

	"github.com/tracksync/tracksync/internal/action"
)

// Projection is the derived, replaceable per-user snapshot. It is regenerated
// wholesale on each aggregation pass and never partially patched.
type Projection struct {
	Summary     Summary   `json:"summary"`
	List        []Item    `json:"list"`
	Grid        []GridDay `json:"grid"`
	Chart       Chart     `json:"chart"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Summary carries headline counts and the most recent activity.
type Summary struct {
	TotalActions   int            `json:"totalActions"`
	CompletedTasks int            `json:"completedTasks"`
	PendingTasks   int            `json:"pendingTasks"`
	RecentActivity []Activity     `json:"recentActivity"`
	Categories     map[string]int `json:"categories"`
}

// Activity is one entry in the recent-activity list.
type Activity struct {
	ID        string         `json:"id"`
	Type      action.Type    `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
	Screen    string         `json:"screenName"`
}

// Item is one row of the flattened list view.
type Item struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Subtitle  string         `json:"subtitle"`
	Timestamp time.Time      `json:"timestamp"`
	Completed bool           `json:"completed"`
	Icon      string         `json:"icon"`
	Data      map[string]any `json:"data"`
}

// GridDay groups one calendar day's records.
type GridDay struct {
	Date           string     `json:"date"`
	Items          []GridItem `json:"items"`
	TotalItems     int        `json:"totalItems"`
	CompletedItems int        `json:"completedItems"`
}

// GridItem is one record inside a grid day.
type GridItem struct {
	ID        string         `json:"id"`
	Type      action.Type    `json:"type"`
	Data      map[string]any `json:"data"`
	Completed bool           `json:"completed"`
	Time      string         `json:"time"`
}

// Chart holds the chart-ready series.
type Chart struct {
	DailyActivity    Series `json:"dailyActivity"`
	TypeDistribution Series `json:"actionTypeDistribution"`
	CompletionRate   int    `json:"completionRate"`
}

// Series pairs labels with counts, labels in first-seen order.
type Series struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// dateKey formats a record's calendar day in its local zone.
func dateKey(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// Aggregate builds the projection for records, which are expected newest
// first. It is a pure function of its input; a malformed payload fails the
// whole pass so no partial projection is ever published.
func Aggregate(records []action.Record) (*Projection, error) {
	payloads := make([]map[string]any, len(records))
	for i := range records {
		data, err := records[i].PayloadMap()
		if err != nil {
			return nil, fmt.Errorf("aggregate: %w", err)
		}
		payloads[i] = data
	}

	return &Projection{
		Summary:     buildSummary(records, payloads),
		List:        buildList(records, payloads),
		Grid:        buildGrid(records, payloads),
		Chart:       buildChart(records),
		LastUpdated: time.Now(),
	}, nil
}

func buildSummary(records []action.Record, payloads []map[string]any) Summary {
	s := Summary{
		RecentActivity: []Activity{},
		Categories:     make(map[string]int),
	}
	s.TotalActions = len(records)

	for i := range records {
		rec := &records[i]
		if rec.Completed {
			s.CompletedTasks++
		} else {
			s.PendingTasks++
		}
		s.Categories[string(rec.Type)]++

		if len(s.RecentActivity) < 5 {
			s.RecentActivity = append(s.RecentActivity, Activity{
				ID:        rec.ID,
				Type:      rec.Type,
				Data:      payloads[i],
				Timestamp: rec.Timestamp,
				Screen:    rec.Screen,
			})
		}
	}
	return s
}

func buildList(records []action.Record, payloads []map[string]any) []Item {
	items := make([]Item, 0, len(records))
	for i := range records {
		rec := &records[i]
		items = append(items, Item{
			ID:        rec.ID,
			Title:     actionTitle(rec.Type, payloads[i]),
			Subtitle:  actionSubtitle(rec.Type, payloads[i]),
			Timestamp: rec.Timestamp,
			Completed: rec.Completed,
			Icon:      actionIcon(rec.Type),
			Data:      payloads[i],
		})
	}
	return items
}

func buildGrid(records []action.Record, payloads []map[string]any) []GridDay {
	var order []string
	byDay := make(map[string]*GridDay)

	for i := range records {
		rec := &records[i]
		key := dateKey(rec.Timestamp)
		day, ok := byDay[key]
		if !ok {
			day = &GridDay{Date: key}
			byDay[key] = day
			order = append(order, key)
		}
		day.Items = append(day.Items, GridItem{
			ID:        rec.ID,
			Type:      rec.Type,
			Data:      payloads[i],
			Completed: rec.Completed,
			Time:      rec.Timestamp.Local().Format("15:04:05"),
		})
		day.TotalItems++
		if rec.Completed {
			day.CompletedItems++
		}
	}

	grid := make([]GridDay, 0, len(order))
	for _, key := range order {
		grid = append(grid, *byDay[key])
	}
	return grid
}

func buildChart(records []action.Record) Chart {
	daily := newCounter()
	types := newCounter()

	for i := range records {
		daily.Add(dateKey(records[i].Timestamp))
		types.Add(string(records[i].Type))
	}

	return Chart{
		DailyActivity:    daily.Series(),
		TypeDistribution: types.Series(),
		CompletionRate:   CompletionRate(records),
	}
}

// CompletionRate returns round(completed/total*100), 0 for no records.
func CompletionRate(records []action.Record) int {
	if len(records) == 0 {
		return 0
	}
	completed := 0
	for i := range records {
		if records[i].Completed {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(records)) * 100))
}

func actionTitle(typ action.Type, data map[string]any) string {
	switch typ {
	case action.TypeCheckboxMarked:
		if name, ok := data["itemName"].(string); ok && name != "" {
			return name
		}
		return "Item marked"
	case action.TypeDataSubmitted:
		if form, ok := data["formType"].(string); ok && form != "" {
			return "Form: " + form
		}
		return "Form: data submitted"
	case action.TypeItemSelected:
		if name, ok := data["itemName"].(string); ok && name != "" {
			return name
		}
		return "Item selected"
	default:
		return "Action"
	}
}

func actionSubtitle(typ action.Type, data map[string]any) string {
	switch typ {
	case action.TypeCheckboxMarked:
		if checked, ok := data["isChecked"].(bool); ok && checked {
			return "Checked"
		}
		return "Unchecked"
	case action.TypeDataSubmitted:
		if fields, ok := data["fields"].(map[string]any); ok {
			return fmt.Sprintf("Fields: %d", len(fields))
		}
		return "Fields: 0"
	default:
		return ""
	}
}

func actionIcon(typ action.Type) string {
	switch typ {
	case action.TypeCheckboxMarked:
		return "✓"
	case action.TypeDataSubmitted:
		return "📝"
	case action.TypeItemSelected:
		return "👆"
	case action.TypePreferenceChanged:
		return "⚙️"
	default:
		return "•"
	}
}

// counter tracks counts with first-seen key order.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) Add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) Series() Series {
	s := Series{Labels: []string{}, Data: []int{}}
	for _, key := range c.order {
		s.Labels = append(s.Labels, key)
		s.Data = append(s.Data, c.counts[key])
	}
	return s
}
