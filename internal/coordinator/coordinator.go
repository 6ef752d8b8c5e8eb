// Package coordinator drives the sync pipeline: it records actions, debounces
// recomputation of display and analytics data per user, sweeps for external
// changes, and fans results out over the event bus.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tracksync/tracksync/internal/action"
	"github.com/tracksync/tracksync/internal/analytics"
	"github.com/tracksync/tracksync/internal/bus"
	"github.com/tracksync/tracksync/internal/display"
	"github.com/tracksync/tracksync/internal/store"
)

// Config tunes the debounce windows, the sweep interval, and the fetch
// limits of each pass.
type Config struct {
	AggregationDelay time.Duration
	AnalyticsDelay   time.Duration
	AutoSyncInterval time.Duration

	RecentLimit    int
	AnalyticsLimit int
	SweepLimit     int
	ForceLimit     int
}

func (c *Config) applyDefaults() {
	if c.AggregationDelay <= 0 {
		c.AggregationDelay = 2 * time.Second
	}
	if c.AnalyticsDelay <= 0 {
		c.AnalyticsDelay = 10 * time.Second
	}
	if c.AutoSyncInterval <= 0 {
		c.AutoSyncInterval = 30 * time.Second
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = 50
	}
	if c.AnalyticsLimit <= 0 {
		c.AnalyticsLimit = 1000
	}
	if c.SweepLimit <= 0 {
		c.SweepLimit = 10
	}
	if c.ForceLimit <= 0 {
		c.ForceLimit = 100
	}
}

// userCache is one user's derived-state cache. Entries carry the time they
// were written so staleness is observable.
type userCache struct {
	actions     []action.Record
	actionsAt   time.Time
	projection  *display.Projection
	displayAt   time.Time
	snapshot    *analytics.Snapshot
	analyticsAt time.Time
}

// SyncResult is what ForceSync hands back.
type SyncResult struct {
	Actions     []action.Record
	Projection  *display.Projection
	DisplayRows []store.Record
	SyncedAt    time.Time
}

// Coordinator owns the per-user caches and debounce timers. All cache and
// timer state is guarded by mu; cache writes happen only after the backing
// store write succeeded.
type Coordinator struct {
	recorder *action.Recorder
	store    store.RecordStore
	bus      *bus.Bus
	engine   *analytics.Engine
	cfg      Config

	mu        sync.Mutex
	cache     map[string]*userCache
	aggTimers map[string]*time.Timer
	anTimers  map[string]*time.Timer

	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

// New wires a Coordinator. A nil bus or engine gets a default instance.
func New(recorder *action.Recorder, st store.RecordStore, b *bus.Bus, engine *analytics.Engine, cfg Config) *Coordinator {
	cfg.applyDefaults()
	if b == nil {
		b = bus.New()
	}
	if engine == nil {
		engine = analytics.NewEngine()
	}
	return &Coordinator{
		recorder:  recorder,
		store:     st,
		bus:       b,
		engine:    engine,
		cfg:       cfg,
		cache:     make(map[string]*userCache),
		aggTimers: make(map[string]*time.Timer),
		anTimers:  make(map[string]*time.Timer),
	}
}

// Bus exposes the event bus for consumer registration.
func (c *Coordinator) Bus() *bus.Bus { return c.bus }

// Register subscribes a named consumer and returns its unsubscribe function.
func (c *Coordinator) Register(name string, h bus.Handler) func() {
	return c.bus.Register(name, h)
}

// SyncUserAction records one action, updates the action cache, announces the
// record immediately, and (re)arms the user's aggregation debounce. A store
// failure returns the error with no cache write and no event.
func (c *Coordinator) SyncUserAction(ctx context.Context, userID string, typ action.Type, payload any, screen string) (*action.Record, error) {
	rec, err := c.recorder.RecordAction(ctx, userID, typ, payload, screen)
	if err != nil {
		return nil, fmt.Errorf("sync user action: %w", err)
	}

	c.mu.Lock()
	uc := c.userCache(userID)
	uc.actions = append([]action.Record{*rec}, uc.actions...)
	if len(uc.actions) > c.cfg.RecentLimit {
		uc.actions = uc.actions[:c.cfg.RecentLimit]
	}
	uc.actionsAt = time.Now()
	c.mu.Unlock()

	c.bus.Publish(bus.Event{Type: bus.EventActionRecorded, UserID: userID, Data: rec})
	c.scheduleAggregation(userID)

	return rec, nil
}

// scheduleAggregation arms or resets the user's aggregation timer. Each user
// gets their own timer so one user's burst never starves another's flush.
func (c *Coordinator) scheduleAggregation(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.aggTimers[userID]; ok {
		t.Stop()
	}
	c.aggTimers[userID] = time.AfterFunc(c.cfg.AggregationDelay, func() {
		c.mu.Lock()
		delete(c.aggTimers, userID)
		c.mu.Unlock()

		if err := c.aggregateAndNotify(context.Background(), userID); err != nil {
			slog.Error("aggregation pass failed", "user", userID, "error", err)
		}
	})
}

func (c *Coordinator) scheduleAnalytics(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.anTimers[userID]; ok {
		t.Stop()
	}
	c.anTimers[userID] = time.AfterFunc(c.cfg.AnalyticsDelay, func() {
		c.mu.Lock()
		delete(c.anTimers, userID)
		c.mu.Unlock()

		if err := c.runAnalytics(context.Background(), userID); err != nil {
			slog.Error("analytics pass failed", "user", userID, "error", err)
		}
	})
}

// aggregateAndNotify is the aggregation pass: fetch the recent actions,
// rebuild the projection, persist a display row, refresh the cache, announce
// the update, and arm the analytics debounce.
func (c *Coordinator) aggregateAndNotify(ctx context.Context, userID string) error {
	records, err := c.recorder.UserActions(ctx, userID, c.cfg.RecentLimit)
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", userID, err)
	}

	proj, err := display.Aggregate(records)
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", userID, err)
	}

	if err := c.persistDisplayRow(ctx, userID, records, proj); err != nil {
		return fmt.Errorf("aggregate %s: %w", userID, err)
	}

	now := time.Now()
	c.mu.Lock()
	uc := c.userCache(userID)
	uc.actions = records
	uc.actionsAt = now
	uc.projection = proj
	uc.displayAt = now
	c.mu.Unlock()

	c.bus.Publish(bus.Event{Type: bus.EventDisplayUpdated, UserID: userID, Data: proj})
	c.scheduleAnalytics(userID)

	slog.Info("display data aggregated", "user", userID, "actions", len(records))
	return nil
}

func (c *Coordinator) persistDisplayRow(ctx context.Context, userID string, records []action.Record, proj *display.Projection) error {
	ids := make([]string, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].ID)
	}
	blob, err := json.Marshal(proj)
	if err != nil {
		return fmt.Errorf("encode projection: %w", err)
	}

	_, err = c.store.Insert(ctx, store.TableDisplayData, map[string]any{
		"user_id":         userID,
		"action_ids":      strings.Join(ids, ","),
		"aggregated_data": string(blob),
		"display_type":    "summary",
		"last_updated":    time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("persist display row: %w", err)
	}
	return nil
}

// runAnalytics is the analytics pass: fetch the deep history, compute the
// snapshot, persist one analytics row per period, refresh the cache, and
// announce the update.
func (c *Coordinator) runAnalytics(ctx context.Context, userID string) error {
	records, err := c.recorder.UserActions(ctx, userID, c.cfg.AnalyticsLimit)
	if err != nil {
		return fmt.Errorf("analytics %s: %w", userID, err)
	}

	snap := c.engine.Analyze(records)

	for _, report := range []analytics.PeriodReport{snap.Daily, snap.Weekly, snap.Monthly} {
		if err := c.persistAnalyticsRow(ctx, userID, report); err != nil {
			return fmt.Errorf("analytics %s: %w", userID, err)
		}
	}

	c.mu.Lock()
	uc := c.userCache(userID)
	uc.snapshot = snap
	uc.analyticsAt = time.Now()
	c.mu.Unlock()

	c.bus.Publish(bus.Event{Type: bus.EventAnalyticsUpdated, UserID: userID, Data: snap})

	slog.Info("analytics updated", "user", userID, "actions", len(records))
	return nil
}

func (c *Coordinator) persistAnalyticsRow(ctx context.Context, userID string, report analytics.PeriodReport) error {
	blob, err := json.Marshal(report.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}

	_, err = c.store.Insert(ctx, store.TableAnalytics, map[string]any{
		"user_id":       userID,
		"period":        string(report.Period),
		"metrics":       string(blob),
		"insights":      strings.Join(storeInsights(report), "; "),
		"calculated_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("persist analytics row: %w", err)
	}
	return nil
}

// storeInsights prefixes the period's computed insights with the two
// volume-level observations stored alongside every analytics row.
func storeInsights(report analytics.PeriodReport) []string {
	var out []string
	if report.Metrics.TotalActions > 100 {
		out = append(out, "High user activity")
	}
	if report.Metrics.CompletionRate > 0.8 {
		out = append(out, "Excellent task completion rate")
	}
	return append(out, report.Insights...)
}

// StartAutoSync launches the periodic sweep that catches records written by
// other writers. Calling it twice restarts the sweep.
func (c *Coordinator) StartAutoSync() {
	c.StopAutoSync()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.sweepCancel = cancel
	c.sweepDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.cfg.AutoSyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweepOnce(ctx)
			}
		}
	}()

	slog.Info("auto-sync started", "interval", c.cfg.AutoSyncInterval)
}

// StopAutoSync stops the sweep and waits for the running tick to finish.
func (c *Coordinator) StopAutoSync() {
	c.mu.Lock()
	cancel, done := c.sweepCancel, c.sweepDone
	c.sweepCancel, c.sweepDone = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
		slog.Info("auto-sync stopped")
	}
}

// sweepOnce checks every cached user for records the cache has not seen and
// reruns the aggregation pass for those that changed. Per-user errors are
// logged, never fatal to the sweep.
func (c *Coordinator) sweepOnce(ctx context.Context) {
	c.mu.Lock()
	known := make(map[string]map[string]bool, len(c.cache))
	for userID, uc := range c.cache {
		ids := make(map[string]bool, len(uc.actions))
		for i := range uc.actions {
			ids[uc.actions[i].ID] = true
		}
		known[userID] = ids
	}
	c.mu.Unlock()

	for userID, ids := range known {
		changed, err := c.hasNewRecords(ctx, userID, ids)
		if err != nil {
			slog.Warn("auto-sync check failed", "user", userID, "error", err)
			continue
		}
		if !changed {
			continue
		}
		if err := c.aggregateAndNotify(ctx, userID); err != nil {
			slog.Error("auto-sync aggregation failed", "user", userID, "error", err)
		}
	}
}

func (c *Coordinator) hasNewRecords(ctx context.Context, userID string, known map[string]bool) (bool, error) {
	records, err := c.recorder.UserActions(ctx, userID, c.cfg.SweepLimit)
	if err != nil {
		return false, err
	}
	for i := range records {
		if !known[records[i].ID] {
			return true, nil
		}
	}
	return false, nil
}

// ForceSync bypasses all debouncing: it pulls the action history and the
// stored display rows, refreshes the cache, announces the full sync, then
// runs the analytics pass synchronously. Any failure propagates.
func (c *Coordinator) ForceSync(ctx context.Context, userID string) (*SyncResult, error) {
	records, err := c.recorder.UserActions(ctx, userID, c.cfg.ForceLimit)
	if err != nil {
		return nil, fmt.Errorf("force sync %s: %w", userID, err)
	}

	proj, err := display.Aggregate(records)
	if err != nil {
		return nil, fmt.Errorf("force sync %s: %w", userID, err)
	}

	rows, err := c.store.Query(ctx, store.TableDisplayData, store.QueryOptions{
		Filter: store.EqualsFilter("user_id", userID),
		Sort:   []store.SortField{{Field: "last_updated", Direction: store.SortDesc}},
	})
	if err != nil {
		return nil, fmt.Errorf("force sync %s: display rows: %w", userID, err)
	}

	now := time.Now()
	c.mu.Lock()
	uc := c.userCache(userID)
	uc.actions = records
	uc.actionsAt = now
	uc.projection = proj
	uc.displayAt = now
	c.mu.Unlock()

	result := &SyncResult{Actions: records, Projection: proj, DisplayRows: rows, SyncedAt: now}
	c.bus.Publish(bus.Event{Type: bus.EventFullSync, UserID: userID, Data: result})

	if err := c.runAnalytics(ctx, userID); err != nil {
		return nil, fmt.Errorf("force sync %s: %w", userID, err)
	}

	slog.Info("force sync completed", "user", userID, "actions", len(records))
	return result, nil
}

// RecomputeAnalytics runs the analytics pass for one user immediately,
// bypassing the debounce. Used by scheduled maintenance jobs.
func (c *Coordinator) RecomputeAnalytics(ctx context.Context, userID string) error {
	return c.runAnalytics(ctx, userID)
}

// CachedProjection returns the user's cached projection, or nil.
func (c *Coordinator) CachedProjection(userID string) *display.Projection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if uc, ok := c.cache[userID]; ok {
		return uc.projection
	}
	return nil
}

// CachedSnapshot returns the user's cached analytics snapshot, or nil.
func (c *Coordinator) CachedSnapshot(userID string) *analytics.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if uc, ok := c.cache[userID]; ok {
		return uc.snapshot
	}
	return nil
}

// CachedUsers lists users with cache entries.
func (c *Coordinator) CachedUsers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	users := make([]string, 0, len(c.cache))
	for userID := range c.cache {
		users = append(users, userID)
	}
	return users
}

// ClearUserCache drops one user's cached state and pending timers.
func (c *Coordinator) ClearUserCache(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, userID)
	if t, ok := c.aggTimers[userID]; ok {
		t.Stop()
		delete(c.aggTimers, userID)
	}
	if t, ok := c.anTimers[userID]; ok {
		t.Stop()
		delete(c.anTimers, userID)
	}
}

// ClearAllCache drops every user's cached state and pending timers.
func (c *Coordinator) ClearAllCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*userCache)
	for userID, t := range c.aggTimers {
		t.Stop()
		delete(c.aggTimers, userID)
	}
	for userID, t := range c.anTimers {
		t.Stop()
		delete(c.anTimers, userID)
	}
}

// userCache returns the user's cache entry, creating it if needed.
// Callers must hold mu.
func (c *Coordinator) userCache(userID string) *userCache {
	uc, ok := c.cache[userID]
	if !ok {
		uc = &userCache{}
		c.cache[userID] = uc
	}
	return uc
}
