// Package config provides configuration types and loading for tracksync.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Backend names for the record store.
const (
	BackendSQLite   = "sqlite"
	BackendAirtable = "airtable"
)

// Config is the root configuration struct.
type Config struct {
	Store     StoreConfig     `json:"store"`
	Sync      SyncConfig      `json:"sync"`
	Relay     RelayConfig     `json:"relay"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	Backend    string         `json:"backend" envconfig:"BACKEND"`
	SQLitePath string         `json:"sqlitePath" envconfig:"SQLITE_PATH"`
	Airtable   AirtableConfig `json:"airtable"`
}

// AirtableConfig holds the Airtable backend credentials.
type AirtableConfig struct {
	APIKey string `json:"apiKey" envconfig:"API_KEY"`
	BaseID string `json:"baseId" envconfig:"BASE_ID"`
	APIURL string `json:"apiUrl,omitempty" envconfig:"API_URL"`
}

// SyncConfig tunes the coordinator's debounce windows and fetch limits.
type SyncConfig struct {
	AggregationDelay time.Duration `json:"aggregationDelay" envconfig:"AGGREGATION_DELAY"`
	AnalyticsDelay   time.Duration `json:"analyticsDelay" envconfig:"ANALYTICS_DELAY"`
	AutoSyncInterval time.Duration `json:"autoSyncInterval" envconfig:"AUTO_SYNC_INTERVAL"`
	RecentLimit      int           `json:"recentLimit" envconfig:"RECENT_LIMIT"`
	AnalyticsLimit   int           `json:"analyticsLimit" envconfig:"ANALYTICS_LIMIT"`
	SweepLimit       int           `json:"sweepLimit" envconfig:"SWEEP_LIMIT"`
	ForceLimit       int           `json:"forceLimit" envconfig:"FORCE_LIMIT"`
}

// RelayConfig configures the Kafka event relay.
type RelayConfig struct {
	Enabled bool     `json:"enabled" envconfig:"ENABLED"`
	Brokers []string `json:"brokers" envconfig:"BROKERS"`
	Topic   string   `json:"topic" envconfig:"TOPIC"`
}

// SchedulerConfig configures the cron-driven maintenance jobs.
type SchedulerConfig struct {
	Enabled          bool          `json:"enabled" envconfig:"ENABLED"`
	AnalyticsCron    string        `json:"analyticsCron" envconfig:"ANALYTICS_CRON"`
	TickInterval     time.Duration `json:"tickInterval" envconfig:"TICK_INTERVAL"`
	MaxConcSync      int           `json:"maxConcSync" envconfig:"MAX_CONC_SYNC"`
	MaxConcAnalytics int           `json:"maxConcAnalytics" envconfig:"MAX_CONC_ANALYTICS"`
	MaxConcDefault   int           `json:"maxConcDefault" envconfig:"MAX_CONC_DEFAULT"`
	LockPath         string        `json:"lockPath" envconfig:"LOCK_PATH"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Store: StoreConfig{
			Backend:    BackendSQLite,
			SQLitePath: filepath.Join(home, ConfigDir, "tracksync.db"),
		},
		Sync: SyncConfig{
			AggregationDelay: 2 * time.Second,
			AnalyticsDelay:   10 * time.Second,
			AutoSyncInterval: 30 * time.Second,
			RecentLimit:      50,
			AnalyticsLimit:   1000,
			SweepLimit:       10,
			ForceLimit:       100,
		},
		Relay: RelayConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "tracksync.events",
		},
		Scheduler: SchedulerConfig{
			Enabled:          false,
			AnalyticsCron:    "0 3 * * *",
			TickInterval:     60 * time.Second,
			MaxConcSync:      2,
			MaxConcAnalytics: 1,
			MaxConcDefault:   4,
			LockPath:         filepath.Join(home, ConfigDir, "scheduler.lock"),
		},
	}
}
