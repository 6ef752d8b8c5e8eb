package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tracksync/tracksync/internal/action"
	"github.com/tracksync/tracksync/internal/bus"
	"github.com/tracksync/tracksync/internal/config"
	"github.com/tracksync/tracksync/internal/coordinator"
	"github.com/tracksync/tracksync/internal/relay"
	"github.com/tracksync/tracksync/internal/scheduler"
	"github.com/tracksync/tracksync/internal/store"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the sync coordinator with auto-sync, scheduler, and relay",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	printHeader("🔄 tracksync Daemon")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	b := bus.New()
	coord := coordinator.New(action.NewRecorder(st), st, b, nil, coordinator.Config{
		AggregationDelay: cfg.Sync.AggregationDelay,
		AnalyticsDelay:   cfg.Sync.AnalyticsDelay,
		AutoSyncInterval: cfg.Sync.AutoSyncInterval,
		RecentLimit:      cfg.Sync.RecentLimit,
		AnalyticsLimit:   cfg.Sync.AnalyticsLimit,
		SweepLimit:       cfg.Sync.SweepLimit,
		ForceLimit:       cfg.Sync.ForceLimit,
	})

	if cfg.Relay.Enabled {
		r, err := relay.New(relay.Config{
			Enabled: cfg.Relay.Enabled,
			Brokers: cfg.Relay.Brokers,
			Topic:   cfg.Relay.Topic,
		})
		if err != nil {
			return err
		}
		r.Attach(b)
		defer r.Close()
		fmt.Printf("Relay:     enabled (%s)\n", cfg.Relay.Topic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord.StartAutoSync()
	defer coord.StopAutoSync()

	if cfg.Scheduler.Enabled {
		sched, err := buildScheduler(cfg, st, coord)
		if err != nil {
			return err
		}
		go func() {
			if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("scheduler exited", "error", err)
			}
		}()
		fmt.Printf("Scheduler: enabled (%s)\n", cfg.Scheduler.AnalyticsCron)
	}

	fmt.Printf("Store:     %s\n", cfg.Store.Backend)
	fmt.Printf("Auto-sync: every %s\n", cfg.Sync.AutoSyncInterval)
	fmt.Println("Press Ctrl+C to stop")

	<-ctx.Done()
	fmt.Println("\nShutting down")
	return nil
}

// buildScheduler registers the nightly analytics recompute for every user
// with recorded actions.
func buildScheduler(cfg *config.Config, st store.RecordStore, coord *coordinator.Coordinator) (*scheduler.Scheduler, error) {
	cron, err := scheduler.ParseCron(cfg.Scheduler.AnalyticsCron)
	if err != nil {
		return nil, fmt.Errorf("scheduler: analytics cron: %w", err)
	}

	sched := scheduler.New(scheduler.Config{
		Enabled:          true,
		TickInterval:     cfg.Scheduler.TickInterval,
		MaxConcSync:      cfg.Scheduler.MaxConcSync,
		MaxConcAnalytics: cfg.Scheduler.MaxConcAnalytics,
		MaxConcDefault:   cfg.Scheduler.MaxConcDefault,
		LockPath:         cfg.Scheduler.LockPath,
	})

	sched.Register(&scheduler.Job{
		Name:     "nightly-analytics",
		Cron:     cron,
		Category: scheduler.CategoryAnalytics,
		Run: func(ctx context.Context) error {
			users, err := knownUsers(ctx, st)
			if err != nil {
				return err
			}
			for _, userID := range users {
				if err := coord.RecomputeAnalytics(ctx, userID); err != nil {
					slog.Error("nightly analytics failed", "user", userID, "error", err)
				}
			}
			return nil
		},
	})

	return sched, nil
}

// knownUsers collects the distinct user ids present in the action log.
func knownUsers(ctx context.Context, st store.RecordStore) ([]string, error) {
	rows, err := st.Query(ctx, store.TableUserActions, store.QueryOptions{MaxRecords: 1000})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	seen := make(map[string]bool)
	var users []string
	for i := range rows {
		userID := rows[i].StringField("user_id")
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		users = append(users, userID)
	}
	return users, nil
}
