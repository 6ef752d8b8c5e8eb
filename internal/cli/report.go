package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracksync/tracksync/internal/action"
	"github.com/tracksync/tracksync/internal/analytics"
	"github.com/tracksync/tracksync/internal/config"
	"github.com/tracksync/tracksync/internal/display"
)

var (
	reportUser      string
	reportAnalytics bool
	reportLimit     int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a one-shot display and analytics report for a user",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportUser, "user", "u", "", "user id (required)")
	reportCmd.Flags().BoolVarP(&reportAnalytics, "analytics", "a", false, "include the full analytics snapshot")
	reportCmd.Flags().IntVarP(&reportLimit, "limit", "n", 100, "maximum actions to fetch")
	reportCmd.MarkFlagRequired("user")
}

type reportOutput struct {
	UserID         string                          `json:"user_id"`
	Projection     *display.Projection             `json:"projection"`
	CheckboxStates map[string]action.CheckboxState `json:"checkbox_states"`
	Analytics      *analytics.Snapshot             `json:"analytics,omitempty"`
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	recorder := action.NewRecorder(st)

	records, err := recorder.UserActions(ctx, reportUser, reportLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No actions recorded for %s\n", reportUser)
		return nil
	}

	proj, err := display.Aggregate(records)
	if err != nil {
		return err
	}

	states, err := recorder.CheckboxStates(ctx, reportUser)
	if err != nil {
		return err
	}

	out := reportOutput{
		UserID:         reportUser,
		Projection:     proj,
		CheckboxStates: states,
	}
	if reportAnalytics {
		deep, err := recorder.UserActions(ctx, reportUser, cfg.Sync.AnalyticsLimit)
		if err != nil {
			return err
		}
		out.Analytics = analytics.NewEngine().Analyze(deep)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
