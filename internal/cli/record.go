package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracksync/tracksync/internal/action"
	"github.com/tracksync/tracksync/internal/config"
)

var (
	recordUser   string
	recordType   string
	recordData   string
	recordScreen string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record one user action",
	RunE:  runRecord,
}

func init() {
	recordCmd.Flags().StringVarP(&recordUser, "user", "u", "", "user id (required)")
	recordCmd.Flags().StringVarP(&recordType, "type", "t", "", "action type: checkbox_marked, item_selected, data_submitted, preference_changed")
	recordCmd.Flags().StringVarP(&recordData, "data", "d", "{}", "action payload as JSON")
	recordCmd.Flags().StringVarP(&recordScreen, "screen", "s", "cli", "originating screen name")
	recordCmd.MarkFlagRequired("user")
	recordCmd.MarkFlagRequired("type")
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var payload map[string]any
	if err := json.Unmarshal([]byte(recordData), &payload); err != nil {
		return fmt.Errorf("parse --data: %w", err)
	}

	recorder := action.NewRecorder(st)
	rec, err := recorder.RecordAction(context.Background(), recordUser, action.Type(recordType), payload, recordScreen)
	if err != nil {
		return err
	}

	fmt.Printf("Recorded %s (%s) for %s at %s\n", rec.ID, rec.Type, rec.UserID, rec.Timestamp.Format("2006-01-02 15:04:05"))
	return nil
}
