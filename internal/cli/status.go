package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracksync/tracksync/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ tracksync Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration status",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("📊 tracksync Status")
		fmt.Printf("Version: %s\n", version)

		path, err := config.ConfigPath()
		if err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				fmt.Println("Config:  ✓ Found (" + path + ")")
			} else {
				fmt.Println("Config:  ✗ Not found (defaults in effect)")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Println("Config:  ✗ Failed to load:", err)
			return
		}

		fmt.Printf("Store:   %s\n", cfg.Store.Backend)
		if cfg.Store.Backend == config.BackendAirtable {
			if cfg.Store.Airtable.APIKey != "" {
				fmt.Println("API Key: ✓ Found")
			} else {
				fmt.Println("API Key: ✗ Not found")
			}
		} else {
			fmt.Printf("DB:      %s\n", cfg.Store.SQLitePath)
		}

		if cfg.Relay.Enabled {
			fmt.Printf("Relay:   ✓ Enabled (%s)\n", cfg.Relay.Topic)
		} else {
			fmt.Println("Relay:   ✗ Disabled")
		}
		if cfg.Scheduler.Enabled {
			fmt.Printf("Cron:    ✓ Enabled (%s)\n", cfg.Scheduler.AnalyticsCron)
		} else {
			fmt.Println("Cron:    ✗ Disabled")
		}

		fmt.Println("Status:  Ready")
	},
}
