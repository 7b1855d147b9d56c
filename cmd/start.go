package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"flowstate.dev/cortex/internal/boot"
	"flowstate.dev/cortex/internal/config"
	"flowstate.dev/cortex/internal/log"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingestion agent",
	Long: `
Start the cortex ingestion agent with the given configuration.

Examples:
  cortex start                      # /etc/cortex/config.yml
  cortex start -c config.yml        # explicit config file
`,
	Run: func(cmd *cobra.Command, args []string) {
		// Broker credentials and similar overrides may live in a local
		// .env during development; absence is fine.
		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				exitWithError("failed to load .env", err)
			}
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			exitWithError("failed to load config", err)
		}
		if err := log.Init(cfg.Log); err != nil {
			exitWithError("failed to init logging", err)
		}

		if err := boot.Run(cfg); err != nil {
			exitWithError("agent failed", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
