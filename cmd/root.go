// Package cmd implements CLI commands using the cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cortex",
	Short: "Cortex - wearable EEG telemetry ingestion agent",
	Long: `Cortex ingests raw telemetry frames from wearable EEG devices (headband or
earpiece form factors), validates and decodes them into per-channel microvolt
samples, tracks packet loss through sequence continuity, scores every frame
for signal artifacts, and monitors radio link quality via RSSI polling.

Decoded samples, quality verdicts, drop statistics and link quality events
are exposed to downstream consumers and as Prometheus metrics.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/cortex/config.yml",
		"config file path")
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
