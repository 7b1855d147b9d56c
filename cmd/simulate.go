package cmd

import (
	"github.com/spf13/cobra"

	"flowstate.dev/cortex/internal/boot"
	"flowstate.dev/cortex/internal/config"
	"flowstate.dev/cortex/internal/link"
	"flowstate.dev/cortex/internal/log"
	"flowstate.dev/cortex/internal/quality"
)

var (
	simDeviceClass string
	simDropNth     int
	simCorruptNth  int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run against a simulated device, no config file needed",
	Long: `
Run the full ingestion pipeline against a synthetic EEG device. Useful for
development and for exercising the loss and corruption paths:

  cortex simulate                          # clean headband stream
  cortex simulate -d earpiece              # 2-channel earpiece stream
  cortex simulate --drop-nth 20            # force a sequence gap every 20 frames
  cortex simulate --corrupt-nth 15         # force a checksum failure every 15 frames
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := &config.Config{
			Log:      log.Config{Level: "debug", Format: "text"},
			Metrics:  config.MetricsConfig{Enabled: true, Listen: ":9105", Path: "/metrics"},
			Quality:  quality.DefaultThresholds(),
			Link:     link.DefaultConfig(),
			Pipeline: config.PipelineConfig{BufferSize: 1024},
			Source: config.SourceConfig{
				Type: "simulator",
				Simulator: config.SimulatorConfig{
					DeviceClass:     simDeviceClass,
					SamplesPerFrame: 25,
					DropEveryNth:    simDropNth,
					CorruptEveryNth: simCorruptNth,
				},
			},
		}
		if err := cfg.Validate(); err != nil {
			exitWithError("invalid simulation flags", err)
		}
		if err := log.Init(cfg.Log); err != nil {
			exitWithError("failed to init logging", err)
		}

		if err := boot.Run(cfg); err != nil {
			exitWithError("simulation failed", err)
		}
	},
}

func init() {
	simulateCmd.Flags().StringVarP(&simDeviceClass, "device", "d", "headband",
		"simulated device class (headband|earpiece)")
	simulateCmd.Flags().IntVar(&simDropNth, "drop-nth", 0,
		"drop every nth frame to exercise loss accounting (0 = off)")
	simulateCmd.Flags().IntVar(&simCorruptNth, "corrupt-nth", 0,
		"corrupt every nth frame to exercise checksum rejection (0 = off)")
	rootCmd.AddCommand(simulateCmd)
}
