package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"flowstate.dev/cortex/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `
Load the configuration, apply defaults and env overrides, run validation and
print the normalized result. Exits non-zero on invalid configuration.

Examples:
  cortex validate -c config.yml
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configFile)
		if err != nil {
			exitWithError("invalid configuration", err)
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			exitWithError("failed to render configuration", err)
		}
		fmt.Printf("Configuration OK: %s\n---\n%s", configFile, out)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
