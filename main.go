// Package main is the entry point for the cortex EEG telemetry agent.
package main

import (
	"fmt"
	"os"

	"flowstate.dev/cortex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
