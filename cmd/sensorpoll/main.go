// Package main is the entry point for the sensorpoll CLI.
//
// sensorpoll can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	sensorpoll serve -c config.yaml     # Poll sensors and serve the status API
//	sensorpoll validate -c config.yaml  # Validate configuration
//	sensorpoll read -c config.yaml Air  # Read sensors once
//	sensorpoll version                  # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "sensorpoll",
	Short: "Poll Linux sysfs sensors",
	Long: `sensorpoll polls Linux sysfs sensors on a fixed interval.

It reads industrial I/O channels and 1-Wire temperature probes, keeps the
latest value of each, and serves them as JSON, Server-Sent Events and
Prometheus metrics.

Quick start:
  1. Create a config file (sensorpoll.yaml)
  2. Run: sensorpoll serve -c sensorpoll.yaml
  3. Open http://localhost:8080/api/readings

Example config:
  port: 8080
  default_interval: 10s
  sensors:
    - name: Air temperature
      type: iio
      device: iio:device0
      channel: in_temp_input
    - name: Tank
      type: w1therm
      sensorSerial: 28-0000075a1b2c`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this sensorpoll binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sensorpoll %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
