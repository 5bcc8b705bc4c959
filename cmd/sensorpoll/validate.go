package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sensorpoll/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a sensorpoll configuration file without starting the server.

This command parses the YAML, expands environment variables, and runs the
same checks as serve: required fields, sensor types, and the device,
channel, serial and interval rules of each sensor's adapter. It does not
touch sysfs. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  sensorpoll validate -c config.yaml
  sensorpoll validate --config /etc/sensorpoll/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Count total sensors (direct + from grids)
	directSensors := len(cfg.Sensors)
	gridSensors := 0
	for _, g := range cfg.Grids {
		// Calculate cartesian product size
		size := 1
		for _, vals := range g.Dimensions {
			size *= len(vals)
		}
		gridSensors += size
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:             %d\n", cfg.ListenPort())
	fmt.Printf("  Sysfs root:       %s\n", cfg.SysfsRoot)
	fmt.Printf("  Default interval: %s\n", cfg.DefaultInterval.Duration())
	fmt.Printf("  Sensors:          %d direct + %d from grids = %d total\n",
		directSensors, gridSensors, directSensors+gridSensors)

	return nil
}
