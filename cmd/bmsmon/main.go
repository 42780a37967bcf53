package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/squadracorsepolito/bmsmon/config"
	"github.com/squadracorsepolito/bmsmon/internal"
)

var (
	configPath  string
	catalogPath string
	logLevel    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bmsmon",
		Short: "BMS monitor - CAN bus decoding and routing for battery packs",
		Long: `A monitor for the battery management system of the car.
It reads CAN frames from SocketCAN or cannelloni, decodes them with a DBC file
and keeps the per-signal history of the pack, its segments and cells.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "dbc", "", "Path to the DBC file (overrides the configuration)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(signalsCmd())
	rootCmd.AddCommand(replayCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	internal.SetLogLevel(cfg.Log.Level)

	return cfg, nil
}
