package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/barstream/catalog-dedupe/internal/config"
	"github.com/barstream/catalog-dedupe/internal/store"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yaml with default settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		const path = "config.yaml"
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return eris.Errorf("%s already exists (use --force to overwrite)", path)
		}

		defaults := config.Config{
			Store: config.StoreConfig{
				Driver:      "postgres",
				DatabaseURL: "postgres://localhost:5432/dedupe",
				Pool:        store.PoolConfig{MaxConns: 10, MinConns: 2},
			},
			Match: config.MatchConfig{
				BrandWeight:            0.4,
				VolumeWeight:           0.3,
				TokenWeight:            0.3,
				BrandReasonThreshold:   0.8,
				OverlapReasonThreshold: 0.5,
			},
			Scan: config.ScanConfig{
				MinConfidence: 0.70,
				MaxProducts:   500,
			},
			Merge: config.MergeConfig{
				MaxAttempts:      3,
				InitialBackoffMs: 500,
				MaxBackoffMs:     10000,
				Multiplier:       2.0,
				JitterFraction:   0.25,
			},
			Server: config.ServerConfig{Port: 8080},
			Log:    config.LogConfig{Level: "info", Format: "json"},
		}

		data, err := yaml.Marshal(defaults)
		if err != nil {
			return eris.Wrap(err, "marshal default config")
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return eris.Wrap(err, "write config file")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s.\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
