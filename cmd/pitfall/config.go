package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagarc03/pitfall/config"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFiles, _ := cmd.Flags().GetStringSlice("config")

	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
