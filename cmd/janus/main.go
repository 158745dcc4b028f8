package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/Janus/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "janus",
		Short:         "Single-station event check-in",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "YAML config file (default $JANUS_CONFIG)")

	load := func() (config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return config.Config{}, err
		}
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
		return cfg, nil
	}

	root.AddCommand(
		newStationCmd(load),
		newStoreServerCmd(load),
		newFingerprintCmd(),
		newSeedCmd(load),
	)
	return root
}

func newLogger(component string) *log.Logger {
	return log.New(os.Stderr, fmt.Sprintf("janus-%s ", component), log.LstdFlags|log.LUTC)
}
