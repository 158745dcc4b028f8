package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/Janus/internal/config"
	"github.com/BrandonDHaskell/Janus/internal/db"
	"github.com/BrandonDHaskell/Janus/internal/janus/fingerprint"
)

// newFingerprintCmd prints the store key for each raw code, for building
// seed files from a registration export.
func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <code>...",
		Short: "Print the fingerprint of each scanned code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				fp, err := fingerprint.Of(raw)
				if err != nil {
					return fmt.Errorf("%q: %w", raw, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), fp)
			}
			return nil
		},
	}
}

func newSeedCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fingerprints.json>",
		Short: "Add not-yet-admitted attendees to the SQLite store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			fps, err := db.LoadFingerprintFile(args[0])
			if err != nil {
				return err
			}

			conn, err := db.Open(cmd.Context(), db.Config{Path: cfg.DBPath, Env: cfg.Env})
			if err != nil {
				return err
			}
			defer conn.Close()

			added, err := db.SeedAttendees(cmd.Context(), conn, fps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d attendees added (%d already present)\n", added, int64(len(fps))-added)
			return nil
		},
	}
}
