package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/Janus/internal/config"
	"github.com/BrandonDHaskell/Janus/internal/janus/service"
	"github.com/BrandonDHaskell/Janus/internal/janus/store/sqlite"
	"github.com/BrandonDHaskell/Janus/internal/rpcapi"
)

func newStoreServerCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "store-server",
		Short: "Serve the SQLite attendee store to remote stations over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Env == "prod" && cfg.StoreToken == "" {
				return errors.New("store-server: JANUS_STORE_TOKEN is required in prod")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runStoreServer(ctx, cfg, newLogger("store"))
		},
	}
}

func runStoreServer(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	be, err := openSQLite(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.Close()

	var registry *service.StationRegistry
	if len(cfg.KnownStations) > 0 {
		stations := sqlite.NewStationStore(be.conn, be.writer)
		for _, id := range cfg.KnownStations {
			if err := stations.Enable(ctx, id); err != nil {
				return fmt.Errorf("enable station %s: %w", id, err)
			}
		}
		registry = service.NewStationRegistry(stations)
	}
	if cfg.StoreToken == "" {
		logger.Printf("WARNING: store token empty, any client may read and admit")
	}

	pruner := service.NewEventPruner(be.prune, service.PrunerConfig{
		RetentionDays: cfg.EventRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	lis, err := net.Listen("tcp", cfg.StoreListen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.StoreListen, err)
	}

	srv := rpcapi.NewServer(rpcapi.Dependencies{
		Logger:    logger,
		Attendees: be.attendees,
		Events:    be.events,
		Token:     cfg.StoreToken,
		Registry:  registry,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s known_stations=%d", cfg.StoreListen, len(cfg.KnownStations))
		serveErr <- srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		srv.GracefulStop()
		return nil
	case err := <-serveErr:
		return err
	}
}
