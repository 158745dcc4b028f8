package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/Janus/internal/config"
	"github.com/BrandonDHaskell/Janus/internal/httpapi"
	"github.com/BrandonDHaskell/Janus/internal/janus/capture"
	"github.com/BrandonDHaskell/Janus/internal/janus/display"
	"github.com/BrandonDHaskell/Janus/internal/janus/scan"
	"github.com/BrandonDHaskell/Janus/internal/janus/service"
)

func newStationCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "station",
		Short: "Run one check-in station",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runStation(ctx, cfg, newLogger("station"))
		},
	}
}

func runStation(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.Close()

	if be.prune != nil {
		pruner := service.NewEventPruner(be.prune, service.PrunerConfig{
			RetentionDays: cfg.EventRetentionDays,
			IntervalHours: cfg.PruneIntervalHours,
		}, logger)
		pruner.Start(ctx)
		defer pruner.Stop()
	}

	engine := service.NewValidationEngine(be.attendees, be.events, service.EngineConfig{
		StationID:    cfg.StationID,
		StoreTimeout: cfg.StoreTimeout(),
	}, logger)

	hub := display.NewHub(logger)
	defer hub.Close()

	ctrl := scan.NewController(scan.Config{
		Decoder:   newDecoder(cfg),
		Validator: engine,
		Sink: display.Multi{
			display.NewTerminal(os.Stdout, cfg.StationID, cfg.NoColor),
			hub,
		},
		Window: cfg.DisplayWindow(),
		Logger: logger,
	})

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    logger,
		Addr:      cfg.HTTPAddr,
		StationID: cfg.StationID,
		Scanner:   ctrl,
		Display:   hub,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s station=%s", cfg.HTTPAddr, cfg.StationID)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if err := ctrl.Start(ctx); err != nil {
		// The station stays up so displays keep showing the failure.
		logger.Printf("station unavailable: %v", err)
	}

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		logger.Printf("server error: %v", err)
	}

	if cerr := ctrl.Close(); cerr != nil {
		logger.Printf("capture close: %v", cerr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	return err
}

func newDecoder(cfg config.Config) scan.Decoder {
	if cfg.Decoder == "frames" {
		return capture.NewFrameDecoder(capture.NewDirFrameSource(cfg.FramesDir), nil, cfg.FPS)
	}
	return capture.NewLineDecoder("stdin", os.Stdin)
}
