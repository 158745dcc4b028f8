package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/BrandonDHaskell/Janus/internal/config"
	"github.com/BrandonDHaskell/Janus/internal/db"
	"github.com/BrandonDHaskell/Janus/internal/janus/store"
	"github.com/BrandonDHaskell/Janus/internal/janus/store/memory"
	"github.com/BrandonDHaskell/Janus/internal/janus/store/sqlite"
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
	"github.com/BrandonDHaskell/Janus/internal/rpcapi"
)

// backend is the record store a process talks to.  prune is nil when the
// audit log lives elsewhere.
type backend struct {
	attendees store.AttendeeStore
	events    store.AdmissionEventStore
	prune     store.EventPruneStore

	conn   *sql.DB
	writer *db.Worker
	closer func() error
}

func (b *backend) Close() {
	if b.closer != nil {
		_ = b.closer()
	}
}

func openBackend(ctx context.Context, cfg config.Config, logger *log.Logger) (*backend, error) {
	switch cfg.Store {
	case "memory":
		fps, err := seedList(cfg)
		if err != nil {
			return nil, err
		}
		events := memory.NewAdmissionEventStore()
		logger.Printf("store=memory seeded=%d", len(fps))
		return &backend{
			attendees: memory.NewAttendeeStore(fps...),
			events:    events,
			prune:     events,
		}, nil

	case "grpc":
		c, err := rpcapi.Dial(rpcapi.ClientConfig{
			Addr:      cfg.StoreAddr,
			StationID: cfg.StationID,
			Token:     cfg.StoreToken,
			TLS:       cfg.StoreTLS,
		})
		if err != nil {
			return nil, err
		}
		logger.Printf("store=grpc addr=%s tls=%t", cfg.StoreAddr, cfg.StoreTLS)
		return &backend{attendees: c, events: c, closer: c.Close}, nil

	default:
		return openSQLite(ctx, cfg, logger)
	}
}

func openSQLite(ctx context.Context, cfg config.Config, logger *log.Logger) (*backend, error) {
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return nil, err
	}

	if cfg.Env == "dev" && cfg.SeedFile != "" {
		fps, err := db.LoadFingerprintFile(cfg.SeedFile)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		added, err := db.SeedAttendees(ctx, conn, fps)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		logger.Printf("dev seed file=%s added=%d", cfg.SeedFile, added)
	}

	writer := db.NewWorker(conn)
	events := sqlite.NewAdmissionEventStore(conn, writer)
	logger.Printf("store=sqlite path=%s", cfg.DBPath)

	return &backend{
		attendees: sqlite.NewAttendeeStore(conn, writer),
		events:    events,
		prune:     events,
		conn:      conn,
		writer:    writer,
		closer: func() error {
			writer.Close()
			return conn.Close()
		},
	}, nil
}

func seedList(cfg config.Config) ([]types.Fingerprint, error) {
	if cfg.SeedFile == "" {
		return nil, nil
	}
	fps, err := db.LoadFingerprintFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}
	return fps, nil
}
