package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Janus/internal/janus/store"
)

// EventPruner periodically deletes admission events older than a
// configurable retention period.  It runs as a background goroutine and
// is safe to stop via its context or the Stop method.
//
// A retention of 0 disables pruning entirely.
type EventPruner struct {
	store     store.EventPruneStore
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// PrunerConfig holds the parameters for NewEventPruner.
type PrunerConfig struct {
	// RetentionDays is how many days of audit history to keep.
	// 0 means keep everything (pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs.  Defaults to 6.
	IntervalHours int
}

// NewEventPruner creates a pruner but does not start it.
func NewEventPruner(s store.EventPruneStore, cfg PrunerConfig, logger *log.Logger) *EventPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &EventPruner{
		store:     s,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start runs an immediate prune, then repeats on the configured interval
// until ctx is cancelled or Stop is called.
func (p *EventPruner) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		if p.retention <= 0 {
			p.logger.Printf("event pruner disabled (retention=0)")
			close(p.done)
			return
		}

		ctx, p.cancel = context.WithCancel(ctx)
		go p.loop(ctx)

		p.logger.Printf("event pruner started (retention=%dd, interval=%dh)",
			int(p.retention.Hours()/24), int(p.interval.Hours()))
	})
}

// Stop signals the pruner to exit and waits for it to finish.  Stopping a
// pruner that was never started is a no-op.
func (p *EventPruner) Stop() {
	started := true
	p.startOnce.Do(func() {
		started = false
		close(p.done)
	})
	if started && p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *EventPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *EventPruner) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.retention)
	deleted, err := p.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Printf("event prune error: %v", err)
		return
	}
	if deleted > 0 {
		p.logger.Printf("event prune: deleted %d rows older than %s",
			deleted, cutoff.Format(time.RFC3339))
	}
}
