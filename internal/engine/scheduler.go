package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SyncAllCatalogs runs a catalog sync for every linked account,
// staggered to avoid API bursts.
func (e *Engine) SyncAllCatalogs(ctx context.Context) error {
	accounts, err := e.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}

	for i := range accounts {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		e.SyncCatalog(ctx, accounts[i].UserID)

		if i < len(accounts)-1 && e.staggerOffset > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.staggerOffset):
			}
		}
	}

	return nil
}

// SyncAllOrders runs an order sync for every linked account. Per-user
// failures are logged and the pass continues; only account enumeration
// failures propagate.
func (e *Engine) SyncAllOrders(ctx context.Context) error {
	accounts, err := e.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}

	for i := range accounts {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if _, err := e.SyncOrders(ctx, accounts[i].UserID); err != nil {
			if errors.Is(err, ErrNotConnected) {
				e.log.Info("order sync skipped", "user_id", accounts[i].UserID)
			} else {
				e.log.Error("order sync failed",
					"user_id", accounts[i].UserID,
					"error", err,
				)
			}
		}

		if i < len(accounts)-1 && e.staggerOffset > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.staggerOffset):
			}
		}
	}

	return nil
}

// Scheduler runs periodic catalog and order syncs for all accounts.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	log    *slog.Logger
}

// NewScheduler creates a Scheduler with independent intervals for
// catalog and order sync.
func NewScheduler(
	eng *Engine,
	catalogInterval time.Duration,
	orderInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:   c,
		engine: eng,
		log:    log,
	}

	if _, err := c.AddFunc(
		"@every "+catalogInterval.String(),
		s.runCatalogSync,
	); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(
		"@every "+orderInterval.String(),
		s.runOrderSync,
	); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runCatalogSync() {
	ctx := context.Background()
	s.log.Info("scheduled catalog sync starting")
	if err := s.engine.SyncAllCatalogs(ctx); err != nil {
		s.log.Error("scheduled catalog sync failed", "error", err)
	}
}

func (s *Scheduler) runOrderSync() {
	ctx := context.Background()
	s.log.Info("scheduled order sync starting")
	if err := s.engine.SyncAllOrders(ctx); err != nil {
		s.log.Error("scheduled order sync failed", "error", err)
	}
}
