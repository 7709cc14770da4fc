/*
 * @module service/scheduler/scheduler_service
 * @description Cron-driven automatic pass over dirty entities and recent orders
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow cron fires -> acquire pass lock -> start marker -> drain dirty sets per kind -> sweep recent orders -> summary entry
 * @rules the pass runs on one instance at a time; per-kind toggles gate each sweep; a failing entity stays dirty
 * @dependencies github.com/robfig/cron/v3, service/syncer, service/store, service/config, service/distributed_lock
 * @refs main.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pennylane-sync-service/service/config"
	"pennylane-sync-service/service/distributed_lock"
	"pennylane-sync-service/service/history"
	"pennylane-sync-service/service/meta"
	"pennylane-sync-service/service/models"
	"pennylane-sync-service/service/store"
	"pennylane-sync-service/service/syncer"

	"github.com/robfig/cron/v3"
)

const (
	// Upper bound on one whole pass; the lock expires after this.
	passLockTTL = 30 * time.Minute
	passLockKey = "scheduled_pass"

	// Orders placed inside this trailing window are swept every pass even
	// without a dirty flag, so late-arriving orders are never missed. The
	// already-synchronized fast path keeps the sweep cheap.
	orderSweepWindow = 48 * time.Hour
)

// SchedulerService runs the automatic synchronization pass on a cron schedule.
type SchedulerService struct {
	store   *store.Store
	syncers *syncer.Syncers
	config  *config.ConfigService
	history *history.HistoryService
	locks   *distributed_lock.LockExecutor

	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewSchedulerService wires a scheduler; Start arms the cron.
func NewSchedulerService(st *store.Store, syncers *syncer.Syncers, cfg *config.ConfigService, hist *history.HistoryService, locks *distributed_lock.LockExecutor) *SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())
	return &SchedulerService{
		store:   st,
		syncers: syncers,
		config:  cfg,
		history: hist,
		locks:   locks,
		cron:    cron.New(cron.WithSeconds()),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start arms the cron with the configured expression.
func (s *SchedulerService) Start() error {
	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	expr := s.config.SyncCron()
	if _, err := s.cron.AddFunc(expr, s.RunPass); err != nil {
		return fmt.Errorf("schedule sync pass: %w", err)
	}

	s.cron.Start()
	s.started = true
	slog.Info("sync scheduler started", "cron", expr)
	return nil
}

// Stop disarms the cron and cancels any in-flight pass.
func (s *SchedulerService) Stop() {
	if !s.started {
		return
	}
	s.cancel()
	s.cron.Stop()
	s.started = false
	slog.Info("sync scheduler stopped")
}

// RunPass executes one automatic pass. Exposed so operators can trigger it
// outside the cron window.
func (s *SchedulerService) RunPass() {
	ran, err := s.locks.ExecuteExclusive(s.ctx, passLockKey, passLockTTL, func() error {
		s.runPass(s.ctx)
		return nil
	})
	if err != nil {
		slog.Error("scheduled pass lock error", "error", err)
		return
	}
	if !ran {
		slog.Info("scheduled pass already running on another instance, skipped")
	}
}

func (s *SchedulerService) runPass(ctx context.Context) {
	started := time.Now()

	if s.config.APIKey() == "" {
		s.recordPass(ctx, meta.SyncStatusSkipped, "scheduled pass skipped: API credential not configured", started)
		return
	}

	s.recordPass(ctx, meta.SyncStatusSuccess, "scheduled pass started", started)

	var processed, failed int

	if s.config.AutoSyncEnabled(config.KeyAutoSyncCustomers) {
		p, f := s.drainDirty(ctx, meta.EntityKindCustomer)
		processed, failed = processed+p, failed+f

		p, f = s.drainDirtyGuests(ctx)
		processed, failed = processed+p, failed+f
	}

	if s.config.AutoSyncEnabled(config.KeyAutoSyncProducts) {
		p, f := s.drainDirty(ctx, meta.EntityKindProduct)
		processed, failed = processed+p, failed+f
	}

	if s.config.AutoSyncEnabled(config.KeyAutoSyncOrders) {
		p, f := s.drainDirty(ctx, meta.EntityKindOrder)
		processed, failed = processed+p, failed+f

		p, f = s.sweepRecentOrders(ctx)
		processed, failed = processed+p, failed+f
	}

	status := meta.SyncStatusSuccess
	if failed > 0 {
		status = meta.SyncStatusWarning
	}
	msg := fmt.Sprintf("scheduled pass: %d processed, %d failed", processed, failed)
	s.recordPass(ctx, status, msg, started)

	slog.Info("scheduled pass finished",
		"processed", processed, "failed", failed, "duration", time.Since(started))
}

// drainDirty syncs dirty entities of one kind until the dirty set is empty.
// Successful syncs drop out of the set; persistent failures accumulate at the
// front, so the offset advances past them instead of looping forever.
func (s *SchedulerService) drainDirty(ctx context.Context, kind string) (processed, failed int) {
	limit := s.config.BatchLimit()
	req := syncer.Request{Mode: meta.SyncModeCron}

	offset := 0
	for {
		ids, _, err := s.store.ListDirtyIDs(ctx, kind, offset, limit)
		if err != nil {
			slog.Error("failed to list dirty entities", "entity_kind", kind, "error", err)
			return processed, failed
		}
		if len(ids) == 0 {
			return processed, failed
		}

		succeeded := 0
		for _, id := range ids {
			res, err := s.syncEntity(ctx, kind, id, req)
			processed++
			switch {
			case err != nil:
				failed++
			case res != nil && res.Success:
				succeeded++
			}
		}
		offset += len(ids) - succeeded
	}
}

// drainDirtyGuests is drainDirty for the guest email set.
func (s *SchedulerService) drainDirtyGuests(ctx context.Context) (processed, failed int) {
	limit := s.config.BatchLimit()
	req := syncer.Request{Mode: meta.SyncModeCron}

	offset := 0
	for {
		emails, _, err := s.store.ListDirtyGuestEmails(ctx, offset, limit)
		if err != nil {
			slog.Error("failed to list dirty guests", "error", err)
			return processed, failed
		}
		if len(emails) == 0 {
			return processed, failed
		}

		succeeded := 0
		for _, email := range emails {
			res, err := s.syncers.Guest.Sync(ctx, email, req)
			processed++
			switch {
			case err != nil:
				failed++
			case res != nil && res.Success:
				succeeded++
			}
		}
		offset += len(emails) - succeeded
	}
}

// sweepRecentOrders pushes orders placed inside the trailing window.
func (s *SchedulerService) sweepRecentOrders(ctx context.Context) (processed, failed int) {
	limit := s.config.BatchLimit()
	req := syncer.Request{Mode: meta.SyncModeCron}
	to := time.Now()
	from := to.Add(-orderSweepWindow)

	offset := 0
	for {
		ids, total, err := s.store.ListOrderIDsInRange(ctx, from, to, offset, limit)
		if err != nil {
			slog.Error("failed to list recent orders", "error", err)
			return processed, failed
		}
		if len(ids) == 0 {
			return processed, failed
		}

		for _, id := range ids {
			if _, err := s.syncers.Order.Sync(ctx, id, req); err != nil {
				failed++
			}
			processed++
		}

		offset += len(ids)
		if int64(offset) >= total {
			return processed, failed
		}
	}
}

func (s *SchedulerService) syncEntity(ctx context.Context, kind string, id int64, req syncer.Request) (*syncer.SyncResult, error) {
	switch kind {
	case meta.EntityKindCustomer:
		return s.syncers.Customer.Sync(ctx, id, req)
	case meta.EntityKindProduct:
		return s.syncers.Product.Sync(ctx, id, req)
	case meta.EntityKindOrder:
		return s.syncers.Order.Sync(ctx, id, req)
	default:
		return nil, fmt.Errorf("unsupported entity kind %q", kind)
	}
}

func (s *SchedulerService) recordPass(ctx context.Context, status, message string, started time.Time) {
	entry := &models.SyncHistoryEntry{
		SyncType:      meta.SyncTypeBatch,
		SyncMode:      meta.SyncModeCron,
		Status:        status,
		Message:       message,
		ExecutionTime: time.Since(started).Seconds(),
	}
	if _, err := s.history.AddEntry(ctx, entry); err != nil {
		slog.Error("failed to append scheduled pass history entry", "error", err)
	}
}
