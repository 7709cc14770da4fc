/*
 * @module service/batch/batch_driver
 * @description Stepped batch runs: one page of entities per call with per-item failure isolation
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow guard checks -> start marker -> select page of IDs -> sync each -> summary entry -> progress result
 * @rules one failing entity never aborts the step; a missing credential short-circuits before any selection
 * @dependencies service/syncer, service/store, service/config, service/history
 * @refs service/scheduler, api/controllers
 */

package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pennylane-sync-service/service/config"
	"pennylane-sync-service/service/history"
	"pennylane-sync-service/service/meta"
	"pennylane-sync-service/service/metrics"
	"pennylane-sync-service/service/models"
	"pennylane-sync-service/service/store"
	"pennylane-sync-service/service/syncer"
)

// Request describes one batch step. Without a selection below, the step walks
// the full entity table.
type Request struct {
	// EntityKind selects which entities the step processes.
	EntityKind string
	// Mode is the trigger mode stamped on every history entry of the step.
	Mode string
	// Force resets prior sync state on every selected entity, bypassing the
	// exclusion gate and the already-synchronized fast path. Used together
	// with IDs or Emails for forced-resync batches.
	Force bool
	// IDs restricts the step to an explicit ID list.
	IDs []int64
	// Emails restricts a guest customer step to an explicit email list.
	Emails []string
	// From and To restrict an order step to orders placed inside the range.
	// A zero To means "up to now".
	From time.Time
	To   time.Time
	// Offset is where the step resumes; the previous step's NextOffset.
	Offset int
	// Limit caps the page size; zero falls back to the configured batch limit.
	Limit int
	// Actor is the user identity behind a manual batch, empty otherwise.
	Actor string
}

// ItemResult is the outcome for one entity inside a step.
type ItemResult struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StepResult is the progress report for one step.
type StepResult struct {
	EntityKind string       `json:"entity_kind"`
	Processed  int          `json:"processed"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Total      int64        `json:"total"`
	NextOffset int          `json:"next_offset"`
	Done       bool         `json:"done"`
	Message    string       `json:"message,omitempty"`
	Results    []ItemResult `json:"results,omitempty"`
}

// Driver runs stepped batch synchronizations.
type Driver struct {
	store   *store.Store
	syncers *syncer.Syncers
	config  *config.ConfigService
	history *history.HistoryService
	metrics *metrics.Collector
}

// NewDriver wires a batch driver.
func NewDriver(st *store.Store, syncers *syncer.Syncers, cfg *config.ConfigService, hist *history.HistoryService, m *metrics.Collector) *Driver {
	return &Driver{store: st, syncers: syncers, config: cfg, history: hist, metrics: m}
}

// autoSyncKeyForKind maps an entity kind to its automatic-sync toggle.
func autoSyncKeyForKind(kind string) string {
	switch kind {
	case meta.EntityKindProduct:
		return config.KeyAutoSyncProducts
	case meta.EntityKindOrder:
		return config.KeyAutoSyncOrders
	default:
		return config.KeyAutoSyncCustomers
	}
}

// RunStep executes one page of a batch run and reports progress so the caller
// can drive the next step.
func (d *Driver) RunStep(ctx context.Context, req Request) (*StepResult, error) {
	if !meta.IsValidEntityKind(req.EntityKind) {
		return nil, fmt.Errorf("unsupported entity kind %q", req.EntityKind)
	}
	if len(req.Emails) > 0 && req.EntityKind != meta.EntityKindGuestCustomer {
		return nil, fmt.Errorf("email selection only applies to guest customers")
	}
	if len(req.IDs) > 0 && req.EntityKind == meta.EntityKindGuestCustomer {
		return nil, fmt.Errorf("guest customers are selected by email, not by id")
	}
	if (!req.From.IsZero() || !req.To.IsZero()) && req.EntityKind != meta.EntityKindOrder {
		return nil, fmt.Errorf("date range selection only applies to orders")
	}
	if req.Limit <= 0 {
		req.Limit = d.config.BatchLimit()
	}
	if req.Mode == "" {
		req.Mode = meta.SyncModeManual
	}

	if d.config.APIKey() == "" {
		msg := "batch skipped: API credential not configured"
		d.recordEntry(ctx, req, meta.SyncStatusSkipped, msg, time.Now())
		return &StepResult{EntityKind: req.EntityKind, Done: true, Message: msg}, nil
	}

	if req.Mode == meta.SyncModeCron && !d.config.AutoSyncEnabled(autoSyncKeyForKind(req.EntityKind)) {
		msg := fmt.Sprintf("batch skipped: automatic sync disabled for %s", req.EntityKind)
		d.recordEntry(ctx, req, meta.SyncStatusSkipped, msg, time.Now())
		return &StepResult{EntityKind: req.EntityKind, Done: true, Message: msg}, nil
	}

	started := time.Now()
	d.recordEntry(ctx, req, meta.SyncStatusSuccess,
		fmt.Sprintf("%s batch step started (offset %d)", req.EntityKind, req.Offset), started)

	result, err := d.runPage(ctx, req)
	if err != nil {
		return nil, err
	}

	status := meta.SyncStatusSuccess
	if result.Failed > 0 {
		status = meta.SyncStatusWarning
	}
	msg := fmt.Sprintf("%s batch step: %d processed, %d succeeded, %d failed, %d skipped (offset %d of %d)",
		req.EntityKind, result.Processed, result.Succeeded, result.Failed, result.Skipped, req.Offset, result.Total)
	result.Message = msg

	d.recordEntry(ctx, req, status, msg, started)
	if d.metrics != nil {
		d.metrics.ObserveBatch(req.EntityKind, status)
	}

	slog.Info("batch step finished",
		"entity_kind", req.EntityKind, "mode", req.Mode, "offset", req.Offset,
		"processed", result.Processed, "succeeded", result.Succeeded,
		"failed", result.Failed, "skipped", result.Skipped, "done", result.Done)

	return result, nil
}

// runPage selects one page of IDs and syncs them with per-item isolation.
func (d *Driver) runPage(ctx context.Context, req Request) (*StepResult, error) {
	result := &StepResult{EntityKind: req.EntityKind}
	syncReq := syncer.Request{Mode: req.Mode, Force: req.Force, Actor: req.Actor}

	if req.EntityKind == meta.EntityKindGuestCustomer {
		emails, total, err := d.selectGuestEmails(ctx, req)
		if err != nil {
			return nil, err
		}
		result.Total = total
		for _, email := range emails {
			res, err := d.syncers.Guest.Sync(ctx, email, syncReq)
			result.tally(email, res, err)
		}
		result.finish(req.Offset, len(emails))
		return result, nil
	}

	ids, total, err := d.selectIDs(ctx, req)
	if err != nil {
		return nil, err
	}
	result.Total = total

	for _, id := range ids {
		var (
			res *syncer.SyncResult
			err error
		)
		switch req.EntityKind {
		case meta.EntityKindCustomer:
			res, err = d.syncers.Customer.Sync(ctx, id, syncReq)
		case meta.EntityKindProduct:
			res, err = d.syncers.Product.Sync(ctx, id, syncReq)
		case meta.EntityKindOrder:
			res, err = d.syncers.Order.Sync(ctx, id, syncReq)
		}
		result.tally(fmt.Sprint(id), res, err)
	}
	result.finish(req.Offset, len(ids))
	return result, nil
}

// selectIDs picks the page source for an ID-keyed step: an explicit list,
// the order date range, or the full table.
func (d *Driver) selectIDs(ctx context.Context, req Request) ([]int64, int64, error) {
	if len(req.IDs) > 0 {
		page, total := pageSlice(req.IDs, req.Offset, req.Limit)
		return page, total, nil
	}
	if !req.From.IsZero() || !req.To.IsZero() {
		to := req.To
		if to.IsZero() {
			to = time.Now()
		}
		return d.store.ListOrderIDsInRange(ctx, req.From, to, req.Offset, req.Limit)
	}
	return d.store.ListEntityIDs(ctx, req.EntityKind, req.Offset, req.Limit)
}

// selectGuestEmails picks the page source for a guest customer step.
func (d *Driver) selectGuestEmails(ctx context.Context, req Request) ([]string, int64, error) {
	if len(req.Emails) > 0 {
		page, total := pageSlice(req.Emails, req.Offset, req.Limit)
		return page, total, nil
	}
	return d.store.ListGuestEmails(ctx, req.Offset, req.Limit)
}

// pageSlice applies offset and limit to an explicit selection list.
func pageSlice[T any](items []T, offset, limit int) ([]T, int64) {
	total := int64(len(items))
	if offset >= len(items) {
		return nil, total
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end], total
}

// tally folds one entity outcome into the step counters. A vanished entity is
// counted as skipped, every other error as failed; neither aborts the step.
func (r *StepResult) tally(id string, res *syncer.SyncResult, err error) {
	r.Processed++

	item := ItemResult{ID: id}
	switch {
	case err != nil:
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) {
			item.Status = meta.SyncStatusSkipped
			r.Skipped++
		} else {
			item.Status = meta.SyncStatusError
			r.Failed++
		}
		item.Message = err.Error()
	case res != nil && res.Status == meta.SyncStatusSkipped:
		item.Status = meta.SyncStatusSkipped
		item.Message = res.Message
		r.Skipped++
	default:
		item.Status = meta.SyncStatusSuccess
		r.Succeeded++
	}
	r.Results = append(r.Results, item)
}

// finish computes the resume point.
func (r *StepResult) finish(offset, pageSize int) {
	r.NextOffset = offset + pageSize
	r.Done = pageSize == 0 || int64(r.NextOffset) >= r.Total
}

// recordEntry appends one audit entry for the step.
func (d *Driver) recordEntry(ctx context.Context, req Request, status, message string, started time.Time) {
	entry := &models.SyncHistoryEntry{
		SyncType:      meta.SyncTypeBatch,
		SyncMode:      req.Mode,
		Status:        status,
		Message:       message,
		ExecutionTime: time.Since(started).Seconds(),
	}
	if req.EntityKind != "" {
		kind := req.EntityKind
		entry.ObjectName = &kind
	}
	if req.Actor != "" {
		entry.Actor = &req.Actor
	}

	if _, err := d.history.AddEntry(ctx, entry); err != nil {
		slog.Error("failed to append batch history entry",
			"entity_kind", req.EntityKind, "error", err)
	}
}
