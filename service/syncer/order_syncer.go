/*
 * @module service/syncer/order_syncer
 * @description Pushes storefront orders to the remote customer-invoice resource
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow gate checks -> load order with items -> map -> validate -> push -> record outcome
 * @rules the order number doubles as the invoice number; billed shipping becomes a line item
 * @dependencies service/store, service/mapper, client
 * @refs syncer.go
 */

package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pennylane-sync-service/service/mapper"
	"pennylane-sync-service/service/meta"
)

// OrderSyncer synchronizes orders as customer invoices.
type OrderSyncer struct {
	deps *Dependencies
}

// Sync pushes one order to the remote as a customer invoice.
func (s *OrderSyncer) Sync(ctx context.Context, localID int64, req Request) (*SyncResult, error) {
	started := time.Now()
	kind := meta.EntityKindOrder
	objectID := fmt.Sprint(localID)
	d := s.deps

	state, err := d.Store.GetSyncState(ctx, kind, localID)
	if err != nil {
		return nil, err
	}

	if state.Excluded && !req.Force {
		msg := "order is excluded from synchronization"
		d.appendHistory(ctx, meta.EntityKindOrder, req, objectID, "", meta.SyncStatusSkipped, msg, started)
		d.observe(kind, meta.SyncStatusSkipped, started)
		return skippedResult(msg, entityState{state}), nil
	}

	if state.Synced && !state.NeedsSync && !req.Force {
		msg := "order is already synchronized"
		d.appendHistory(ctx, meta.EntityKindOrder, req, objectID, "", meta.SyncStatusSkipped, msg, started)
		d.observe(kind, meta.SyncStatusSkipped, started)
		return skippedResult(msg, entityState{state}), nil
	}

	if req.Force {
		if err := d.Store.ResetSyncState(ctx, kind, localID); err != nil {
			return nil, err
		}
		state.Synced = false
		state.RemoteID = ""
		state.LastSyncError = ""
	}

	order, err := d.Store.GetOrder(ctx, localID)
	if err != nil {
		d.appendHistory(ctx, meta.EntityKindOrder, req, objectID, "", meta.SyncStatusSkipped, err.Error(), started)
		d.observe(kind, meta.SyncStatusSkipped, started)
		return nil, err
	}

	payload := d.newMapper().MapInvoice(order)
	if err := d.Validator.Validate(payload); err != nil {
		return nil, s.fail(ctx, req, localID, order.Number, err, started)
	}

	remoteID, err := d.pushRemote(ctx, remoteOps{
		find:   d.API.FindInvoiceByExternalReference,
		create: d.API.CreateInvoice,
		update: d.API.UpdateInvoice,
	}, mapper.OrderExternalReference(localID), state.RemoteID, payload)
	if err != nil {
		return nil, s.fail(ctx, req, localID, order.Number, err, started)
	}

	if err := d.Store.RecordSuccess(ctx, kind, localID, remoteID); err != nil {
		return nil, s.fail(ctx, req, localID, order.Number, err, started)
	}

	now := time.Now()
	d.appendHistory(ctx, meta.EntityKindOrder, req, objectID, order.Number,
		meta.SyncStatusSuccess, "order synchronized", started)
	d.observe(kind, meta.SyncStatusSuccess, started)

	slog.Info("order synchronized",
		"local_id", localID, "remote_id", remoteID, "mode", req.Mode, "forced", req.Force)

	return &SyncResult{
		Success:  true,
		Status:   meta.SyncStatusSuccess,
		Message:  "order synchronized",
		RemoteID: remoteID,
		LastSync: &now,
	}, nil
}

func (s *OrderSyncer) fail(ctx context.Context, req Request, localID int64, name string, cause error, started time.Time) error {
	d := s.deps
	if err := d.Store.RecordFailure(ctx, meta.EntityKindOrder, localID, cause.Error()); err != nil {
		slog.Error("failed to record order sync failure", "local_id", localID, "error", err)
	}
	d.appendHistory(ctx, meta.EntityKindOrder, req, fmt.Sprint(localID), name,
		meta.SyncStatusError, cause.Error(), started)
	d.observe(meta.EntityKindOrder, meta.SyncStatusError, started)
	return cause
}
