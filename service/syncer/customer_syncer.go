/*
 * @module service/syncer/customer_syncer
 * @description Pushes storefront customer accounts to the remote individual-customer resource
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow gate checks -> load customer -> map -> validate -> push -> record outcome
 * @rules excluded customers are skipped unless forced; a forced sync resets prior state first
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

// CustomerSyncer synchronizes customer accounts.
type CustomerSyncer struct {
	deps *Dependencies
}

// Sync pushes one customer account to the remote.
func (s *CustomerSyncer) Sync(ctx context.Context, localID int64, req Request) (*SyncResult, error) {
	started := time.Now()
	kind := meta.EntityKindCustomer
	objectID := fmt.Sprint(localID)
	d := s.deps

	state, err := d.Store.GetSyncState(ctx, kind, localID)
	if err != nil {
		return nil, err
	}

	if state.Excluded && !req.Force {
		msg := "customer is excluded from synchronization"
		d.appendHistory(ctx, meta.EntityKindCustomer, req, objectID, "", meta.SyncStatusSkipped, msg, started)
		d.observe(kind, meta.SyncStatusSkipped, started)
		return skippedResult(msg, entityState{state}), nil
	}

	if state.Synced && !state.NeedsSync && !req.Force {
		msg := "customer is already synchronized"
		d.appendHistory(ctx, meta.EntityKindCustomer, req, objectID, "", meta.SyncStatusSkipped, msg, started)
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

	customer, err := d.Store.GetCustomer(ctx, localID)
	if err != nil {
		d.appendHistory(ctx, meta.EntityKindCustomer, req, objectID, "", meta.SyncStatusSkipped, err.Error(), started)
		d.observe(kind, meta.SyncStatusSkipped, started)
		return nil, err
	}

	payload := d.newMapper().MapCustomer(customer)
	if err := d.Validator.Validate(payload); err != nil {
		return nil, s.fail(ctx, req, localID, customer.DisplayName(), err, started)
	}

	remoteID, err := d.pushRemote(ctx, remoteOps{
		find:   d.API.FindCustomerByExternalReference,
		create: d.API.CreateCustomer,
		update: d.API.UpdateCustomer,
	}, mapper.CustomerExternalReference(localID), state.RemoteID, payload)
	if err != nil {
		return nil, s.fail(ctx, req, localID, customer.DisplayName(), err, started)
	}

	if err := d.Store.RecordSuccess(ctx, kind, localID, remoteID); err != nil {
		return nil, s.fail(ctx, req, localID, customer.DisplayName(), err, started)
	}

	now := time.Now()
	d.appendHistory(ctx, meta.EntityKindCustomer, req, objectID, customer.DisplayName(),
		meta.SyncStatusSuccess, "customer synchronized", started)
	d.observe(kind, meta.SyncStatusSuccess, started)

	slog.Info("customer synchronized",
		"local_id", localID, "remote_id", remoteID, "mode", req.Mode, "forced", req.Force)

	return &SyncResult{
		Success:  true,
		Status:   meta.SyncStatusSuccess,
		Message:  "customer synchronized",
		RemoteID: remoteID,
		LastSync: &now,
	}, nil
}

// fail records a failed attempt in state, history and metrics, then returns
// the original error.
func (s *CustomerSyncer) fail(ctx context.Context, req Request, localID int64, name string, cause error, started time.Time) error {
	d := s.deps
	if err := d.Store.RecordFailure(ctx, meta.EntityKindCustomer, localID, cause.Error()); err != nil {
		slog.Error("failed to record customer sync failure", "local_id", localID, "error", err)
	}
	d.appendHistory(ctx, meta.EntityKindCustomer, req, fmt.Sprint(localID), name,
		meta.SyncStatusError, cause.Error(), started)
	d.observe(meta.EntityKindCustomer, meta.SyncStatusError, started)
	return cause
}
