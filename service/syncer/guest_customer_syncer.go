/*
 * @module service/syncer/guest_customer_syncer
 * @description Pushes guest checkouts, keyed by email, to the remote individual-customer resource
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow gate checks -> load latest guest order -> map -> validate -> push -> record outcome
 * @rules the latest guest order for the email is the source snapshot; state lives in the guest table
 * @dependencies service/store, service/mapper, client
 * @refs syncer.go
 */

package syncer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pennylane-sync-service/service/mapper"
	"pennylane-sync-service/service/meta"
)

// GuestCustomerSyncer synchronizes guest checkouts. Guests have no account
// record, so the most recent guest order for the email stands in as the
// local entity.
type GuestCustomerSyncer struct {
	deps *Dependencies
}

// Sync pushes one guest customer, identified by email, to the remote.
func (s *GuestCustomerSyncer) Sync(ctx context.Context, email string, req Request) (*SyncResult, error) {
	started := time.Now()
	email = strings.ToLower(strings.TrimSpace(email))
	kind := meta.EntityKindGuestCustomer
	d := s.deps

	state, err := d.Store.GetGuestSyncState(ctx, email)
	if err != nil {
		return nil, err
	}

	if state.Excluded && !req.Force {
		msg := "guest customer is excluded from synchronization"
		d.appendHistory(ctx, meta.EntityKindGuestCustomer, req, email, "", meta.SyncStatusSkipped, msg, started)
		d.observe(kind, meta.SyncStatusSkipped, started)
		return skippedResult(msg, guestState{state}), nil
	}

	if state.Synced && !state.NeedsSync && !req.Force {
		msg := "guest customer is already synchronized"
		d.appendHistory(ctx, meta.EntityKindGuestCustomer, req, email, "", meta.SyncStatusSkipped, msg, started)
		d.observe(kind, meta.SyncStatusSkipped, started)
		return skippedResult(msg, guestState{state}), nil
	}

	if req.Force {
		if err := d.Store.ResetGuestSyncState(ctx, email); err != nil {
			return nil, err
		}
		state.Synced = false
		state.RemoteID = ""
		state.LastSyncError = ""
	}

	order, err := d.Store.GetLatestGuestOrder(ctx, email)
	if err != nil {
		d.appendHistory(ctx, meta.EntityKindGuestCustomer, req, email, "", meta.SyncStatusSkipped, err.Error(), started)
		d.observe(kind, meta.SyncStatusSkipped, started)
		return nil, err
	}

	payload := d.newMapper().MapGuestCustomer(order)
	if err := d.Validator.Validate(payload); err != nil {
		return nil, s.fail(ctx, req, email, order.CustomerName(), err, started)
	}

	remoteID, err := d.pushRemote(ctx, remoteOps{
		find:   d.API.FindCustomerByExternalReference,
		create: d.API.CreateCustomer,
		update: d.API.UpdateCustomer,
	}, mapper.GuestExternalReference(email), state.RemoteID, payload)
	if err != nil {
		return nil, s.fail(ctx, req, email, order.CustomerName(), err, started)
	}

	if err := d.Store.RecordGuestSuccess(ctx, email, remoteID); err != nil {
		return nil, s.fail(ctx, req, email, order.CustomerName(), err, started)
	}

	now := time.Now()
	d.appendHistory(ctx, meta.EntityKindGuestCustomer, req, email, order.CustomerName(),
		meta.SyncStatusSuccess, "guest customer synchronized", started)
	d.observe(kind, meta.SyncStatusSuccess, started)

	slog.Info("guest customer synchronized",
		"email", email, "remote_id", remoteID, "mode", req.Mode, "forced", req.Force)

	return &SyncResult{
		Success:  true,
		Status:   meta.SyncStatusSuccess,
		Message:  "guest customer synchronized",
		RemoteID: remoteID,
		LastSync: &now,
	}, nil
}

func (s *GuestCustomerSyncer) fail(ctx context.Context, req Request, email, name string, cause error, started time.Time) error {
	d := s.deps
	if err := d.Store.RecordGuestFailure(ctx, email, cause.Error()); err != nil {
		slog.Error("failed to record guest sync failure", "email", email, "error", err)
	}
	d.appendHistory(ctx, meta.EntityKindGuestCustomer, req, email, name,
		meta.SyncStatusError, cause.Error(), started)
	d.observe(meta.EntityKindGuestCustomer, meta.SyncStatusError, started)
	return cause
}
