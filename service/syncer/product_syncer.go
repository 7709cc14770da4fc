/*
 * @module service/syncer/product_syncer
 * @description Pushes storefront products to the remote product resource
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow gate checks -> load product -> map -> validate -> push -> record outcome
 * @rules products without a SKU get a deterministic fallback reference during mapping
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

// ProductSyncer synchronizes products.
type ProductSyncer struct {
	deps *Dependencies
}

// Sync pushes one product to the remote.
func (s *ProductSyncer) Sync(ctx context.Context, localID int64, req Request) (*SyncResult, error) {
	started := time.Now()
	kind := meta.EntityKindProduct
	objectID := fmt.Sprint(localID)
	d := s.deps

	state, err := d.Store.GetSyncState(ctx, kind, localID)
	if err != nil {
		return nil, err
	}

	if state.Excluded && !req.Force {
		msg := "product is excluded from synchronization"
		d.appendHistory(ctx, meta.EntityKindProduct, req, objectID, "", meta.SyncStatusSkipped, msg, started)
		d.observe(kind, meta.SyncStatusSkipped, started)
		return skippedResult(msg, entityState{state}), nil
	}

	if state.Synced && !state.NeedsSync && !req.Force {
		msg := "product is already synchronized"
		d.appendHistory(ctx, meta.EntityKindProduct, req, objectID, "", meta.SyncStatusSkipped, msg, started)
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

	product, err := d.Store.GetProduct(ctx, localID)
	if err != nil {
		d.appendHistory(ctx, meta.EntityKindProduct, req, objectID, "", meta.SyncStatusSkipped, err.Error(), started)
		d.observe(kind, meta.SyncStatusSkipped, started)
		return nil, err
	}

	payload := d.newMapper().MapProduct(product)
	if err := d.Validator.Validate(payload); err != nil {
		return nil, s.fail(ctx, req, localID, product.Name, err, started)
	}

	remoteID, err := d.pushRemote(ctx, remoteOps{
		find:   d.API.FindProductByExternalReference,
		create: d.API.CreateProduct,
		update: d.API.UpdateProduct,
	}, mapper.ProductExternalReference(localID), state.RemoteID, payload)
	if err != nil {
		return nil, s.fail(ctx, req, localID, product.Name, err, started)
	}

	if err := d.Store.RecordSuccess(ctx, kind, localID, remoteID); err != nil {
		return nil, s.fail(ctx, req, localID, product.Name, err, started)
	}

	now := time.Now()
	d.appendHistory(ctx, meta.EntityKindProduct, req, objectID, product.Name,
		meta.SyncStatusSuccess, "product synchronized", started)
	d.observe(kind, meta.SyncStatusSuccess, started)

	slog.Info("product synchronized",
		"local_id", localID, "remote_id", remoteID, "mode", req.Mode, "forced", req.Force)

	return &SyncResult{
		Success:  true,
		Status:   meta.SyncStatusSuccess,
		Message:  "product synchronized",
		RemoteID: remoteID,
		LastSync: &now,
	}, nil
}

func (s *ProductSyncer) fail(ctx context.Context, req Request, localID int64, name string, cause error, started time.Time) error {
	d := s.deps
	if err := d.Store.RecordFailure(ctx, meta.EntityKindProduct, localID, cause.Error()); err != nil {
		slog.Error("failed to record product sync failure", "local_id", localID, "error", err)
	}
	d.appendHistory(ctx, meta.EntityKindProduct, req, fmt.Sprint(localID), name,
		meta.SyncStatusError, cause.Error(), started)
	d.observe(meta.EntityKindProduct, meta.SyncStatusError, started)
	return cause
}
