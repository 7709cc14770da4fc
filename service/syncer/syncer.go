/*
 * @module service/syncer/syncer
 * @description Shared synchronizer protocol: dependencies, results, remote push and outcome recording
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow load entity -> map -> validate -> lookup-or-create-or-update -> persist state -> append history
 * @rules validation happens before any network call; one history entry per attempt; remote_id is first-write-wins
 * @dependencies client, service/store, service/mapper, service/history, service/metrics, service/distributed_lock
 * @refs customer_syncer.go, guest_customer_syncer.go, product_syncer.go, order_syncer.go
 */

package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pennylane-sync-service/client"
	"pennylane-sync-service/service/config"
	"pennylane-sync-service/service/distributed_lock"
	"pennylane-sync-service/service/history"
	"pennylane-sync-service/service/mapper"
	"pennylane-sync-service/service/meta"
	"pennylane-sync-service/service/metrics"
	"pennylane-sync-service/service/models"
	"pennylane-sync-service/service/store"
)

// Lock TTL around one lookup-or-create sequence. Matches the client timeout
// so a stuck call cannot hold the key past its own deadline.
const entityLockTTL = 30 * time.Second

// RemoteAPI is the slice of the Pennylane client the syncers use.
// *client.Client satisfies it; tests substitute a mock.
type RemoteAPI interface {
	FindCustomerByExternalReference(ctx context.Context, ref string) (*client.RemoteRecord, error)
	CreateCustomer(ctx context.Context, payload interface{}) (*client.RemoteRecord, error)
	UpdateCustomer(ctx context.Context, remoteID string, payload interface{}) error
	FindProductByExternalReference(ctx context.Context, ref string) (*client.RemoteRecord, error)
	CreateProduct(ctx context.Context, payload interface{}) (*client.RemoteRecord, error)
	UpdateProduct(ctx context.Context, remoteID string, payload interface{}) error
	FindInvoiceByExternalReference(ctx context.Context, ref string) (*client.RemoteRecord, error)
	CreateInvoice(ctx context.Context, payload interface{}) (*client.RemoteRecord, error)
	UpdateInvoice(ctx context.Context, remoteID string, payload interface{}) error
}

// Request qualifies one sync attempt.
type Request struct {
	// Mode is manual, automatic or cron.
	Mode string
	// Force clears prior sync state and bypasses the exclusion gate and the
	// already-synced fast path.
	Force bool
	// Actor is the user identity behind a manual trigger, empty otherwise.
	Actor string
}

// SyncResult is the outcome returned to callers.
type SyncResult struct {
	Success  bool       `json:"success"`
	Status   string     `json:"status"`
	Message  string     `json:"message,omitempty"`
	RemoteID string     `json:"remote_id,omitempty"`
	LastSync *time.Time `json:"last_sync,omitempty"`
}

// Dependencies is the wiring shared by all synchronizers, injected at
// construction.
type Dependencies struct {
	Store     *store.Store
	API       RemoteAPI
	Config    *config.ConfigService
	Validator *mapper.Validator
	History   *history.HistoryService
	Metrics   *metrics.Collector
	Locks     *distributed_lock.LockExecutor
}

// Syncers bundles the four entity synchronizers.
type Syncers struct {
	Customer *CustomerSyncer
	Guest    *GuestCustomerSyncer
	Product  *ProductSyncer
	Order    *OrderSyncer
}

// NewSyncers wires one synchronizer per entity kind over shared dependencies.
func NewSyncers(deps *Dependencies) *Syncers {
	return &Syncers{
		Customer: &CustomerSyncer{deps: deps},
		Guest:    &GuestCustomerSyncer{deps: deps},
		Product:  &ProductSyncer{deps: deps},
		Order:    &OrderSyncer{deps: deps},
	}
}

// newMapper builds a mapper from the current settings, so a settings change
// takes effect on the next sync without restarting.
func (d *Dependencies) newMapper() *mapper.Mapper {
	return mapper.NewMapper(mapper.Settings{
		Country:         d.Config.DefaultVATCountry(),
		Currency:        d.Config.Currency(),
		LedgerAccountID: d.Config.LedgerAccountID(),
		AccountNumber:   d.Config.AccountNumber(),
		JournalCode:     d.Config.JournalCode(),
	})
}

// remoteOps binds the per-resource API calls used by pushRemote.
type remoteOps struct {
	find   func(ctx context.Context, ref string) (*client.RemoteRecord, error)
	create func(ctx context.Context, payload interface{}) (*client.RemoteRecord, error)
	update func(ctx context.Context, remoteID string, payload interface{}) error
}

// pushRemote runs the lookup-or-create-or-update sequence under a keyed
// advisory lock and returns the remote ID of the touched record.
//
// A stored remote ID short-circuits the lookup: once assigned it is reused
// for every future update. Without one, the remote is queried by external
// reference; an existing counterpart is updated, otherwise a record is
// created and its ID captured.
func (d *Dependencies) pushRemote(ctx context.Context, ops remoteOps, ref, knownRemoteID string, payload interface{}) (string, error) {
	var remoteID string
	err := d.Locks.ExecuteWithLock(ctx, "entity:"+ref, entityLockTTL, func() error {
		if knownRemoteID != "" {
			if err := ops.update(ctx, knownRemoteID, payload); err != nil {
				return err
			}
			remoteID = knownRemoteID
			return nil
		}

		existing, err := ops.find(ctx, ref)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := ops.update(ctx, existing.RemoteID(), payload); err != nil {
				return err
			}
			remoteID = existing.RemoteID()
			return nil
		}

		created, err := ops.create(ctx, payload)
		if err != nil {
			return err
		}
		if created == nil || created.RemoteID() == "" {
			return fmt.Errorf("remote created a record without an id")
		}
		remoteID = created.RemoteID()
		return nil
	})
	return remoteID, err
}

// appendHistory writes the single audit entry for one attempt, logged under
// the history type for the entity kind. A failure to write history is logged
// but never masks the sync outcome.
func (d *Dependencies) appendHistory(ctx context.Context, entityKind string, req Request, objectID, objectName, status, message string, started time.Time) {
	entry := &models.SyncHistoryEntry{
		SyncType:      meta.SyncTypeForKind(entityKind),
		SyncMode:      req.Mode,
		Status:        status,
		Message:       message,
		ExecutionTime: time.Since(started).Seconds(),
	}
	if objectID != "" {
		entry.ObjectID = &objectID
	}
	if objectName != "" {
		entry.ObjectName = &objectName
	}
	if req.Actor != "" {
		entry.Actor = &req.Actor
	}

	if _, err := d.History.AddEntry(ctx, entry); err != nil {
		slog.Error("failed to append sync history entry",
			"sync_type", entry.SyncType, "object_id", objectID, "error", err)
	}
}

// observe records the metrics for one attempt.
func (d *Dependencies) observe(entityKind, status string, started time.Time) {
	if d.Metrics != nil {
		d.Metrics.ObserveSync(entityKind, status, time.Since(started))
	}
}

// skippedResult builds the result for an attempt stopped by a gate.
func skippedResult(message string, state skippedState) *SyncResult {
	return &SyncResult{
		Success:  false,
		Status:   meta.SyncStatusSkipped,
		Message:  message,
		RemoteID: state.remoteID(),
		LastSync: state.lastSyncAt(),
	}
}

// skippedState abstracts the two sync state models for skip results.
type skippedState interface {
	remoteID() string
	lastSyncAt() *time.Time
}

type entityState struct{ *models.SyncState }

func (s entityState) remoteID() string       { return s.RemoteID }
func (s entityState) lastSyncAt() *time.Time { return s.LastSyncAt }

type guestState struct{ *models.GuestSyncState }

func (s guestState) remoteID() string       { return s.RemoteID }
func (s guestState) lastSyncAt() *time.Time { return s.LastSyncAt }
