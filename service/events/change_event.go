/*
 * @module service/events/change_event
 * @description Storefront change events and the dispatcher that flags entities dirty
 * @architecture adapter - inbound messaging layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow decode event -> mark entity dirty -> next scheduled pass picks it up
 * @rules consumers only flag, they never sync inline; an unknown kind is logged and dropped
 * @dependencies service/store, service/meta
 * @refs kafka_consumer.go, mqtt_consumer.go, api/controllers/webhook_controller.go
 */

package events

import (
	"context"
	"fmt"
	"log/slog"

	"pennylane-sync-service/service/meta"
	"pennylane-sync-service/service/store"
)

// ChangeEvent is the storefront's change notification. Account-backed kinds
// carry a local ID; guest customer events carry the email instead.
type ChangeEvent struct {
	EntityKind string `json:"entity_kind"`
	LocalID    int64  `json:"local_id,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Dispatcher turns change events into dirty flags.
type Dispatcher struct {
	store *store.Store
}

// NewDispatcher creates a dispatcher on top of the store.
func NewDispatcher(st *store.Store) *Dispatcher {
	return &Dispatcher{store: st}
}

// Dispatch marks the referenced entity dirty. The flag is set before any
// processing, so a crash after this point still leaves the entity queued.
func (d *Dispatcher) Dispatch(ctx context.Context, event ChangeEvent) error {
	switch event.EntityKind {
	case meta.EntityKindGuestCustomer:
		if event.Email == "" {
			return fmt.Errorf("guest change event without email")
		}
		return d.store.MarkGuestDirty(ctx, event.Email)
	case meta.EntityKindCustomer, meta.EntityKindProduct, meta.EntityKindOrder:
		if event.LocalID <= 0 {
			return fmt.Errorf("%s change event without local id", event.EntityKind)
		}
		return d.store.MarkDirty(ctx, event.EntityKind, event.LocalID)
	default:
		slog.Warn("change event with unknown entity kind dropped", "entity_kind", event.EntityKind)
		return nil
	}
}
