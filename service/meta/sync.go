/*
 * @module service/meta/sync
 * @description Shared constants for sync entity kinds, trigger modes and outcome statuses
 * @architecture layered architecture - metadata layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow stateless constant lookups
 * @rules every persisted enum value goes through this package, never raw strings
 * @dependencies none
 * @refs service/syncer, service/batch, service/history
 */

package meta

// Entity kinds handled by the synchronizers.
const (
	EntityKindCustomer      = "customer"
	EntityKindGuestCustomer = "guest_customer"
	EntityKindProduct       = "product"
	EntityKindOrder         = "order"
)

// History sync types. Guest customers are recorded under the customer type.
const (
	SyncTypeProduct  = "product"
	SyncTypeCustomer = "customer"
	SyncTypeOrder    = "order"
	SyncTypeBatch    = "batch"
)

// Trigger modes.
const (
	SyncModeManual    = "manual"
	SyncModeAutomatic = "automatic"
	SyncModeCron      = "cron"
)

// Outcome statuses for history entries and batch item results.
const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
	SyncStatusWarning = "warning"
	SyncStatusSkipped = "skipped"
)

var validEntityKinds = map[string]bool{
	EntityKindCustomer:      true,
	EntityKindGuestCustomer: true,
	EntityKindProduct:       true,
	EntityKindOrder:         true,
}

var validSyncModes = map[string]bool{
	SyncModeManual:    true,
	SyncModeAutomatic: true,
	SyncModeCron:      true,
}

var validSyncStatuses = map[string]bool{
	SyncStatusSuccess: true,
	SyncStatusError:   true,
	SyncStatusWarning: true,
	SyncStatusSkipped: true,
}

// IsValidEntityKind reports whether kind is one of the synced entity kinds.
func IsValidEntityKind(kind string) bool {
	return validEntityKinds[kind]
}

// IsValidSyncMode reports whether mode is a known trigger mode.
func IsValidSyncMode(mode string) bool {
	return validSyncModes[mode]
}

// IsValidSyncStatus reports whether status is a known outcome status.
func IsValidSyncStatus(status string) bool {
	return validSyncStatuses[status]
}

// SyncTypeForKind maps an entity kind to the history sync type it is logged under.
func SyncTypeForKind(kind string) string {
	switch kind {
	case EntityKindProduct:
		return SyncTypeProduct
	case EntityKindCustomer, EntityKindGuestCustomer:
		return SyncTypeCustomer
	case EntityKindOrder:
		return SyncTypeOrder
	default:
		return kind
	}
}
