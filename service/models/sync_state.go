/*
 * @module service/models/sync_state
 * @description Per-entity sync state flags persisted alongside the storefront records
 * @architecture layered architecture - entity model
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow never synced -> synced <-> error, with excluded as an orthogonal gate
 * @rules remote_id is first-write-wins; only a forced resync may clear prior state
 * @dependencies gorm.io/gorm, github.com/google/uuid, service/meta
 * @refs service/store, service/syncer
 */

package models

import (
	"errors"
	"time"

	"pennylane-sync-service/service/meta"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncState carries the sync flags for one storefront entity. The row is created
// implicitly on the first sync attempt and lives as long as the entity does.
type SyncState struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EntityKind    string     `json:"entity_kind" gorm:"not null;size:20;uniqueIndex:idx_sync_states_entity"`
	LocalID       int64      `json:"local_id" gorm:"not null;uniqueIndex:idx_sync_states_entity"`
	RemoteID      string     `json:"remote_id,omitempty" gorm:"size:64;index"`
	Synced        bool       `json:"synced" gorm:"not null;default:false"`
	NeedsSync     bool       `json:"needs_sync" gorm:"not null;default:false;index"`
	NeedsSyncAt   *time.Time `json:"needs_sync_at,omitempty"`
	LastSyncAt    *time.Time `json:"last_sync_at,omitempty"`
	LastSyncError string     `json:"last_sync_error,omitempty" gorm:"type:text"`
	Excluded      bool       `json:"excluded" gorm:"not null;default:false"`
	CreatedAt     time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate generates the row ID and rejects unknown entity kinds.
func (s *SyncState) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if !meta.IsValidEntityKind(s.EntityKind) {
		return errors.New("invalid entity kind: " + s.EntityKind)
	}
	return nil
}

// HasRemoteCounterpart reports whether a remote record has already been created.
func (s *SyncState) HasRemoteCounterpart() bool {
	return s.RemoteID != ""
}

// GuestSyncState is the sync state for guest checkouts, which have no customer
// account. The row is keyed by the guest's email instead of a numeric ID.
type GuestSyncState struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email         string     `json:"email" gorm:"not null;size:254;uniqueIndex"`
	RemoteID      string     `json:"remote_id,omitempty" gorm:"size:64;index"`
	Synced        bool       `json:"synced" gorm:"not null;default:false"`
	NeedsSync     bool       `json:"needs_sync" gorm:"not null;default:false;index"`
	NeedsSyncAt   *time.Time `json:"needs_sync_at,omitempty"`
	LastSyncAt    *time.Time `json:"last_sync_at,omitempty"`
	LastSyncError string     `json:"last_sync_error,omitempty" gorm:"type:text"`
	Excluded      bool       `json:"excluded" gorm:"not null;default:false"`
	CreatedAt     time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate generates the row ID and rejects empty emails.
func (s *GuestSyncState) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Email == "" {
		return errors.New("guest sync state requires an email")
	}
	return nil
}

// HasRemoteCounterpart reports whether a remote record has already been created.
func (s *GuestSyncState) HasRemoteCounterpart() bool {
	return s.RemoteID != ""
}
