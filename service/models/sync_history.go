/*
 * @module service/models/sync_history
 * @description Append-only audit record of every sync attempt
 * @architecture layered architecture - entity model
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow insert once per attempt, no updates, deleted only by retention purge
 * @rules every sync attempt produces exactly one entry, batch runs add start/end markers
 * @dependencies gorm.io/gorm, github.com/google/uuid, service/meta
 * @refs service/history, service/syncer, service/batch
 */

package models

import (
	"errors"
	"time"

	"pennylane-sync-service/service/meta"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncHistoryEntry is one line of the sync audit log.
type SyncHistoryEntry struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SyncType      string    `json:"sync_type" gorm:"not null;size:20;index"`
	SyncMode      string    `json:"sync_mode" gorm:"not null;size:20;index"`
	ObjectID      *string   `json:"object_id,omitempty" gorm:"size:64;index"`
	ObjectName    *string   `json:"object_name,omitempty" gorm:"size:255"`
	Status        string    `json:"status" gorm:"not null;size:20;index"`
	Message       string    `json:"message,omitempty" gorm:"type:text"`
	ExecutionTime float64   `json:"execution_time" gorm:"default:0"`
	Actor         *string   `json:"actor,omitempty" gorm:"size:100"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// BeforeCreate generates the entry ID and validates the enum fields.
func (e *SyncHistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if !meta.IsValidSyncMode(e.SyncMode) {
		return errors.New("invalid sync mode: " + e.SyncMode)
	}
	if !meta.IsValidSyncStatus(e.Status) {
		return errors.New("invalid sync status: " + e.Status)
	}
	return nil
}

// IsError reports whether the entry records a failed attempt.
func (e *SyncHistoryEntry) IsError() bool {
	return e.Status == meta.SyncStatusError
}
