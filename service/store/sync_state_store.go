/*
 * @module service/store/sync_state_store
 * @description Sync state reads and transitions for account-backed entities and guests
 * @architecture layered architecture - data access layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow mark dirty on mutation -> record attempt outcome -> clear dirty after success
 * @rules state rows are created implicitly on first touch and never deleted here
 * @dependencies gorm.io/gorm, service/models
 * @refs service/syncer
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pennylane-sync-service/service/models"

	"gorm.io/gorm"
)

// GetSyncState returns the state row for an entity, or a fresh zero-value
// state (not yet persisted) when the entity has never been touched.
func (s *Store) GetSyncState(ctx context.Context, kind string, localID int64) (*models.SyncState, error) {
	var state models.SyncState
	err := s.db.WithContext(ctx).
		Where("entity_kind = ? AND local_id = ?", kind, localID).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.SyncState{EntityKind: kind, LocalID: localID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load sync state %s/%d: %w", kind, localID, err)
	}
	return &state, nil
}

// GetGuestSyncState returns the state row for a guest email, or a fresh
// zero-value state when the email has never been touched.
func (s *Store) GetGuestSyncState(ctx context.Context, email string) (*models.GuestSyncState, error) {
	email = normalizeEmail(email)

	var state models.GuestSyncState
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.GuestSyncState{Email: email}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load guest sync state %s: %w", email, err)
	}
	return &state, nil
}

// MarkDirty flags an entity for the next scheduled pass. Called from the
// change-event consumers and the webhook endpoint; runs before any processing
// so a crash leaves the flag set and the entity is retried.
func (s *Store) MarkDirty(ctx context.Context, kind string, localID int64) error {
	now := time.Now()
	return s.withState(ctx, kind, localID, func(state *models.SyncState) {
		state.NeedsSync = true
		state.NeedsSyncAt = &now
	})
}

// MarkGuestDirty flags a guest email for the next scheduled pass.
func (s *Store) MarkGuestDirty(ctx context.Context, email string) error {
	now := time.Now()
	return s.withGuestState(ctx, email, func(state *models.GuestSyncState) {
		state.NeedsSync = true
		state.NeedsSyncAt = &now
	})
}

// SetExcluded toggles the operator opt-out flag for an entity.
func (s *Store) SetExcluded(ctx context.Context, kind string, localID int64, excluded bool) error {
	return s.withState(ctx, kind, localID, func(state *models.SyncState) {
		state.Excluded = excluded
	})
}

// SetGuestExcluded toggles the operator opt-out flag for a guest email.
func (s *Store) SetGuestExcluded(ctx context.Context, email string, excluded bool) error {
	return s.withGuestState(ctx, email, func(state *models.GuestSyncState) {
		state.Excluded = excluded
	})
}

// RecordSuccess persists a confirmed round trip: synced on, error cleared,
// dirty flag cleared. The remote ID is written only when not already set.
func (s *Store) RecordSuccess(ctx context.Context, kind string, localID int64, remoteID string) error {
	now := time.Now()
	return s.withState(ctx, kind, localID, func(state *models.SyncState) {
		state.Synced = true
		state.LastSyncAt = &now
		state.LastSyncError = ""
		state.NeedsSync = false
		state.NeedsSyncAt = nil
		if !state.HasRemoteCounterpart() {
			state.RemoteID = remoteID
		}
	})
}

// RecordGuestSuccess is RecordSuccess for guest emails.
func (s *Store) RecordGuestSuccess(ctx context.Context, email, remoteID string) error {
	now := time.Now()
	return s.withGuestState(ctx, email, func(state *models.GuestSyncState) {
		state.Synced = true
		state.LastSyncAt = &now
		state.LastSyncError = ""
		state.NeedsSync = false
		state.NeedsSyncAt = nil
		if !state.HasRemoteCounterpart() {
			state.RemoteID = remoteID
		}
	})
}

// RecordFailure persists a failed attempt. The synced flag is deliberately
// left untouched and the dirty flag stays set so the entity is retried.
func (s *Store) RecordFailure(ctx context.Context, kind string, localID int64, message string) error {
	now := time.Now()
	return s.withState(ctx, kind, localID, func(state *models.SyncState) {
		state.LastSyncAt = &now
		state.LastSyncError = message
	})
}

// RecordGuestFailure is RecordFailure for guest emails.
func (s *Store) RecordGuestFailure(ctx context.Context, email, message string) error {
	now := time.Now()
	return s.withGuestState(ctx, email, func(state *models.GuestSyncState) {
		state.LastSyncAt = &now
		state.LastSyncError = message
	})
}

// ResetSyncState clears prior sync state ahead of a forced resync: synced off,
// remote ID and error dropped. The exclusion flag is not touched.
func (s *Store) ResetSyncState(ctx context.Context, kind string, localID int64) error {
	return s.withState(ctx, kind, localID, func(state *models.SyncState) {
		state.Synced = false
		state.RemoteID = ""
		state.LastSyncError = ""
	})
}

// ResetGuestSyncState is ResetSyncState for guest emails.
func (s *Store) ResetGuestSyncState(ctx context.Context, email string) error {
	return s.withGuestState(ctx, email, func(state *models.GuestSyncState) {
		state.Synced = false
		state.RemoteID = ""
		state.LastSyncError = ""
	})
}

// withState loads-or-creates the state row inside a transaction, applies the
// mutation and saves it.
func (s *Store) withState(ctx context.Context, kind string, localID int64, mutate func(*models.SyncState)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state models.SyncState
		err := tx.Where("entity_kind = ? AND local_id = ?", kind, localID).First(&state).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			state = models.SyncState{EntityKind: kind, LocalID: localID}
		} else if err != nil {
			return fmt.Errorf("load sync state %s/%d: %w", kind, localID, err)
		}

		mutate(&state)
		if err := tx.Save(&state).Error; err != nil {
			return fmt.Errorf("save sync state %s/%d: %w", kind, localID, err)
		}
		return nil
	})
}

// withGuestState is withState for the guest lookup table.
func (s *Store) withGuestState(ctx context.Context, email string, mutate func(*models.GuestSyncState)) error {
	email = normalizeEmail(email)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state models.GuestSyncState
		err := tx.Where("email = ?", email).First(&state).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			state = models.GuestSyncState{Email: email}
		} else if err != nil {
			return fmt.Errorf("load guest sync state %s: %w", email, err)
		}

		mutate(&state)
		if err := tx.Save(&state).Error; err != nil {
			return fmt.Errorf("save guest sync state %s: %w", email, err)
		}
		return nil
	})
}

// SyncStateStatistics aggregates state counts for one entity kind.
type SyncStateStatistics struct {
	EntityKind string `json:"entity_kind"`
	Total      int64  `json:"total"`
	Synced     int64  `json:"synced"`
	InError    int64  `json:"in_error"`
	NeedsSync  int64  `json:"needs_sync"`
	Excluded   int64  `json:"excluded"`
}

// GetSyncStateStatistics returns aggregate counts for one entity kind.
func (s *Store) GetSyncStateStatistics(ctx context.Context, kind string) (*SyncStateStatistics, error) {
	stats := &SyncStateStatistics{EntityKind: kind}
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.SyncState{}).Where("entity_kind = ?", kind)
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("count sync states: %w", err)
	}
	if err := base().Where("synced = ?", true).Count(&stats.Synced).Error; err != nil {
		return nil, fmt.Errorf("count synced states: %w", err)
	}
	if err := base().Where("last_sync_error <> ''").Count(&stats.InError).Error; err != nil {
		return nil, fmt.Errorf("count error states: %w", err)
	}
	if err := base().Where("needs_sync = ?", true).Count(&stats.NeedsSync).Error; err != nil {
		return nil, fmt.Errorf("count dirty states: %w", err)
	}
	if err := base().Where("excluded = ?", true).Count(&stats.Excluded).Error; err != nil {
		return nil, fmt.Errorf("count excluded states: %w", err)
	}
	return stats, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
