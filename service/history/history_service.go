/*
 * @module service/history/history_service
 * @description Append-only sync audit log with time-based retention purge
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow append entry per attempt -> list for operators -> nightly purge of expired rows
 * @rules entries are never mutated; the purge is the only deletion path
 * @dependencies gorm.io/gorm, github.com/robfig/cron/v3, service/config
 * @refs service/syncer, service/batch
 */

package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pennylane-sync-service/service/config"
	"pennylane-sync-service/service/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Nightly purge at 02:00 (seconds-precision cron).
const purgeCronExpr = "0 0 2 * * *"

// HistoryService appends and queries sync audit entries.
type HistoryService struct {
	db            *gorm.DB
	configService *config.ConfigService
	cron          *cron.Cron
	ctx           context.Context
	cancel        context.CancelFunc
	started       bool
}

// NewHistoryService creates a history service.
func NewHistoryService(db *gorm.DB, configService *config.ConfigService) *HistoryService {
	ctx, cancel := context.WithCancel(context.Background())
	return &HistoryService{
		db:            db,
		configService: configService,
		cron:          cron.New(cron.WithSeconds()),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// AddEntry appends one audit entry and returns its ID.
func (s *HistoryService) AddEntry(ctx context.Context, entry *models.SyncHistoryEntry) (string, error) {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return "", fmt.Errorf("append history entry: %w", err)
	}
	if entry.IsError() {
		slog.Warn("sync error recorded",
			"sync_type", entry.SyncType, "sync_mode", entry.SyncMode, "message", entry.Message)
	}
	return entry.ID, nil
}

// ListFilter narrows a history listing.
type ListFilter struct {
	SyncType string
	SyncMode string
	Status   string
	Page     int
	Size     int
}

// List returns a page of entries, newest first, with the total count.
func (s *HistoryService) List(ctx context.Context, filter ListFilter) ([]models.SyncHistoryEntry, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Size < 1 || filter.Size > 100 {
		filter.Size = 20
	}

	query := s.db.WithContext(ctx).Model(&models.SyncHistoryEntry{})
	if filter.SyncType != "" {
		query = query.Where("sync_type = ?", filter.SyncType)
	}
	if filter.SyncMode != "" {
		query = query.Where("sync_mode = ?", filter.SyncMode)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count history entries: %w", err)
	}

	var entries []models.SyncHistoryEntry
	err := query.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Size).
		Limit(filter.Size).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list history entries: %w", err)
	}
	return entries, total, nil
}

// Purge deletes entries older than the retention horizon and returns the
// number of deleted rows.
func (s *HistoryService) Purge(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.SyncHistoryEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge history entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// StartScheduledPurge runs the retention purge every night at 02:00.
func (s *HistoryService) StartScheduledPurge() error {
	if s.started {
		return fmt.Errorf("history purge scheduler already started")
	}

	_, err := s.cron.AddFunc(purgeCronExpr, func() {
		retention := s.configService.HistoryRetentionDays()
		deleted, err := s.Purge(s.ctx, retention)
		if err != nil {
			slog.Error("scheduled history purge failed", "error", err)
			return
		}
		slog.Info("scheduled history purge finished",
			"deleted_count", deleted, "retention_days", retention)
	})
	if err != nil {
		return fmt.Errorf("schedule history purge: %w", err)
	}

	s.cron.Start()
	s.started = true
	slog.Info("history purge scheduler started", "cron", purgeCronExpr)
	return nil
}

// StopScheduledPurge stops the purge scheduler.
func (s *HistoryService) StopScheduledPurge() {
	if !s.started {
		return
	}
	s.cancel()
	s.cron.Stop()
	s.started = false
	slog.Info("history purge scheduler stopped")
}
