/*
 * @module api/controllers/history_controller
 * @description Sync history listing and manual retention purge
 * @architecture RESTful API architecture
 * @documentReference dev_docs/api.md
 * @stateFlow HTTP request -> controller -> history service -> database
 * @rules listings are newest first; the purge honors the configured retention horizon
 * @dependencies github.com/go-chi/render, service/history
 * @refs service/history
 */

package controllers

import (
	"net/http"
	"strconv"

	"pennylane-sync-service/service/config"
	"pennylane-sync-service/service/history"
)

// HistoryController serves the audit log endpoints.
type HistoryController struct {
	history *history.HistoryService
	config  *config.ConfigService
}

// NewHistoryController creates a history controller.
func NewHistoryController(hist *history.HistoryService, cfg *config.ConfigService) *HistoryController {
	return &HistoryController{history: hist, config: cfg}
}

// List godoc
// @Summary List sync history entries
// @Description Returns a page of audit entries, newest first, optionally filtered
// @Tags history
// @Produce json
// @Param sync_type query string false "Filter by sync type" Enums(product, customer, order, batch)
// @Param sync_mode query string false "Filter by trigger mode" Enums(manual, automatic, cron)
// @Param status query string false "Filter by outcome" Enums(success, error, warning, skipped)
// @Param page query int false "Page number, 1-based"
// @Param size query int false "Page size, max 100"
// @Success 200 {object} PaginatedResponse
// @Router /history [get]
func (c *HistoryController) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	size, _ := strconv.Atoi(query.Get("size"))

	filter := history.ListFilter{
		SyncType: query.Get("sync_type"),
		SyncMode: query.Get("sync_mode"),
		Status:   query.Get("status"),
		Page:     page,
		Size:     size,
	}

	entries, total, err := c.history.List(r.Context(), filter)
	if err != nil {
		InternalErrorResponse(w, r, err.Error())
		return
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Size < 1 || filter.Size > 100 {
		filter.Size = 20
	}
	PagedResponse(w, r, "history loaded", entries, total, filter.Page, filter.Size)
}

// PurgeResult reports a manual purge.
type PurgeResult struct {
	Deleted       int64 `json:"deleted"`
	RetentionDays int   `json:"retention_days"`
}

// Purge godoc
// @Summary Purge expired history entries
// @Description Deletes entries older than the configured retention horizon
// @Tags history
// @Produce json
// @Success 200 {object} APIResponse{data=PurgeResult}
// @Router /history/purge [post]
func (c *HistoryController) Purge(w http.ResponseWriter, r *http.Request) {
	retention := c.config.HistoryRetentionDays()
	deleted, err := c.history.Purge(r.Context(), retention)
	if err != nil {
		InternalErrorResponse(w, r, err.Error())
		return
	}

	SuccessResponse(w, r, "history purged", PurgeResult{
		Deleted:       deleted,
		RetentionDays: retention,
	})
}
