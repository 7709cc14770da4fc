/*
 * @module api/controllers/sync_controller
 * @description Sync endpoints: single entity sync, stepped batch runs, state inspection and exclusion toggles
 * @architecture RESTful API architecture
 * @documentReference dev_docs/api.md
 * @stateFlow HTTP request -> controller -> synchronizers / batch driver -> store
 * @rules the HTTP status reflects the error class: 404 vanished entity, 422 invalid payload, 502 remote failure
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render, service/syncer, service/batch
 * @refs service/syncer, service/batch
 */

package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pennylane-sync-service/client"
	"pennylane-sync-service/service/batch"
	"pennylane-sync-service/service/mapper"
	"pennylane-sync-service/service/meta"
	"pennylane-sync-service/service/store"
	"pennylane-sync-service/service/syncer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// actorHeader carries the user identity behind a manual trigger.
const actorHeader = "X-Actor"

// SyncController serves the synchronization endpoints.
type SyncController struct {
	syncers *syncer.Syncers
	driver  *batch.Driver
	store   *store.Store
}

// NewSyncController creates a sync controller.
func NewSyncController(syncers *syncer.Syncers, driver *batch.Driver, st *store.Store) *SyncController {
	return &SyncController{syncers: syncers, driver: driver, store: st}
}

// SyncStateView is the state inspection payload.
type SyncStateView struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	RemoteID  string      `json:"remote_id,omitempty"`
	LastSync  interface{} `json:"last_sync,omitempty"`
	NeedsSync bool        `json:"needs_sync"`
	Excluded  bool        `json:"excluded"`
}

// SyncEntity godoc
// @Summary Synchronize one entity
// @Description Pushes one customer, product or order to Pennylane; force=true resets prior state first
// @Tags sync
// @Produce json
// @Param kind path string true "Entity kind" Enums(customer, product, order)
// @Param id path int true "Local entity ID"
// @Param force query bool false "Force a full resync"
// @Success 200 {object} APIResponse{data=syncer.SyncResult}
// @Failure 404 {object} APIResponse
// @Failure 422 {object} APIResponse
// @Failure 502 {object} APIResponse
// @Router /sync/{kind}/{id} [post]
func (c *SyncController) SyncEntity(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequestResponse(w, r, "invalid entity id")
		return
	}

	req := syncer.Request{
		Mode:  meta.SyncModeManual,
		Force: r.URL.Query().Get("force") == "true",
		Actor: r.Header.Get(actorHeader),
	}

	var result *syncer.SyncResult
	switch kind {
	case meta.EntityKindCustomer:
		result, err = c.syncers.Customer.Sync(r.Context(), id, req)
	case meta.EntityKindProduct:
		result, err = c.syncers.Product.Sync(r.Context(), id, req)
	case meta.EntityKindOrder:
		result, err = c.syncers.Order.Sync(r.Context(), id, req)
	default:
		BadRequestResponse(w, r, "unsupported entity kind: "+kind)
		return
	}
	if err != nil {
		renderSyncError(w, r, err)
		return
	}

	SuccessResponse(w, r, result.Message, result)
}

// GuestSyncRequest identifies a guest customer by email.
type GuestSyncRequest struct {
	Email string `json:"email"`
	Force bool   `json:"force"`
}

// SyncGuestCustomer godoc
// @Summary Synchronize one guest customer
// @Description Pushes the guest identified by email to Pennylane, using the latest guest order as the snapshot
// @Tags sync
// @Accept json
// @Produce json
// @Param request body GuestSyncRequest true "Guest identification"
// @Success 200 {object} APIResponse{data=syncer.SyncResult}
// @Failure 404 {object} APIResponse
// @Failure 502 {object} APIResponse
// @Router /sync/guest-customer [post]
func (c *SyncController) SyncGuestCustomer(w http.ResponseWriter, r *http.Request) {
	var body GuestSyncRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		BadRequestResponse(w, r, "invalid request body: "+err.Error())
		return
	}
	if body.Email == "" {
		BadRequestResponse(w, r, "email is required")
		return
	}

	result, err := c.syncers.Guest.Sync(r.Context(), body.Email, syncer.Request{
		Mode:  meta.SyncModeManual,
		Force: body.Force,
		Actor: r.Header.Get(actorHeader),
	})
	if err != nil {
		renderSyncError(w, r, err)
		return
	}

	SuccessResponse(w, r, result.Message, result)
}

// BatchRequest describes one batch step. IDs, Emails and the date range are
// optional selections; without one the step walks the full entity table.
type BatchRequest struct {
	EntityKind string     `json:"entity_kind"`
	Offset     int        `json:"offset"`
	Limit      int        `json:"limit"`
	Force      bool       `json:"force"`
	IDs        []int64    `json:"ids,omitempty"`
	Emails     []string   `json:"emails,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
}

// RunBatchStep godoc
// @Summary Run one batch synchronization step
// @Description Processes one page of entities and returns the resume offset for the next call; supports explicit ID/email lists for forced resyncs and a date range for orders
// @Tags sync
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Batch step parameters"
// @Success 200 {object} APIResponse{data=batch.StepResult}
// @Failure 400 {object} APIResponse
// @Router /sync/batch [post]
func (c *SyncController) RunBatchStep(w http.ResponseWriter, r *http.Request) {
	var body BatchRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		BadRequestResponse(w, r, "invalid request body: "+err.Error())
		return
	}

	req := batch.Request{
		EntityKind: body.EntityKind,
		Mode:       meta.SyncModeManual,
		Force:      body.Force,
		IDs:        body.IDs,
		Emails:     body.Emails,
		Offset:     body.Offset,
		Limit:      body.Limit,
		Actor:      r.Header.Get(actorHeader),
	}
	if body.From != nil {
		req.From = *body.From
	}
	if body.To != nil {
		req.To = *body.To
	}

	result, err := c.driver.RunStep(r.Context(), req)
	if err != nil {
		BadRequestResponse(w, r, err.Error())
		return
	}

	SuccessResponse(w, r, result.Message, result)
}

// GetSyncState godoc
// @Summary Inspect the sync state of one entity
// @Tags sync
// @Produce json
// @Param kind path string true "Entity kind" Enums(customer, product, order)
// @Param id path int true "Local entity ID"
// @Success 200 {object} APIResponse{data=SyncStateView}
// @Router /sync/state/{kind}/{id} [get]
func (c *SyncController) GetSyncState(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !meta.IsValidEntityKind(kind) || kind == meta.EntityKindGuestCustomer {
		BadRequestResponse(w, r, "unsupported entity kind: "+kind)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequestResponse(w, r, "invalid entity id")
		return
	}

	state, err := c.store.GetSyncState(r.Context(), kind, id)
	if err != nil {
		InternalErrorResponse(w, r, err.Error())
		return
	}

	view := SyncStateView{
		Success:   state.Synced && state.LastSyncError == "",
		Message:   state.LastSyncError,
		RemoteID:  state.RemoteID,
		NeedsSync: state.NeedsSync,
		Excluded:  state.Excluded,
	}
	if state.LastSyncAt != nil {
		view.LastSync = state.LastSyncAt
	}
	SuccessResponse(w, r, "sync state loaded", view)
}

// GetGuestSyncState godoc
// @Summary Inspect the sync state of one guest customer
// @Tags sync
// @Produce json
// @Param email query string true "Guest email"
// @Success 200 {object} APIResponse{data=SyncStateView}
// @Router /sync/state/guest-customer [get]
func (c *SyncController) GetGuestSyncState(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		BadRequestResponse(w, r, "email is required")
		return
	}

	state, err := c.store.GetGuestSyncState(r.Context(), email)
	if err != nil {
		InternalErrorResponse(w, r, err.Error())
		return
	}

	view := SyncStateView{
		Success:   state.Synced && state.LastSyncError == "",
		Message:   state.LastSyncError,
		RemoteID:  state.RemoteID,
		NeedsSync: state.NeedsSync,
		Excluded:  state.Excluded,
	}
	if state.LastSyncAt != nil {
		view.LastSync = state.LastSyncAt
	}
	SuccessResponse(w, r, "sync state loaded", view)
}

// GetStatistics godoc
// @Summary Aggregate sync state counts for one entity kind
// @Tags sync
// @Produce json
// @Param kind path string true "Entity kind" Enums(customer, product, order)
// @Success 200 {object} APIResponse{data=store.SyncStateStatistics}
// @Router /sync/statistics/{kind} [get]
func (c *SyncController) GetStatistics(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !meta.IsValidEntityKind(kind) {
		BadRequestResponse(w, r, "unsupported entity kind: "+kind)
		return
	}

	stats, err := c.store.GetSyncStateStatistics(r.Context(), kind)
	if err != nil {
		InternalErrorResponse(w, r, err.Error())
		return
	}
	SuccessResponse(w, r, "sync statistics loaded", stats)
}

// ExclusionRequest toggles the opt-out flag.
type ExclusionRequest struct {
	Excluded bool `json:"excluded"`
	// Email identifies a guest customer; ignored for other kinds.
	Email string `json:"email,omitempty"`
}

// SetExclusion godoc
// @Summary Exclude or include an entity in synchronization
// @Description An excluded entity is skipped by every non-forced sync
// @Tags sync
// @Accept json
// @Produce json
// @Param kind path string true "Entity kind" Enums(customer, guest_customer, product, order)
// @Param id path int true "Local entity ID, 0 for guest customers"
// @Param request body ExclusionRequest true "Exclusion toggle"
// @Success 200 {object} APIResponse
// @Router /sync/exclusion/{kind}/{id} [put]
func (c *SyncController) SetExclusion(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !meta.IsValidEntityKind(kind) {
		BadRequestResponse(w, r, "unsupported entity kind: "+kind)
		return
	}

	var body ExclusionRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		BadRequestResponse(w, r, "invalid request body: "+err.Error())
		return
	}

	if kind == meta.EntityKindGuestCustomer {
		if body.Email == "" {
			BadRequestResponse(w, r, "email is required for guest customers")
			return
		}
		if err := c.store.SetGuestExcluded(r.Context(), body.Email, body.Excluded); err != nil {
			InternalErrorResponse(w, r, err.Error())
			return
		}
		SuccessResponse(w, r, "exclusion updated", nil)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequestResponse(w, r, "invalid entity id")
		return
	}
	if err := c.store.SetExcluded(r.Context(), kind, id, body.Excluded); err != nil {
		InternalErrorResponse(w, r, err.Error())
		return
	}
	SuccessResponse(w, r, "exclusion updated", nil)
}

// renderSyncError maps a sync failure to the HTTP status that fits its class.
func renderSyncError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *store.NotFoundError
	var validation *mapper.ValidationError
	var apiErr *client.APIError
	var transport *client.TransportError

	switch {
	case errors.As(err, &notFound):
		NotFoundResponse(w, r, err.Error())
	case errors.As(err, &validation):
		ErrorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, client.ErrMissingCredential):
		BadRequestResponse(w, r, err.Error())
	case errors.As(err, &apiErr), errors.As(err, &transport):
		ErrorResponse(w, r, http.StatusBadGateway, err.Error())
	default:
		InternalErrorResponse(w, r, err.Error())
	}
}
