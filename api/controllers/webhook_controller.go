/*
 * @module api/controllers/webhook_controller
 * @description Storefront change-notification webhook that flags entities dirty
 * @architecture RESTful API architecture
 * @documentReference dev_docs/api.md
 * @stateFlow verify shared secret -> decode event -> mark entity dirty
 * @rules the dirty flag is set before acknowledging, so a crash never loses the notification
 * @dependencies github.com/go-chi/render, service/events, service/config
 * @refs service/events/change_event.go
 */

package controllers

import (
	"net/http"

	"pennylane-sync-service/service/config"
	"pennylane-sync-service/service/events"

	"github.com/go-chi/render"
)

// webhookSecretHeader carries the shared secret on change notifications.
const webhookSecretHeader = "X-Webhook-Secret"

// WebhookController receives storefront change notifications.
type WebhookController struct {
	config     *config.ConfigService
	dispatcher *events.Dispatcher
}

// NewWebhookController creates a webhook controller.
func NewWebhookController(cfg *config.ConfigService, dispatcher *events.Dispatcher) *WebhookController {
	return &WebhookController{config: cfg, dispatcher: dispatcher}
}

// HandleChangeEvent godoc
// @Summary Receive a storefront change notification
// @Description Marks the referenced entity dirty so the next scheduled pass picks it up
// @Tags webhook
// @Accept json
// @Produce json
// @Param X-Webhook-Secret header string true "Shared secret"
// @Param request body events.ChangeEvent true "Change event"
// @Success 200 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Router /webhook/change [post]
func (c *WebhookController) HandleChangeEvent(w http.ResponseWriter, r *http.Request) {
	if !c.config.VerifyWebhookSecret(r.Header.Get(webhookSecretHeader)) {
		ErrorResponse(w, r, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var event events.ChangeEvent
	if err := render.DecodeJSON(r.Body, &event); err != nil {
		BadRequestResponse(w, r, "invalid request body: "+err.Error())
		return
	}

	if err := c.dispatcher.Dispatch(r.Context(), event); err != nil {
		BadRequestResponse(w, r, err.Error())
		return
	}
	SuccessResponse(w, r, "change recorded", nil)
}
