/*
 * @module api/controllers/settings_controller
 * @description Settings endpoints: read and update settings, test the API credential, rotate the webhook secret
 * @architecture RESTful API architecture
 * @documentReference dev_docs/settings.md
 * @stateFlow HTTP request -> controller -> settings service -> database
 * @rules secrets are write-only: readings come back redacted
 * @dependencies github.com/go-chi/render, service/config, client
 * @refs service/config
 */

package controllers

import (
	"context"
	"net/http"

	"pennylane-sync-service/service/config"

	"github.com/go-chi/render"
)

// CredentialValidator checks the configured remote credential.
// *client.Client satisfies it.
type CredentialValidator interface {
	ValidateCredential(ctx context.Context) error
}

// SettingsController serves the settings endpoints.
type SettingsController struct {
	config    *config.ConfigService
	validator CredentialValidator
}

// NewSettingsController creates a settings controller.
func NewSettingsController(cfg *config.ConfigService, validator CredentialValidator) *SettingsController {
	return &SettingsController{config: cfg, validator: validator}
}

// GetSettings godoc
// @Summary List all settings
// @Description Returns every persisted setting; secret values come back redacted
// @Tags settings
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.SystemConfigItem}
// @Router /settings [get]
func (c *SettingsController) GetSettings(w http.ResponseWriter, r *http.Request) {
	items, err := c.config.All()
	if err != nil {
		InternalErrorResponse(w, r, err.Error())
		return
	}
	SuccessResponse(w, r, "settings loaded", items)
}

// UpdateSettingRequest is one setting write.
type UpdateSettingRequest struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// UpdateSettings godoc
// @Summary Update settings
// @Description Upserts the given setting rows
// @Tags settings
// @Accept json
// @Produce json
// @Param request body []UpdateSettingRequest true "Settings to write"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /settings [put]
func (c *SettingsController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var items []UpdateSettingRequest
	if err := render.DecodeJSON(r.Body, &items); err != nil {
		BadRequestResponse(w, r, "invalid request body: "+err.Error())
		return
	}

	for _, item := range items {
		if item.Key == "" {
			BadRequestResponse(w, r, "setting key must not be empty")
			return
		}
		if err := c.config.Set(item.Key, item.Value, item.Description); err != nil {
			InternalErrorResponse(w, r, err.Error())
			return
		}
	}
	SuccessResponse(w, r, "settings updated", nil)
}

// TestConnection godoc
// @Summary Test the Pennylane credential
// @Description Calls the remote user profile endpoint with the configured API key
// @Tags settings
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 502 {object} APIResponse
// @Router /settings/test-connection [post]
func (c *SettingsController) TestConnection(w http.ResponseWriter, r *http.Request) {
	if err := c.validator.ValidateCredential(r.Context()); err != nil {
		renderSyncError(w, r, err)
		return
	}
	SuccessResponse(w, r, "connection ok", nil)
}

// WebhookSecretRequest carries a new webhook shared secret.
type WebhookSecretRequest struct {
	Secret string `json:"secret"`
}

// SetWebhookSecret godoc
// @Summary Rotate the webhook shared secret
// @Description Hashes and stores the secret the storefront presents on change notifications
// @Tags settings
// @Accept json
// @Produce json
// @Param request body WebhookSecretRequest true "New secret"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /settings/webhook-secret [post]
func (c *SettingsController) SetWebhookSecret(w http.ResponseWriter, r *http.Request) {
	var body WebhookSecretRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		BadRequestResponse(w, r, "invalid request body: "+err.Error())
		return
	}
	if len(body.Secret) < 16 {
		BadRequestResponse(w, r, "secret must be at least 16 characters")
		return
	}

	if err := c.config.SetWebhookSecret(body.Secret); err != nil {
		InternalErrorResponse(w, r, err.Error())
		return
	}
	SuccessResponse(w, r, "webhook secret updated", nil)
}
