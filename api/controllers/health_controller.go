/*
 * @module api/controllers/health_controller
 * @description Health and readiness probes
 * @architecture MVC architecture - controller layer
 * @documentReference dev_docs/api.md
 * @stateFlow stateless HTTP request handling
 * @rules plain probes for container health checks and load balancers
 * @dependencies net/http
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthController serves the health probes.
type HealthController struct{}

// NewHealthController creates a health controller.
func NewHealthController() *HealthController {
	return &HealthController{}
}

// HealthResponse is the probe payload.
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp" example:"2026-01-01T00:00:00Z"`
	Version   string    `json:"version" example:"1.0.0"`
	Service   string    `json:"service" example:"pennylane-sync-service"`
}

// Health godoc
// @Summary Health check
// @Description Reports whether the service process is alive
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "pennylane-sync-service",
	})
}

// Ready godoc
// @Summary Readiness check
// @Description Reports whether the service is ready to accept traffic
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "pennylane-sync-service",
	})
}
