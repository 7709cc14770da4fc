/*
 * @module api/controllers/response
 * @description Shared API response envelope and render helpers
 * @architecture RESTful API architecture
 * @documentReference dev_docs/api.md
 * @stateFlow stateless HTTP response rendering
 * @rules every endpoint answers with the APIResponse envelope; the HTTP status mirrors the body status
 * @dependencies github.com/go-chi/render
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIResponse is the uniform response envelope.
type APIResponse struct {
	Status int         `json:"status" example:"200"`
	Msg    string      `json:"msg" example:"ok"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse is the envelope for paged listings.
type PaginatedResponse struct {
	Status int         `json:"status" example:"200"`
	Msg    string      `json:"msg" example:"ok"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"20"`
}

// SuccessResponse renders a 200 envelope.
func SuccessResponse(w http.ResponseWriter, r *http.Request, msg string, data interface{}) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, APIResponse{Status: http.StatusOK, Msg: msg, Data: data})
}

// PagedResponse renders a 200 paginated envelope.
func PagedResponse(w http.ResponseWriter, r *http.Request, msg string, data interface{}, total int64, page, size int) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, PaginatedResponse{Status: http.StatusOK, Msg: msg, Data: data, Total: total, Page: page, Size: size})
}

// ErrorResponse renders an error envelope with the given HTTP status.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, APIResponse{Status: status, Msg: msg})
}

// BadRequestResponse renders a 400 envelope.
func BadRequestResponse(w http.ResponseWriter, r *http.Request, msg string) {
	ErrorResponse(w, r, http.StatusBadRequest, msg)
}

// NotFoundResponse renders a 404 envelope.
func NotFoundResponse(w http.ResponseWriter, r *http.Request, msg string) {
	ErrorResponse(w, r, http.StatusNotFound, msg)
}

// InternalErrorResponse renders a 500 envelope.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	ErrorResponse(w, r, http.StatusInternalServerError, msg)
}
