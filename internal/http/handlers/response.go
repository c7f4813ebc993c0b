// Package handlers provides the HTTP handler implementations for the public
// API. This file defines the response utilities shared by every endpoint:
// the uniform success envelopes and the single error path.
//
// Conventions:
//   - Success bodies are {"success":true, "data":...}; list bodies add
//     "count" and "pagination".
//   - Handlers never format error JSON themselves. Every error funnels
//     through fail(), which asks apperr.Translate for the status/message
//     pair, renders {"success":false,"error":...}, and logs unexpected (5xx)
//     errors with the request-scoped logger without leaking detail to the
//     client.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bootcamp-backend/internal/apperr"
	"github.com/tbourn/go-bootcamp-backend/internal/http/middleware"
	"github.com/tbourn/go-bootcamp-backend/internal/query"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"` // always false
	Error   string `json:"error"`
}

// dataResponse is the standard single-record success envelope.
type dataResponse struct {
	Success bool        `json:"success"` // always true
	Data    interface{} `json:"data"`
}

// listResponse is the standard listing envelope produced from the query
// pipeline's result.
type listResponse struct {
	Success    bool             `json:"success"` // always true
	Count      int              `json:"count"`
	Pagination query.Pagination `json:"pagination"`
	Data       interface{}      `json:"data"`
}

// tokenResponse carries a freshly issued session token.
type tokenResponse struct {
	Success bool   `json:"success"` // always true
	Token   string `json:"token"`
}

// fail aborts the request with the translated error. Server-side (5xx)
// translations log the original error with request context; the client only
// ever sees the translated message.
func fail(c *gin.Context, err error) {
	status, msg := apperr.Translate(err)

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Err(err).
			Int("status", status).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Error: msg})
}

// Fail is the exported variant of fail(), used by router-level fallbacks.
func Fail(c *gin.Context, err error) { fail(c, err) }

// ok writes a single-record success response.
func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dataResponse{Success: true, Data: data})
}

// okList writes a listing success response with count and pagination.
func okList(c *gin.Context, count int, pg query.Pagination, data interface{}) {
	c.JSON(http.StatusOK, listResponse{Success: true, Count: count, Pagination: pg, Data: data})
}
