package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-proposals/config"
	"github.com/gaborage/go-proposals/logger"
)

// IAPIError defines the interface for API errors with structured information.
type IAPIError interface {
	ErrorCode() string
	Message() string
	HTTPStatus() int
	Details() map[string]any
}

// APIResponse is the envelope of every API response.
type APIResponse struct {
	Data  any               `json:"data,omitempty"`
	Error *APIErrorResponse `json:"error,omitempty"`
	Meta  map[string]any    `json:"meta"`
}

// APIErrorResponse is the error part of an APIResponse.
type APIErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HandlerFunc is a typed handler focused on business logic.
type HandlerFunc[T any, R any] func(request T, ctx HandlerContext) (R, IAPIError)

// HandlerContext gives handlers access to the Echo context when needed.
type HandlerContext struct {
	Echo   echo.Context
	Config *config.Config
}

// Context returns the request context.
func (hc HandlerContext) Context() context.Context {
	return hc.Echo.Request().Context()
}

// Logger returns the request-scoped logger, or fallback.
func (hc HandlerContext) Logger(fallback logger.Logger) logger.Logger {
	return logger.FromContext(hc.Context(), fallback)
}

// Binder is implemented by request types that decode themselves. A returned
// IAPIError is rendered as is; other errors become 400s.
type Binder interface {
	BindRequest(c echo.Context) error
}

// WrapHandler adapts a typed handler to Echo: it binds path, query and body
// into T, validates it and renders the result in the response envelope.
func WrapHandler[T any, R any](handlerFunc HandlerFunc[T, R], cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		var request T

		if err := bindRequest(c, &request); err != nil {
			var apiErr IAPIError
			if errors.As(err, &apiErr) {
				return formatErrorResponse(c, apiErr, cfg)
			}
			return formatErrorResponse(c, NewBadRequestError("Invalid request data").WithDetails("error", err.Error()), cfg)
		}

		if err := c.Validate(&request); err != nil {
			vErr := NewBadRequestError("Request validation failed")
			var ve *ValidationError
			if errors.As(err, &ve) {
				_ = vErr.WithDetails("validationErrors", ve.Errors)
			} else {
				_ = vErr.WithDetails("error", err.Error())
			}
			return formatErrorResponse(c, vErr, cfg)
		}

		response, apiErr := handlerFunc(request, HandlerContext{Echo: c, Config: cfg})
		if apiErr != nil {
			return formatErrorResponse(c, apiErr, cfg)
		}

		if rl, ok := any(response).(ResultLike); ok {
			status, headers, data := rl.ResultMeta()
			return formatSuccessResponseWithStatus(c, data, status, headers)
		}
		return formatSuccessResponse(c, response)
	}
}

func bindRequest(c echo.Context, target any) error {
	if b, ok := target.(Binder); ok {
		if err := (&echo.DefaultBinder{}).BindPathParams(c, target); err != nil {
			return fmt.Errorf("failed to bind path params: %w", err)
		}
		return b.BindRequest(c)
	}
	return c.Bind(target)
}

// ResultLike exposes status, headers and payload for successful responses.
type ResultLike interface {
	ResultMeta() (status int, headers http.Header, data any)
}

// Result lets handlers choose the status and headers of a success response.
type Result[R any] struct {
	Data    R
	Status  int
	Headers http.Header
}

// ResultMeta implements ResultLike.
func (r Result[R]) ResultMeta() (status int, headers http.Header, data any) {
	return r.Status, r.Headers, r.Data
}

// NewResult is a convenience constructor for Result.
func NewResult[R any](status int, data R) Result[R] {
	return Result[R]{Data: data, Status: status}
}

// WithHeader returns a copy of r with the header set.
func (r Result[R]) WithHeader(key, value string) Result[R] {
	h := r.Headers.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(key, value)
	r.Headers = h
	return r
}

// Created returns a 201 Result.
func Created[R any](data R) Result[R] {
	return Result[R]{Data: data, Status: http.StatusCreated}
}

// NoContentResult is a 204 without body.
type NoContentResult struct{}

// ResultMeta implements ResultLike.
func (NoContentResult) ResultMeta() (status int, headers http.Header, data any) {
	return http.StatusNoContent, nil, nil
}

// NoContent returns a 204 result.
func NoContent() NoContentResult { return NoContentResult{} }

func responseMeta(c echo.Context) map[string]any {
	return map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"traceId":   safeGetRequestID(c),
	}
}

func formatSuccessResponse(c echo.Context, data any) error {
	return formatSuccessResponseWithStatus(c, data, http.StatusOK, nil)
}

func formatSuccessResponseWithStatus(c echo.Context, data any, status int, headers http.Header) error {
	for k, values := range headers {
		for _, v := range values {
			c.Response().Header().Add(k, v)
		}
	}
	if status == 0 {
		status = http.StatusOK
	}
	if status == http.StatusNoContent {
		return c.NoContent(status)
	}
	return c.JSON(status, APIResponse{
		Data: data,
		Meta: responseMeta(c),
	})
}

func formatErrorResponse(c echo.Context, apiErr IAPIError, cfg *config.Config) error {
	details := apiErr.Details()
	// Internal error details are only shown in development
	if apiErr.HTTPStatus() == http.StatusInternalServerError && !cfg.App.IsDevelopment() && !cfg.App.Debug {
		details = nil
	}
	return c.JSON(apiErr.HTTPStatus(), APIResponse{
		Error: &APIErrorResponse{
			Code:    apiErr.ErrorCode(),
			Message: apiErr.Message(),
			Details: details,
		},
		Meta: responseMeta(c),
	})
}
