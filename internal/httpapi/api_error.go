package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/John-Robertt/subagg-go/internal/fetch"
	"github.com/John-Robertt/subagg-go/internal/model"
	"github.com/John-Robertt/subagg-go/internal/render"
)

// APIError is used by the HTTP layer for request validation and the
// auth/rate-limit stops.
type APIError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *APIError) Unwrap() error { return e.Cause }

func apiError(status int, app model.AppError, cause error) error {
	return &APIError{Status: status, AppError: app, Cause: cause}
}

func requestError(code, message, hint string) error {
	return apiError(http.StatusBadRequest, model.AppError{
		Code:    code,
		Message: message,
		Stage:   "validate_request",
		Hint:    hint,
	}, nil)
}

var (
	errUnauthorized = apiError(http.StatusUnauthorized, model.AppError{
		Code:    "UNAUTHORIZED",
		Message: "token 缺失或无效",
		Stage:   "auth",
	}, nil)

	errRateLimited = apiError(http.StatusTooManyRequests, model.AppError{
		Code:    "RATE_LIMITED",
		Message: "请求过于频繁，请稍后再试",
		Stage:   "rate_limit",
	}, nil)
)

// errorResponse maps err to the status and body the client sees.
func errorResponse(err error) (int, model.AppError) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status, ae.AppError
	}

	var re *render.RenderError
	if errors.As(err, &re) {
		if re.AppError.Stage == "validate_request" {
			return http.StatusBadRequest, re.AppError
		}
		return http.StatusInternalServerError, re.AppError
	}

	// Source failures are skipped inside the pipeline; one only reaches here
	// if a caller surfaces it directly.
	var fe *fetch.FetchError
	if errors.As(err, &fe) {
		return fe.Status, fe.AppError
	}

	// Fallback: internal bug.
	return http.StatusInternalServerError, model.AppError{
		Code:    "INTERNAL_ERROR",
		Message: "服务端内部错误",
		Stage:   "internal",
		Hint:    err.Error(),
	}
}

func (s *server) writeErrorFromErr(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status, app := errorResponse(err)
	s.metrics.AppErrors.WithLabelValues(app.Stage, app.Code).Inc()
	WriteError(w, status, app)
}
