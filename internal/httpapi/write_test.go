package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/John-Robertt/subagg-go/internal/fetch"
	"github.com/John-Robertt/subagg-go/internal/model"
	"github.com/John-Robertt/subagg-go/internal/render"
)

func TestWriteError_JSONShapeAndHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusBadGateway, model.AppError{
		Code:    "FETCH_FAILED",
		Message: "upstream returned 503",
		Stage:   "fetch_sub",
		URL:     "https://example.com/sub",
		Snippet: "Service Unavailable",
	})

	if got, want := rr.Code, http.StatusBadGateway; got != want {
		t.Fatalf("status = %d, want %d", got, want)
	}
	if got, want := rr.Header().Get("Content-Type"), "application/json; charset=utf-8"; got != want {
		t.Fatalf("Content-Type = %q, want %q", got, want)
	}

	var resp model.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nbody=%q", err, rr.Body.String())
	}
	if resp.Error.Code != "FETCH_FAILED" {
		t.Fatalf("code = %q, want %q", resp.Error.Code, "FETCH_FAILED")
	}
	if resp.Error.Stage != "fetch_sub" {
		t.Fatalf("stage = %q, want %q", resp.Error.Stage, "fetch_sub")
	}
	if resp.Error.URL != "https://example.com/sub" {
		t.Fatalf("url = %q", resp.Error.URL)
	}
}

func TestErrorResponse_Mapping(t *testing.T) {
	_, targetErr := render.ParseTarget("surge")

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthorized", errUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"rate limited", errRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"bad target", targetErr, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"render failure", &render.RenderError{AppError: model.AppError{Code: "RENDER_FAILED", Stage: "render"}},
			http.StatusInternalServerError, "RENDER_FAILED"},
		{"fetch", &fetch.FetchError{Status: http.StatusGatewayTimeout, AppError: model.AppError{Code: "FETCH_TIMEOUT"}},
			http.StatusGatewayTimeout, "FETCH_TIMEOUT"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, app := errorResponse(tc.err)
			if status != tc.status || app.Code != tc.code {
				t.Fatalf("got (%d, %q), want (%d, %q)", status, app.Code, tc.status, tc.code)
			}
		})
	}
}
