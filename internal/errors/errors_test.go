package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusBadRequest, "TEST_ERROR", "test message")
	assert.Equal(t, "test message", err.Error())
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"invalid parameter", ErrInvalidParameter, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"ticker not found", ErrTickerNotFound, http.StatusNotFound, "TICKER_NOT_FOUND"},
		{"anomalous input", ErrAnomalousInput, http.StatusUnprocessableEntity, "ANOMALOUS_INPUT"},
		{"export failed", ErrExportFailed, http.StatusInternalServerError, "EXPORT_FAILED"},
		{"upstream unavailable", ErrUpstreamUnavailable, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestAPIError_CopiesLeaveSharedErrorsUntouched(t *testing.T) {
	msg := ErrTickerNotFound.WithMessage("ticker not found: ZZZZ")
	assert.Equal(t, "ticker not found: ZZZZ", msg.Message)
	assert.Equal(t, ErrTickerNotFound.ErrorCode, msg.ErrorCode)
	assert.Equal(t, "Ticker not found", ErrTickerNotFound.Message)

	det := ErrExportFailed.WithDetails("xlsx")
	assert.Equal(t, "xlsx", det.Details)
	assert.Nil(t, ErrExportFailed.Details)
}

func TestErrorConstructors(t *testing.T) {
	t.Run("InvalidRequestWithError", func(t *testing.T) {
		err := InvalidRequestWithError(fmt.Errorf("bad json"))
		assert.Equal(t, http.StatusBadRequest, err.StatusCode)
		assert.Equal(t, "bad json", err.Details)
	})

	t.Run("ErrValidation", func(t *testing.T) {
		err := ErrValidation("minutes", "must be positive")
		assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)
		assert.Equal(t, ValidationError{Field: "minutes", Message: "must be positive"}, err.Details)
	})

	t.Run("NewValidationErrors", func(t *testing.T) {
		fields := []ValidationError{{Field: "limit", Message: "too large"}, {Field: "format", Message: "unknown"}}
		err := NewValidationErrors(fields)
		details, ok := err.Details.(ValidationErrors)
		require.True(t, ok)
		assert.Len(t, details.Errors, 2)
	})
}

func TestAPIError_IsFoundThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("analyze NVDA: %w", ErrAnomalousInput)

	var apiErr *APIError
	require.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func TestAPIError_Render(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/stocks/NVDA", nil)

	require.NoError(t, render.Render(w, r, ErrTickerNotFound))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TICKER_NOT_FOUND", body["error_code"])
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusUnprocessableEntity, TypeAnomalousInput, "Anomalous Input", "zero base price", "/api/analytics/stocks/NVDA").
		WithExtension("error_code", "ANOMALOUS_INPUT")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeAnomalousInput, body["type"])
	assert.Equal(t, float64(422), body["status"])
	assert.Equal(t, "zero base price", body["detail"])
	assert.Equal(t, "ANOMALOUS_INPUT", body["error_code"], "extensions are flattened")
	assert.NotContains(t, body, "Extensions")
}

func TestProblemDetails_OmitsEmptyMembers(t *testing.T) {
	data, err := json.Marshal(NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", ""))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "detail")
	assert.NotContains(t, string(data), "instance")
}

func TestProblemDetails_ExtensionsCannotOverrideMembers(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadGateway, TypeUpstreamUnavailable, "Bad Gateway", "", "").
		WithExtension("status", 200)

	data, err := json.Marshal(pd)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":502`)
}

func TestProblemDetails_WithExtensionOnZeroValue(t *testing.T) {
	pd := &ProblemDetails{Status: http.StatusTeapot}
	pd.WithExtension("k", "v")
	assert.Equal(t, "v", pd.Extensions["k"])
}

func TestWriteProblem(t *testing.T) {
	w := httptest.NewRecorder()
	WriteProblem(w, NewProblemDetails(http.StatusTooManyRequests, TypeRateLimit, "Too Many Requests", "slow down", "/api/stocks"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, ContentTypeProblem, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"detail":"slow down"`)
}
