package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "The requested resource was not found", ErrNotFound.Error())
	assert.Equal(t, "", New(http.StatusTeapot, "TEAPOT", "").Error())
}

func TestAPIError_Render(t *testing.T) {
	tests := []struct {
		name       string
		apiError   *APIError
		wantStatus int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"method", ErrMethodNotAllowed, http.StatusMethodNotAllowed},
		{"validation", NewValidationErrors(nil), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/test", nil)

			require.NoError(t, render.Render(w, r, tt.apiError))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.apiError.ErrorCode, body["error_code"])
		})
	}
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "name", Message: "required"},
		{Field: "message", Message: "required"},
	})

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
	assert.Equal(t, "message", details.Errors[1].Field)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/api/nope").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999)

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, "/api/nope", body["instance"])
	assert.Equal(t, "abc", body["trace_id"])
	// standard members cannot be overridden by extensions
	assert.Equal(t, float64(404), body["status"])
	assert.NotContains(t, body, "detail")
}

func TestProblemDetails_WithExtensionOnZeroValue(t *testing.T) {
	var problem ProblemDetails
	problem.WithExtension("k", "v")
	assert.Equal(t, "v", problem.Extensions["k"])
}
