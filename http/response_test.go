package http_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sagarc03/pitfall"
	pitfallhttp "github.com/sagarc03/pitfall/http"
	"github.com/stretchr/testify/assert"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", pitfall.ErrNotFound, http.StatusNotFound, "not_found"},
		{"wrapped not found", fmt.Errorf("read file: %w", pitfall.ErrNotFound), http.StatusNotFound, "not_found"},
		{"invalid input", pitfall.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{"invalid path", pitfall.ErrInvalidPath, http.StatusBadRequest, "invalid_path"},
		{"malformed body", pitfallhttp.ErrMalformedBody, http.StatusBadRequest, "invalid_request"},
		{"unauthorized", pitfall.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, "canceled"},
		{"internal", errors.New("some unexpected error"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			pitfallhttp.HandleError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.wantCode)
			assert.NotContains(t, rec.Body.String(), "unexpected")
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	err := pitfallhttp.WriteJSON(rec, http.StatusCreated, map[string]int{"n": 1})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}
