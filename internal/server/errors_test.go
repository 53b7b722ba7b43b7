package server

import (
	"errors"
	"net/http"
	"testing"

	quotedomain "github.com/polizaflow/cotiza/internal/quote/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation payload", newValidationError("item_id", "invalid_id", "invalid value"), http.StatusBadRequest, "validation_error"},
		{"invalid quote type", quotedomain.ErrInvalidQuoteType, http.StatusBadRequest, "validation_error"},
		{"invalid validity", quotedomain.ErrInvalidValidity, http.StatusBadRequest, "validation_error"},
		{"missing vehicle", quotedomain.ErrMissingVehicle, http.StatusBadRequest, "validation_error"},
		{"quote not found", quotedomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"item not found", quotedomain.ErrItemNotFound, http.StatusNotFound, "not_found"},
		{"gorm not found", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := mapError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, payload.Type)
		})
	}
}

func TestValidationErrorField(t *testing.T) {
	assert.Equal(t, "request", validationErrorField("invalid_request"))
	assert.Equal(t, "vehicle", validationErrorField("missing_vehicle_context"))
	assert.Equal(t, "valid_from", validationErrorField("invalid_validity_window"))
	assert.Equal(t, "origin", validationErrorField("invalid_origin"))
	assert.Equal(t, "", validationErrorField("something_else"))
}
