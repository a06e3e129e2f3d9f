package responses

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"storefront/internal/structs"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &structs.ValidationError{Fields: []structs.FieldError{{Field: "phone", Problem: structs.FieldInvalid}}}, http.StatusUnprocessableEntity},
		{"blocked", &structs.BlockedError{Reason: structs.BlockMinOrder, Message: "Minimum order amount is ₹100"}, http.StatusUnprocessableEntity},
		{"location", structs.NewLocationError(structs.LocationTimeout, nil), http.StatusUnprocessableEntity},
		{"unavailable shops", &structs.UnavailableShopsError{}, http.StatusUnprocessableEntity},
		{"in flight", structs.ErrSubmissionInFlight, http.StatusConflict},
		{"illegal", fmt.Errorf("x: %w", structs.ErrIllegalTransition), http.StatusConflict},
		{"order", &structs.OrderSubmissionError{Status: 500}, http.StatusBadGateway},
		{"geocode", &structs.GeocodeError{Status: 503}, http.StatusBadGateway},
		{"not found", fmt.Errorf("checkout x: %w", structs.ErrNotFound), http.StatusNotFound},
		{"bad request", fmt.Errorf("x: %w", structs.ErrBadRequest), http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := FromError(tt.err)
			if resp.Code != tt.code {
				t.Fatalf("code = %d, want %d", resp.Code, tt.code)
			}
			if resp.Message == "" {
				t.Fatal("message must not be empty")
			}
		})
	}
}

func TestFromError_BlockedKeepsMessage(t *testing.T) {
	resp := FromError(&structs.BlockedError{Reason: structs.BlockNoAddress, Message: "Please select a delivery address"})
	if resp.Message != "Please select a delivery address" {
		t.Fatalf("message = %q", resp.Message)
	}
}
