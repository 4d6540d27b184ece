package server

import (
	"errors"
	"net/http"
	"testing"

	orderdomain "github.com/smallbiznis/orderdesk/internal/order/domain"
	"github.com/smallbiznis/orderdesk/internal/store"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "validation",
			err:        orderdomain.ErrInvalidQuantity,
			wantStatus: http.StatusBadRequest,
			wantType:   "validation_error",
		},
		{
			name:       "no lines",
			err:        orderdomain.ErrNoLines,
			wantStatus: http.StatusBadRequest,
			wantType:   "validation_error",
		},
		{
			name:       "referential contact",
			err:        orderdomain.ErrContactNotFound,
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   "referential_error",
		},
		{
			name:       "referential product",
			err:        orderdomain.ErrProductNotFound,
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   "referential_error",
		},
		{
			name:       "not found",
			err:        orderdomain.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   "not_found",
		},
		{
			name:       "suspending unavailable",
			err:        store.ErrSuspendingUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantType:   "service_unavailable",
		},
		{
			name:       "relationship guard stays internal",
			err:        orderdomain.ErrLinesNotLoaded,
			wantStatus: http.StatusInternalServerError,
			wantType:   "internal_error",
		},
		{
			name:       "unknown storage failure",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "internal_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d", status, tc.wantStatus)
			}
			if payload.Type != tc.wantType {
				t.Fatalf("type = %q, want %q", payload.Type, tc.wantType)
			}
		})
	}
}

func TestMapErrorValidationPayload(t *testing.T) {
	status, payload := mapError(orderdomain.ErrInvalidQuantity)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if len(payload.Errors) != 1 {
		t.Fatalf("errors = %v, want one entry", payload.Errors)
	}
	if payload.Errors[0].Code != "invalid_quantity" || payload.Errors[0].Field != "quantity" {
		t.Fatalf("entry = %+v", payload.Errors[0])
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	cases := []struct {
		err      error
		wantType string
	}{
		{orderdomain.ErrInvalidName, "validation_error"},
		{orderdomain.ErrContactNotFound, "referential_error"},
		{orderdomain.ErrNotFound, "not_found"},
		{orderdomain.ErrTagsNotLoaded, "relationship_not_loaded"},
		{store.ErrSuspendingUnavailable, "service_unavailable"},
		{errors.New("disk full"), "storage_error"},
	}

	for _, tc := range cases {
		gotType, _ := classifyErrorForLog(tc.err)
		if gotType != tc.wantType {
			t.Fatalf("classify(%v) = %q, want %q", tc.err, gotType, tc.wantType)
		}
	}
}
