package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pos-backend/internal/models"
	"pos-backend/internal/timeutil"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wallet w1: %w", models.ErrUnknownWallet), http.StatusNotFound},
		{models.ErrInvalidInput, http.StatusBadRequest},
		{models.ErrInvalidRecurrence, http.StatusBadRequest},
		{models.ErrAmbiguousCustomer, http.StatusBadRequest},
		{fmt.Errorf("receipt r1: %w", models.ErrDuplicatePosting), http.StatusConflict},
		{models.ErrConflict, http.StatusConflict},
		{models.ErrInvalidTransition, http.StatusConflict},
		{models.ErrAlreadySettled, http.StatusConflict},
		{models.ErrTotalMismatch, http.StatusConflict},
		{models.ErrCurrencyMismatch, http.StatusUnprocessableEntity},
		{models.ErrBalanceDrift, http.StatusInternalServerError},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestAsOf(t *testing.T) {
	clock := timeutil.NewFixedClock(time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC))

	r := httptest.NewRequest("POST", "/api/bookings/b1/expand", nil)
	got, err := asOf(r, clock)
	if err != nil || !got.Equal(clock.Now()) {
		t.Errorf("asOf() without parameter = %v, %v; want clock time", got, err)
	}

	r = httptest.NewRequest("POST", "/api/bookings/b1/expand?as_of=2024-05-01", nil)
	got, err = asOf(r, clock)
	if err != nil {
		t.Fatalf("asOf() error: %v", err)
	}
	if got.Format(timeutil.DateLayout) != "2024-05-01" || got.Hour() != 23 {
		t.Errorf("asOf(2024-05-01) = %v, want end of that day", got)
	}

	r = httptest.NewRequest("POST", "/api/bookings/b1/expand?as_of=May", nil)
	if _, err := asOf(r, clock); err == nil {
		t.Error("asOf(May) error = nil, want parse error")
	}
}
