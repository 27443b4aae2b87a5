package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"pos-backend/internal/models"
	"pos-backend/internal/timeutil"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] Internal error: %v", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrUnknownWallet):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidRecurrence),
		errors.Is(err, models.ErrAmbiguousCustomer):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDuplicatePosting),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrAlreadySettled),
		errors.Is(err, models.ErrTotalMismatch):
		return http.StatusConflict
	case errors.Is(err, models.ErrCurrencyMismatch):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// asOf reads the optional as_of=YYYY-MM-DD query parameter. A date means
// the end of that business day.
func asOf(r *http.Request, clock timeutil.Clock) (time.Time, error) {
	v := r.URL.Query().Get("as_of")
	if v == "" {
		return clock.Now(), nil
	}
	d, err := timeutil.ParseDate(v)
	if err != nil {
		return time.Time{}, err
	}
	return timeutil.EndOfDay(d), nil
}
