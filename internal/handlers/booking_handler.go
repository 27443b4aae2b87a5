package handlers

import (
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/internal/timeutil"

	"github.com/gorilla/mux"
)

type BookingHandler struct {
	Bookings   *services.BookingService
	Recurrence *services.RecurrenceService
	Clock      timeutil.Clock
}

func NewBookingHandler(bookings *services.BookingService, rec *services.RecurrenceService, clock timeutil.Clock) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Recurrence: rec, Clock: clock}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookingRequest
	if !decode(w, r, &req) {
		return
	}
	booking, err := h.Bookings.CreateBooking(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.Bookings.GetBooking(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	children, err := h.Bookings.Occurrences(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *BookingHandler) ExpandBooking(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r, h.Clock)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date")
		return
	}
	created, err := h.Recurrence.ExpandBooking(r.Context(), mux.Vars(r)["id"], at)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}
