package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"studiodesk/internal/models"
	"studiodesk/internal/service"
)

const maxJSONBody = 1 << 20

// flexString accepts a JSON string or number. Amounts arrive both ways.
type flexString struct {
	value *string
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.value = nil
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number: %w", err)
		}
		s = n.String()
	}
	f.value = &s
	return nil
}

type bookingRequest struct {
	Name               flexString `json:"name"`
	Address            flexString `json:"address"`
	Mobile             flexString `json:"mobile"`
	ServiceDescription flexString `json:"service_description"`
	Date               flexString `json:"date"`
	Total              flexString `json:"total"`
	Advance            flexString `json:"advance"`
	Notes              flexString `json:"notes"`
	Status             flexString `json:"status"`
}

func (b bookingRequest) input() models.BookingInput {
	return models.BookingInput{
		Name:               b.Name.value,
		Address:            b.Address.value,
		Mobile:             b.Mobile.value,
		ServiceDescription: b.ServiceDescription.value,
		Date:               b.Date.value,
		Total:              b.Total.value,
		Advance:            b.Advance.value,
		Notes:              b.Notes.value,
		Status:             b.Status.value,
	}
}

func decodeBooking(w http.ResponseWriter, r *http.Request) (models.BookingInput, bool) {
	var req bookingRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return models.BookingInput{}, false
	}
	return req.input(), true
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bookings, err := s.deps.Bookings.List(r.Context(), strings.TrimSpace(q.Get("q")), q.Get("filter"))
	if err != nil {
		writeListError(w, s.log, "bookings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings, "count": len(bookings)})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeBooking(w, r)
	if !ok {
		return
	}
	booking, err := s.deps.Bookings.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.deps.Bookings.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleEditBooking(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeBooking(w, r)
	if !ok {
		return
	}
	booking, err := s.deps.Bookings.Edit(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Bookings.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transitionFunc func(*service.BookingService, context.Context, string) (*service.BookingDetails, error)

func (s *HTTPServer) transition(action transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		booking, err := action(s.deps.Bookings, r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	}
}

func (s *HTTPServer) handleDuePayments(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Bookings.DuePayments(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeListError(w, s.log, "payments", err)
		return
	}
	var totalDue float64
	for _, e := range entries {
		totalDue += e.View.DueAmount
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payments":  entries,
		"count":     len(entries),
		"total_due": totalDue,
	})
}

func (s *HTTPServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Bookings.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *HTTPServer) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(w, r, "days", models.DefaultUpcomingDays)
	if !ok {
		return
	}
	bookings, err := s.deps.Bookings.Upcoming(r.Context(), days)
	if err != nil {
		writeListError(w, s.log, "bookings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings, "days": days})
}

// intParam reads a positive integer query parameter, answering 400 itself
// when it is malformed.
func intParam(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: map[string]string{name: "must be a positive integer"},
		})
		return 0, false
	}
	return v, true
}

func (s *HTTPServer) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", models.DefaultNotificationsLimit)
	if !ok {
		return
	}
	list, unread, err := s.deps.Notifications.List(r.Context(), limit)
	if err != nil {
		writeListError(w, s.log, "notifications", err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list, "unread": unread})
}

func (s *HTTPServer) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Notifications.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Notifications.MarkAllRead(r.Context()); err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

