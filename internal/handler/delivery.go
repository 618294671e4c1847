package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/oatandmatcha/storefront/internal/domain/delivery"
)

// ListLocations returns the delivery locations in their configured order.
func (h *Handler) ListLocations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LocationsResponse{Locations: h.rules.Locations()})
}

// ListDates returns the currently selectable delivery dates for a location.
func (h *Handler) ListDates(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.locationFromPath(w, r)
	if !ok {
		return
	}

	dates := delivery.ValidDates(cfg, h.now())
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, DatesResponse{Dates: dates})
}

// CheckPostcode validates a raw postcode against the location policy and
// returns its normalized form.
func (h *Handler) CheckPostcode(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.locationFromPath(w, r)
	if !ok {
		return
	}

	var req PostcodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	normalized, err := delivery.ValidatePostcode(cfg, req.Postcode)
	if err != nil {
		var pcErr *delivery.PostcodeError
		if errors.As(err, &pcErr) {
			writeJSON(w, http.StatusOK, PostcodeResponse{Valid: false, Reason: string(pcErr.Reason)})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", "")
		return
	}

	writeJSON(w, http.StatusOK, PostcodeResponse{Valid: true, Postcode: normalized})
}

// ValidateDate checks a single candidate date against the location's
// schedule.
func (h *Handler) ValidateDate(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.locationFromPath(w, r)
	if !ok {
		return
	}

	var req DateValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	if err := h.validDate(cfg, req.Date); err != nil {
		var dateErr *delivery.DateError
		if errors.As(err, &dateErr) {
			writeJSON(w, http.StatusOK, DateValidateResponse{Valid: false, Reason: string(dateErr.Reason)})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", "")
		return
	}

	writeJSON(w, http.StatusOK, DateValidateResponse{Valid: true})
}

func (h *Handler) locationFromPath(w http.ResponseWriter, r *http.Request) (delivery.LocationConfig, bool) {
	cfg, err := h.rules.Location(chi.URLParam(r, "location"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_location", "unknown delivery location")
		return delivery.LocationConfig{}, false
	}
	return cfg, true
}

// validDate reports whether date is selectable for cfg right now. Custom-date
// locations check membership in their explicit list, scheduled locations
// check weekday, lead time, and exclusions.
func (h *Handler) validDate(cfg delivery.LocationConfig, date string) error {
	if !cfg.UseCustomDates {
		return delivery.ValidateCustomDate(cfg, date, h.now())
	}
	for _, d := range delivery.ValidDates(cfg, h.now()) {
		if d == date {
			return nil
		}
	}
	return &delivery.DateError{Reason: delivery.DateNotListed, Date: date}
}
