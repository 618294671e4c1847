package handler

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/oatandmatcha/storefront/internal/domain/order"
)

// adminHeader carries the admin credential on guarded endpoints.
const adminHeader = "X-Admin-Password"

// failedAuthDelay slows down credential guessing.
const failedAuthDelay = 500 * time.Millisecond

// checkAdminPassword compares the candidate against the configured password.
// Both sides are hashed first so the comparison is constant-time regardless
// of length, and an empty configured password never matches.
func (h *Handler) checkAdminPassword(candidate string) bool {
	if h.adminPassword == "" {
		return false
	}
	want := sha256.Sum256([]byte(h.adminPassword))
	got := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

// AdminAuth validates the admin password. Clients exchange it once and then
// send the same credential as a header on guarded endpoints.
func (h *Handler) AdminAuth(w http.ResponseWriter, r *http.Request) {
	var req AdminAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	if !h.checkAdminPassword(req.Password) {
		time.Sleep(failedAuthDelay)
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RequireAdmin guards admin endpoints with the credential header.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.checkAdminPassword(r.Header.Get(adminHeader)) {
			time.Sleep(failedAuthDelay)
			writeError(w, http.StatusUnauthorized, "unauthorized", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListPaidOrders returns every paid order, most recently paid first.
func (h *Handler) ListPaidOrders(w http.ResponseWriter, r *http.Request) {
	recs, err := h.orders.ListByStatus(r.Context(), order.StatusPaid)
	if err != nil {
		zctx.From(r.Context()).Error("Listing paid orders failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "")
		return
	}

	resp := AdminOrdersResponse{Orders: make([]AdminOrder, len(recs))}
	for i, rec := range recs {
		resp.Orders[i] = adminOrderFromRecord(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExportOrders streams orders of the requested status (default paid) as
// gzipped JSON lines, one order per line, for offline reporting.
func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	status := order.StatusPaid
	if s := r.URL.Query().Get("status"); s != "" {
		status = order.Status(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
			return
		}
	}

	recs, err := h.orders.ListByStatus(r.Context(), status)
	if err != nil {
		zctx.From(r.Context()).Error("Listing orders for export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "")
		return
	}

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.jsonl.gz"`)

	gz := pgzip.NewWriter(w)
	enc := json.NewEncoder(gz)
	for _, rec := range recs {
		if err := enc.Encode(adminOrderFromRecord(rec)); err != nil {
			zctx.From(r.Context()).Error("Order export write failed", zap.Error(err))
			return
		}
	}
	if err := gz.Close(); err != nil {
		zctx.From(r.Context()).Error("Order export flush failed", zap.Error(err))
	}
}

func adminOrderFromRecord(rec order.Record) AdminOrder {
	out := AdminOrder{
		Reference:   rec.Reference,
		CheckoutID:  rec.CheckoutID,
		Status:      string(rec.Status),
		AmountPence: rec.AmountPence,
		Currency:    rec.Currency,
		Location:    rec.Location,
		Postcode:    rec.Postcode,
		Customer: CustomerDTO{
			FirstName:    rec.Customer.FirstName,
			LastName:     rec.Customer.LastName,
			Phone:        rec.Customer.Phone,
			AddressLine1: rec.Customer.AddressLine1,
			AddressLine2: rec.Customer.AddressLine2,
			City:         rec.Customer.City,
			Notes:        rec.Customer.Notes,
			NeedsSpoons:  rec.Customer.NeedsSpoons,
		},
		Details:     rec.Details,
		Description: rec.Description,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if rec.PaidAt != nil {
		out.PaidAt = rec.PaidAt.UTC().Format(time.RFC3339)
	}
	return out
}
