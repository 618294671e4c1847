// Package handler exposes the storefront API over HTTP.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oatandmatcha/storefront/internal/domain/catalog"
	"github.com/oatandmatcha/storefront/internal/domain/checkout"
	"github.com/oatandmatcha/storefront/internal/domain/delivery"
	"github.com/oatandmatcha/storefront/internal/domain/order"
	"github.com/oatandmatcha/storefront/internal/domain/payment"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// AdminPassword guards the admin endpoints. Empty disables admin access
	// entirely.
	AdminPassword string
}

// Handler wires the domain services to HTTP routes.
type Handler struct {
	catalog    *catalog.Catalog
	rules      *delivery.Rules
	checkout   *checkout.Service
	reconciler *payment.Reconciler
	orders     order.Repository

	adminPassword string
	now           func() time.Time
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	cat *catalog.Catalog,
	rules *delivery.Rules,
	checkoutSvc *checkout.Service,
	reconciler *payment.Reconciler,
	orders order.Repository,
) *Handler {
	return &Handler{
		catalog:       cat,
		rules:         rules,
		checkout:      checkoutSvc,
		reconciler:    reconciler,
		orders:        orders,
		adminPassword: cfg.AdminPassword,
		now:           time.Now,
	}
}

// Routes returns the chi router with every API route mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.GetCatalog)

		r.Route("/delivery", func(r chi.Router) {
			r.Get("/locations", h.ListLocations)
			r.Get("/{location}/dates", h.ListDates)
			r.Post("/{location}/postcode", h.CheckPostcode)
			r.Post("/{location}/dates/validate", h.ValidateDate)
		})

		r.Post("/checkouts", h.CreateCheckout)
		r.Post("/checkouts/{checkoutID}/verify", h.VerifyByCheckoutID)

		r.Get("/orders/{reference}/checkout-id", h.GetCheckoutID)
		r.Post("/orders/{reference}/verify", h.VerifyByReference)

		r.Get("/webhooks/sumup", h.WebhookProbe)
		r.Post("/webhooks/sumup", h.Webhook)

		r.Post("/admin/auth", h.AdminAuth)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Get("/admin/orders", h.ListPaidOrders)
			r.Get("/admin/orders/export", h.ExportOrders)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
