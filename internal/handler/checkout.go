package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/oatandmatcha/storefront/internal/domain/checkout"
	"github.com/oatandmatcha/storefront/internal/domain/delivery"
	"github.com/oatandmatcha/storefront/internal/domain/order"
	"github.com/oatandmatcha/storefront/internal/domain/payment"
)

// CreateCheckout rebuilds the draft order from the request, submits it to the
// payment provider, and returns the hosted checkout URL.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	cfg, err := h.rules.Location(req.Location)
	if err != nil {
		writeValidation(w, checkout.ValidationErrors{
			{Field: "location", Reason: checkout.ReasonInvalid},
		})
		return
	}

	// Delivery dates are revalidated server-side; the draft is never trusted.
	var dateErrs checkout.ValidationErrors
	for _, d := range req.Dates {
		if err := h.validDate(cfg, d.Date); err != nil {
			reason := checkout.ReasonInvalid
			var dateErr *delivery.DateError
			if errors.As(err, &dateErr) {
				reason = string(dateErr.Reason)
			}
			dateErrs = append(dateErrs, checkout.FieldError{Field: "dates." + d.Date, Reason: reason})
		}
	}
	if len(dateErrs) > 0 {
		writeValidation(w, dateErrs)
		return
	}

	draft := order.NewDraft(req.Location, req.Postcode)
	draft.Customer = order.Customer{
		FirstName:    req.Customer.FirstName,
		LastName:     req.Customer.LastName,
		Phone:        req.Customer.Phone,
		AddressLine1: req.Customer.AddressLine1,
		AddressLine2: req.Customer.AddressLine2,
		City:         req.Customer.City,
		Notes:        req.Customer.Notes,
		NeedsSpoons:  req.Customer.NeedsSpoons,
	}
	for _, d := range req.Dates {
		for _, b := range d.Bowls {
			err := draft.AddBowl(h.catalog, d.Date, b.ItemID, order.Customization{
				SoakID:     b.SoakID,
				ToppingIDs: b.ToppingIDs,
				Extras:     b.Extras,
			})
			if err != nil {
				h.writeBowlError(w, err)
				return
			}
		}
	}

	res, err := h.checkout.Submit(ctx, draft)
	if err != nil {
		var verrs checkout.ValidationErrors
		if errors.As(err, &verrs) {
			writeValidation(w, verrs)
			return
		}
		var gwErr *payment.GatewayError
		if errors.As(err, &gwErr) {
			zctx.From(ctx).Error("Provider rejected checkout",
				zap.Int("provider_status", gwErr.StatusCode),
				zap.String("detail", gwErr.Detail),
			)
			writeError(w, http.StatusBadGateway, "payment_gateway", "payment provider unavailable")
			return
		}
		zctx.From(ctx).Error("Checkout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "")
		return
	}

	writeJSON(w, http.StatusCreated, CreateCheckoutResponse{
		Reference:   res.Reference,
		CheckoutID:  res.CheckoutID,
		CheckoutURL: res.CheckoutURL,
		AmountPence: res.AmountPence,
	})
}

// GetCheckoutID resolves an order reference to its provider checkout id.
func (h *Handler) GetCheckoutID(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	rec, err := h.orders.GetByReference(r.Context(), reference)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "unknown order reference")
			return
		}
		zctx.From(r.Context()).Error("Reference lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "")
		return
	}

	writeJSON(w, http.StatusOK, CheckoutIDResponse{CheckoutID: rec.CheckoutID})
}

func (h *Handler) writeBowlError(w http.ResponseWriter, err error) {
	var notFound *order.ItemNotFoundError
	if errors.As(err, &notFound) {
		writeValidation(w, checkout.ValidationErrors{
			{Field: "items." + notFound.ItemID, Reason: "not-found"},
		})
		return
	}
	var custErr *order.CustomizationError
	if errors.As(err, &custErr) {
		writeValidation(w, checkout.ValidationErrors{
			{Field: "items." + custErr.ItemID, Reason: string(custErr.Reason)},
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", "")
}

func writeValidation(w http.ResponseWriter, errs checkout.ValidationErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		Error:  "validation_failed",
		Errors: errs,
	})
}
