package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/oatandmatcha/storefront/internal/domain/order"
)

const eventCheckoutCompleted = "CHECKOUT_COMPLETED"

// webhookEvent is the provider's push notification envelope.
type webhookEvent struct {
	EventType string
	ID        string
	Status    string
}

// Webhook handles provider push notifications. The provider retries on
// non-2xx, so every well-formed request is acknowledged with 200 even when
// nothing can be done with it; failures are logged instead.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "")
		return
	}

	event, err := decodeWebhookEvent(body)
	if err != nil {
		lg.Warn("Undecodable webhook payload", zap.Error(err))
		ack(w)
		return
	}

	if event.EventType != eventCheckoutCompleted {
		lg.Info("Ignoring webhook event", zap.String("event_type", event.EventType))
		ack(w)
		return
	}
	if event.ID == "" {
		lg.Warn("Webhook event without checkout id")
		ack(w)
		return
	}

	outcome, err := h.reconciler.Apply(ctx, event.ID, event.Status)
	switch {
	case errors.Is(err, order.ErrNotFound):
		lg.Warn("Webhook for unknown checkout", zap.String("checkout_id", event.ID))
	case err != nil:
		lg.Error("Webhook reconciliation failed",
			zap.String("checkout_id", event.ID),
			zap.Error(err),
		)
	case outcome.Transitioned:
		lg.Info("Order transitioned via webhook",
			zap.String("checkout_id", event.ID),
			zap.String("status", string(outcome.Status)),
		)
	}

	ack(w)
}

// WebhookProbe answers provider (and human) GET checks on the webhook path.
func (h *Handler) WebhookProbe(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "webhook endpoint active"})
}

// VerifyByCheckoutID re-queries the provider for a checkout and applies the
// resulting status transition.
func (h *Handler) VerifyByCheckoutID(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, func() (string, error) {
		checkoutID := chi.URLParam(r, "checkoutID")
		outcome, err := h.reconciler.VerifyByCheckoutID(r.Context(), checkoutID)
		if err != nil {
			return "", err
		}
		return string(outcome.Status), nil
	}, "")
}

// VerifyByReference is VerifyByCheckoutID keyed by the customer-facing order
// reference.
func (h *Handler) VerifyByReference(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	h.verify(w, r, func() (string, error) {
		outcome, err := h.reconciler.VerifyByReference(r.Context(), reference)
		if err != nil {
			return "", err
		}
		return string(outcome.Status), nil
	}, reference)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, run func() (string, error), reference string) {
	status, err := run()
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "unknown order")
			return
		}
		zctx.From(r.Context()).Error("Verification failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "verification_failed", "could not verify payment status")
		return
	}

	writeJSON(w, http.StatusOK, VerifyResponse{Reference: reference, Status: status})
}

func ack(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// decodeWebhookEvent pulls event_type and the resource id/status out of the
// notification envelope, skipping everything else.
func decodeWebhookEvent(body []byte) (webhookEvent, error) {
	var event webhookEvent
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "event_type":
			v, err := d.Str()
			if err != nil {
				return err
			}
			event.EventType = v
			return nil
		case "resource":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "id":
					v, err := d.Str()
					if err != nil {
						return err
					}
					event.ID = v
					return nil
				case "status":
					v, err := d.Str()
					if err != nil {
						return err
					}
					event.Status = v
					return nil
				default:
					return d.Skip()
				}
			})
		default:
			return d.Skip()
		}
	})
	return event, err
}
