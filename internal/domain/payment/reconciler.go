package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/oatandmatcha/storefront/internal/domain/order"
)

// Outcome describes the effect of applying one payment signal.
type Outcome struct {
	// Status is the order's status after the signal was applied.
	Status order.Status
	// Transitioned is true when this signal moved the record out of pending.
	Transitioned bool
	// Anomaly is true when the signal carried a terminal state conflicting
	// with an already-terminal record. The stored state is kept.
	Anomaly bool
}

// Reconciler applies payment-status signals to persisted orders. The webhook
// push path and the poll pull path both funnel into Apply, so whichever
// signal wins the race transitions the record and the loser is a no-op.
type Reconciler struct {
	orders  order.Repository
	gateway Gateway
	now     func() time.Time
}

// NewReconciler creates a Reconciler over the given repository and gateway.
func NewReconciler(orders order.Repository, gateway Gateway) *Reconciler {
	return &Reconciler{orders: orders, gateway: gateway, now: time.Now}
}

// Apply applies a provider status signal for the given checkout id.
//
// pending→paid sets the paid timestamp to the first transition's time;
// pending→failed sets no timestamp. Terminal states are never overwritten:
// a repeated identical signal is an idempotent no-op, and a conflicting
// terminal signal is logged as an anomaly while the stored state is kept.
// Statuses the core does not interpret leave the record untouched.
func (r *Reconciler) Apply(ctx context.Context, checkoutID, providerStatus string) (Outcome, error) {
	rec, err := r.orders.GetByCheckoutID(ctx, checkoutID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return Outcome{}, order.ErrNotFound
		}
		return Outcome{}, errors.Wrap(err, "get order")
	}

	target := StatusFromProvider(providerStatus)
	if target == "" {
		// Still pending on the provider side; nothing to persist.
		return Outcome{Status: rec.Status}, nil
	}

	var changed bool
	switch target {
	case order.StatusPaid:
		changed, err = r.orders.MarkPaid(ctx, checkoutID, r.now())
	case order.StatusFailed:
		changed, err = r.orders.MarkFailed(ctx, checkoutID)
	}
	if err != nil {
		return Outcome{}, errors.Wrap(err, "transition order")
	}
	if changed {
		return Outcome{Status: target, Transitioned: true}, nil
	}

	// The compare-and-set did not fire: the record already left pending.
	// Re-read to distinguish a redelivery from a conflicting signal.
	rec, err = r.orders.GetByCheckoutID(ctx, checkoutID)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "re-read order")
	}
	if rec.Status == target {
		return Outcome{Status: rec.Status}, nil
	}

	zctx.From(ctx).Error("Conflicting terminal payment signal ignored",
		zap.String("checkout_id", checkoutID),
		zap.String("stored_status", string(rec.Status)),
		zap.String("signal_status", string(target)),
	)
	return Outcome{Status: rec.Status, Anomaly: true}, nil
}

// VerifyByCheckoutID queries the provider for the checkout's current status
// and applies it.
func (r *Reconciler) VerifyByCheckoutID(ctx context.Context, checkoutID string) (Outcome, error) {
	status, err := r.gateway.CheckoutStatus(ctx, checkoutID)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "query provider")
	}
	return r.Apply(ctx, checkoutID, status)
}

// VerifyByReference resolves a merchant reference to the provider checkout
// id, then verifies as VerifyByCheckoutID.
func (r *Reconciler) VerifyByReference(ctx context.Context, reference string) (Outcome, error) {
	rec, err := r.orders.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return Outcome{}, order.ErrNotFound
		}
		return Outcome{}, errors.Wrap(err, "get order by reference")
	}
	return r.VerifyByCheckoutID(ctx, rec.CheckoutID)
}

// ReconcilePending re-verifies pending orders created before olderThan, at
// most limit per call. Safe to run concurrently with webhook delivery; the
// transition is idempotent either way.
func (r *Reconciler) ReconcilePending(ctx context.Context, olderThan time.Time, limit int) error {
	pending, err := r.orders.ListPendingBefore(ctx, olderThan, limit)
	if err != nil {
		return errors.Wrap(err, "list pending orders")
	}

	lg := zctx.From(ctx)
	for _, rec := range pending {
		outcome, err := r.VerifyByCheckoutID(ctx, rec.CheckoutID)
		if err != nil {
			lg.Warn("Pending order verification failed",
				zap.String("reference", rec.Reference),
				zap.Error(err),
			)
			continue
		}
		if outcome.Transitioned {
			lg.Info("Pending order reconciled via poll",
				zap.String("reference", rec.Reference),
				zap.String("status", string(outcome.Status)),
			)
		}
	}
	return nil
}
