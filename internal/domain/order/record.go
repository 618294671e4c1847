package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
)

// Status is the payment state of a persisted order. pending is the only
// non-terminal state; paid and failed are terminal and must never be
// overwritten once set.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// Valid reports whether s is one of the known order statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed:
		return true
	}
	return false
}

// ErrNotFound is returned when no order matches a reference or checkout id.
var ErrNotFound = errors.New("order not found")

// Record is the persisted order, created as pending at checkout time and
// mutated only by the status reconciler.
type Record struct {
	Reference   string
	CheckoutID  string
	Status      Status
	AmountPence int64
	Currency    string

	Location string
	Postcode string
	Customer Customer

	// Details is the denormalized order snapshot (display names resolved at
	// checkout time), kept human-readable independent of later catalog edits.
	Details json.RawMessage

	// Description is the single-line summary sent to the payment provider.
	Description string

	CreatedAt time.Time
	PaidAt    *time.Time
}

// Repository defines persistence operations for order records. A record is
// retrievable both by its reference and by the provider's checkout id.
//
// MarkPaid and MarkFailed are compare-and-set transitions: they only move a
// record out of pending and report whether a row actually changed. The store
// must serialize these against each other so racing webhook and poll signals
// resolve to exactly one winner.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByReference(ctx context.Context, reference string) (*Record, error)
	GetByCheckoutID(ctx context.Context, checkoutID string) (*Record, error)
	ListByStatus(ctx context.Context, status Status) ([]Record, error)
	ListPendingBefore(ctx context.Context, olderThan time.Time, limit int) ([]Record, error)
	MarkPaid(ctx context.Context, checkoutID string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, checkoutID string) (bool, error)
}
