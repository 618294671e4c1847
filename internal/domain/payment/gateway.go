// Package payment defines the payment-provider contract and reconciles
// asynchronous payment signals onto persisted orders.
package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oatandmatcha/storefront/internal/domain/order"
)

// Provider checkout statuses this core interprets. Anything else passes
// through as "still pending".
const (
	ProviderStatusPaid      = "PAID"
	ProviderStatusFailed    = "FAILED"
	ProviderStatusCancelled = "CANCELLED"
)

// CheckoutRequest is the provider-facing checkout creation payload.
type CheckoutRequest struct {
	// Reference is the merchant-generated checkout reference.
	Reference string
	// Amount is the total in major currency units; the provider convention
	// is a decimal number, not minor units.
	Amount decimal.Decimal
	// Currency is the ISO currency code, e.g. "GBP".
	Currency string
	// Description is the human-readable order summary.
	Description string
	// RedirectURL is where the provider sends the customer after payment.
	RedirectURL string
}

// Checkout is the provider's view of a created checkout.
type Checkout struct {
	ID        string
	Status    string
	HostedURL string
}

// Gateway is the payment provider client.
type Gateway interface {
	// CreateCheckout submits a checkout and returns the provider's checkout
	// record, including the hosted payment page URL.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	// CheckoutStatus returns the provider's current status string for a
	// checkout id.
	CheckoutStatus(ctx context.Context, checkoutID string) (string, error)
}

// GatewayError indicates the provider rejected a request or returned a
// response that violates its contract. It is never a user-input problem.
type GatewayError struct {
	// StatusCode is the provider's HTTP status, or 0 when the response was
	// well-formed HTTP but contractually broken (e.g. missing hosted URL).
	StatusCode int
	// Detail is logged, not shown to end users.
	Detail string
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment gateway: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("payment gateway: %s", e.Detail)
}

// StatusFromProvider maps a provider status string onto the order state
// machine. The zero Status means the signal carries no transition.
func StatusFromProvider(providerStatus string) order.Status {
	switch providerStatus {
	case ProviderStatusPaid:
		return order.StatusPaid
	case ProviderStatusFailed, ProviderStatusCancelled:
		return order.StatusFailed
	default:
		return ""
	}
}
