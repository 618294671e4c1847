// Package checkout assembles a validated draft order into a payment-provider
// checkout request and records the resulting pending order.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/oatandmatcha/storefront/internal/domain/catalog"
	"github.com/oatandmatcha/storefront/internal/domain/delivery"
	"github.com/oatandmatcha/storefront/internal/domain/order"
	"github.com/oatandmatcha/storefront/internal/domain/payment"
)

// ukMobilePattern matches UK mobile numbers after internal whitespace has
// been stripped.
var ukMobilePattern = regexp.MustCompile(`^(?:\+44\s?7\d{3}|0?7\d{3})\s?\d{3}\s?\d{3}$`)

var oneHundred = decimal.NewFromInt(100)

// Result is the outcome of a successful checkout submission.
type Result struct {
	Reference   string
	CheckoutID  string
	CheckoutURL string
	AmountPence int64
}

// Service turns drafts into provider checkouts. Each call is one payment
// attempt: a fresh reference is generated every time, and the resulting
// CheckoutRequest is never reused.
type Service struct {
	catalog *catalog.Catalog
	rules   *delivery.Rules
	gateway payment.Gateway
	orders  order.Repository

	baseURL  string
	currency string

	now    func() time.Time
	suffix func() string
}

// NewService creates a checkout Service. baseURL is the public site root the
// provider redirects back to after payment.
func NewService(
	cat *catalog.Catalog,
	rules *delivery.Rules,
	gateway payment.Gateway,
	orders order.Repository,
	baseURL string,
) *Service {
	return &Service{
		catalog:  cat,
		rules:    rules,
		gateway:  gateway,
		orders:   orders,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		currency: "GBP",
		now:      time.Now,
		suffix:   randomSuffix,
	}
}

// Submit validates the draft, creates a provider checkout, and persists the
// pending order record keyed by both the reference and the provider checkout
// id. Validation failures come back as a full ValidationErrors collection;
// provider failures as *payment.GatewayError.
func (s *Service) Submit(ctx context.Context, draft *order.Draft) (*Result, error) {
	if errs := s.Validate(draft); len(errs) > 0 {
		return nil, errs
	}

	reference := s.newReference()
	details := buildDetails(s.catalog, draft)
	description := describe(details, draft.Customer)

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order details")
	}

	// Pence via round-to-nearest; the provider itself wants major units.
	pence := draft.TotalPrice.Mul(oneHundred).Round(0)
	amount := pence.Div(oneHundred)

	chk, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		Reference:   reference,
		Amount:      amount,
		Currency:    s.currency,
		Description: description,
		RedirectURL: fmt.Sprintf("%s/order/confirmation?reference=%s", s.baseURL, reference),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create provider checkout")
	}

	rec := &order.Record{
		Reference:   reference,
		CheckoutID:  chk.ID,
		Status:      order.StatusPending,
		AmountPence: pence.IntPart(),
		Currency:    s.currency,
		Location:    draft.Location,
		Postcode:    draft.Postcode,
		Customer:    draft.Customer,
		Details:     detailsJSON,
		Description: description,
		CreatedAt:   s.now(),
	}
	if err := s.orders.Create(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "persist order record")
	}

	return &Result{
		Reference:   reference,
		CheckoutID:  chk.ID,
		CheckoutURL: chk.HostedURL,
		AmountPence: rec.AmountPence,
	}, nil
}

// Validate checks the draft for completeness. Every failing field is
// collected; it never short-circuits.
func (s *Service) Validate(draft *order.Draft) ValidationErrors {
	var errs ValidationErrors

	if len(draft.Dates) == 0 {
		errs = append(errs, FieldError{Field: "dates", Reason: ReasonRequired})
	}
	for _, do := range draft.Dates {
		if !do.Deliverable() {
			errs = append(errs, FieldError{Field: "dates." + do.Date, Reason: ReasonBelowMinimum})
		}
	}

	c := draft.Customer
	for _, f := range []struct {
		name  string
		value string
	}{
		{"firstName", c.FirstName},
		{"lastName", c.LastName},
		{"addressLine1", c.AddressLine1},
		{"city", c.City},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, FieldError{Field: f.name, Reason: ReasonRequired})
		}
	}

	phone := strings.Join(strings.Fields(c.Phone), "")
	switch {
	case phone == "":
		errs = append(errs, FieldError{Field: "phone", Reason: ReasonRequired})
	case !ukMobilePattern.MatchString(phone):
		errs = append(errs, FieldError{Field: "phone", Reason: ReasonInvalid})
	}

	if _, err := s.rules.ValidatePostcode(draft.Location, draft.Postcode); err != nil {
		if errors.Is(err, delivery.ErrUnknownLocation) {
			errs = append(errs, FieldError{Field: "location", Reason: ReasonInvalid})
		} else {
			var pcErr *delivery.PostcodeError
			reason := ReasonInvalid
			if errors.As(err, &pcErr) {
				reason = string(pcErr.Reason)
			}
			errs = append(errs, FieldError{Field: "postcode", Reason: reason})
		}
	}

	return errs
}

func (s *Service) newReference() string {
	return fmt.Sprintf("OAT-%d-%s", s.now().UnixMilli(), s.suffix())
}

// randomSuffix returns a short base36 token. Uniqueness rides on the
// millisecond timestamp in the reference; the suffix only disambiguates
// submissions landing in the same millisecond.
func randomSuffix() string {
	s := strconv.FormatUint(rand.Uint64(), 36)
	if len(s) > 6 {
		s = s[:6]
	}
	return s
}
