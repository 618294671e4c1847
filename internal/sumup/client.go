// Package sumup talks to the SumUp hosted-checkout REST API.
package sumup

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/oatandmatcha/storefront/internal/domain/payment"
)

const DefaultAPIBase = "https://api.sumup.com"

// Client implements payment.Gateway against the SumUp checkouts API.
type Client struct {
	http         *http.Client
	apiBase      string
	apiKey       string
	merchantCode string
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAPIBase points the client at a different API host. Used by tests
// and sandbox accounts.
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = strings.TrimRight(base, "/") }
}

func NewClient(apiKey, merchantCode string, opts ...Option) *Client {
	c := &Client{
		http:         &http.Client{Timeout: 30 * time.Second},
		apiBase:      DefaultAPIBase,
		apiKey:       apiKey,
		merchantCode: merchantCode,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ payment.Gateway = (*Client)(nil)

// CreateCheckout registers a hosted checkout with SumUp and returns its
// id and payment page URL.
func (c *Client) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("checkout_reference", func(e *jx.Encoder) { e.Str(req.Reference) })
		// Amount goes out as a JSON number in major units.
		e.Field("amount", func(e *jx.Encoder) { e.Raw([]byte(req.Amount.StringFixed(2))) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(req.Currency) })
		e.Field("merchant_code", func(e *jx.Encoder) { e.Str(c.merchantCode) })
		e.Field("description", func(e *jx.Encoder) { e.Str(req.Description) })
		e.Field("redirect_url", func(e *jx.Encoder) { e.Str(req.RedirectURL) })
		e.Field("hosted_checkout", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("enabled", func(e *jx.Encoder) { e.Bool(true) })
			})
		})
	})

	body, err := c.do(ctx, http.MethodPost, "/v0.1/checkouts", e.Bytes())
	if err != nil {
		return nil, err
	}

	chk, err := decodeCheckout(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode checkout response")
	}
	if chk.ID == "" || chk.HostedURL == "" {
		return nil, &payment.GatewayError{Detail: "checkout response missing id or hosted_checkout_url"}
	}
	return chk, nil
}

// CheckoutStatus fetches the provider-side status of a checkout.
func (c *Client) CheckoutStatus(ctx context.Context, checkoutID string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/v0.1/checkouts/"+checkoutID, nil)
	if err != nil {
		return "", err
	}

	chk, err := decodeCheckout(body)
	if err != nil {
		return "", errors.Wrap(err, "decode checkout response")
	}
	return chk.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call sumup")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &payment.GatewayError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(body),
		}
	}
	return body, nil
}

func decodeCheckout(body []byte) (*payment.Checkout, error) {
	var chk payment.Checkout
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			if err != nil {
				return err
			}
			chk.ID = v
		case "status":
			v, err := d.Str()
			if err != nil {
				return err
			}
			chk.Status = v
		case "hosted_checkout_url":
			v, err := d.Str()
			if err != nil {
				return err
			}
			chk.HostedURL = v
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &chk, nil
}

// errorDetail pulls the human-readable message out of a SumUp error body,
// falling back to the raw body.
func errorDetail(body []byte) string {
	var detail string
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "message", "error_message":
			v, err := d.Str()
			if err != nil {
				return err
			}
			if detail == "" {
				detail = v
			}
			return nil
		default:
			return d.Skip()
		}
	}); err != nil || detail == "" {
		return strings.TrimSpace(string(body))
	}
	return detail
}
