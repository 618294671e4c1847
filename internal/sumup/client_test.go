package sumup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oatandmatcha/storefront/internal/domain/payment"
)

func testRequest() payment.CheckoutRequest {
	return payment.CheckoutRequest{
		Reference:   "OAT-1757000000000-abc123",
		Amount:      decimal.RequireFromString("23.80"),
		Currency:    "GBP",
		Description: "ONLINE ORDER: 09/03/2026: Build Your Own x2 | Ada Briggs",
		RedirectURL: "https://oatandmatcha.example/order/confirmation?reference=OAT-1757000000000-abc123",
	}
}

func TestCreateCheckout(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v0.1/checkouts", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"id": "chk_42",
			"status": "PENDING",
			"amount": 23.80,
			"hosted_checkout_url": "https://checkout.sumup.com/pay/chk_42"
		}`))
	}))
	defer srv.Close()

	c := NewClient("sk_test", "M0001", WithAPIBase(srv.URL))
	chk, err := c.CreateCheckout(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "chk_42", chk.ID)
	assert.Equal(t, "PENDING", chk.Status)
	assert.Equal(t, "https://checkout.sumup.com/pay/chk_42", chk.HostedURL)

	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, "OAT-1757000000000-abc123", gotBody["checkout_reference"])
	assert.Equal(t, 23.80, gotBody["amount"], "amount is a JSON number in major units")
	assert.Equal(t, "GBP", gotBody["currency"])
	assert.Equal(t, "M0001", gotBody["merchant_code"])
	assert.Equal(t, testRequest().RedirectURL, gotBody["redirect_url"])
	hosted, ok := gotBody["hosted_checkout"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, hosted["enabled"])
}

func TestCreateCheckout_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "invalid access token"}`))
	}))
	defer srv.Close()

	c := NewClient("sk_bad", "M0001", WithAPIBase(srv.URL))
	_, err := c.CreateCheckout(context.Background(), testRequest())

	var gwErr *payment.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnauthorized, gwErr.StatusCode)
	assert.Equal(t, "invalid access token", gwErr.Detail)
}

func TestCreateCheckout_MissingHostedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id": "chk_42", "status": "PENDING"}`))
	}))
	defer srv.Close()

	c := NewClient("sk_test", "M0001", WithAPIBase(srv.URL))
	_, err := c.CreateCheckout(context.Background(), testRequest())

	var gwErr *payment.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Zero(t, gwErr.StatusCode, "contract violation, not an HTTP failure")
}

func TestCheckoutStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v0.1/checkouts/chk_42", r.URL.Path)
		w.Write([]byte(`{"id": "chk_42", "status": "PAID", "transaction_code": "TX9"}`))
	}))
	defer srv.Close()

	c := NewClient("sk_test", "M0001", WithAPIBase(srv.URL))
	status, err := c.CheckoutStatus(context.Background(), "chk_42")
	require.NoError(t, err)
	assert.Equal(t, payment.ProviderStatusPaid, status)
}

func TestCheckoutStatus_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error_code": "NOT_FOUND", "message": "resource not found"}`))
	}))
	defer srv.Close()

	c := NewClient("sk_test", "M0001", WithAPIBase(srv.URL))
	_, err := c.CheckoutStatus(context.Background(), "chk_missing")

	var gwErr *payment.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusNotFound, gwErr.StatusCode)
}
