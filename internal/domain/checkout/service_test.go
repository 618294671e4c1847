package checkout

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oatandmatcha/storefront/internal/domain/catalog"
	"github.com/oatandmatcha/storefront/internal/domain/delivery"
	"github.com/oatandmatcha/storefront/internal/domain/order"
	"github.com/oatandmatcha/storefront/internal/domain/payment"
)

// --- Mock implementations ---

type mockGateway struct {
	lastReq  payment.CheckoutRequest
	checkout *payment.Checkout
	err      error
}

func (m *mockGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.checkout, nil
}

func (m *mockGateway) CheckoutStatus(_ context.Context, _ string) (string, error) {
	return "", nil
}

type mockOrderRepo struct {
	lastRecord *order.Record
	err        error
}

func (m *mockOrderRepo) Create(_ context.Context, rec *order.Record) error {
	m.lastRecord = rec
	return m.err
}

func (m *mockOrderRepo) GetByReference(_ context.Context, _ string) (*order.Record, error) {
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) GetByCheckoutID(_ context.Context, _ string) (*order.Record, error) {
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) ListByStatus(_ context.Context, _ order.Status) ([]order.Record, error) {
	return nil, nil
}

func (m *mockOrderRepo) ListPendingBefore(_ context.Context, _ time.Time, _ int) ([]order.Record, error) {
	return nil, nil
}

func (m *mockOrderRepo) MarkPaid(_ context.Context, _ string, _ time.Time) (bool, error) {
	return false, nil
}

func (m *mockOrderRepo) MarkFailed(_ context.Context, _ string) (bool, error) {
	return false, nil
}

// --- Helpers ---

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		[]catalog.Item{
			{ID: "build-your-own", Name: "Build Your Own", Price: decimal.RequireFromString("5.95")},
			{ID: "sticky-toffee", Name: "Sticky Toffee", Price: decimal.RequireFromString("5.95"), Prebuilt: true},
		},
		[]catalog.Topping{
			{ID: "banana", Name: "Banana", Category: catalog.CategoryFreshFruit},
			{ID: "strawberry", Name: "Strawberry", Category: catalog.CategoryFreshFruit},
			{ID: "granola", Name: "Homemade granola", Category: catalog.CategoryCrunch},
			{ID: "honey", Name: "Honey", Category: catalog.CategorySweetTouch},
			{ID: "matcha-powder", Name: "Matcha powder", Category: catalog.CategoryExtras, ExtraPrice: decimal.RequireFromString("1.00")},
		},
		[]catalog.SoakOption{{ID: "dairy-yoghurt", Name: "Dairy Greek yoghurt"}},
	)
	require.NoError(t, err)
	return cat
}

func completeDraft(t *testing.T, cat *catalog.Catalog) *order.Draft {
	t.Helper()
	d := order.NewDraft("Manchester", "M14BT")
	d.Customer = order.Customer{
		FirstName:    "Ada",
		LastName:     "Briggs",
		Phone:        "07123 456 789",
		AddressLine1: "1 Piccadilly Gardens",
		City:         "Manchester",
	}
	for _, date := range []string{"2026-03-09", "2026-03-11"} {
		for range 2 {
			require.NoError(t, d.AddBowl(cat, date, "build-your-own", order.Customization{
				SoakID:     "dairy-yoghurt",
				ToppingIDs: []string{"banana", "strawberry", "granola", "honey"},
			}))
		}
	}
	return d
}

func newTestService(t *testing.T) (*Service, *mockGateway, *mockOrderRepo) {
	t.Helper()
	gw := &mockGateway{checkout: &payment.Checkout{
		ID:        "chk_1",
		Status:    "PENDING",
		HostedURL: "https://pay.example.com/chk_1",
	}}
	repo := &mockOrderRepo{}
	svc := NewService(testCatalog(t), delivery.NewRules(delivery.DefaultLocations()), gw, repo, "https://oatandmatcha.example")
	return svc, gw, repo
}

var referencePattern = regexp.MustCompile(`^OAT-\d+-[0-9a-z]+$`)

// --- Tests ---

func TestSubmit_CompleteDraft(t *testing.T) {
	svc, gw, repo := newTestService(t)
	draft := completeDraft(t, svc.catalog)

	res, err := svc.Submit(context.Background(), draft)
	require.NoError(t, err)

	assert.Regexp(t, referencePattern, res.Reference)
	assert.Equal(t, "chk_1", res.CheckoutID)
	assert.Equal(t, "https://pay.example.com/chk_1", res.CheckoutURL)
	assert.Equal(t, int64(2380), res.AmountPence, "4 bowls at 5.95 = 2380 pence")

	// Provider request carries major units and the reference-bearing redirect.
	assert.True(t, gw.lastReq.Amount.Equal(decimal.RequireFromString("23.80")))
	assert.Equal(t, "GBP", gw.lastReq.Currency)
	assert.Equal(t, res.Reference, gw.lastReq.Reference)
	assert.Contains(t, gw.lastReq.RedirectURL, "reference="+res.Reference)
	assert.Contains(t, gw.lastReq.Description, "ONLINE ORDER: ")
	assert.Contains(t, gw.lastReq.Description, "09/03/2026: Build Your Own x2")

	// Persisted record is pending and keyed by both identifiers.
	rec := repo.lastRecord
	require.NotNil(t, rec)
	assert.Equal(t, order.StatusPending, rec.Status)
	assert.Equal(t, res.Reference, rec.Reference)
	assert.Equal(t, "chk_1", rec.CheckoutID)
	assert.Equal(t, int64(2380), rec.AmountPence)
	assert.Nil(t, rec.PaidAt)
}

func TestSubmit_DetailsAreDenormalized(t *testing.T) {
	svc, _, repo := newTestService(t)
	draft := order.NewDraft("Manchester", "M14BT")
	draft.Customer = completeDraft(t, svc.catalog).Customer
	for range 2 {
		require.NoError(t, draft.AddBowl(svc.catalog, "2026-03-09", "build-your-own", order.Customization{
			SoakID:     "dairy-yoghurt",
			ToppingIDs: []string{"banana", "strawberry", "granola", "honey"},
			Extras:     map[string]int{"matcha-powder": 1},
		}))
	}

	_, err := svc.Submit(context.Background(), draft)
	require.NoError(t, err)

	var details Details
	require.NoError(t, json.Unmarshal(repo.lastRecord.Details, &details))
	require.Len(t, details.Dates, 1)
	require.Len(t, details.Dates[0].Bowls, 2)

	bowl := details.Dates[0].Bowls[0]
	assert.Equal(t, "Build Your Own", bowl.Name)
	assert.Equal(t, "Dairy Greek yoghurt", bowl.Soak)
	assert.Equal(t, []string{"Banana", "Strawberry", "Homemade granola", "Honey"}, bowl.Toppings)
	require.Len(t, bowl.Extras, 1)
	assert.Equal(t, "Matcha powder", bowl.Extras[0].Name)
	assert.True(t, bowl.LinePrice.Equal(decimal.RequireFromString("6.95")))
	assert.True(t, details.TotalPrice.Equal(decimal.RequireFromString("13.90")))
}

func TestSubmit_CollectsAllValidationErrors(t *testing.T) {
	svc, _, repo := newTestService(t)

	draft := order.NewDraft("Manchester", "M14BT")
	require.NoError(t, draft.AddBowl(svc.catalog, "2026-03-09", "sticky-toffee", order.Customization{}))

	_, err := svc.Submit(context.Background(), draft)
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field] = fe.Reason
	}
	assert.Equal(t, ReasonBelowMinimum, fields["dates.2026-03-09"])
	assert.Equal(t, ReasonRequired, fields["firstName"])
	assert.Equal(t, ReasonRequired, fields["lastName"])
	assert.Equal(t, ReasonRequired, fields["addressLine1"])
	assert.Equal(t, ReasonRequired, fields["city"])
	assert.Equal(t, ReasonRequired, fields["phone"])
	assert.Len(t, errs, 6, "all failures reported at once")

	assert.Nil(t, repo.lastRecord, "nothing persisted on validation failure")
}

func TestSubmit_PhoneValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	valid := []string{"07123 456789", "07123456789", "+44 7123 456 789", "7123456789"}
	for _, phone := range valid {
		draft := completeDraft(t, svc.catalog)
		draft.Customer.Phone = phone
		assert.Empty(t, svc.Validate(draft), "phone %q must validate", phone)
	}

	invalid := []string{"01234 567890", "+44 8123 456789", "0712345678", "071234567890"}
	for _, phone := range invalid {
		draft := completeDraft(t, svc.catalog)
		draft.Customer.Phone = phone
		errs := svc.Validate(draft)
		require.Len(t, errs, 1, "phone %q must be rejected", phone)
		assert.Equal(t, FieldError{Field: "phone", Reason: ReasonInvalid}, errs[0])
	}
}

func TestSubmit_PostcodeRevalidated(t *testing.T) {
	svc, _, _ := newTestService(t)

	draft := completeDraft(t, svc.catalog)
	draft.Postcode = "M359AB"

	errs := svc.Validate(draft)
	require.Len(t, errs, 1)
	assert.Equal(t, FieldError{Field: "postcode", Reason: "excluded"}, errs[0])
}

func TestSubmit_EmptyDraft(t *testing.T) {
	svc, _, _ := newTestService(t)

	errs := svc.Validate(order.NewDraft("Manchester", "M14BT"))
	fields := make([]string, len(errs))
	for i, fe := range errs {
		fields[i] = fe.Field
	}
	assert.Contains(t, fields, "dates")
}

func TestSubmit_GatewayErrorPropagates(t *testing.T) {
	svc, gw, repo := newTestService(t)
	gw.err = &payment.GatewayError{StatusCode: 502, Detail: "upstream unavailable"}

	_, err := svc.Submit(context.Background(), completeDraft(t, svc.catalog))
	var gwErr *payment.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 502, gwErr.StatusCode)
	assert.Nil(t, repo.lastRecord, "nothing persisted when the provider rejects")
}

func TestSubmit_FreshReferencePerAttempt(t *testing.T) {
	svc, _, _ := newTestService(t)

	res1, err := svc.Submit(context.Background(), completeDraft(t, svc.catalog))
	require.NoError(t, err)
	res2, err := svc.Submit(context.Background(), completeDraft(t, svc.catalog))
	require.NoError(t, err)

	assert.NotEqual(t, res1.Reference, res2.Reference)
}

func TestSubmit_PenceRounding(t *testing.T) {
	cat, err := catalog.New(
		[]catalog.Item{{ID: "odd", Name: "Odd Bowl", Price: decimal.RequireFromString("5.955"), Prebuilt: true}},
		nil, nil,
	)
	require.NoError(t, err)

	gw := &mockGateway{checkout: &payment.Checkout{ID: "chk_1", HostedURL: "https://pay.example.com/chk_1"}}
	svc := NewService(cat, delivery.NewRules(delivery.DefaultLocations()), gw, &mockOrderRepo{}, "https://oatandmatcha.example")

	draft := order.NewDraft("Manchester", "M14BT")
	draft.Customer = order.Customer{
		FirstName: "Ada", LastName: "Briggs", Phone: "07123456789",
		AddressLine1: "1 Piccadilly Gardens", City: "Manchester",
	}
	for range 2 {
		require.NoError(t, draft.AddBowl(cat, "2026-03-09", "odd", order.Customization{}))
	}

	res, err := svc.Submit(context.Background(), draft)
	require.NoError(t, err)
	// 11.91 total: rounds to nearest pence, never truncates.
	assert.Equal(t, int64(1191), res.AmountPence)
}
