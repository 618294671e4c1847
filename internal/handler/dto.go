package handler

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/oatandmatcha/storefront/internal/domain/checkout"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ValidationErrorResponse carries the full list of failing fields so the
// client can annotate its form in one round trip.
type ValidationErrorResponse struct {
	Error  string                `json:"error"`
	Errors []checkout.FieldError `json:"errors"`
}

type CatalogResponse struct {
	Items    []CatalogItem    `json:"items"`
	Toppings []CatalogTopping `json:"toppings"`
	Soaks    []CatalogSoak    `json:"soaks"`
}

type CatalogItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Ingredients string          `json:"ingredients,omitempty"`
	Prebuilt    bool            `json:"prebuilt"`
	Featured    bool            `json:"featured,omitempty"`
	Image       string          `json:"image,omitempty"`
}

type CatalogTopping struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	ExtraPrice decimal.Decimal `json:"extraPrice"`
}

type CatalogSoak struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	GlutenFree bool   `json:"glutenFree"`
}

type LocationsResponse struct {
	Locations []string `json:"locations"`
}

type DatesResponse struct {
	Dates []string `json:"dates"`
}

type PostcodeRequest struct {
	Postcode string `json:"postcode"`
}

type PostcodeResponse struct {
	Valid    bool   `json:"valid"`
	Postcode string `json:"postcode,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type DateValidateRequest struct {
	Date string `json:"date"`
}

type DateValidateResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

type CreateCheckoutRequest struct {
	Location string            `json:"location"`
	Postcode string            `json:"postcode"`
	Customer CustomerDTO       `json:"customer"`
	Dates    []CheckoutDateDTO `json:"dates"`
}

type CustomerDTO struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	Notes        string `json:"notes,omitempty"`
	NeedsSpoons  bool   `json:"needsSpoons"`
}

type CheckoutDateDTO struct {
	Date  string    `json:"date"`
	Bowls []BowlDTO `json:"bowls"`
}

type BowlDTO struct {
	ItemID     string         `json:"itemId"`
	SoakID     string         `json:"soakId,omitempty"`
	ToppingIDs []string       `json:"toppingIds,omitempty"`
	Extras     map[string]int `json:"extras,omitempty"`
}

type CreateCheckoutResponse struct {
	Reference   string `json:"reference"`
	CheckoutID  string `json:"checkoutId"`
	CheckoutURL string `json:"checkoutUrl"`
	AmountPence int64  `json:"amountPence"`
}

type VerifyResponse struct {
	Reference string `json:"reference,omitempty"`
	Status    string `json:"status"`
}

type CheckoutIDResponse struct {
	CheckoutID string `json:"checkoutId"`
}

type AdminAuthRequest struct {
	Password string `json:"password"`
}

// AdminOrder is the admin listing row. Amounts are integer pence.
type AdminOrder struct {
	Reference   string          `json:"reference"`
	CheckoutID  string          `json:"checkoutId"`
	Status      string          `json:"status"`
	AmountPence int64           `json:"amountPence"`
	Currency    string          `json:"currency"`
	Location    string          `json:"location"`
	Postcode    string          `json:"postcode"`
	Customer    CustomerDTO     `json:"customer"`
	Details     json.RawMessage `json:"details"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"createdAt"`
	PaidAt      string          `json:"paidAt,omitempty"`
}

type AdminOrdersResponse struct {
	Orders []AdminOrder `json:"orders"`
}
