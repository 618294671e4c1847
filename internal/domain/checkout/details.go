package checkout

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oatandmatcha/storefront/internal/domain/catalog"
	"github.com/oatandmatcha/storefront/internal/domain/delivery"
	"github.com/oatandmatcha/storefront/internal/domain/order"
)

// Details is the denormalized order snapshot persisted with every record.
// Every catalog id is resolved to its display name at assembly time, so the
// stored record stays readable even after the catalog changes.
type Details struct {
	Location   string          `json:"location"`
	Postcode   string          `json:"postcode"`
	Dates      []DateDetails   `json:"dates"`
	TotalBowls int             `json:"totalBowls"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Notes      string          `json:"notes,omitempty"`
	NeedSpoons bool            `json:"needSpoons"`
}

// DateDetails is one delivery date within Details.
type DateDetails struct {
	Date  string        `json:"date"`
	Bowls []BowlDetails `json:"bowls"`
}

// BowlDetails is one bowl with all names resolved.
type BowlDetails struct {
	Name      string          `json:"name"`
	Soak      string          `json:"soak,omitempty"`
	Toppings  []string        `json:"toppings,omitempty"`
	Extras    []ExtraDetails  `json:"extras,omitempty"`
	LinePrice decimal.Decimal `json:"linePrice"`
}

// ExtraDetails is one paid extra topping on a bowl.
type ExtraDetails struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// buildDetails resolves the draft against the catalog. Unresolvable ids fall
// back to the raw id rather than failing: the draft was already validated,
// and a readable record beats a rejected checkout.
func buildDetails(cat *catalog.Catalog, draft *order.Draft) Details {
	d := Details{
		Location:   draft.Location,
		Postcode:   draft.Postcode,
		Dates:      make([]DateDetails, 0, len(draft.Dates)),
		TotalBowls: draft.TotalBowls,
		TotalPrice: draft.TotalPrice,
		Notes:      draft.Customer.Notes,
		NeedSpoons: draft.Customer.NeedsSpoons,
	}

	for _, do := range draft.Dates {
		dd := DateDetails{Date: do.Date, Bowls: make([]BowlDetails, 0, len(do.Bowls))}
		for _, b := range do.Bowls {
			dd.Bowls = append(dd.Bowls, resolveBowl(cat, b))
		}
		d.Dates = append(d.Dates, dd)
	}
	return d
}

func resolveBowl(cat *catalog.Catalog, b order.BowlSelection) BowlDetails {
	bd := BowlDetails{
		Name:      b.ItemID,
		LinePrice: b.LinePrice,
	}
	if item, ok := cat.Item(b.ItemID); ok {
		bd.Name = item.Name
	}
	if b.SoakID != "" {
		bd.Soak = b.SoakID
		if soak, ok := cat.Soak(b.SoakID); ok {
			bd.Soak = soak.Name
		}
	}
	for _, id := range b.ToppingIDs {
		name := id
		if t, ok := cat.Topping(id); ok {
			name = t.Name
		}
		bd.Toppings = append(bd.Toppings, name)
	}
	for _, id := range sortedKeys(b.Extras) {
		ed := ExtraDetails{Name: id, Quantity: b.Extras[id]}
		if t, ok := cat.Topping(id); ok {
			ed.Name = t.Name
			ed.UnitPrice = t.ExtraPrice
		}
		bd.Extras = append(bd.Extras, ed)
	}
	return bd
}

// describe builds the single-line order summary sent to the payment provider:
// per-date bowl counts, then the customer contact block, pipe-separated.
func describe(d Details, customer order.Customer) string {
	dateLines := make([]string, 0, len(d.Dates))
	for _, dd := range d.Dates {
		counts := make(map[string]int, len(dd.Bowls))
		names := make([]string, 0, len(dd.Bowls))
		for _, b := range dd.Bowls {
			if counts[b.Name] == 0 {
				names = append(names, b.Name)
			}
			counts[b.Name]++
		}
		items := make([]string, len(names))
		for i, name := range names {
			items[i] = fmt.Sprintf("%s x%d", name, counts[name])
		}
		dateLines = append(dateLines, fmt.Sprintf("%s: %s", formatDateUK(dd.Date), strings.Join(items, ", ")))
	}

	parts := []string{
		strings.Join(dateLines, " | "),
		customer.FirstName + " " + customer.LastName,
		customer.Phone,
		customer.AddressLine1,
	}
	if customer.AddressLine2 != "" {
		parts = append(parts, customer.AddressLine2)
	}
	parts = append(parts, customer.City, strings.ToUpper(d.Postcode))
	if customer.Notes != "" {
		parts = append(parts, "Notes: "+customer.Notes)
	}

	return "ONLINE ORDER: " + strings.Join(parts, " | ")
}

// formatDateUK renders an ISO date as dd/mm/yyyy; malformed input passes
// through unchanged.
func formatDateUK(iso string) string {
	t, err := time.Parse(delivery.DateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format("02/01/2006")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
