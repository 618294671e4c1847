// Package order models the in-progress draft order built by the wizard and
// the persisted order record reconciled against payment signals.
package order

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/oatandmatcha/storefront/internal/domain/catalog"
)

const (
	// IncludedToppingCount is how many included toppings a build-your-own
	// bowl must carry before it can be added.
	IncludedToppingCount = 4

	// MinBowlsPerDate is the delivery minimum: a date cannot proceed to
	// checkout with fewer bowls than this.
	MinBowlsPerDate = 2
)

// ItemNotFoundError indicates the draft references a catalog item that does
// not exist.
type ItemNotFoundError struct {
	ItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("catalog item %s not found", e.ItemID)
}

// CustomizationReason classifies a rejected bowl customization.
type CustomizationReason string

const (
	// CustomizationIncomplete is returned when a customizable bowl does not
	// carry exactly IncludedToppingCount included toppings.
	CustomizationIncomplete CustomizationReason = "incomplete-customization"
	// CustomizationPrebuilt is returned when a signature bowl carries a soak
	// or included-topping selection; only extras may be added to it.
	CustomizationPrebuilt CustomizationReason = "prebuilt-not-customizable"
	// CustomizationSoakRequired is returned when a customizable bowl has no
	// base-soak choice.
	CustomizationSoakRequired CustomizationReason = "soak-required"
	// CustomizationUnknownSoak is returned for a soak id not in the catalog.
	CustomizationUnknownSoak CustomizationReason = "unknown-soak"
	// CustomizationUnknownTopping is returned for a topping id not in the
	// catalog, whether included or extra.
	CustomizationUnknownTopping CustomizationReason = "unknown-topping"
	// CustomizationNegativeExtra is returned for an extra with quantity < 0.
	CustomizationNegativeExtra CustomizationReason = "negative-extra-quantity"
)

// CustomizationError reports why a bowl customization was rejected.
type CustomizationError struct {
	ItemID string
	Reason CustomizationReason
}

func (e *CustomizationError) Error() string {
	return fmt.Sprintf("bowl %s rejected: %s", e.ItemID, e.Reason)
}

// Customization is the customer's choices for one bowl. For prebuilt
// signature bowls only Extras may be set.
type Customization struct {
	SoakID     string
	ToppingIDs []string
	Extras     map[string]int
}

// BowlSelection is one bowl on one delivery date. It is immutable once added
// to the draft; the wizard removes and re-adds instead of editing in place.
type BowlSelection struct {
	ItemID     string
	SoakID     string
	ToppingIDs []string
	Extras     map[string]int
	LinePrice  decimal.Decimal
}

// DateOrder holds the bowls for a single delivery date.
type DateOrder struct {
	Date  string
	Bowls []BowlSelection
}

// Deliverable reports whether this date has enough bowls to be delivered.
func (d DateOrder) Deliverable() bool {
	return len(d.Bowls) >= MinBowlsPerDate
}

// Customer is the contact and address block collected before checkout.
type Customer struct {
	FirstName    string
	LastName     string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	Notes        string
	NeedsSpoons  bool
}

// Draft is the whole in-progress checkout state. It lives only inside one
// ordering session; the hosting layer owns its lifecycle. Totals are kept
// eagerly in sync on every mutation.
type Draft struct {
	Location string
	Postcode string
	Customer Customer
	Dates    []DateOrder

	TotalBowls int
	TotalPrice decimal.Decimal
}

// NewDraft starts an empty draft for a location and validated postcode.
func NewDraft(location, postcode string) *Draft {
	return &Draft{
		Location:   location,
		Postcode:   postcode,
		TotalPrice: decimal.Zero,
	}
}

// AddBowl validates the customization against the catalog, prices the bowl,
// and appends it to the given date, keeping dates in ascending order.
func (d *Draft) AddBowl(cat *catalog.Catalog, date, itemID string, cust Customization) error {
	item, ok := cat.Item(itemID)
	if !ok {
		return &ItemNotFoundError{ItemID: itemID}
	}

	sel, err := buildSelection(cat, item, cust)
	if err != nil {
		return err
	}

	do := d.dateOrder(date)
	do.Bowls = append(do.Bowls, sel)
	d.recomputeTotals()
	return nil
}

// RemoveBowl removes the bowl at index from the given date, dropping the
// date entirely when it empties. It reports whether anything was removed.
func (d *Draft) RemoveBowl(date string, index int) bool {
	for i := range d.Dates {
		if d.Dates[i].Date != date {
			continue
		}
		bowls := d.Dates[i].Bowls
		if index < 0 || index >= len(bowls) {
			return false
		}
		d.Dates[i].Bowls = append(bowls[:index], bowls[index+1:]...)
		if len(d.Dates[i].Bowls) == 0 {
			d.Dates = append(d.Dates[:i], d.Dates[i+1:]...)
		}
		d.recomputeTotals()
		return true
	}
	return false
}

// CanAdvancePastDate reports whether the given date holds enough bowls for
// the wizard to move on. Callers must re-check this before checkout; it is a
// rule, not a UI hint.
func (d *Draft) CanAdvancePastDate(date string) bool {
	for _, do := range d.Dates {
		if do.Date == date {
			return do.Deliverable()
		}
	}
	return false
}

// DateOrderFor returns the bowls for a date, if any.
func (d *Draft) DateOrderFor(date string) (DateOrder, bool) {
	for _, do := range d.Dates {
		if do.Date == date {
			return do, true
		}
	}
	return DateOrder{}, false
}

func (d *Draft) dateOrder(date string) *DateOrder {
	for i := range d.Dates {
		if d.Dates[i].Date == date {
			return &d.Dates[i]
		}
	}
	d.Dates = append(d.Dates, DateOrder{Date: date})
	sort.Slice(d.Dates, func(i, j int) bool { return d.Dates[i].Date < d.Dates[j].Date })
	i := sort.Search(len(d.Dates), func(i int) bool { return d.Dates[i].Date >= date })
	return &d.Dates[i]
}

func (d *Draft) recomputeTotals() {
	count := 0
	total := decimal.Zero
	for _, do := range d.Dates {
		for _, b := range do.Bowls {
			count++
			total = total.Add(b.LinePrice)
		}
	}
	d.TotalBowls = count
	d.TotalPrice = total
}

func buildSelection(cat *catalog.Catalog, item catalog.Item, cust Customization) (BowlSelection, error) {
	if item.Prebuilt {
		if cust.SoakID != "" || len(cust.ToppingIDs) != 0 {
			return BowlSelection{}, &CustomizationError{ItemID: item.ID, Reason: CustomizationPrebuilt}
		}
	} else {
		if cust.SoakID == "" {
			return BowlSelection{}, &CustomizationError{ItemID: item.ID, Reason: CustomizationSoakRequired}
		}
		if _, ok := cat.Soak(cust.SoakID); !ok {
			return BowlSelection{}, &CustomizationError{ItemID: item.ID, Reason: CustomizationUnknownSoak}
		}
		if len(cust.ToppingIDs) != IncludedToppingCount {
			return BowlSelection{}, &CustomizationError{ItemID: item.ID, Reason: CustomizationIncomplete}
		}
		for _, id := range cust.ToppingIDs {
			if _, ok := cat.Topping(id); !ok {
				return BowlSelection{}, &CustomizationError{ItemID: item.ID, Reason: CustomizationUnknownTopping}
			}
		}
	}

	price := item.Price
	extras := make(map[string]int, len(cust.Extras))
	for id, qty := range cust.Extras {
		if qty < 0 {
			return BowlSelection{}, &CustomizationError{ItemID: item.ID, Reason: CustomizationNegativeExtra}
		}
		if qty == 0 {
			continue
		}
		topping, ok := cat.Topping(id)
		if !ok {
			return BowlSelection{}, &CustomizationError{ItemID: item.ID, Reason: CustomizationUnknownTopping}
		}
		extras[id] = qty
		price = price.Add(topping.ExtraPrice.Mul(decimal.NewFromInt(int64(qty))))
	}

	toppings := make([]string, len(cust.ToppingIDs))
	copy(toppings, cust.ToppingIDs)

	return BowlSelection{
		ItemID:     item.ID,
		SoakID:     cust.SoakID,
		ToppingIDs: toppings,
		Extras:     extras,
		LinePrice:  price,
	}, nil
}
