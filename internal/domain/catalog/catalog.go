// Package catalog holds the static menu: bowls, topping options, and
// base-soak options. The data is embedded in the binary and loaded once;
// nothing here mutates after Load.
package catalog

import (
	_ "embed"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

//go:embed catalog.json
var rawCatalog []byte

// Category tags group toppings for display. The set is closed; anything else
// in the data file is a load error.
const (
	CategoryFreshFruit = "fresh-fruit"
	CategorySpreads    = "spreads"
	CategoryCrunch     = "crunch-factor"
	CategoryFibreBoost = "fibre-boost"
	CategorySweetTouch = "sweet-touch"
	CategoryExtras     = "extras"
)

var validCategories = map[string]bool{
	CategoryFreshFruit: true,
	CategorySpreads:    true,
	CategoryCrunch:     true,
	CategoryFibreBoost: true,
	CategorySweetTouch: true,
	CategoryExtras:     true,
}

// Item is a purchasable bowl. Prebuilt items ship a fixed recipe and accept
// extra toppings only; non-prebuilt items require a soak choice plus a fixed
// count of included toppings.
type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Ingredients string          `json:"ingredients"`
	Prebuilt    bool            `json:"prebuilt"`
	Featured    bool            `json:"featured"`
	Image       string          `json:"image"`
}

// Topping is a single topping option. ExtraPrice is zero for included
// toppings and the per-unit charge for paid extras.
type Topping struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	ExtraPrice decimal.Decimal `json:"extraPrice"`
}

// SoakOption is a base the oats are soaked in, chosen for build-your-own bowls.
type SoakOption struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	GlutenFree bool   `json:"glutenFree"`
}

// Catalog is the immutable menu. Construct it with Load or New.
type Catalog struct {
	items    []Item
	toppings []Topping
	soaks    []SoakOption

	itemsByID    map[string]Item
	toppingsByID map[string]Topping
	soaksByID    map[string]SoakOption
}

type catalogFile struct {
	Items    []Item       `json:"items"`
	Toppings []Topping    `json:"toppings"`
	Soaks    []SoakOption `json:"soaks"`
}

// Load decodes the embedded catalog data.
func Load() (*Catalog, error) {
	var f catalogFile
	if err := json.Unmarshal(rawCatalog, &f); err != nil {
		return nil, errors.Wrap(err, "decode catalog data")
	}
	return New(f.Items, f.Toppings, f.Soaks)
}

// New builds a Catalog from explicit data, validating identifiers and
// category tags. Tests use it to substitute small fixtures.
func New(items []Item, toppings []Topping, soaks []SoakOption) (*Catalog, error) {
	c := &Catalog{
		items:        items,
		toppings:     toppings,
		soaks:        soaks,
		itemsByID:    make(map[string]Item, len(items)),
		toppingsByID: make(map[string]Topping, len(toppings)),
		soaksByID:    make(map[string]SoakOption, len(soaks)),
	}

	for _, it := range items {
		if it.ID == "" {
			return nil, errors.New("catalog item with empty id")
		}
		if _, dup := c.itemsByID[it.ID]; dup {
			return nil, errors.Errorf("duplicate catalog item %q", it.ID)
		}
		c.itemsByID[it.ID] = it
	}
	for _, t := range toppings {
		if t.ID == "" {
			return nil, errors.New("topping with empty id")
		}
		if !validCategories[t.Category] {
			return nil, errors.Errorf("topping %q has unknown category %q", t.ID, t.Category)
		}
		if _, dup := c.toppingsByID[t.ID]; dup {
			return nil, errors.Errorf("duplicate topping %q", t.ID)
		}
		c.toppingsByID[t.ID] = t
	}
	for _, s := range soaks {
		if s.ID == "" {
			return nil, errors.New("soak option with empty id")
		}
		if _, dup := c.soaksByID[s.ID]; dup {
			return nil, errors.Errorf("duplicate soak option %q", s.ID)
		}
		c.soaksByID[s.ID] = s
	}

	return c, nil
}

// Item returns the item with the given id.
func (c *Catalog) Item(id string) (Item, bool) {
	it, ok := c.itemsByID[id]
	return it, ok
}

// Topping returns the topping with the given id.
func (c *Catalog) Topping(id string) (Topping, bool) {
	t, ok := c.toppingsByID[id]
	return t, ok
}

// Soak returns the soak option with the given id.
func (c *Catalog) Soak(id string) (SoakOption, bool) {
	s, ok := c.soaksByID[id]
	return s, ok
}

// Items lists all items in data-file order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Toppings lists all toppings in data-file order.
func (c *Catalog) Toppings() []Topping {
	out := make([]Topping, len(c.toppings))
	copy(out, c.toppings)
	return out
}

// Soaks lists all soak options in data-file order.
func (c *Catalog) Soaks() []SoakOption {
	out := make([]SoakOption, len(c.soaks))
	copy(out, c.soaks)
	return out
}
