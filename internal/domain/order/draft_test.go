package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oatandmatcha/storefront/internal/domain/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		[]catalog.Item{
			{ID: "build-your-own", Name: "Build Your Own", Price: decimal.RequireFromString("5.95")},
			{ID: "sticky-toffee", Name: "Sticky Toffee", Price: decimal.RequireFromString("5.95"), Prebuilt: true},
		},
		[]catalog.Topping{
			{ID: "banana", Name: "Banana", Category: catalog.CategoryFreshFruit, ExtraPrice: decimal.Zero},
			{ID: "strawberry", Name: "Strawberry", Category: catalog.CategoryFreshFruit, ExtraPrice: decimal.Zero},
			{ID: "granola", Name: "Homemade granola", Category: catalog.CategoryCrunch, ExtraPrice: decimal.Zero},
			{ID: "honey", Name: "Honey", Category: catalog.CategorySweetTouch, ExtraPrice: decimal.Zero},
			{ID: "matcha-powder", Name: "Matcha powder", Category: catalog.CategoryExtras, ExtraPrice: decimal.RequireFromString("1.00")},
		},
		[]catalog.SoakOption{
			{ID: "dairy-yoghurt", Name: "Dairy Greek yoghurt"},
		},
	)
	require.NoError(t, err)
	return cat
}

func fourToppings() []string {
	return []string{"banana", "strawberry", "granola", "honey"}
}

func TestAddBowl_CustomizableRequiresExactToppingCount(t *testing.T) {
	cat := testCatalog(t)

	for _, toppings := range [][]string{
		{},
		fourToppings()[:3],
		append(fourToppings(), "matcha-powder"),
	} {
		d := NewDraft("Manchester", "M14BT")
		err := d.AddBowl(cat, "2026-03-09", "build-your-own", Customization{
			SoakID:     "dairy-yoghurt",
			ToppingIDs: toppings,
		})
		var cErr *CustomizationError
		require.ErrorAs(t, err, &cErr, "topping count %d must be rejected", len(toppings))
		assert.Equal(t, CustomizationIncomplete, cErr.Reason)
	}

	d := NewDraft("Manchester", "M14BT")
	err := d.AddBowl(cat, "2026-03-09", "build-your-own", Customization{
		SoakID:     "dairy-yoghurt",
		ToppingIDs: fourToppings(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalBowls)
}

func TestAddBowl_PrebuiltNeedsNoToppings(t *testing.T) {
	cat := testCatalog(t)
	d := NewDraft("Manchester", "M14BT")

	require.NoError(t, d.AddBowl(cat, "2026-03-09", "sticky-toffee", Customization{}))
	assert.True(t, d.TotalPrice.Equal(decimal.RequireFromString("5.95")))
}

func TestAddBowl_PrebuiltRejectsCustomization(t *testing.T) {
	cat := testCatalog(t)
	d := NewDraft("Manchester", "M14BT")

	err := d.AddBowl(cat, "2026-03-09", "sticky-toffee", Customization{SoakID: "dairy-yoghurt"})
	var cErr *CustomizationError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, CustomizationPrebuilt, cErr.Reason)
}

func TestAddBowl_SoakRequired(t *testing.T) {
	cat := testCatalog(t)
	d := NewDraft("Manchester", "M14BT")

	err := d.AddBowl(cat, "2026-03-09", "build-your-own", Customization{ToppingIDs: fourToppings()})
	var cErr *CustomizationError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, CustomizationSoakRequired, cErr.Reason)
}

func TestAddBowl_ExtrasPricing(t *testing.T) {
	cat := testCatalog(t)
	d := NewDraft("Manchester", "M14BT")

	err := d.AddBowl(cat, "2026-03-09", "sticky-toffee", Customization{
		Extras: map[string]int{"matcha-powder": 2, "banana": 0},
	})
	require.NoError(t, err)

	// 5.95 + 2 x 1.00; zero-quantity entries are dropped.
	assert.True(t, d.TotalPrice.Equal(decimal.RequireFromString("7.95")))
	assert.NotContains(t, d.Dates[0].Bowls[0].Extras, "banana")
}

func TestAddBowl_UnknownItem(t *testing.T) {
	cat := testCatalog(t)
	d := NewDraft("Manchester", "M14BT")

	err := d.AddBowl(cat, "2026-03-09", "porridge-supreme", Customization{})
	var nfErr *ItemNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "porridge-supreme", nfErr.ItemID)
}

func TestCanAdvancePastDate_Boundary(t *testing.T) {
	cat := testCatalog(t)
	d := NewDraft("Manchester", "M14BT")

	assert.False(t, d.CanAdvancePastDate("2026-03-09"), "no bowls")

	require.NoError(t, d.AddBowl(cat, "2026-03-09", "sticky-toffee", Customization{}))
	assert.False(t, d.CanAdvancePastDate("2026-03-09"), "one bowl")

	require.NoError(t, d.AddBowl(cat, "2026-03-09", "sticky-toffee", Customization{}))
	assert.True(t, d.CanAdvancePastDate("2026-03-09"), "two bowls")

	require.NoError(t, d.AddBowl(cat, "2026-03-09", "sticky-toffee", Customization{}))
	assert.True(t, d.CanAdvancePastDate("2026-03-09"), "three bowls")
}

func TestTotals_AcrossDates(t *testing.T) {
	cat := testCatalog(t)
	d := NewDraft("Manchester", "M14BT")

	for _, date := range []string{"2026-03-11", "2026-03-09"} {
		for range 2 {
			require.NoError(t, d.AddBowl(cat, date, "build-your-own", Customization{
				SoakID:     "dairy-yoghurt",
				ToppingIDs: fourToppings(),
			}))
		}
	}

	assert.Equal(t, 4, d.TotalBowls)
	assert.True(t, d.TotalPrice.Equal(decimal.RequireFromString("23.80")),
		"4 bowls at 5.95 must total exactly 23.80, got %s", d.TotalPrice)

	// Dates kept ascending regardless of insertion order.
	require.Len(t, d.Dates, 2)
	assert.Equal(t, "2026-03-09", d.Dates[0].Date)
	assert.Equal(t, "2026-03-11", d.Dates[1].Date)
}

func TestRemoveBowl(t *testing.T) {
	cat := testCatalog(t)
	d := NewDraft("Manchester", "M14BT")

	require.NoError(t, d.AddBowl(cat, "2026-03-09", "sticky-toffee", Customization{}))
	require.NoError(t, d.AddBowl(cat, "2026-03-09", "sticky-toffee", Customization{}))

	assert.True(t, d.RemoveBowl("2026-03-09", 0))
	assert.Equal(t, 1, d.TotalBowls)
	assert.True(t, d.TotalPrice.Equal(decimal.RequireFromString("5.95")))

	assert.False(t, d.RemoveBowl("2026-03-09", 5), "out of range")
	assert.False(t, d.RemoveBowl("2026-03-11", 0), "unknown date")

	assert.True(t, d.RemoveBowl("2026-03-09", 0))
	assert.Empty(t, d.Dates, "emptied date is dropped")
	assert.True(t, d.TotalPrice.IsZero())
}
