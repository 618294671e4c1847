package handler

import "net/http"

// GetCatalog returns the full menu: bowls, toppings, and soak options.
func (h *Handler) GetCatalog(w http.ResponseWriter, _ *http.Request) {
	items := h.catalog.Items()
	toppings := h.catalog.Toppings()
	soaks := h.catalog.Soaks()

	resp := CatalogResponse{
		Items:    make([]CatalogItem, len(items)),
		Toppings: make([]CatalogTopping, len(toppings)),
		Soaks:    make([]CatalogSoak, len(soaks)),
	}
	for i, it := range items {
		resp.Items[i] = CatalogItem{
			ID:          it.ID,
			Name:        it.Name,
			Price:       it.Price,
			Description: it.Description,
			Ingredients: it.Ingredients,
			Prebuilt:    it.Prebuilt,
			Featured:    it.Featured,
			Image:       it.Image,
		}
	}
	for i, t := range toppings {
		resp.Toppings[i] = CatalogTopping{
			ID:         t.ID,
			Name:       t.Name,
			Category:   string(t.Category),
			ExtraPrice: t.ExtraPrice,
		}
	}
	for i, s := range soaks {
		resp.Soaks[i] = CatalogSoak{
			ID:         s.ID,
			Name:       s.Name,
			GlutenFree: s.GlutenFree,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
