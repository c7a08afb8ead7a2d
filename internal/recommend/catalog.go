// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

// Catalog maps external product ids to descriptive metadata.
// The first row for an id wins. Row order is preserved for the fallback list.
type Catalog struct {
	rows []Product
	byID map[string]int
}

// NewCatalog builds a catalog from rows in source order.
// Rows without an id and repeated ids are skipped.
func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		rows: make([]Product, 0, len(products)),
		byID: make(map[string]int, len(products)),
	}
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		if _, seen := c.byID[p.ID]; seen {
			continue
		}
		c.byID[p.ID] = len(c.rows)
		c.rows = append(c.rows, p)
	}
	return c
}

// EmptyCatalog returns a catalog with no rows.
func EmptyCatalog() *Catalog {
	return NewCatalog(nil)
}

// Lookup returns the authoritative row for id.
func (c *Catalog) Lookup(id string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.rows[i], true
}

// Len returns the number of distinct products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rows)
}

// First returns up to n rows in source order.
func (c *Catalog) First(n int) []Product {
	if c == nil || n <= 0 {
		return []Product{}
	}
	if n > len(c.rows) {
		n = len(c.rows)
	}
	out := make([]Product, n)
	copy(out, c.rows[:n])
	return out
}

// enrich builds a result item for productID, using placeholders when the
// catalog has no row for it.
func (c *Catalog) enrich(productID string, score float64, recID string) ResultItem {
	item := ResultItem{
		ProductID:        productID,
		ProductName:      PlaceholderProductName,
		ProductType:      PlaceholderProductType,
		RelevanceScore:   score,
		RecommendationID: recID,
	}
	p, ok := c.Lookup(productID)
	if !ok {
		return item
	}
	if p.Name != "" {
		item.ProductName = p.Name
	}
	if p.Type != "" {
		item.ProductType = p.Type
	}
	if p.Price != nil {
		price := *p.Price
		item.Price = &price
	}
	item.Unit = p.Unit
	return item
}
