// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

// Fallback returns the first n catalog rows as non-personalized items with
// score 0. An empty catalog yields an empty, non-nil list.
func Fallback(c *Catalog, n int, newID func() string) []ResultItem {
	rows := c.First(n)
	items := make([]ResultItem, 0, len(rows))
	for _, p := range rows {
		items = append(items, c.enrich(p.ID, 0.0, newID()))
	}
	return items
}
