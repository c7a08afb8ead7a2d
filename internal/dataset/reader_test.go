// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func newTestReader(t *testing.T) *Reader {
	t.Helper()
	r, err := Open(Config{Threads: 1, MaxMemory: "256MB"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	r := newTestReader(t)
	path := writeFile(t, CatalogFileName, `product_id,product_name_en,product_price,product_type,unit_of_measurement,product_description_en,product_sku
p1,Fertilizer NPK,150000,GOODS,sack,Compound fertilizer,SKU-1
p2,Harvest service,n/a,SERVICE,hectare,,SKU-2
p1,Fertilizer NPK duplicate,999,GOODS,sack,,SKU-1b
,Orphan row,10,GOODS,unit,,
p3,Sprayer,75000.5,GOODS,unit,Knapsack sprayer,SKU-3
`)

	products, err := r.LoadCatalog(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("LoadCatalog() returned %d products, want 3", len(products))
	}

	p1 := products[0]
	if p1.ID != "p1" || p1.Name != "Fertilizer NPK" {
		t.Errorf("first product = %+v, want first p1 row", p1)
	}
	if p1.Price == nil || *p1.Price != 150000 {
		t.Errorf("p1 price = %v, want 150000", p1.Price)
	}
	if p1.Unit != "sack" || p1.SKU != "SKU-1" || p1.Description != "Compound fertilizer" {
		t.Errorf("p1 optional fields = %+v", p1)
	}

	p2 := products[1]
	if p2.ID != "p2" || p2.Price != nil {
		t.Errorf("p2 = %+v, want nil price for unparseable value", p2)
	}
	if p2.Type != "SERVICE" {
		t.Errorf("p2 type = %q, want SERVICE", p2.Type)
	}

	if products[2].ID != "p3" || products[2].Price == nil || *products[2].Price != 75000.5 {
		t.Errorf("p3 = %+v", products[2])
	}
}

func TestLoadCatalog_MissingOptionalColumns(t *testing.T) {
	r := newTestReader(t)
	path := writeFile(t, "catalog.csv", "product_id,product_name_en\np1,Seedling\n")

	products, err := r.LoadCatalog(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("LoadCatalog() returned %d products, want 1", len(products))
	}
	if products[0].Price != nil || products[0].Type != "" {
		t.Errorf("product = %+v, want nil price and empty type", products[0])
	}
}

func TestLoadCatalog_Errors(t *testing.T) {
	r := newTestReader(t)

	_, err := r.LoadCatalog(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadCatalog(missing) error = %v, want ErrNotFound", err)
	}

	path := writeFile(t, "bad.csv", "name,price\nx,1\n")
	_, err = r.LoadCatalog(context.Background(), path)
	if !errors.Is(err, ErrInvalidFile) {
		t.Errorf("LoadCatalog(no product_id) error = %v, want ErrInvalidFile", err)
	}
}

func TestLoadInteractions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Interaction
	}{
		{
			name: "quantity summed",
			content: `user_id,product_id,quantity
u2,p1,1
u1,p2,3
u1,p2,2
u1,p1,x
`,
			want: []Interaction{
				{UserID: "u1", ProductID: "p2", Strength: 5},
				{UserID: "u2", ProductID: "p1", Strength: 1},
			},
		},
		{
			name: "rating column",
			content: `user_id,product_id,rating
u1,p1,4.5
`,
			want: []Interaction{
				{UserID: "u1", ProductID: "p1", Strength: 4.5},
			},
		},
		{
			name: "quantity preferred over rating",
			content: `user_id,product_id,rating,quantity
u1,p1,5,2
`,
			want: []Interaction{
				{UserID: "u1", ProductID: "p1", Strength: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReader(t)
			path := writeFile(t, "interactions.csv", tt.content)

			got, err := r.LoadInteractions(context.Background(), path)
			if err != nil {
				t.Fatalf("LoadInteractions() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("LoadInteractions() = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("LoadInteractions()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadInteractions_Errors(t *testing.T) {
	r := newTestReader(t)

	_, err := r.LoadInteractions(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadInteractions(missing) error = %v, want ErrNotFound", err)
	}

	path := writeFile(t, "no_strength.csv", "user_id,product_id\nu1,p1\n")
	_, err = r.LoadInteractions(context.Background(), path)
	if !errors.Is(err, ErrInvalidFile) {
		t.Errorf("LoadInteractions(no strength) error = %v, want ErrInvalidFile", err)
	}
}

func TestQuoteLiteral(t *testing.T) {
	if got := quoteLiteral("it's.csv"); got != "'it''s.csv'" {
		t.Errorf("quoteLiteral() = %q", got)
	}
}
