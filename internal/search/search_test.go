package search

import (
	"testing"

	"github.com/listops/listops/pkg/models"
)

func testCatalog() *models.Catalog {
	price := 100.0
	return &models.Catalog{
		Categories: []*models.Category{
			{Name: "ALIMENTO PARA PERROS", Brands: []*models.Brand{
				{Name: "DOG CHOW", Items: []*models.Item{
					{Code: "200", Description: "ADULTO RAZA MEDIANA 15KG", Price1: &price},
					{Code: "201", Description: "CACHORRO 3KG", Price1: &price},
				}},
			}},
			{Name: "COMESTIBLES", Brands: []*models.Brand{
				{Name: "COMESTIBLES", Items: []*models.Item{
					{Code: "300", Description: "AZÚCAR 1KG", Price1: &price},
					{Code: "301", Description: "Jabón en polvo", Price1: &price},
				}},
			}},
		},
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"AZÚCAR":        "azucar",
		"  Jabón  ":     "jabon",
		"Ñandú":         "nandu",
		"PRECIO BOLSA":  "precio bolsa",
		"":              "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"accent insensitive", "azucar", []string{"300"}},
		{"case insensitive", "JABON", []string{"301"}},
		{"by code", "201", []string{"201"}},
		{"by brand", "dog chow", []string{"200", "201"}},
		{"by category", "perros", []string{"200", "201"}},
		{"all words any order", "15kg adulto", []string{"200"}},
		{"words across fields", "cachorro perros", []string{"201"}},
		{"no match", "gato", nil},
		{"empty query", "   ", nil},
	}

	catalog := testCatalog()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Search(catalog, tt.query)
			var got []string
			for _, r := range results {
				got = append(got, r.Item.Code)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
				}
			}
		})
	}
}

func TestSearchNilCatalog(t *testing.T) {
	if got := Search(nil, "x"); len(got) != 0 {
		t.Errorf("Search(nil) = %v, want empty", got)
	}
}
