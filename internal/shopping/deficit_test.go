package shopping

import (
	"testing"

	"pantry-planner/internal/pantry"
)

func TestResolveDeficit(t *testing.T) {
	tests := []struct {
		name      string
		entry     Aggregated
		stock     []pantry.Item
		required  float64
		satisfied bool
		matched   bool
	}{
		{
			name:      "PantryCoversRequest",
			entry:     Aggregated{Name: "rice", Quantity: 200, Unit: "g", Quantified: true},
			stock:     []pantry.Item{{Name: "Rice", Quantity: "500g"}},
			required:  0,
			satisfied: true,
			matched:   true,
		},
		{
			name:      "ExactNameBeatsSubstring",
			entry:     Aggregated{Name: "tea", Quantity: 200, Unit: "g", Quantified: true},
			stock:     []pantry.Item{{Name: "green tea", Quantity: "100g"}, {Name: "Tea", Quantity: "500g"}},
			required:  0,
			satisfied: true,
			matched:   true,
		},
		{
			name:      "GroupedThousands",
			entry:     Aggregated{Name: "rice", Quantity: 500, Unit: "g", Quantified: true},
			stock:     []pantry.Item{{Name: "rice", Quantity: "1,000g"}},
			required:  0,
			satisfied: true,
			matched:   true,
		},
		{
			name:     "PartialStock",
			entry:    Aggregated{Name: "rice", Quantity: 500, Unit: "g", Quantified: true},
			stock:    []pantry.Item{{Name: "rice", Quantity: "100g"}},
			required: 400,
			matched:  true,
		},
		{
			name:     "ConvertsBackToRequestedUnit",
			entry:    Aggregated{Name: "flour", Quantity: 2, Unit: "kg", Quantified: true},
			stock:    []pantry.Item{{Name: "flour", Quantity: "500 g"}},
			required: 2, // 1.5 kg rounded up
			matched:  true,
		},
		{
			name:     "FloatNoiseIsNotRoundedUp",
			entry:    Aggregated{Name: "milk", Quantity: 3, Unit: "cup", Quantified: true},
			stock:    []pantry.Item{{Name: "milk", Quantity: "1 cup"}},
			required: 2,
			matched:  true,
		},
		{
			name:     "IncomparableUnits",
			entry:    Aggregated{Name: "milk", Quantity: 2, Unit: "cup", Quantified: true},
			stock:    []pantry.Item{{Name: "milk", Quantity: "500g"}},
			required: 2,
			matched:  true,
		},
		{
			name:     "MalformedPantryQuantity",
			entry:    Aggregated{Name: "sugar", Quantity: 100, Unit: "g", Quantified: true},
			stock:    []pantry.Item{{Name: "sugar", Quantity: "a little"}},
			required: 100,
		},
		{
			name:     "NoMatch",
			entry:    Aggregated{Name: "butter", Quantity: 50, Unit: "g", Quantified: true},
			stock:    []pantry.Item{{Name: "rice", Quantity: "1kg"}},
			required: 50,
		},
		{
			name:      "FuzzyContainment",
			entry:     Aggregated{Name: "Basmati Rice", Quantity: 100, Unit: "g", Quantified: true},
			stock:     []pantry.Item{{Name: " rice ", Quantity: "1 kg"}},
			satisfied: true,
			matched:   true,
		},
		{
			name:      "CountUnitsCompareByFoldedName",
			entry:     Aggregated{Name: "eggs", Quantity: 4, Quantified: true},
			stock:     []pantry.Item{{Name: "egg", Quantity: "6"}},
			satisfied: true,
			matched:   true,
		},
		{
			name:     "EmptyPantryNameNeverMatches",
			entry:    Aggregated{Name: "eggs", Quantity: 4, Quantified: true},
			stock:    []pantry.Item{{Name: "", Quantity: "10"}},
			required: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDeficit(tt.entry, tt.stock)
			if got.Required != tt.required {
				t.Errorf("required = %v, want %v", got.Required, tt.required)
			}
			if got.Satisfied != tt.satisfied {
				t.Errorf("satisfied = %v, want %v", got.Satisfied, tt.satisfied)
			}
			if (got.Match != nil) != tt.matched {
				t.Errorf("matched = %v, want %v", got.Match != nil, tt.matched)
			}
		})
	}
}

func TestResolveDeficitIsIdempotent(t *testing.T) {
	entry := Aggregated{Name: "rice", Quantity: 500, Unit: "g", Quantified: true, Recipes: []string{"Pilaf"}}
	stock := []pantry.Item{{Name: "rice", Quantity: "100g"}}

	first := ResolveDeficit(entry, stock)
	second := ResolveDeficit(entry, stock)
	if first.Required != second.Required || first.Satisfied != second.Satisfied {
		t.Errorf("resolutions differ: %+v vs %+v", first, second)
	}
	if stock[0].Quantity != "100g" {
		t.Error("pantry must not be modified")
	}
	if entry.Quantity != 500 {
		t.Error("entry must not be modified")
	}
}

func TestResolveAll(t *testing.T) {
	entries := []Aggregated{
		{Name: "rice", Quantity: 200, Unit: "g", Quantified: true},
		{Name: "onion", Quantity: 2, Quantified: true},
	}
	got := ResolveAll(entries, []pantry.Item{{Name: "rice", Quantity: "1kg"}})
	if len(got) != 2 {
		t.Fatalf("expected 2 resolutions, got %d", len(got))
	}
	if !got[0].Satisfied || got[1].Required != 2 {
		t.Errorf("unexpected resolutions %+v", got)
	}
}
