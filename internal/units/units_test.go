package units

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		qty      float64
		unit     string
		want     float64
		wantBase string
		known    bool
	}{
		{"kilograms", 1, "kg", 1000, Grams, true},
		{"grams", 250, "g", 250, Grams, true},
		{"milligrams", 500, "mg", 0.5, Grams, true},
		{"pounds full name", 2, "Pounds", 907.18474, Grams, true},
		{"ounce", 1, "oz", 28.349523125, Grams, true},
		{"liters", 1.5, "L", 1500, Milliliters, true},
		{"cups", 2, "cups", 473.176473, Milliliters, true},
		{"tablespoon", 1, " TBSP ", 14.78676478125, Milliliters, true},
		{"teaspoon", 3, "tsp", 14.78676478125, Milliliters, true},
		{"fluid ounce with spaces", 1, "fl   oz", 29.5735295625, Milliliters, true},
		{"gallon", 1, "gallon", 3785.411784, Milliliters, true},
		{"quart", 1, "quart", 946.352946, Milliliters, true},
		{"pint", 1, "pint", 473.176473, Milliliters, true},
		{"unknown unit passes through", 3, " Cloves ", 3, "cloves", false},
		{"empty unit", 2, "", 2, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.qty, tt.unit)
			if !almostEqual(got.Value, tt.want) {
				t.Errorf("value = %v, want %v", got.Value, tt.want)
			}
			if got.BaseUnit != tt.wantBase {
				t.Errorf("base = %q, want %q", got.BaseUnit, tt.wantBase)
			}
			if got.Known != tt.known {
				t.Errorf("known = %v, want %v", got.Known, tt.known)
			}
		})
	}
}

func TestWeightPairsNormalizeEqually(t *testing.T) {
	pairs := []struct {
		aQty  float64
		aUnit string
		bQty  float64
		bUnit string
	}{
		{1, "kg", 1000, "g"},
		{1, "g", 1000, "mg"},
		{1, "kilogram", 1000, "grams"},
		{1, "lb", 16, "oz"},
		{1, "l", 1000, "ml"},
		{1, "tbsp", 3, "tsp"},
		{1, "cup", 16, "tbsp"},
		{1, "gallon", 4, "quarts"},
		{1, "quart", 2, "pints"},
		{1, "pint", 2, "cups"},
	}
	for _, p := range pairs {
		a := Normalize(p.aQty, p.aUnit)
		b := Normalize(p.bQty, p.bUnit)
		if !Comparable(a, b) {
			t.Fatalf("%v %s and %v %s should be comparable", p.aQty, p.aUnit, p.bQty, p.bUnit)
		}
		if math.Abs(a.Value-b.Value) > 1e-6 {
			t.Errorf("%v %s = %v, %v %s = %v", p.aQty, p.aUnit, a.Value, p.bQty, p.bUnit, b.Value)
		}
	}
}

func TestIncomparableUnits(t *testing.T) {
	if Comparable(Normalize(1, "kg"), Normalize(1, "l")) {
		t.Error("weight and volume must not be comparable")
	}
	if Comparable(Normalize(1, "clove"), Normalize(1, "g")) {
		t.Error("unknown unit must not compare with grams")
	}
	if !Comparable(Normalize(1, "Clove"), Normalize(2, "clove ")) {
		t.Error("same unknown unit should share a folded base")
	}
}

func TestFromBase(t *testing.T) {
	if got := FromBase(1500, "kg"); !almostEqual(got, 1.5) {
		t.Errorf("FromBase(1500, kg) = %v", got)
	}
	if got := FromBase(7, "pinch"); got != 7 {
		t.Errorf("unknown unit should be identity, got %v", got)
	}
	if f, ok := Factor("piece"); ok || f != 1 {
		t.Errorf("Factor(piece) = %v, %v", f, ok)
	}
}

func TestSymbol(t *testing.T) {
	tests := map[string]string{
		"Tablespoons":  "tbsp",
		"cups":         "cup",
		"KG":           "kg",
		"fluid ounces": "fl oz",
		"Cloves":       "cloves",
	}
	for in, want := range tests {
		if got := Symbol(in); got != want {
			t.Errorf("Symbol(%q) = %q, want %q", in, got, want)
		}
	}
}
