package units

import "strings"

// Base units every known unit converts into.
const (
	Grams       = "g"
	Milliliters = "ml"
)

type conversion struct {
	symbol string
	base   string
	factor float64
}

type unitDef struct {
	conversion
	aliases []string
}

// US customary measures; metric units are exact.
var definitions = []unitDef{
	{conversion{"g", Grams, 1}, []string{"gram", "grams", "gr"}},
	{conversion{"kg", Grams, 1000}, []string{"kgs", "kilogram", "kilograms"}},
	{conversion{"mg", Grams, 0.001}, []string{"milligram", "milligrams"}},
	{conversion{"lb", Grams, 453.59237}, []string{"lbs", "pound", "pounds"}},
	{conversion{"oz", Grams, 28.349523125}, []string{"ounce", "ounces"}},

	{conversion{"ml", Milliliters, 1}, []string{"milliliter", "milliliters", "millilitre", "millilitres"}},
	{conversion{"l", Milliliters, 1000}, []string{"liter", "liters", "litre", "litres"}},
	{conversion{"cup", Milliliters, 236.5882365}, []string{"cups"}},
	{conversion{"tbsp", Milliliters, 14.78676478125}, []string{"tablespoon", "tablespoons", "tbs"}},
	{conversion{"tsp", Milliliters, 4.92892159375}, []string{"teaspoon", "teaspoons"}},
	{conversion{"gallon", Milliliters, 3785.411784}, []string{"gallons", "gal"}},
	{conversion{"quart", Milliliters, 946.352946}, []string{"quarts", "qt"}},
	{conversion{"pint", Milliliters, 473.176473}, []string{"pints", "pt"}},
	{conversion{"fl oz", Milliliters, 29.5735295625}, []string{"floz", "fl. oz", "fluid ounce", "fluid ounces"}},
}

var conversions = func() map[string]conversion {
	m := make(map[string]conversion)
	for _, d := range definitions {
		m[d.symbol] = d.conversion
		for _, a := range d.aliases {
			m[a] = d.conversion
		}
	}
	return m
}()

// Measure is a quantity expressed in its base unit. Known is false when the
// unit was not recognised; BaseUnit then carries the folded input unit.
type Measure struct {
	Value    float64
	BaseUnit string
	Known    bool
}

// Normalize converts quantity in unit to grams or milliliters. Unknown units
// pass through unchanged so callers must compare BaseUnit before comparing
// values.
func Normalize(quantity float64, unit string) Measure {
	key := Fold(unit)
	if c, ok := conversions[key]; ok {
		return Measure{Value: quantity * c.factor, BaseUnit: c.base, Known: true}
	}
	return Measure{Value: quantity, BaseUnit: key}
}

// Factor returns the multiplier from unit to its base unit.
func Factor(unit string) (float64, bool) {
	c, ok := conversions[Fold(unit)]
	if !ok {
		return 1, false
	}
	return c.factor, true
}

// FromBase converts a base-unit value back into unit. Unknown units are
// returned unchanged.
func FromBase(value float64, unit string) float64 {
	f, _ := Factor(unit)
	return value / f
}

// Comparable reports whether two measures share a base unit.
func Comparable(a, b Measure) bool {
	return a.BaseUnit == b.BaseUnit
}

// Known reports whether unit is a recognised weight or volume.
func Known(unit string) bool {
	_, ok := conversions[Fold(unit)]
	return ok
}

// Symbol returns the short form of a known unit ("Tablespoons" becomes
// "tbsp"). Unknown units are returned folded.
func Symbol(unit string) string {
	key := Fold(unit)
	if c, ok := conversions[key]; ok {
		return c.symbol
	}
	return key
}

// Fold lower-cases and trims a unit and collapses inner whitespace.
func Fold(unit string) string {
	return strings.Join(strings.Fields(strings.ToLower(unit)), " ")
}
