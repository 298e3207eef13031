package shopping

import (
	"slices"
	"strings"

	"pantry-planner/internal/recipe"
)

// Aggregated is the combined request for one (name, unit) pair across every
// ingredient fed to an Aggregator.
type Aggregated struct {
	Name     string
	Quantity float64
	Unit     string
	Recipes  []string
	// Quantified is false when no contribution carried an amount.
	Quantified bool
}

// Aggregator sums ingredient requests by case-insensitive name and unit.
// The zero value is ready to use; it is not safe for concurrent use.
type Aggregator struct {
	index   map[string]int
	entries []Aggregated
}

// Key returns the aggregation key for a name and unit.
func Key(name, unit string) string {
	return foldKey(name) + "_" + foldKey(unit)
}

// Add folds ingredients into the running totals, tagging each with origin.
// Missing quantities count as zero. Blank names are ignored.
func (a *Aggregator) Add(ingredients []recipe.Ingredient, origin string) {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	origin = strings.TrimSpace(origin)

	for _, ing := range ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		key := Key(ing.Name, ing.Unit)
		i, ok := a.index[key]
		if !ok {
			i = len(a.entries)
			a.index[key] = i
			a.entries = append(a.entries, Aggregated{
				Name: strings.TrimSpace(ing.Name),
				Unit: strings.TrimSpace(ing.Unit),
			})
		}

		e := &a.entries[i]
		if ing.Quantity != nil {
			e.Quantity += *ing.Quantity
			e.Quantified = true
		}
		if origin != "" && !slices.Contains(e.Recipes, origin) {
			e.Recipes = append(e.Recipes, origin)
		}
	}
}

// Entries returns the aggregated requests in first-seen order.
func (a *Aggregator) Entries() []Aggregated {
	out := make([]Aggregated, len(a.entries))
	for i, e := range a.entries {
		e.Recipes = append([]string(nil), e.Recipes...)
		out[i] = e
	}
	return out
}

// Lookup returns the entry aggregated under name and unit.
func (a *Aggregator) Lookup(name, unit string) (Aggregated, bool) {
	i, ok := a.index[Key(name, unit)]
	if !ok {
		return Aggregated{}, false
	}
	return a.entries[i], true
}

// Len reports the number of distinct (name, unit) entries.
func (a *Aggregator) Len() int {
	return len(a.entries)
}

// Aggregate is a one-shot helper over a single batch.
func Aggregate(ingredients []recipe.Ingredient, origin string) []Aggregated {
	var a Aggregator
	a.Add(ingredients, origin)
	return a.Entries()
}
