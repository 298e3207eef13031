package shopping

import (
	"math"
	"strings"

	"pantry-planner/internal/pantry"
	"pantry-planner/internal/units"
)

// roundingTolerance keeps float noise such as 400.0000000001 from being
// rounded up to the next whole unit.
const roundingTolerance = 1e-9

// Resolution is an aggregated request after subtracting pantry stock.
type Resolution struct {
	Aggregated
	// Required is the amount still to buy, in the requested unit.
	Required float64
	// Satisfied is set when the pantry covers the whole request.
	Satisfied bool
	// Match is the pantry item the request was compared against, if any.
	Match *pantry.Item
}

// ResolveDeficit subtracts matching pantry stock from entry. A pantry item
// whose quantity cannot be parsed, or whose unit cannot be compared with the
// requested one, leaves the request unchanged. Stock is never modified.
func ResolveDeficit(entry Aggregated, stock []pantry.Item) Resolution {
	res := Resolution{Aggregated: entry, Required: entry.Quantity}

	match := MatchPantry(entry.Name, stock)
	if match == nil {
		return res
	}
	amount, unit, ok := pantry.ParseQuantity(match.Quantity)
	if !ok {
		return res
	}
	res.Match = match

	requested := units.Normalize(entry.Quantity, entry.Unit)
	available := units.Normalize(amount, unit)
	if !units.Comparable(requested, available) {
		return res
	}

	deficit := requested.Value - available.Value
	if deficit <= 0 {
		res.Required = 0
		res.Satisfied = true
		return res
	}
	res.Required = math.Ceil(units.FromBase(deficit, entry.Unit) - roundingTolerance)
	return res
}

// ResolveAll resolves every entry against the same pantry snapshot.
func ResolveAll(entries []Aggregated, stock []pantry.Item) []Resolution {
	out := make([]Resolution, 0, len(entries))
	for _, e := range entries {
		out = append(out, ResolveDeficit(e, stock))
	}
	return out
}

// MatchPantry returns the pantry item named name, ignoring case and
// surrounding space. Without an exact match it falls back to the first item
// whose name contains, or is contained in, name.
func MatchPantry(name string, stock []pantry.Item) *pantry.Item {
	want := foldKey(name)
	if want == "" {
		return nil
	}
	partial := -1
	for i := range stock {
		have := foldKey(stock[i].Name)
		if have == "" {
			continue
		}
		if have == want {
			it := stock[i]
			return &it
		}
		if partial < 0 && (strings.Contains(have, want) || strings.Contains(want, have)) {
			partial = i
		}
	}
	if partial < 0 {
		return nil
	}
	it := stock[partial]
	return &it
}
