package shopping

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const recipeSeparator = ", "

// MergeResult is the list after a merge plus the rows that must be
// persisted. Updated holds each touched item once, in its final state.
type MergeResult struct {
	Items    []Item
	Inserted []Item
	Updated  []Item
}

// Merge folds resolved requests into the current list. A request increments
// the first unchecked item with the same name and unit; otherwise a new item
// is appended. Checked items are never merge targets. Satisfied requests and
// quantified requests with nothing left to buy are skipped. current is not
// modified.
func Merge(current []Item, resolved []Resolution, userID string, now time.Time) MergeResult {
	items := cloneItems(current)
	updated := make(map[string]int)
	inserted := make(map[string]bool)
	var order []string

	for _, r := range resolved {
		if r.Satisfied || (r.Quantified && r.Required <= 0) {
			continue
		}

		if i := findMergeTarget(items, r.Name, r.Unit); i >= 0 {
			it := &items[i]
			if r.Quantified {
				var q float64
				if it.Quantity != nil {
					q = *it.Quantity
				}
				q += r.Required
				it.Quantity = &q
			}
			it.Recipe = appendRecipes(it.Recipe, r.Recipes)
			it.UpdatedAt = now
			if !inserted[it.ID] {
				if _, seen := updated[it.ID]; !seen {
					order = append(order, it.ID)
				}
				updated[it.ID] = i
			}
			continue
		}

		it := Item{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      r.Name,
			Unit:      r.Unit,
			Recipe:    strings.Join(r.Recipes, recipeSeparator),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if r.Quantified {
			q := r.Required
			it.Quantity = &q
		}
		items = append(items, it)
		inserted[it.ID] = true
	}

	res := MergeResult{Items: items}
	for _, it := range items {
		if inserted[it.ID] {
			res.Inserted = append(res.Inserted, cloneItem(it))
		}
	}
	for _, id := range order {
		res.Updated = append(res.Updated, cloneItem(items[updated[id]]))
	}
	return res
}

func findMergeTarget(items []Item, name, unit string) int {
	wantName, wantUnit := foldKey(name), foldKey(unit)
	for i, it := range items {
		if it.Checked {
			continue
		}
		if foldKey(it.Name) == wantName && foldKey(it.Unit) == wantUnit {
			return i
		}
	}
	return -1
}

func appendRecipes(label string, recipes []string) string {
	for _, r := range recipes {
		if r == "" || hasRecipe(label, r) {
			continue
		}
		if label == "" {
			label = r
			continue
		}
		label += recipeSeparator + r
	}
	return label
}

// hasRecipe reports whether r is one of the labels joined in label. Labels
// may themselves contain commas, so label is never split.
func hasRecipe(label, r string) bool {
	return label == r ||
		strings.HasPrefix(label, r+recipeSeparator) ||
		strings.HasSuffix(label, recipeSeparator+r) ||
		strings.Contains(label, recipeSeparator+r+recipeSeparator)
}
