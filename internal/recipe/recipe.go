package recipe

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"pantry-planner/internal/units"
)

// Ingredient is a single request coming from a recipe or a manual entry.
// Quantity is nil when the line carried no amount ("salt to taste").
type Ingredient struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
}

// Recipe is an imported recipe reduced to what the shopping list needs.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	SourceURL   string       `json:"source_url,omitempty"`
	Ingredients []Ingredient `json:"ingredients"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// countUnits are non-convertible units recognised by the line parser,
// mapped to their singular form.
var countUnits = map[string]string{
	"clove": "clove", "cloves": "clove",
	"can": "can", "cans": "can",
	"pinch": "pinch", "pinches": "pinch",
	"slice": "slice", "slices": "slice",
	"bunch": "bunch", "bunches": "bunch",
	"piece": "piece", "pieces": "piece", "pc": "piece", "pcs": "piece",
	"sprig": "sprig", "sprigs": "sprig",
	"handful": "handful", "handfuls": "handful",
	"package": "package", "packages": "package",
	"pack": "pack", "packs": "pack",
	"stick": "stick", "sticks": "stick",
	"head": "head", "heads": "head",
	"dash": "dash", "dashes": "dash",
	"jar": "jar", "jars": "jar",
	"bottle": "bottle", "bottles": "bottle",
	"dozen": "dozen",
}

var vulgarFractions = strings.NewReplacer(
	"½", " 1/2", "⅓", " 1/3", "⅔", " 2/3", "¼", " 1/4", "¾", " 3/4",
	"⅛", " 1/8", "⅜", " 3/8", "⅝", " 5/8", "⅞", " 7/8", "⁄", "/",
)

// ParseIngredientLine parses a free-text ingredient line such as
// "1 1/2 cups flour", "500g minced beef" or "salt to taste".
func ParseIngredientLine(line string) (Ingredient, bool) {
	line = strings.TrimSpace(vulgarFractions.Replace(line))
	line = strings.TrimLeft(line, "-*•·▢ \t")
	if line == "" {
		return Ingredient{}, false
	}

	tokens := strings.Fields(line)
	qty, unit, rest := splitQuantity(tokens)
	if qty != nil {
		unit, rest = splitUnit(unit, rest)
	}

	name := cleanName(strings.Join(rest, " "))
	if name == "" {
		return Ingredient{}, false
	}
	return Ingredient{Name: name, Quantity: qty, Unit: unit}, true
}

// ParseIngredientLines parses every line and drops the ones that carry no
// ingredient.
func ParseIngredientLines(lines []string) []Ingredient {
	var out []Ingredient
	for _, l := range lines {
		if ing, ok := ParseIngredientLine(l); ok {
			out = append(out, ing)
		}
	}
	return out
}

// splitQuantity consumes leading numeric tokens. A unit glued to the number
// ("200g") is returned separately.
func splitQuantity(tokens []string) (*float64, string, []string) {
	if len(tokens) == 0 {
		return nil, "", tokens
	}

	num, suffix := leadingNumber(tokens[0])
	if num == "" {
		return nil, "", tokens
	}
	value, ok := parseNumber(num)
	if !ok {
		return nil, "", tokens
	}
	rest := tokens[1:]

	// mixed number: "1 1/2"
	if suffix == "" && len(rest) > 0 && strings.Contains(rest[0], "/") {
		if frac, ok := parseNumber(rest[0]); ok {
			value += frac
			rest = rest[1:]
		}
	}

	// ranges such as "2-3" or "2 - 3" keep the upper bound
	if strings.HasPrefix(suffix, "-") {
		upper, after := leadingNumber(strings.TrimPrefix(suffix, "-"))
		if v, ok := parseNumber(upper); ok {
			value, suffix = v, after
		}
	} else if suffix == "" && len(rest) > 1 && (rest[0] == "-" || rest[0] == "to") {
		if v, ok := parseNumber(rest[1]); ok {
			value = v
			rest = rest[2:]
		}
	}

	return &value, suffix, rest
}

func splitUnit(glued string, rest []string) (string, []string) {
	if glued != "" {
		if u, ok := unitSymbol(glued); ok {
			return u, skipOf(rest)
		}
		return "", append([]string{glued}, rest...)
	}
	if len(rest) == 0 {
		return "", rest
	}
	if len(rest) > 1 {
		if u, ok := unitSymbol(rest[0] + " " + rest[1]); ok {
			return u, skipOf(rest[2:])
		}
	}
	if u, ok := unitSymbol(rest[0]); ok {
		return u, skipOf(rest[1:])
	}
	return "", rest
}

func unitSymbol(s string) (string, bool) {
	s = strings.TrimSuffix(units.Fold(s), ".")
	if units.Known(s) {
		return units.Symbol(s), true
	}
	if c, ok := countUnits[s]; ok {
		return c, true
	}
	return "", false
}

func skipOf(rest []string) []string {
	if len(rest) > 0 && strings.EqualFold(rest[0], "of") {
		return rest[1:]
	}
	return rest
}

// leadingNumber splits "200g" into "200" and "g".
func leadingNumber(tok string) (string, string) {
	end := 0
	for end < len(tok) {
		c := tok[end]
		if (c >= '0' && c <= '9') || c == '.' || c == ',' || c == '/' {
			end++
			continue
		}
		break
	}
	return strings.TrimRight(tok[:end], ".,"), tok[end:]
}

var (
	thousandsPattern    = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	decimalCommaPattern = regexp.MustCompile(`^\d+,\d{1,2}$`)
)

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	switch {
	case thousandsPattern.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case decimalCommaPattern.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	case strings.Contains(s, ","):
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// cleanName drops preparation notes after a comma and parenthesised asides.
func cleanName(s string) string {
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	for {
		open := strings.Index(s, "(")
		if open < 0 {
			break
		}
		closing := strings.Index(s[open:], ")")
		if closing < 0 {
			s = s[:open]
			break
		}
		s = s[:open] + s[open+closing+1:]
	}
	return strings.Join(strings.Fields(s), " ")
}
