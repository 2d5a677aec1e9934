// Package formula parses free-text paint formulas such as "钛白 5g 群青 3滴"
// into ordered ingredient lists.
package formula

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var amountPattern = regexp.MustCompile(`^([\d.]+)(\p{L}*)$`)

// Ingredient is a single name/quantity pair taken from a formula text.
type Ingredient struct {
	Name    string  `json:"name"`
	Base    float64 `json:"base"`
	Unit    string  `json:"unit"`
	Invalid bool    `json:"invalid"`
}

// Parse splits text on whitespace and consumes the tokens pairwise: a name
// followed by an amount with an optional unit suffix. Pairs that do not parse
// are kept in place and flagged Invalid.
func Parse(text string) []Ingredient {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return []Ingredient{}
	}

	ingredients := make([]Ingredient, 0, (len(tokens)+1)/2)
	for i := 0; i < len(tokens); i += 2 {
		name := tokens[i]
		if i+1 >= len(tokens) {
			ingredients = append(ingredients, Ingredient{Name: name, Invalid: true})
			continue
		}
		base, unit, ok := parseAmount(tokens[i+1])
		if !ok {
			ingredients = append(ingredients, Ingredient{Name: name, Invalid: true})
			continue
		}
		ingredients = append(ingredients, Ingredient{Name: name, Base: base, Unit: unit})
	}
	return ingredients
}

func parseAmount(token string) (float64, string, bool) {
	match := amountPattern.FindStringSubmatch(token)
	if match == nil {
		return 0, "", false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, "", false
	}
	return value, match[2], true
}

// Format renders ingredients back into canonical formula text. Invalid
// ingredients are written as a bare name.
func Format(ingredients []Ingredient) string {
	parts := make([]string, 0, len(ingredients)*2)
	for _, ing := range ingredients {
		if ing.Invalid {
			parts = append(parts, ing.Name)
			continue
		}
		parts = append(parts, ing.Name, strconv.FormatFloat(ing.Base, 'f', -1, 64)+ing.Unit)
	}
	return strings.Join(parts, " ")
}

// HasUsable reports whether at least one ingredient parsed cleanly.
func HasUsable(ingredients []Ingredient) bool {
	for _, ing := range ingredients {
		if !ing.Invalid {
			return true
		}
	}
	return false
}
