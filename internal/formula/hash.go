package formula

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Hash returns an order-sensitive digest of the parsed ingredients. Only
// equality matters: two lists hash equal when every name, base and unit match.
// Invalid entries carry a marker so "钛白" and "钛白 0" do not collide.
func Hash(ingredients []Ingredient) string {
	d := xxhash.New()
	for _, ing := range ingredients {
		_, _ = d.WriteString(ing.Name)
		_, _ = d.WriteString("|")
		_, _ = d.WriteString(strconv.FormatFloat(ing.Base, 'f', -1, 64))
		_, _ = d.WriteString("|")
		_, _ = d.WriteString(ing.Unit)
		if ing.Invalid {
			_, _ = d.WriteString("|!")
		}
		_, _ = d.WriteString("\n")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
