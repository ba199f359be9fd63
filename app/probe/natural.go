package probe

import (
	"strings"

	"github.com/maruel/natural"
)

// NaturalLess orders file names with digit runs compared by value:
// "work-2" < "work-10". Letters compare case-insensitively, with case only
// breaking ties.
func NaturalLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return natural.Less(la, lb)
	}
	return natural.Less(a, b)
}
