package dealsync

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold normalizes a name or SKU for case-insensitive comparison.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
