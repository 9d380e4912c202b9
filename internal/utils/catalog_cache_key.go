package utils

import (
	"strconv"
	"strings"

	"github.com/geocoder89/printhub/internal/domain/design"
)

const CatalogCachePrefix = "designs:catalog:v1:"

// BuildCatalogCacheKey derives a stable key from the public catalog filter.
// Query strings are case-folded so "Vase" and "vase" share an entry.
func BuildCatalogCacheKey(f design.ListDesignsFilter) string {
	norm := func(s *string) string {
		if s == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(*s))
	}
	num := func(n *int64) string {
		if n == nil {
			return ""
		}
		return strconv.FormatInt(*n, 10)
	}

	return CatalogCachePrefix +
		"limit=" + strconv.Itoa(f.Limit) +
		":offset=" + strconv.Itoa(f.Offset) +
		":category=" + norm(f.Category) +
		":q=" + norm(f.Query) +
		":min=" + num(f.MinPrice) +
		":max=" + num(f.MaxPrice)
}
