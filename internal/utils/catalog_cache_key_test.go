package utils

import (
	"strings"
	"testing"

	"github.com/geocoder89/printhub/internal/domain/design"
)

func TestBuildCatalogCacheKey_NormalizesQuery(t *testing.T) {
	a, b := "  Vase ", "vase"
	k1 := BuildCatalogCacheKey(design.ListDesignsFilter{Query: &a, Limit: 20})
	k2 := BuildCatalogCacheKey(design.ListDesignsFilter{Query: &b, Limit: 20})

	if k1 != k2 {
		t.Fatalf("expected equal keys, got %q and %q", k1, k2)
	}
	if !strings.HasPrefix(k1, CatalogCachePrefix) {
		t.Fatalf("missing prefix: %q", k1)
	}
}

func TestBuildCatalogCacheKey_DistinguishesPages(t *testing.T) {
	k1 := BuildCatalogCacheKey(design.ListDesignsFilter{Limit: 20, Offset: 0})
	k2 := BuildCatalogCacheKey(design.ListDesignsFilter{Limit: 20, Offset: 20})

	if k1 == k2 {
		t.Fatalf("pages share a key: %q", k1)
	}
}
