package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func parseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}

	return n
}

// pageParams reads limit/offset; the services clamp them.
func pageParams(ctx *gin.Context) (int, int) {
	return parseIntDefault(ctx.Query("limit"), 0), parseIntDefault(ctx.Query("offset"), 0)
}

func optionalQuery(ctx *gin.Context, key string) *string {
	v := strings.TrimSpace(ctx.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

// optionalInt64 reports ok=false when the value is present but not a number.
func optionalInt64(ctx *gin.Context, key string) (*int64, bool) {
	v := strings.TrimSpace(ctx.Query(key))
	if v == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}
