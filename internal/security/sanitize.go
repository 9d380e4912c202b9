package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	basic  = bluemonday.UGCPolicy()
)

// PlainText strips all markup. Used for names, titles and bios.
func PlainText(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// RichText keeps the small set of formatting tags safe for user content
// such as design descriptions.
func RichText(s string) string {
	return strings.TrimSpace(basic.Sanitize(s))
}

// PlainTextPtr applies PlainText through a nil-able field.
func PlainTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := PlainText(*s)
	return &v
}
