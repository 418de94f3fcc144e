package observability

import (
	"strings"
	"unicode"
)

// sanitizeString strips control characters so request input cannot forge log
// lines, then keeps at most limit runes.
func sanitizeString(value string, limit int) string {
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	if runes := []rune(value); limit > 0 && len(runes) > limit {
		return string(runes[:limit])
	}
	return value
}

// SanitizeRoute is used for both chi patterns and raw paths of unmatched
// requests, which can carry Arabic slugs, hence the rune based cap.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, 180)
}

func SanitizeMethod(method string) string { return sanitizeString(method, 10) }

func SanitizeUserID(uid string) string { return sanitizeString(uid, 64) }
