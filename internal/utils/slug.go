package utils

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Slugify turns arbitrary text into a URL-safe slug: lowercased, with runs
// of non-alphanumeric characters collapsed into single hyphens.
func Slugify(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))

	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			builder.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				builder.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(builder.String(), "-")
	if slug == "" {
		slug = "item-" + shortToken()
	}
	return slug
}

// NewOrderNo issues a sortable, collision-safe order number.
func NewOrderNo() string {
	return "ORD" + time.Now().UTC().Format("20060102150405") + strings.ToUpper(shortToken())
}

func shortToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
