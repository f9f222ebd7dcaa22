package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

func sanitizePathSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			builder.WriteByte(ch)
		case ch >= 'A' && ch <= 'Z':
			builder.WriteByte(ch + 32)
		case ch == '-', ch == '_', ch == '.':
			builder.WriteByte(ch)
		}
	}
	return builder.String()
}

func normalizeExtension(ext string) string {
	trimmed := strings.TrimSpace(ext)
	trimmed = strings.TrimPrefix(trimmed, ".")
	if trimmed == "" {
		return "bin"
	}
	return strings.Trim(sanitizePathSegment(trimmed), ".")
}

func sanitizeFileBase(value string) string {
	replaced := strings.ReplaceAll(strings.TrimSpace(value), " ", "-")
	sanitized := sanitizePathSegment(replaced)
	return strings.Trim(sanitized, "-_.")
}

// BuildObjectKey derives a collision-safe key for an upload:
// <base>/<year>/<month>/<token>_<sanitized-name>. The returned stored name
// is the final path segment.
func BuildObjectKey(basePath, originalName string) (key, storedName string) {
	now := time.Now().UTC()
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	ext := normalizeExtension(path.Ext(originalName))
	base := sanitizeFileBase(strings.TrimSuffix(originalName, path.Ext(originalName)))
	if base == "" {
		base = "file"
	}

	storedName = fmt.Sprintf("%s_%s.%s", token, base, ext)
	datedir := fmt.Sprintf("%04d/%02d", now.Year(), now.Month())
	key = path.Join(trimPrefix(basePath), datedir, storedName)
	return key, storedName
}

// VariantObjectKey places a rendition next to its source object, named
// <tier>_<storedName> with the extension swapped to the rendition's.
func VariantObjectKey(originalKey, tierName, ext string) string {
	dir := path.Dir(originalKey)
	name := path.Base(originalKey)
	base := strings.TrimSuffix(name, path.Ext(name))
	normalizedExt := normalizeExtension(ext)
	return path.Join(dir, fmt.Sprintf("%s_%s.%s", tierName, base, normalizedExt))
}

func joinPrefix(prefix, key string) string {
	cleanPrefix := trimPrefix(prefix)
	if cleanPrefix == "" {
		return strings.TrimLeft(key, "/")
	}
	return path.Join(cleanPrefix, strings.TrimLeft(key, "/"))
}

func trimPrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

// normalizeKeyOrURL maps a public URL back to the object key it serves.
// Bare keys pass through untouched. Known public base URLs are stripped
// first; for unrecognised absolute URLs the path is used, dropping a
// leading bucket segment when one is given.
func normalizeKeyOrURL(raw string, publicBases []string, bucket string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	for _, base := range publicBases {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if base == "" {
			continue
		}
		if strings.HasPrefix(trimmed, base+"/") {
			return strings.TrimLeft(strings.TrimPrefix(trimmed, base), "/")
		}
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return strings.TrimLeft(trimmed, "/")
		}
		key := strings.TrimLeft(parsed.Path, "/")
		if bucket != "" && strings.HasPrefix(key, bucket+"/") {
			key = strings.TrimPrefix(key, bucket+"/")
		}
		return key
	}

	return strings.TrimLeft(trimmed, "/")
}
