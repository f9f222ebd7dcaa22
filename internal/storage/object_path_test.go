package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestBuildObjectKeyLayout(t *testing.T) {
	key, storedName := BuildObjectKey("media", "Summer Photo.JPG")

	now := time.Now().UTC()
	wantPrefix := fmt.Sprintf("media/%04d/%02d/", now.Year(), now.Month())
	if !strings.HasPrefix(key, wantPrefix) {
		t.Fatalf("expected key under %q, got %q", wantPrefix, key)
	}
	if path.Base(key) != storedName {
		t.Fatalf("stored name %q is not the last key segment of %q", storedName, key)
	}

	pattern := regexp.MustCompile(`^[0-9a-f]{8}_summer-photo\.jpg$`)
	if !pattern.MatchString(storedName) {
		t.Fatalf("unexpected stored name %q", storedName)
	}
}

func TestBuildObjectKeyUniqueness(t *testing.T) {
	first, _ := BuildObjectKey("media", "a.png")
	second, _ := BuildObjectKey("media", "a.png")
	if first == second {
		t.Fatalf("expected distinct keys for repeated names, got %q twice", first)
	}
}

func TestBuildObjectKeyHostileNames(t *testing.T) {
	key, storedName := BuildObjectKey("media", "../../etc/passwd")
	if strings.Contains(key, "..") {
		t.Fatalf("traversal survived sanitisation: %q", key)
	}
	if storedName == "" {
		t.Fatal("expected a stored name")
	}

	key, storedName = BuildObjectKey("media", "")
	if !strings.HasSuffix(storedName, "_file.bin") {
		t.Fatalf("expected fallback name, got %q", storedName)
	}
	if strings.Contains(key, "//") {
		t.Fatalf("malformed key %q", key)
	}
}

func TestVariantObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		original string
		tier     string
		ext      string
		expected string
	}{
		{
			name:     "same extension",
			original: "media/2026/01/abcd1234_photo.jpg",
			tier:     "thumbnail",
			ext:      ".jpg",
			expected: "media/2026/01/thumbnail_abcd1234_photo.jpg",
		},
		{
			name:     "webp source re-encoded as jpeg",
			original: "media/2026/01/abcd1234_photo.webp",
			tier:     "small",
			ext:      ".jpg",
			expected: "media/2026/01/small_abcd1234_photo.jpg",
		},
		{
			name:     "extension without dot",
			original: "media/2026/01/abcd1234_img.png",
			tier:     "medium",
			ext:      "png",
			expected: "media/2026/01/medium_abcd1234_img.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VariantObjectKey(tt.original, tt.tier, tt.ext)
			if got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizeKeyOrURL(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		publicBases []string
		bucket      string
		expected    string
	}{
		{
			name:     "bare key passes through",
			raw:      "media/2026/01/abc_x.jpg",
			expected: "media/2026/01/abc_x.jpg",
		},
		{
			name:        "known public base stripped",
			raw:         "https://cdn.example.com/media/2026/01/abc_x.jpg",
			publicBases: []string{"https://cdn.example.com"},
			expected:    "media/2026/01/abc_x.jpg",
		},
		{
			name:        "relative public base stripped",
			raw:         "/uploads/media/2026/01/abc_x.jpg",
			publicBases: []string{"/uploads"},
			expected:    "media/2026/01/abc_x.jpg",
		},
		{
			name:     "unknown host falls back to url path",
			raw:      "https://storage.example.com/mybucket/media/2026/01/abc_x.jpg",
			bucket:   "mybucket",
			expected: "media/2026/01/abc_x.jpg",
		},
		{
			name:     "unknown host without bucket keeps path",
			raw:      "https://storage.example.com/media/2026/01/abc_x.jpg",
			expected: "media/2026/01/abc_x.jpg",
		},
		{
			name:     "leading slash trimmed",
			raw:      "/media/2026/01/abc_x.jpg",
			expected: "media/2026/01/abc_x.jpg",
		},
		{
			name:     "empty input",
			raw:      "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeKeyOrURL(tt.raw, tt.publicBases, tt.bucket)
			if got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
