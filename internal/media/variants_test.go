package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y += 16 {
		for x := 0; x < width; x += 16 {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestGenerateVariantsLargeImageYieldsAllTiers(t *testing.T) {
	data := encodeTestJPEG(t, 4000, 3000)

	variants, err := GenerateVariants(data, "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(variants) != len(variantTiers) {
		t.Fatalf("expected %d variants, got %d", len(variantTiers), len(variants))
	}

	byType := make(map[string]Variant, len(variants))
	for _, v := range variants {
		byType[v.Type] = v
	}

	thumb, ok := byType["thumbnail"]
	if !ok {
		t.Fatal("expected thumbnail variant")
	}
	if thumb.Width > 200 || thumb.Height > 200 {
		t.Fatalf("thumbnail exceeds bounds: %dx%d", thumb.Width, thumb.Height)
	}
	// 4000x3000 source: width is the binding dimension for 200x200.
	if thumb.Width != 200 || thumb.Height != 150 {
		t.Fatalf("expected 200x150 thumbnail, got %dx%d", thumb.Width, thumb.Height)
	}

	large, ok := byType["large"]
	if !ok {
		t.Fatal("expected large variant")
	}
	if large.Width > 1920 || large.Height > 1080 {
		t.Fatalf("large exceeds bounds: %dx%d", large.Width, large.Height)
	}

	for _, v := range variants {
		if v.ContentType != "image/jpeg" || v.Ext != ".jpg" {
			t.Fatalf("expected jpeg output, got %s %s", v.ContentType, v.Ext)
		}
		if v.FileSize != int64(len(v.Data)) || v.FileSize == 0 {
			t.Fatalf("inconsistent variant size for %s", v.Type)
		}
	}
}

func TestGenerateVariantsSkipsFittingTiers(t *testing.T) {
	data := encodeTestJPEG(t, 300, 300)

	variants, err := GenerateVariants(data, "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 300x300 fits inside small, medium, and large. Only thumbnail remains.
	if len(variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(variants))
	}
	if variants[0].Type != "thumbnail" {
		t.Fatalf("expected thumbnail, got %s", variants[0].Type)
	}
}

func TestGenerateVariantsNeverUpscales(t *testing.T) {
	data := encodeTestJPEG(t, 100, 100)

	variants, err := GenerateVariants(data, "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(variants) != 0 {
		t.Fatalf("expected no variants for a 100x100 source, got %d", len(variants))
	}
}

func TestGenerateVariantsCorruptDataIsEmpty(t *testing.T) {
	variants, err := GenerateVariants([]byte("not an image"), "image/jpeg")
	if err != nil {
		t.Fatalf("expected nil error for corrupt input, got %v", err)
	}
	if len(variants) != 0 {
		t.Fatalf("expected no variants, got %d", len(variants))
	}
}

func TestGenerateVariantsUnsupportedType(t *testing.T) {
	variants, err := GenerateVariants([]byte{1, 2, 3}, "application/pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if variants != nil {
		t.Fatal("expected nil variants for unsupported type")
	}
}

func TestGenerateVariantsPNGKeepsFormat(t *testing.T) {
	data := encodeTestPNG(t, 600, 400)

	variants, err := GenerateVariants(data, "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(variants) == 0 {
		t.Fatal("expected variants for 600x400 png")
	}
	for _, v := range variants {
		if v.ContentType != "image/png" || v.Ext != ".png" {
			t.Fatalf("expected png output, got %s %s", v.ContentType, v.Ext)
		}
	}
}

func TestProbeDimensions(t *testing.T) {
	data := encodeTestJPEG(t, 640, 480)

	width, height, ok := ProbeDimensions(data, "image/jpeg")
	if !ok {
		t.Fatal("expected probe to succeed")
	}
	if width != 640 || height != 480 {
		t.Fatalf("expected 640x480, got %dx%d", width, height)
	}

	if _, _, ok := ProbeDimensions([]byte("garbage"), "image/jpeg"); ok {
		t.Fatal("expected probe to fail for corrupt data")
	}
	if _, _, ok := ProbeDimensions(data, "text/plain"); ok {
		t.Fatal("expected probe to fail for unsupported type")
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name                 string
		srcW, srcH           int
		maxW, maxH           int
		expectedW, expectedH int
	}{
		{name: "landscape bound by width", srcW: 4000, srcH: 3000, maxW: 200, maxH: 200, expectedW: 200, expectedH: 150},
		{name: "portrait bound by height", srcW: 1000, srcH: 2000, maxW: 450, maxH: 450, expectedW: 225, expectedH: 450},
		{name: "wide bound by height", srcW: 3840, srcH: 2160, maxW: 1920, maxH: 1080, expectedW: 1920, expectedH: 1080},
		{name: "already fits", srcW: 100, srcH: 80, maxW: 200, maxH: 200, expectedW: 100, expectedH: 80},
		{name: "extreme ratio floors at one", srcW: 10000, srcH: 2, maxW: 200, maxH: 200, expectedW: 200, expectedH: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitWithin(tt.srcW, tt.srcH, tt.maxW, tt.maxH)
			if w != tt.expectedW || h != tt.expectedH {
				t.Fatalf("expected %dx%d, got %dx%d", tt.expectedW, tt.expectedH, w, h)
			}
		})
	}
}

func TestIsSupportedImage(t *testing.T) {
	for _, mime := range []string{"image/jpeg", "image/png", "image/webp", "image/gif"} {
		if !IsSupportedImage(mime) {
			t.Fatalf("expected %s to be supported", mime)
		}
	}
	for _, mime := range []string{"image/tiff", "application/pdf", ""} {
		if IsSupportedImage(mime) {
			t.Fatalf("expected %s to be unsupported", mime)
		}
	}
}
