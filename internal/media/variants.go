package media

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// tier describes one derived rendition size. Width and height are upper
// bounds; the source aspect ratio is always preserved.
type tier struct {
	Name      string
	MaxWidth  int
	MaxHeight int
	Quality   int
}

var variantTiers = []tier{
	{Name: "thumbnail", MaxWidth: 200, MaxHeight: 200, Quality: 80},
	{Name: "small", MaxWidth: 450, MaxHeight: 450, Quality: 85},
	{Name: "medium", MaxWidth: 800, MaxHeight: 800, Quality: 85},
	{Name: "large", MaxWidth: 1920, MaxHeight: 1080, Quality: 90},
}

const maxImageDimension = 100_000_000

// Variant is a generated rendition ready for upload.
type Variant struct {
	Type        string
	Data        []byte
	Width       int
	Height      int
	FileSize    int64
	ContentType string
	Ext         string
}

// SupportedMimeTypes lists the image types the pipeline can process.
var supportedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// IsSupportedImage reports whether the MIME type can go through the
// variant pipeline.
func IsSupportedImage(mimeType string) bool {
	_, ok := supportedMimeTypes[mimeType]
	return ok
}

// VariantTypes returns the tier names in generation order.
func VariantTypes() []string {
	names := make([]string, 0, len(variantTiers))
	for _, t := range variantTiers {
		names = append(names, t.Name)
	}
	return names
}

// ProbeDimensions decodes just enough of the image to read its size.
func ProbeDimensions(data []byte, mimeType string) (width, height int, ok bool) {
	if !IsSupportedImage(mimeType) {
		return 0, 0, false
	}
	img, err := decodeImage(data, mimeType)
	if err != nil {
		return 0, 0, false
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), true
}

// GenerateVariants produces resized renditions of the source image. Tiers
// the source already fits inside are skipped, so small images yield fewer
// variants and never get upscaled. Undecodable input yields an empty list
// rather than an error.
func GenerateVariants(data []byte, mimeType string) ([]Variant, error) {
	if !IsSupportedImage(mimeType) {
		return nil, nil
	}
	src, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, nil
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 || srcW >= maxImageDimension || srcH >= maxImageDimension {
		return nil, nil
	}

	outMime, outExt := outputFormat(mimeType)

	var variants []Variant
	for _, t := range variantTiers {
		if srcW <= t.MaxWidth && srcH <= t.MaxHeight {
			continue
		}
		dstW, dstH := fitWithin(srcW, srcH, t.MaxWidth, t.MaxHeight)
		scaled := scaleImage(src, dstW, dstH)

		encoded, err := encodeImage(scaled, outMime, t.Quality)
		if err != nil {
			return nil, err
		}
		variants = append(variants, Variant{
			Type:        t.Name,
			Data:        encoded,
			Width:       dstW,
			Height:      dstH,
			FileSize:    int64(len(encoded)),
			ContentType: outMime,
			Ext:         outExt,
		})
	}
	return variants, nil
}

func decodeImage(data []byte, mimeType string) (image.Image, error) {
	reader := bytes.NewReader(data)
	switch mimeType {
	case "image/jpeg":
		return jpeg.Decode(reader)
	case "image/png":
		return png.Decode(reader)
	case "image/gif":
		return gif.Decode(reader)
	case "image/webp":
		return webp.Decode(reader)
	default:
		img, _, err := image.Decode(reader)
		return img, err
	}
}

// outputFormat maps the source type to the rendition encoding. WEBP sources
// re-encode as JPEG since no WEBP encoder is available.
func outputFormat(mimeType string) (outMime, ext string) {
	switch mimeType {
	case "image/png":
		return "image/png", ".png"
	case "image/gif":
		return "image/gif", ".gif"
	default:
		return "image/jpeg", ".jpg"
	}
}

// fitWithin shrinks src dimensions to fit both bounds, keeping aspect
// ratio. Result dimensions are always at least 1.
func fitWithin(srcW, srcH, maxW, maxH int) (int, int) {
	scaleW := float64(maxW) / float64(srcW)
	scaleH := float64(maxH) / float64(srcH)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	if scale >= 1 {
		return srcW, srcH
	}
	w := int(float64(srcW) * scale)
	h := int(float64(srcH) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func scaleImage(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

func encodeImage(img *image.RGBA, mimeType string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch mimeType {
	case "image/png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "image/gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		// Flatten any alpha onto white before lossy encoding.
		flattened := flattenAlpha(img)
		if err := jpeg.Encode(&buf, flattened, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func flattenAlpha(img *image.RGBA) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, bounds.Min, draw.Over)
	return out
}
