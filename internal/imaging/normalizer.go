package imaging

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/disintegration/imaging"

	// Register decoders for the legacy microscopy formats we normalize
	// away, plus webp which browsers render but Go needs a decoder for.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// CanonicalExt is the extension of the one lossless format every stored
// asset and preview is normalized into.
const CanonicalExt = ".png"

const (
	thumbWidth  = 200
	thumbHeight = 200
)

// webRenderable formats are stored as uploaded; everything in convertible
// is re-encoded to PNG before a row is written.
var webRenderable = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

var convertible = map[string]bool{
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// Normalizer converts legacy raster formats to the canonical PNG encoding
// and derives fixed-size previews.
type Normalizer struct {
	maxPixels int64
}

func NewNormalizer(maxPixels int64) *Normalizer {
	return &Normalizer{maxPixels: maxPixels}
}

// Supported reports whether the extension is one we can ingest at all.
func (n *Normalizer) Supported(ext string) bool {
	ext = strings.ToLower(ext)
	return webRenderable[ext] || convertible[ext]
}

// NeedsConversion reports whether a source with this extension must be
// re-encoded before it can be served to browsers.
func (n *Normalizer) NeedsConversion(ext string) bool {
	return convertible[strings.ToLower(ext)]
}

// Convert re-encodes src into canonical PNG at dst, preserving full color
// depth at the best still-lossless compression. On success exactly one new
// file exists; on failure any partial output is removed before returning.
func (n *Normalizer) Convert(src, dst string) error {
	if err := n.checkDecodable(src); err != nil {
		return err
	}

	img, err := imaging.Open(src)
	if err != nil {
		return newProcessError(src, err)
	}

	if err := imaging.Save(img, dst, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		_ = os.Remove(dst)
		return newProcessError(src, err)
	}
	return nil
}

// Thumbnail writes a bounded-box preview of src to dst, always PNG so
// preview consumers need a single decoder regardless of source format.
func (n *Normalizer) Thumbnail(src, dst string) error {
	img, err := imaging.Open(src)
	if err != nil {
		return newProcessError(src, err)
	}

	thumb := imaging.Fit(img, thumbWidth, thumbHeight, imaging.Lanczos)
	if err := imaging.Save(thumb, dst, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		_ = os.Remove(dst)
		return newProcessError(src, err)
	}
	return nil
}

// checkDecodable reads only the header so oversized scans are refused
// before the full pixel data is allocated.
func (n *Normalizer) checkDecodable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &ProcessError{Kind: FailureGeneric, Path: path, Err: err}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return &ProcessError{Kind: FailureUnsupported, Path: path, Err: err}
	}
	if px := int64(cfg.Width) * int64(cfg.Height); n.maxPixels > 0 && px > n.maxPixels {
		return &ProcessError{
			Kind: FailureTooLarge,
			Path: path,
			Err:  fmt.Errorf("%dx%d exceeds the %d pixel limit", cfg.Width, cfg.Height, n.maxPixels),
		}
	}
	return nil
}
