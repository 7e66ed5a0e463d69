package imaging

import (
	"image"
	"os"
	"path/filepath"
	"strings"
)

// Probe returns the intrinsic width, height and detected format of the file
// at path. Metadata is advisory: content the decoders cannot fully parse
// degrades to zero dimensions and an extension-derived format label instead
// of an error, so a probe failure never blocks ingestion.
func Probe(path string) (width, height int, format string) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, formatFromExt(path)
	}
	defer f.Close()

	cfg, detected, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, formatFromExt(path)
	}
	return cfg.Width, cfg.Height, detected
}

func formatFromExt(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	if ext == "jpg" {
		return "jpeg"
	}
	if ext == "tif" {
		return "tiff"
	}
	return ext
}
