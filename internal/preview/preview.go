// Package preview renders small preview images for completed items.
// A preview is the item's display handle: a file the caller can show
// and that is removed when the item is discarded.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const maxEdge = 256

// Write decodes data, fits it inside a 256x256 box preserving aspect
// ratio and saves it as a JPEG named after stem in dir. It returns the
// written path.
func Write(dir, stem string, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("preview: decode failed: %w", err)
	}

	thumb := imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("preview: %w", err)
	}

	path := filepath.Join(dir, stem+".preview.jpg")
	if err := imaging.Save(thumb, path, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("preview: save failed: %w", err)
	}
	return path, nil
}

// Decodable reports whether data can be decoded for previewing.
func Decodable(data []byte) bool {
	_, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}
