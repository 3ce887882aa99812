package images

import (
	"fmt"
	"image/png"
	"log/slog"
)

// Maximum PNG box for converted photos.
const (
	MaxPhotoWidth  = 400
	MaxPhotoHeight = 400
)

// ImageContainer holds the photo bytes of a licence and the dimensions
// declared in the licence image header.
type ImageContainer struct {
	ImageData []byte
	Width     int
	Height    int
}

// ConvertToPNG decodes the photo and returns it as a base64 PNG.
func (ic *ImageContainer) ConvertToPNG() (string, error) {
	if len(ic.ImageData) == 0 {
		return "", fmt.Errorf("no image data provided")
	}

	slog.Debug("Converting licence photo to PNG", "data_size", len(ic.ImageData), "width", ic.Width, "height", ic.Height)

	img, format, err := decodeImage(ic.ImageData, ic.Width, ic.Height)
	if err != nil {
		slog.Debug("Failed to decode licence photo", "error", err)
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	slog.Debug("Licence photo decoded", "format", format, "width", bounds.Dx(), "height", bounds.Dy())

	base64Str, err := convertImageToPNGBase64(img, MaxPhotoWidth, MaxPhotoHeight, 256, png.BestCompression)
	if err != nil {
		return "", fmt.Errorf("failed to convert to PNG: %w", err)
	}

	slog.Debug("Licence photo converted to PNG", "base64_length", len(base64Str))
	return base64Str, nil
}
