package imageio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go-imaging-assistant/internal/analyzer"
	apperrors "go-imaging-assistant/internal/errors"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Decoder turns uploaded bytes into an analyzer.DecodedImage
type Decoder interface {
	Decode(ctx context.Context, data []byte) (analyzer.DecodedImage, error)
	Format(data []byte) string
}

// DefaultMaxPixels bounds the decoded raster at 50 megapixels
const DefaultMaxPixels = 50_000_000

type decoder struct {
	maxPixels int
}

// NewDecoder creates a decoder for PNG, JPEG, GIF, BMP and TIFF
func NewDecoder() Decoder {
	return NewDecoderWithLimit(DefaultMaxPixels)
}

// NewDecoderWithLimit creates a decoder that rejects images whose header
// declares more than maxPixels pixels. A non-positive limit selects
// DefaultMaxPixels.
func NewDecoderWithLimit(maxPixels int) Decoder {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return decoder{maxPixels: maxPixels}
}

// Decode keeps the concrete image type the format decoder produced, so the
// colour mode reflects the file and not a normalised copy
func (d decoder) Decode(ctx context.Context, data []byte) (analyzer.DecodedImage, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return analyzer.DecodedImage{}, apperrors.NewTimeoutError("image decoding timed out", err)
		}
		return analyzer.DecodedImage{}, apperrors.NewProcessingError("image decoding cancelled", err)
	}

	if len(data) == 0 {
		return analyzer.DecodedImage{}, apperrors.NewInvalidImageError("image has no data", nil)
	}

	// The header is checked first so a small compressed file cannot expand
	// into an arbitrarily large raster
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return analyzer.DecodedImage{}, apperrors.NewInvalidImageError("unable to decode image", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return analyzer.DecodedImage{}, apperrors.NewInvalidImageError("image has zero area", nil).
			WithDetails(fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(d.maxPixels) {
		return analyzer.DecodedImage{}, apperrors.NewPayloadTooLargeError("Image dimensions too large", nil).
			WithDetails(fmt.Sprintf("%dx%d exceeds the limit of %d pixels", cfg.Width, cfg.Height, d.maxPixels))
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return analyzer.DecodedImage{}, apperrors.NewInvalidImageError("unable to decode image", err)
	}

	return analyzer.NewDecodedImage(img)
}

// Format returns the registered format name ("png", "jpeg", ...) or "" when
// the header is not recognised
func (decoder) Format(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return format
}
