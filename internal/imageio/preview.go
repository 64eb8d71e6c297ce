package imageio

import (
	"bytes"
	"encoding/base64"
	"image"

	apperrors "go-imaging-assistant/internal/errors"

	"github.com/disintegration/imaging"
)

const (
	previewMaxWidth  = 128
	previewMaxHeight = 128
	truncationSuffix = "..."
)

// Preview renders a thumbnail no larger than 128x128 as base64 PNG. When
// maxChars > 0 the encoding is cut to maxChars characters followed by "...".
func Preview(img image.Image, maxChars int) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", apperrors.NewInvalidImageError("image has no pixel data", nil)
	}

	thumb := imaging.Fit(img, previewMaxWidth, previewMaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return "", apperrors.NewProcessingError("failed to encode preview", err)
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	if maxChars > 0 && len(encoded) > maxChars {
		return encoded[:maxChars] + truncationSuffix, nil
	}
	return encoded, nil
}
