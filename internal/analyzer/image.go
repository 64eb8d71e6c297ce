package analyzer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	apperrors "go-imaging-assistant/internal/errors"
)

// ColorModeKind is the closed set of colour layouts the analyzer distinguishes
type ColorModeKind int

const (
	ColorModeOther ColorModeKind = iota
	ColorModeGrayscale
	ColorModeRGB
)

// ColorMode describes how a decoded image stores its channels. Label carries
// the raw mode name (e.g. "L", "RGB", "P") and is what gets reported for
// ColorModeOther.
type ColorMode struct {
	Kind  ColorModeKind
	Label string
}

// GrayscaleMode returns the single-channel mode
func GrayscaleMode() ColorMode {
	return ColorMode{Kind: ColorModeGrayscale, Label: "L"}
}

// RGBMode returns the three-channel colour mode
func RGBMode() ColorMode {
	return ColorMode{Kind: ColorModeRGB, Label: "RGB"}
}

// OtherMode returns a mode that is neither grayscale nor plain RGB
func OtherMode(label string) ColorMode {
	return ColorMode{Kind: ColorModeOther, Label: label}
}

func (m ColorMode) String() string {
	return m.Label
}

// ColorModeOf maps the concrete decoded image type to a ColorMode
func ColorModeOf(img image.Image) ColorMode {
	switch img.(type) {
	case *image.Gray:
		return GrayscaleMode()
	case *image.Gray16:
		return ColorMode{Kind: ColorModeGrayscale, Label: "I;16"}
	case *image.RGBA, *image.RGBA64, *image.YCbCr:
		return RGBMode()
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return OtherMode("RGBA")
	case *image.Paletted:
		return OtherMode("P")
	case *image.CMYK:
		return OtherMode("CMYK")
	case *image.Alpha, *image.Alpha16:
		return OtherMode("A")
	default:
		return OtherMode("unknown")
	}
}

// DecodedImage is an already-decoded raster plus the metadata the pipeline
// reads. The raster is borrowed: nothing in this package writes to it.
type DecodedImage struct {
	Width  int
	Height int
	Mode   ColorMode
	Raster image.Image
}

// NewDecodedImage wraps a decoded raster, deriving dimensions and colour mode
// from it.
func NewDecodedImage(img image.Image) (DecodedImage, error) {
	if img == nil {
		return DecodedImage{}, apperrors.NewInvalidImageError("image has no pixel data", nil)
	}

	bounds := img.Bounds()
	decoded := DecodedImage{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Mode:   ColorModeOf(img),
		Raster: img,
	}
	if err := decoded.Validate(); err != nil {
		return DecodedImage{}, err
	}
	return decoded, nil
}

// Validate checks the invariants the analyzers rely on: positive area, a
// raster whose bounds agree with the metadata, and a non-empty pixel buffer.
func (d DecodedImage) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return apperrors.NewInvalidImageError("image has zero area", nil).
			WithDetails(fmt.Sprintf("%dx%d", d.Width, d.Height))
	}
	if d.Raster == nil || !hasPixelData(d.Raster) {
		return apperrors.NewInvalidImageError("image has no pixel data", nil)
	}

	bounds := d.Raster.Bounds()
	if bounds.Dx() != d.Width || bounds.Dy() != d.Height {
		return apperrors.NewInvalidImageError("image metadata does not match pixel data", nil).
			WithDetails(fmt.Sprintf("declared %dx%d, raster %dx%d", d.Width, d.Height, bounds.Dx(), bounds.Dy()))
	}
	return nil
}

// PixelCount returns width × height
func (d DecodedImage) PixelCount() int {
	return d.Width * d.Height
}

// Intensities returns the single-channel view of the raster. Grayscale rasters
// are returned as-is and must be treated as read-only; everything else is
// reduced with color.GrayModel (BT.601 luma, 0-255). Alpha is ignored: each
// pixel contributes its straight colour as if it were opaque.
func (d DecodedImage) Intensities() *image.Gray {
	if gray, ok := d.Raster.(*image.Gray); ok {
		return gray
	}

	bounds := d.Raster.Bounds()
	gray := image.NewGray(bounds)

	if o, ok := d.Raster.(interface{ Opaque() bool }); ok && o.Opaque() {
		draw.Draw(gray, bounds, d.Raster, bounds.Min, draw.Src)
		return gray
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(d.Raster.At(x, y)).(color.NRGBA)
			c.A = 0xff
			gray.SetGray(x, y, color.GrayModel.Convert(c).(color.Gray))
		}
	}
	return gray
}

// hasPixelData rejects rasters whose backing buffer is empty or shorter than
// their bounds require
func hasPixelData(img image.Image) bool {
	bounds := img.Bounds()
	if bounds.Empty() {
		return false
	}

	switch p := img.(type) {
	case *image.Gray:
		return len(p.Pix) >= p.Stride*(bounds.Dy()-1)+bounds.Dx()
	case *image.Gray16:
		return len(p.Pix) >= p.Stride*(bounds.Dy()-1)+2*bounds.Dx()
	case *image.RGBA:
		return len(p.Pix) >= p.Stride*(bounds.Dy()-1)+4*bounds.Dx()
	case *image.NRGBA:
		return len(p.Pix) >= p.Stride*(bounds.Dy()-1)+4*bounds.Dx()
	case *image.RGBA64:
		return len(p.Pix) >= p.Stride*(bounds.Dy()-1)+8*bounds.Dx()
	case *image.NRGBA64:
		return len(p.Pix) >= p.Stride*(bounds.Dy()-1)+8*bounds.Dx()
	case *image.Paletted:
		return len(p.Pix) >= p.Stride*(bounds.Dy()-1)+bounds.Dx()
	case *image.CMYK:
		return len(p.Pix) >= p.Stride*(bounds.Dy()-1)+4*bounds.Dx()
	case *image.YCbCr:
		return len(p.Y) > 0
	case *image.NYCbCrA:
		return len(p.Y) > 0 && len(p.A) > 0
	default:
		return true
	}
}
