package imageio

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"testing"
	"time"

	"go-imaging-assistant/internal/analyzer"
	apperrors "go-imaging-assistant/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func grayRaster(width, height int, value uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

func rgbaRaster(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodeWith(t *testing.T, encode func(*bytes.Buffer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, encode(&buf))
	return buf.Bytes()
}

func TestDecode_Formats(t *testing.T) {
	gray := grayRaster(20, 10, 128)
	rgba := rgbaRaster(20, 10, color.RGBA{200, 10, 10, 255})

	tests := []struct {
		name       string
		data       []byte
		wantKind   analyzer.ColorModeKind
		wantLabel  string
		wantFormat string
	}{
		{
			name:       "png grayscale",
			data:       encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, gray) }),
			wantKind:   analyzer.ColorModeGrayscale,
			wantLabel:  "L",
			wantFormat: "png",
		},
		{
			name:       "png opaque colour",
			data:       encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, rgba) }),
			wantKind:   analyzer.ColorModeRGB,
			wantLabel:  "RGB",
			wantFormat: "png",
		},
		{
			name:       "jpeg colour",
			data:       encodeWith(t, func(b *bytes.Buffer) error { return jpeg.Encode(b, rgba, nil) }),
			wantKind:   analyzer.ColorModeRGB,
			wantLabel:  "RGB",
			wantFormat: "jpeg",
		},
		{
			name:       "jpeg grayscale",
			data:       encodeWith(t, func(b *bytes.Buffer) error { return jpeg.Encode(b, gray, nil) }),
			wantKind:   analyzer.ColorModeGrayscale,
			wantLabel:  "L",
			wantFormat: "jpeg",
		},
		{
			name:       "gif palette",
			data:       encodeWith(t, func(b *bytes.Buffer) error { return gif.Encode(b, rgba, nil) }),
			wantKind:   analyzer.ColorModeOther,
			wantLabel:  "P",
			wantFormat: "gif",
		},
		{
			name:       "bmp colour",
			data:       encodeWith(t, func(b *bytes.Buffer) error { return bmp.Encode(b, rgba) }),
			wantKind:   analyzer.ColorModeRGB,
			wantLabel:  "RGB",
			wantFormat: "bmp",
		},
		{
			name:       "tiff grayscale",
			data:       encodeWith(t, func(b *bytes.Buffer) error { return tiff.Encode(b, gray, nil) }),
			wantKind:   analyzer.ColorModeGrayscale,
			wantLabel:  "L",
			wantFormat: "tiff",
		},
	}

	d := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := d.Decode(context.Background(), tt.data)
			require.NoError(t, err)

			assert.Equal(t, 20, decoded.Width)
			assert.Equal(t, 10, decoded.Height)
			assert.Equal(t, tt.wantKind, decoded.Mode.Kind)
			assert.Equal(t, tt.wantLabel, decoded.Mode.Label)
			assert.Equal(t, tt.wantFormat, d.Format(tt.data))
		})
	}
}

func TestDecode_TransparentPNGIsOtherMode(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	nrgba.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 128})

	data := encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, nrgba) })
	decoded, err := NewDecoder().Decode(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, analyzer.OtherMode("RGBA"), decoded.Mode)
}

func TestDecode_InvalidData(t *testing.T) {
	d := NewDecoder()

	for name, data := range map[string][]byte{
		"empty":     {},
		"nil":       nil,
		"text":      []byte("definitely not an image"),
		"truncated": encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, grayRaster(8, 8, 1)) })[:20],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := d.Decode(context.Background(), data)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidImage))
		})
	}
}

func TestDecode_ExpiredContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	data := encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, grayRaster(2, 2, 0)) })
	_, err := NewDecoder().Decode(ctx, data)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))
}

func TestFormat_Unknown(t *testing.T) {
	assert.Equal(t, "", NewDecoder().Format([]byte("nope")))
}

// withPNGDimensions rewrites the IHDR chunk so the header declares
// width x height while the compressed payload stays tiny
func withPNGDimensions(t *testing.T, data []byte, width, height uint32) []byte {
	t.Helper()
	require.Equal(t, "IHDR", string(data[12:16]))

	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecode_RejectsOversizedHeader(t *testing.T) {
	small := encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, grayRaster(8, 8, 0)) })
	huge := withPNGDimensions(t, small, 12000, 12000)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(huge))
	require.NoError(t, err)
	require.Equal(t, 12000, cfg.Width)

	_, err = NewDecoder().Decode(context.Background(), huge)
	require.Error(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apperrors.GetStatusCode(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDecode_PixelLimit(t *testing.T) {
	data := encodeWith(t, func(b *bytes.Buffer) error { return png.Encode(b, grayRaster(20, 10, 7)) })

	_, err := NewDecoderWithLimit(200).Decode(context.Background(), data)
	require.NoError(t, err)

	_, err = NewDecoderWithLimit(199).Decode(context.Background(), data)
	require.Error(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apperrors.GetStatusCode(err))

	_, err = NewDecoderWithLimit(0).Decode(context.Background(), data)
	require.NoError(t, err)
}
