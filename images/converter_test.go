package images

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodePNG(t *testing.T, b64 string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestConvertRawGray(t *testing.T) {
	data := make([]byte, 25*20)
	for i := range data {
		data[i] = byte(i)
	}
	ic := ImageContainer{ImageData: data, Width: 25, Height: 20}

	out, err := ic.ConvertToPNG()
	require.NoError(t, err)
	img := decodePNG(t, out)
	require.Equal(t, 25, img.Bounds().Dx())
	require.Equal(t, 20, img.Bounds().Dy())
}

func TestConvertRawRGB(t *testing.T) {
	data := bytes.Repeat([]byte{0xFF, 0x00, 0x00}, 4*3)
	ic := ImageContainer{ImageData: data, Width: 4, Height: 3}

	out, err := ic.ConvertToPNG()
	require.NoError(t, err)
	img := decodePNG(t, out)
	require.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
}

func TestConvertEmbeddedJPEGIsResized(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 600))
	for x := 0; x < 800; x++ {
		for y := 0; y < 600; y++ {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	// leading header bytes before the JPEG stream
	data := append([]byte{0x49, 0x04, 0x00}, buf.Bytes()...)
	ic := ImageContainer{ImageData: data, Width: 800, Height: 600}

	out, err := ic.ConvertToPNG()
	require.NoError(t, err)
	img := decodePNG(t, out)
	require.Equal(t, MaxPhotoWidth, img.Bounds().Dx())
	require.Equal(t, 300, img.Bounds().Dy())
}

func TestConvertUnsupported(t *testing.T) {
	tests := []struct {
		name string
		ic   ImageContainer
	}{
		{"empty", ImageContainer{}},
		{"size mismatch", ImageContainer{ImageData: make([]byte, 543), Width: 250, Height: 200}},
		{"no dimensions", ImageContainer{ImageData: make([]byte, 100)}},
		{"broken jpeg", ImageContainer{ImageData: []byte{0xFF, 0xD8, 0xFF, 0x00, 0x01}, Width: 10, Height: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.ic.ConvertToPNG()
			require.Error(t, err)
		})
	}
}

func TestResizeToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	require.Equal(t, src, resizeToFit(src, 200, 200))
	require.Equal(t, image.Rect(0, 0, 50, 25), resizeToFit(src, 50, 0).Bounds())
	require.Equal(t, image.Rect(0, 0, 20, 10), resizeToFit(src, 0, 10).Bounds())
}
