package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"pault.ag/go/cbeff/jpeg2000"
)

var errUnsupportedImage = errors.New("unsupported or invalid image format")

var sigs = []struct {
	sig []byte
	ext string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "jpg"}, // JPEG SOI
	{[]byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', ' ', ' ', 0x0D, 0x0A, 0x87, 0x0A}, "jp2"}, // JP2 signature box
	{[]byte{0xFF, 0x4F, 0xFF, 0x51}, "j2k"},                                             // JPEG 2000 codestream
}

// decodeImage tries, in order, an embedded JPEG or JPEG 2000 stream and
// raw 8-bit grayscale or RGB pixels of exactly width x height.
func decodeImage(data []byte, width, height int) (image.Image, string, error) {
	for _, s := range sigs {
		start := bytes.Index(data, s.sig)
		if start < 0 {
			continue
		}
		chunk := data[start:]
		if s.ext == "jpg" {
			// Trim to EOI if present for cleaner decoding.
			if eoi := bytes.LastIndex(chunk, []byte{0xFF, 0xD9}); eoi >= 0 {
				chunk = chunk[:eoi+2]
			}
		}
		if img, err := decodeToImage(chunk, s.ext); err == nil {
			return img, s.ext, nil
		}
	}

	if width > 0 && height > 0 {
		switch len(data) {
		case width * height:
			return rawGray(data, width, height), "gray", nil
		case width * height * 3:
			return rawRGB(data, width, height), "rgb", nil
		}
	}

	return nil, "", errUnsupportedImage
}

func decodeToImage(b []byte, ext string) (image.Image, error) {
	switch ext {
	case "jpg":
		return jpeg.Decode(bytes.NewReader(b))
	case "jp2", "j2k":
		return jpeg2000.Parse(b)
	}
	return nil, errUnsupportedImage
}

func rawGray(data []byte, width, height int) image.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	copy(img.Pix, data)
	return img
}

func rawRGB(data []byte, width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Set(i%width, i/width, color.RGBA{R: data[3*i], G: data[3*i+1], B: data[3*i+2], A: 0xFF})
	}
	return img
}

// convertImageToPNGBase64 encodes an image to base64 PNG with optional resize and quantization
//
// maxW/maxH: if >0, the image is downscaled to fit within this box (keeping aspect ratio)
// colors:    if >0, convert to a paletted image (≤256 colors is typical for PNG)
// level:     png.DefaultCompression, png.BestCompression, png.BestSpeed, etc.
func convertImageToPNGBase64(img image.Image, maxW, maxH, colors int, level png.CompressionLevel) (string, error) {
	if maxW > 0 || maxH > 0 {
		img = resizeToFit(img, maxW, maxH)
	}

	var out = img
	if colors > 0 {
		pal := palette.Plan9
		if colors <= 216 {
			pal = palette.WebSafe
		}
		dst := image.NewPaletted(img.Bounds(), pal)
		draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, image.Point{})
		out = dst
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, out); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// resizeToFit scales img to fit within maxW×maxH (keeping aspect ratio)
func resizeToFit(src image.Image, maxW, maxH int) image.Image {
	bw := src.Bounds().Dx()
	bh := src.Bounds().Dy()

	if maxW <= 0 && maxH <= 0 {
		return src
	}
	if maxW <= 0 {
		maxW = int(math.Round(float64(bw) * float64(maxH) / float64(bh)))
	}
	if maxH <= 0 {
		maxH = int(math.Round(float64(bh) * float64(maxW) / float64(bw)))
	}

	scale := math.Min(float64(maxW)/float64(bw), float64(maxH)/float64(bh))
	if scale >= 1.0 {
		return src
	}
	w := int(math.Max(1, math.Round(float64(bw)*scale)))
	h := int(math.Max(1, math.Round(float64(bh)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// CatmullRom = high quality, good for photos/faces
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
