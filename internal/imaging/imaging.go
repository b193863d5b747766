// Package imaging decodes uploaded pictures and applies the quarter-turn
// rotations offered before a table is extracted from them.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	// Registered decoders for image.Decode.
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decode reads a PNG, JPEG or WebP image and reports its format name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// NormalizeAngle folds any angle into [0, 360).
func NormalizeAngle(angle int) int {
	angle %= 360
	if angle < 0 {
		angle += 360
	}
	return angle
}

// NextAngle advances a rotation by one quarter turn.
func NextAngle(angle int) int {
	return NormalizeAngle(angle + 90)
}

// Rotate turns img counter-clockwise by angle degrees. The canvas grows to
// keep the whole picture, so 90 and 270 swap width and height. Angles that
// are not a multiple of 90 are rounded down to one.
func Rotate(img image.Image, angle int) image.Image {
	angle = NormalizeAngle(angle) / 90 * 90
	if angle == 0 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	if angle == 180 {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			switch angle {
			case 90:
				dst.Set(y, w-1-x, c)
			case 180:
				dst.Set(w-1-x, h-1-y, c)
			case 270:
				dst.Set(h-1-y, x, c)
			}
		}
	}
	return dst
}

// Preview scales img down so it is at most maxWidth pixels wide.
func Preview(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// EncodePNG serialises img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
