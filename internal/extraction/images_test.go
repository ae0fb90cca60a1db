package extraction

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// Synthetic test images. Slide-like content needs strong low-frequency
// structure so the perceptual hash has something to latch onto; noise images
// give every DCT coefficient substantial energy so two different seeds land
// far apart.

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// slideLikeImage renders four high-contrast quadrants with a mild horizontal
// gradient on top, a stand-in for a projected slide.
func slideLikeImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	quadrant := [4]uint8{230, 40, 90, 180}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			qi := 0
			if x >= w/2 {
				qi++
			}
			if y >= h/2 {
				qi += 2
			}
			v := int(quadrant[qi]) + x*20/w - 10
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(v), G: uint8(v), B: uint8(v), A: 255})
		}
	}
	return img
}

// noiseImage fills the frame with seeded noise on top of a dominant color
// channel: 0 red, 1 green, 2 blue. Distinct seeds give images with nothing
// in common structurally or chromatically.
func noiseImage(w, h int, seed int64, tint int) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var ch [3]uint8
			for i := range ch {
				base := 40
				if i == tint {
					base = 200
				}
				v := base + rng.Intn(56) - 28
				if v < 0 {
					v = 0
				}
				if v > 255 {
					v = 255
				}
				ch[i] = uint8(v)
			}
			img.SetNRGBA(x, y, color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: 255})
		}
	}
	return img
}

func invertImage(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			img.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.NRGBA{
				R: uint8(255 - r>>8),
				G: uint8(255 - g>>8),
				B: uint8(255 - b>>8),
				A: 255,
			})
		}
	}
	return img
}

// invertStrip inverts the leftmost widthFrac of the frame, a stand-in for a
// presenter moving at the edge of the shot.
func invertStrip(src image.Image, widthFrac float64) *image.NRGBA {
	bounds := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	stripW := int(float64(bounds.Dx()) * widthFrac)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			c := color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
			if x-bounds.Min.X < stripW {
				c = color.NRGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: 255}
			}
			img.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, c)
		}
	}
	return img
}

// jpegCycle re-encodes the image through JPEG at the given quality,
// simulating the compression noise slides pick up in screen recordings.
func jpegCycle(t *testing.T, src image.Image, quality int) image.Image {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}))
	img, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	return img
}
