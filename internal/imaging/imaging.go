// Package imaging turns uploaded pictures into event banner thumbnails.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// Thumbnail geometry. Banners are cropped to 16:9.
const (
	MaxWidth  = 1280
	MaxHeight = 720
)

// MaxUploadBytes caps the accepted upload size.
const MaxUploadBytes = 10 << 20

// JPEGQuality is the compression quality for stored thumbnails.
const JPEGQuality = 85

var decoders = map[string]func(io.Reader) (image.Image, error){
	"image/jpeg": jpeg.Decode,
	"image/png":  png.Decode,
	"image/webp": webp.Decode,
}

// Thumbnail is an encoded banner image.
type Thumbnail struct {
	Data []byte
	MIME string
}

// MakeThumbnail reads an uploaded image, center-crops it to 16:9,
// shrinks it to fit MaxWidth x MaxHeight and re-encodes it as JPEG. The
// format is sniffed from the bytes; client headers are ignored.
func MakeThumbnail(r io.Reader) (*Thumbnail, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("image larger than %d bytes: %w", MaxUploadBytes, model.ErrInvalid)
	}

	detected := http.DetectContentType(data)
	decode, ok := decoders[detected]
	if !ok {
		return nil, fmt.Errorf("unsupported image format %s (JPEG, PNG or WebP): %w", detected, model.ErrInvalid)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %v: %w", err, model.ErrInvalid)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fit(cropToBanner(img), MaxWidth, MaxHeight), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Thumbnail{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// cropToBanner returns the largest centered 16:9 region of img.
func cropToBanner(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	cw, ch := w, w*9/16
	if ch > h {
		cw, ch = h*16/9, h
	}
	if cw < 1 || ch < 1 || (cw == w && ch == h) {
		return img
	}

	x0 := b.Min.X + (w-cw)/2
	y0 := b.Min.Y + (h-ch)/2
	dst := image.NewRGBA(image.Rect(0, 0, cw, ch))
	draw.Copy(dst, image.Point{}, img, image.Rect(x0, y0, x0+cw, y0+ch), draw.Src, nil)
	return dst
}

// fit scales img down so it fits within maxW x maxH. Smaller images are
// returned unchanged.
func fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
