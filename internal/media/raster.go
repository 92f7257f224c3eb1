package media

import (
	"errors"
	"fmt"
	"image"
	"io"

	// Image format decoders for frames piped out of ffmpeg
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// BytesPerPixel is the size of one packed RGB24 pixel.
const BytesPerPixel = 3

// ErrInvalidDimensions is returned when a raster size is not positive.
var ErrInvalidDimensions = errors.New("media: dimensions must be positive")

// RasterSize returns the byte length of a width x height RGB24 raster.
func RasterSize(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return width * height * BytesPerPixel
}

// Rasterize scales img to width x height with bilinear filtering and returns
// the pixels packed as RGB24, row-major, top-left origin. The result is
// always exactly RasterSize(width, height) bytes.
func Rasterize(img image.Image, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("media: empty source image")
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	out := make([]byte, RasterSize(width, height))
	o := 0
	for y := 0; y < height; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
		for x := 0; x < len(row); x += 4 {
			out[o] = row[x]
			out[o+1] = row[x+1]
			out[o+2] = row[x+2]
			o += BytesPerPixel
		}
	}
	return out, nil
}

// FromRaster unpacks an RGB24 raster into an opaque image.
func FromRaster(data []byte, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if want := RasterSize(width, height); len(data) != want {
		return nil, fmt.Errorf("media: raster is %d bytes, expected %d for %dx%d", len(data), want, width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, p := 0, 0; i < len(data); i, p = i+BytesPerPixel, p+4 {
		img.Pix[p] = data[i]
		img.Pix[p+1] = data[i+1]
		img.Pix[p+2] = data[i+2]
		img.Pix[p+3] = 0xff
	}
	return img, nil
}

// DecodeFrame decodes a single still frame (PNG or JPEG) as produced by
// ffmpeg's image2pipe muxer.
func DecodeFrame(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("media: decode frame: %w", err)
	}
	return img, nil
}

// EncodeJPEG writes img as a JPEG of the given quality (1-100).
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}
