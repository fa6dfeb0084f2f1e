// Package preprocess conditions a card photo before recognition. Phone
// photos arrive skewed, noisy and low-contrast; both engines do markedly
// better on a grayscale, denoised, content-cropped image.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	apperrors "github.com/bitaqa/bitaqa-backend/pkg/errors"
)

// Options controls the conditioning steps. The zero value of each field
// disables that step.
type Options struct {
	// BlurRadius is the box blur radius used for denoising.
	BlurRadius int
	// SharpenStrength is the unsharp mask amount; 0.5 to 1.5 works for
	// typical card photos.
	SharpenStrength float64
	// EdgeThreshold is the gradient magnitude above which a pixel counts
	// as content when cropping away background.
	EdgeThreshold uint8
	// MinWidth upscales narrower images to this width before anything
	// else runs.
	MinWidth int
	// CropBox restricts conditioning to a fixed pixel rectangle of the
	// frame. The zero rectangle keeps the whole frame.
	CropBox image.Rectangle
	// SplitRegions makes the pipeline recognize the printed-text band and
	// the ID strip as separate crops instead of the whole frame.
	SplitRegions bool
}

// Region selects a fixed-ratio crop of the conditioned card. The ratios
// assume the standard card layout: photo on the left, printed name and
// address lines in the upper right, the 14 ID digits below them.
type Region int

const (
	// RegionFull keeps the whole frame.
	RegionFull Region = iota
	// RegionText is the right-half band carrying the printed name and
	// address lines.
	RegionText
	// RegionIDStrip is the lower-right strip carrying the ID digits.
	RegionIDStrip
)

// Band paddings in pixels. The text band is padded so ascenders and digit
// tops at its edges are not clipped; the ID strip is inset so the band
// boundary itself never reads as a character stroke.
const (
	textPadTop    = 13
	textPadBottom = 7
	idInset       = 10
)

// cropMargin keeps a little background around the detected content so
// edge characters are not clipped.
const cropMargin = 8

// Prepare decodes, conditions and re-encodes an image as PNG. Data that
// does not decode as an image wraps apperrors.ErrUnreadableImage.
func Prepare(data []byte, opts Options) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnreadableImage, err)
	}

	img := toGray(src)
	if !opts.CropBox.Empty() {
		if r := opts.CropBox.Intersect(img.Bounds()); !r.Empty() {
			img = img.SubImage(r).(*image.Gray)
		}
	}
	if opts.MinWidth > 0 && img.Bounds().Dx() < opts.MinWidth {
		img = upscale(img, opts.MinWidth)
	}
	if opts.BlurRadius > 0 {
		img = boxBlur(img, opts.BlurRadius)
	}
	if opts.SharpenStrength > 0 {
		img = sharpen(img, opts.SharpenStrength)
	}
	if opts.EdgeThreshold > 0 {
		img = contentCrop(img, opts.EdgeThreshold)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("preprocess: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// CropRegion decodes a conditioned frame and re-encodes the requested
// fixed-ratio region of it. A frame too small to carve the region out of
// is returned unchanged; undecodable data wraps ErrUnreadableImage.
func CropRegion(data []byte, region Region) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnreadableImage, err)
	}

	img := toGray(src)
	r := regionRect(img.Bounds(), region)
	if r.Empty() || r == img.Bounds() {
		return data, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img.SubImage(r).(*image.Gray)); err != nil {
		return nil, fmt.Errorf("preprocess: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// regionRect maps a region onto concrete pixel bounds. The printed block
// starts around a sixth of the way down and the ID strip around 40% down;
// both sit right of the holder photo at the horizontal midline.
func regionRect(b image.Rectangle, region Region) image.Rectangle {
	mid := b.Min.X + b.Dx()/2
	blockTop := b.Min.Y + b.Dy()/6
	stripTop := b.Min.Y + int(float64(b.Dy())/2.5)

	switch region {
	case RegionText:
		return image.Rect(mid, blockTop-textPadTop, b.Max.X, stripTop+textPadBottom).Intersect(b)
	case RegionIDStrip:
		return image.Rect(mid+idInset, stripTop+idInset, b.Max.X, b.Max.Y).Intersect(b)
	default:
		return b
	}
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func upscale(src *image.Gray, minWidth int) *image.Gray {
	b := src.Bounds()
	scale := float64(minWidth) / float64(b.Dx())
	dst := image.NewGray(image.Rect(0, 0, minWidth, int(float64(b.Dy())*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// boxBlur is a separable box filter: one horizontal pass, one vertical.
func boxBlur(src *image.Gray, radius int) *image.Gray {
	return blurPass(blurPass(src, radius, true), radius, false)
}

func blurPass(src *image.Gray, radius int, horizontal bool) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(b)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, n int
			for d := -radius; d <= radius; d++ {
				sx, sy := x, y
				if horizontal {
					sx += d
				} else {
					sy += d
				}
				if sx < 0 || sx >= w || sy < 0 || sy >= h {
					continue
				}
				sum += int(src.GrayAt(b.Min.X+sx, b.Min.Y+sy).Y)
				n++
			}
			dst.SetGray(b.Min.X+x, b.Min.Y+y, colorGray(sum/n))
		}
	}
	return dst
}

// sharpen applies an unsharp mask: the image plus a scaled difference
// against its own blur.
func sharpen(src *image.Gray, strength float64) *image.Gray {
	blurred := boxBlur(src, 1)
	b := src.Bounds()
	dst := image.NewGray(b)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			orig := float64(src.GrayAt(x, y).Y)
			soft := float64(blurred.GrayAt(x, y).Y)
			dst.SetGray(x, y, colorGray(int(orig+strength*(orig-soft))))
		}
	}
	return dst
}

// contentCrop trims background by bounding the pixels whose gradient
// magnitude exceeds threshold. A frame with no edges at all is left
// untouched rather than cropped to nothing.
func contentCrop(src *image.Gray, threshold uint8) *image.Gray {
	b := src.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y

	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			gx := int(src.GrayAt(x+1, y).Y) - int(src.GrayAt(x-1, y).Y)
			gy := int(src.GrayAt(x, y+1).Y) - int(src.GrayAt(x, y-1).Y)
			if gx < 0 {
				gx = -gx
			}
			if gy < 0 {
				gy = -gy
			}
			if gx+gy < int(threshold) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if minX > maxX || minY > maxY {
		return src
	}

	rect := image.Rect(minX-cropMargin, minY-cropMargin, maxX+cropMargin+1, maxY+cropMargin+1).Intersect(b)
	return src.SubImage(rect).(*image.Gray)
}

func colorGray(v int) color.Gray {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return color.Gray{Y: uint8(v)}
}
