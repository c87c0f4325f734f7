// Package canvas fits raster illustrations onto the fixed frame the reveal is
// drawn on.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"whiteboard-pipeline/types"
)

// ErrInvalidImage is returned for zero-size, truncated or undecodable input.
var ErrInvalidImage = errors.New("invalid image")

// Size is a frame size in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) ratio() float64 { return float64(s.Width) / float64(s.Height) }

// Options controls scaling limits and the padding color.
type Options struct {
	MaxUpscale float64     // content is never enlarged beyond this factor
	Background color.Color // padding color for fit and capped content
}

// DefaultOptions caps upscaling at 2x on a white background.
func DefaultOptions() Options {
	return Options{MaxUpscale: 2, Background: color.White}
}

// Policy is the strategy used to bring a source onto the target frame.
type Policy int

const (
	// Resize scales straight to the target; the ratios are close enough that
	// neither letterboxing nor cropping is needed.
	Resize Policy = iota
	// Cover scales until the frame is filled and center-crops the overflow.
	Cover
	// Fit scales until the content fits and pads the rest.
	Fit
)

func (p Policy) String() string {
	switch p {
	case Resize:
		return "resize"
	case Cover:
		return "cover"
	case Fit:
		return "fit"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ChoosePolicy picks the policy for a source of size src on target.
func ChoosePolicy(src, target Size) Policy {
	r, rt := src.ratio(), target.ratio()
	switch {
	case math.Abs(r-rt) < 0.1:
		return Resize
	case r >= 0.9 && r <= 1.1:
		return Cover
	}
	return Fit
}

// Normalize returns img scaled onto a target-sized frame. The output keeps a
// single gray channel for gray input and is RGBA otherwise. img is not
// modified.
func Normalize(img types.RasterImage, target Size, opts Options) (types.RasterImage, error) {
	if target.Width <= 0 || target.Height <= 0 {
		return types.RasterImage{}, fmt.Errorf("%w: target %dx%d", ErrInvalidImage, target.Width, target.Height)
	}
	src, err := ToImage(img)
	if err != nil {
		return types.RasterImage{}, err
	}
	if opts.MaxUpscale <= 0 {
		opts.MaxUpscale = DefaultOptions().MaxUpscale
	}
	if opts.Background == nil {
		opts.Background = DefaultOptions().Background
	}

	from := Size{Width: img.Width, Height: img.Height}
	sx, sy := scaleFactors(ChoosePolicy(from, target), from, target)
	sx, sy = math.Min(sx, opts.MaxUpscale), math.Min(sy, opts.MaxUpscale)

	dw := max(1, int(math.Round(float64(from.Width)*sx)))
	dh := max(1, int(math.Round(float64(from.Height)*sy)))
	x0 := (target.Width - dw) / 2
	y0 := (target.Height - dh) / 2

	frame := image.Rect(0, 0, target.Width, target.Height)
	var dst draw.Image
	if img.Depth == 1 {
		dst = image.NewGray(frame)
	} else {
		dst = image.NewNRGBA(frame)
	}
	draw.Draw(dst, frame, image.NewUniform(opts.Background), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+dw, y0+dh), src, src.Bounds(), draw.Over, nil)

	return FromImage(dst), nil
}

func scaleFactors(p Policy, src, target Size) (sx, sy float64) {
	fx := float64(target.Width) / float64(src.Width)
	fy := float64(target.Height) / float64(src.Height)
	switch p {
	case Resize:
		return fx, fy
	case Cover:
		s := math.Max(fx, fy)
		return s, s
	}
	s := math.Min(fx, fy)
	return s, s
}

// ToImage wraps img as an image.Image without copying. Depth 3 is expanded
// to opaque NRGBA.
func ToImage(img types.RasterImage) (image.Image, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidImage, img.Width, img.Height)
	}
	need := img.Width * img.Height * img.Depth
	rect := image.Rect(0, 0, img.Width, img.Height)
	switch img.Depth {
	case 1, 3, 4:
	default:
		return nil, fmt.Errorf("%w: unsupported depth %d", ErrInvalidImage, img.Depth)
	}
	if len(img.Pix) < need {
		return nil, fmt.Errorf("%w: buffer has %d bytes, want %d", ErrInvalidImage, len(img.Pix), need)
	}

	switch img.Depth {
	case 1:
		return &image.Gray{Pix: img.Pix[:need], Stride: img.Width, Rect: rect}, nil
	case 4:
		return &image.NRGBA{Pix: img.Pix[:need], Stride: img.Width * 4, Rect: rect}, nil
	}
	out := image.NewNRGBA(rect)
	for i, j := 0, 0; i < need; i, j = i+3, j+4 {
		out.Pix[j] = img.Pix[i]
		out.Pix[j+1] = img.Pix[i+1]
		out.Pix[j+2] = img.Pix[i+2]
		out.Pix[j+3] = 0xff
	}
	return out, nil
}

// FromImage copies m into a RasterImage: depth 1 for gray images, depth 4
// (non-premultiplied) for everything else.
func FromImage(m image.Image) types.RasterImage {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	if g, ok := m.(*image.Gray); ok {
		pix := make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(pix[y*w:(y+1)*w], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return types.RasterImage{Pix: pix, Width: w, Height: h, Depth: 1}
	}
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), m, b.Min, draw.Src)
	return types.RasterImage{Pix: out.Pix, Width: w, Height: h, Depth: 4}
}

// ParseHexColor parses "#rgb" or "#rrggbb".
func ParseHexColor(s string) (color.NRGBA, error) {
	c := color.NRGBA{A: 0xff}
	var err error
	switch len(s) {
	case 7:
		_, err = fmt.Sscanf(s, "#%2x%2x%2x", &c.R, &c.G, &c.B)
	case 4:
		_, err = fmt.Sscanf(s, "#%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	default:
		err = errors.New("want #rgb or #rrggbb")
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return c, nil
}
