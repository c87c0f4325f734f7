package trace

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

const (
	// stretchClip is the share of pixels ignored at each end of the luma
	// histogram when stretching contrast, so a few stray pixels do not pin
	// the range.
	stretchClip = 0.01
	// minStretchSpread keeps near-uniform pages, where the only variation is
	// paper texture or compression noise, from being amplified into ink.
	minStretchSpread = 16
)

// preprocess cleans src up before binarizing: an optional gaussian denoise
// followed by an optional contrast stretch. With both off src is returned
// as is.
func preprocess(src image.Image, o Options) image.Image {
	if o.Denoise <= 0 && !o.Stretch {
		return src
	}
	img := imaging.Grayscale(src)
	if o.Denoise > 0 {
		img = imaging.Blur(img, o.Denoise)
	}
	if o.Stretch {
		lo, hi := percentiles(histogram(img), stretchClip)
		if int(hi)-int(lo) >= minStretchSpread {
			lut := stretchTable(lo, hi)
			img = imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
				v := lut[c.R]
				return color.NRGBA{R: v, G: v, B: v, A: c.A}
			})
		}
	}
	return img
}

// histogram counts the luma of every visible pixel.
func histogram(img image.Image) [256]int {
	var h [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			if _, _, _, a := c.RGBA(); a == 0 {
				continue
			}
			h[color.GrayModel.Convert(c).(color.Gray).Y]++
		}
	}
	return h
}

// percentiles returns the lowest and highest luma once clip of the pixels
// has been discarded from each end.
func percentiles(h [256]int, clip float64) (lo, hi uint8) {
	total := 0
	for _, n := range h {
		total += n
	}
	if total == 0 {
		return 0, 255
	}
	limit := int(clip * float64(total))
	for acc, v := 0, 0; v < 256; v++ {
		if acc += h[v]; acc > limit {
			lo = uint8(v)
			break
		}
	}
	for acc, v := 0, 255; v >= 0; v-- {
		if acc += h[v]; acc > limit {
			hi = uint8(v)
			break
		}
	}
	return lo, hi
}

func stretchTable(lo, hi uint8) [256]uint8 {
	var t [256]uint8
	span := float64(hi) - float64(lo)
	for v := range t {
		switch {
		case v <= int(lo):
			t[v] = 0
		case v >= int(hi):
			t[v] = 255
		default:
			t[v] = uint8(math.Round(float64(v-int(lo)) * 255 / span))
		}
	}
	return t
}

// Otsu returns the luma cut-off that best separates h into two classes,
// ink at or below it and background above. An image with a single luma
// has nothing to separate and yields 0.
func Otsu(h [256]int) uint8 {
	var total, sum float64
	for v, n := range h {
		total += float64(n)
		sum += float64(v) * float64(n)
	}
	var (
		wB, sumB, best float64
		cut            int
	)
	for v, n := range h {
		wB += float64(n)
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(v) * float64(n)
		mB, mF := sumB/wB, (sum-sumB)/wF
		if between := wB * wF * (mB - mF) * (mB - mF); between > best {
			best, cut = between, v
		}
	}
	return uint8(cut)
}
