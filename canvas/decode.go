package canvas

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"whiteboard-pipeline/types"
)

// Decode reads a PNG, JPEG, WebP or BMP file into a RasterImage.
func Decode(data []byte) (types.RasterImage, error) {
	m, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return types.RasterImage{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if m.Bounds().Empty() {
		return types.RasterImage{}, fmt.Errorf("%w: empty %s image", ErrInvalidImage, format)
	}
	return FromImage(m), nil
}

// EncodePNG writes img as a PNG.
func EncodePNG(w io.Writer, img types.RasterImage) error {
	m, err := ToImage(img)
	if err != nil {
		return err
	}
	return png.Encode(w, m)
}
