// Package measure runs encode/decode/metric sweeps over a corpus through
// pluggable codecs and metrics, producing the measurements the rd engine
// consumes.
package measure

import (
	"context"
	"fmt"

	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

// Image is an 8-bit interleaved RGB raster.
type Image struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pix    []byte `json:"pix"`
}

func (im *Image) Validate() error {
	if im == nil {
		return fmt.Errorf("image is nil")
	}
	if im.Width <= 0 || im.Height <= 0 {
		return fmt.Errorf("image has invalid size %dx%d", im.Width, im.Height)
	}
	if len(im.Pix) != im.Width*im.Height*3 {
		return fmt.Errorf("image %dx%d: expected %d bytes, got %d", im.Width, im.Height, im.Width*im.Height*3, len(im.Pix))
	}
	return nil
}

// Pixels is the pixel count used for bpp.
func (im *Image) Pixels() int {
	return im.Width * im.Height
}

// Codec encodes at a requested quality and decodes its own output.
type Codec interface {
	Name() string
	Config() rd.CodecConfig
	Encode(ctx context.Context, img *Image, quality float64) ([]byte, error)
	Decode(ctx context.Context, data []byte) (*Image, error)
}

// Metric scores a decoded image against its reference.
type Metric interface {
	Name() string
	Direction() rd.QualityDirection
	Score(ctx context.Context, reference, test *Image) (float64, error)
}

// SourceImage is one named corpus image.
type SourceImage struct {
	Name  string
	Image *Image
}

// BitsPerPixel is the compressed size in bits over the pixel count.
func BitsPerPixel(size, pixels int) float64 {
	if pixels <= 0 {
		return 0
	}
	return float64(size) * 8 / float64(pixels)
}
