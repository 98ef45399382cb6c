package colour

import (
	"image"
	"image/color"
	"math"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/cenkalti/dominantcolor"
)

// ProminentExtractor picks the most populated k-means cluster using prominentcolor.
type ProminentExtractor struct {
	filter   FilterConfig
	fallback *Histogrammer
}

// NewProminentExtractor creates a ProminentExtractor. Pixels are filtered
// with the same predicate as the histogram before clustering.
func NewProminentExtractor(filter FilterConfig) *ProminentExtractor {
	h := NewHistogrammer(filter)
	return &ProminentExtractor{filter: h.Filter(), fallback: h}
}

// Dominant implements Extractor.
// Falls back to the histogram mode when clustering fails (e.g. fewer distinct
// colours than clusters).
func (e *ProminentExtractor) Dominant(img *image.NRGBA) (RGB, bool) {
	accepted := compactAccepted(img, e.filter)
	if accepted == nil {
		return RGB{}, false
	}

	items, err := prominentcolor.KmeansWithArgs(prominentcolor.ArgumentNoCropping, accepted)
	if err != nil || len(items) == 0 {
		return e.fallback.Dominant(img)
	}

	best := items[0]
	for _, item := range items[1:] {
		if item.Cnt > best.Cnt {
			best = item
		}
	}
	return RGB{R: uint8(best.Color.R), G: uint8(best.Color.G), B: uint8(best.Color.B)}, true
}

// KMeansExtractor uses dominantcolor's k-means to find the dominant colour.
type KMeansExtractor struct {
	filter FilterConfig
}

// NewKMeansExtractor creates a KMeansExtractor.
func NewKMeansExtractor(filter FilterConfig) *KMeansExtractor {
	return &KMeansExtractor{filter: NewHistogrammer(filter).Filter()}
}

// Dominant implements Extractor.
func (e *KMeansExtractor) Dominant(img *image.NRGBA) (RGB, bool) {
	accepted := compactAccepted(img, e.filter)
	if accepted == nil {
		return RGB{}, false
	}
	c := dominantcolor.Find(accepted)
	return RGB{R: c.R, G: c.G, B: c.B}, true
}

// compactAccepted copies the pixels that pass the filter (at the filter's
// stride) into a square opaque image. Trailing cells are filled by cycling
// from the first accepted pixel. Returns nil when nothing passes.
func compactAccepted(img *image.NRGBA, filter FilterConfig) *image.NRGBA {
	if img == nil {
		return nil
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	total := width * bounds.Dy()
	pixels := make([]color.NRGBA, 0, total/filter.Stride+1)
	for idx := 0; idx < total; idx += filter.Stride {
		c := img.NRGBAAt(bounds.Min.X+idx%width, bounds.Min.Y+idx/width)
		if filter.Accept(c.R, c.G, c.B, c.A) {
			c.A = 0xff
			pixels = append(pixels, c)
		}
	}
	if len(pixels) == 0 {
		return nil
	}

	side := int(math.Ceil(math.Sqrt(float64(len(pixels)))))
	out := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i := 0; i < side*side; i++ {
		out.SetNRGBA(i%side, i/side, pixels[i%len(pixels)])
	}
	return out
}
