package colour

import (
	"fmt"
	"image"
	"sort"
)

// FilterConfig controls which sampled pixels may take part in the histogram.
type FilterConfig struct {
	// Stride is the distance in pixels between inspected pixels.
	Stride int `yaml:"stride" json:"stride"`

	// MinAlpha excludes pixels with alpha below this value.
	MinAlpha uint8 `yaml:"min_alpha" json:"min_alpha"`

	// MinBrightness and MaxBrightness bound the unweighted mean of R, G and B.
	// Both bounds are inclusive.
	MinBrightness uint8 `yaml:"min_brightness" json:"min_brightness"`
	MaxBrightness uint8 `yaml:"max_brightness" json:"max_brightness"`
}

// DefaultFilterConfig returns thresholds that suppress transparent padding
// and near-black or near-white backgrounds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Stride:        5,
		MinAlpha:      125,
		MinBrightness: 20,
		MaxBrightness: 230,
	}
}

// Validate validates the filter configuration.
func (f FilterConfig) Validate() error {
	if f.Stride < 1 {
		return fmt.Errorf("stride must be at least 1, got %d", f.Stride)
	}
	if f.MinBrightness > f.MaxBrightness {
		return fmt.Errorf("min brightness %d exceeds max brightness %d", f.MinBrightness, f.MaxBrightness)
	}
	return nil
}

// Accept reports whether a pixel passes the filter.
// The brightness test compares r+g+b against 3*bound so the mean is never rounded.
func (f FilterConfig) Accept(r, g, b, a uint8) bool {
	if a < f.MinAlpha {
		return false
	}
	sum := int(r) + int(g) + int(b)
	if sum < 3*int(f.MinBrightness) || sum > 3*int(f.MaxBrightness) {
		return false
	}
	return true
}

// Candidate is one histogram entry.
type Candidate struct {
	RGB RGB
	// Count is the number of accepted pixels with this colour.
	Count int
	// FirstIndex is the pixel index at which the colour was first accepted.
	FirstIndex int
	// ReachedIndex is the pixel index at which the colour reached Count.
	ReachedIndex int
}

// Less orders candidates by dominance: higher count first, then the colour
// that reached that count earlier in scan order. This matches the streaming
// selection exactly; ordering ties by FirstIndex would not (B A A B picks A).
func (c Candidate) Less(other Candidate) bool {
	if c.Count != other.Count {
		return c.Count > other.Count
	}
	return c.ReachedIndex < other.ReachedIndex
}

// Histogram holds per-colour counts for a single scan.
type Histogram struct {
	entries map[RGB]*Candidate
	order   []RGB
	// Sampled counts inspected pixels, Accepted counts those that passed the filter.
	Sampled  int
	Accepted int
}

// Len returns the number of distinct colours.
func (h *Histogram) Len() int {
	return len(h.order)
}

// Count returns the count recorded for rgb.
func (h *Histogram) Count(rgb RGB) int {
	if e, ok := h.entries[rgb]; ok {
		return e.Count
	}
	return 0
}

// Ranked returns all candidates ordered by Candidate.Less.
func (h *Histogram) Ranked() []Candidate {
	out := make([]Candidate, 0, len(h.order))
	for _, rgb := range h.order {
		out = append(out, *h.entries[rgb])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Histogrammer reduces a pixel buffer to its modal colour.
type Histogrammer struct {
	filter FilterConfig
}

// NewHistogrammer creates a Histogrammer with the given filter.
// A zero stride is replaced with the default.
func NewHistogrammer(filter FilterConfig) *Histogrammer {
	if filter.Stride < 1 {
		filter.Stride = DefaultFilterConfig().Stride
	}
	return &Histogrammer{filter: filter}
}

// Filter returns the filter in use.
func (h *Histogrammer) Filter() FilterConfig {
	return h.filter
}

// Dominant returns the most frequent accepted colour.
// The second return value is false when no pixel passed the filter.
func (h *Histogrammer) Dominant(img *image.NRGBA) (RGB, bool) {
	rgb, _, ok := h.scan(img)
	return rgb, ok
}

// Histogram scans img and returns the full histogram.
func (h *Histogrammer) Histogram(img *image.NRGBA) *Histogram {
	_, hist, _ := h.scan(img)
	return hist
}

// scan walks the buffer in row-major order. A colour takes dominance only
// when its new count is strictly greater than the running maximum, so ties
// stay with the colour that reached the count first.
func (h *Histogrammer) scan(img *image.NRGBA) (RGB, *Histogram, bool) {
	hist := &Histogram{entries: make(map[RGB]*Candidate)}
	if img == nil {
		return RGB{}, hist, false
	}

	var (
		dominant RGB
		maxCount int
		found    bool
	)

	bounds := img.Bounds()
	width := bounds.Dx()
	total := width * bounds.Dy()
	for idx := 0; idx < total; idx += h.filter.Stride {
		x := bounds.Min.X + idx%width
		y := bounds.Min.Y + idx/width
		off := img.PixOffset(x, y)
		p := img.Pix[off : off+4 : off+4]
		hist.Sampled++

		if !h.filter.Accept(p[0], p[1], p[2], p[3]) {
			continue
		}
		hist.Accepted++

		rgb := RGB{R: p[0], G: p[1], B: p[2]}
		entry, ok := hist.entries[rgb]
		if !ok {
			entry = &Candidate{RGB: rgb, FirstIndex: idx}
			hist.entries[rgb] = entry
			hist.order = append(hist.order, rgb)
		}
		entry.Count++
		entry.ReachedIndex = idx

		if entry.Count > maxCount {
			maxCount = entry.Count
			dominant = rgb
			found = true
		}
	}

	return dominant, hist, found
}
