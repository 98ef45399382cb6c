package colour

import (
	"image"
	"image/color"
	"testing"
)

// newBuffer lays pixels out row-major in a width-wide NRGBA image.
func newBuffer(width int, pixels []color.NRGBA) *image.NRGBA {
	height := (len(pixels) + width - 1) / width
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, p := range pixels {
		img.SetNRGBA(i%width, i/width, p)
	}
	return img
}

func repeat(c color.NRGBA, n int) []color.NRGBA {
	out := make([]color.NRGBA, n)
	for i := range out {
		out[i] = c
	}
	return out
}

var (
	red         = color.NRGBA{R: 200, G: 50, B: 50, A: 255}
	blue        = color.NRGBA{R: 40, G: 60, B: 200, A: 255}
	nearBlk     = color.NRGBA{R: 10, G: 10, B: 10, A: 255}
	transparent = color.NRGBA{R: 200, G: 50, B: 50, A: 0}
)

func everyPixel() FilterConfig {
	f := DefaultFilterConfig()
	f.Stride = 1
	return f
}

func TestFilterAccept(t *testing.T) {
	f := DefaultFilterConfig()
	tests := []struct {
		name       string
		r, g, b, a uint8
		want       bool
	}{
		{name: "alpha exactly 125 kept", r: 100, g: 100, b: 100, a: 125, want: true},
		{name: "alpha 124 rejected", r: 100, g: 100, b: 100, a: 124, want: false},
		{name: "brightness exactly 20 kept", r: 20, g: 20, b: 20, a: 255, want: true},
		{name: "brightness just under 20 rejected", r: 20, g: 20, b: 19, a: 255, want: false},
		{name: "brightness exactly 230 kept", r: 230, g: 230, b: 230, a: 255, want: true},
		{name: "brightness just over 230 rejected", r: 230, g: 230, b: 231, a: 255, want: false},
		{name: "fractional mean above 20 kept", r: 21, g: 20, b: 20, a: 255, want: true},
		{name: "near white rejected", r: 250, g: 250, b: 250, a: 255, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Accept(tt.r, tt.g, tt.b, tt.a); got != tt.want {
				t.Errorf("Accept(%d,%d,%d,%d) = %v, want %v", tt.r, tt.g, tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestDominantTransparentImage(t *testing.T) {
	h := NewHistogrammer(DefaultFilterConfig())
	img := image.NewNRGBA(image.Rect(0, 0, 50, 50))

	if rgb, ok := h.Dominant(img); ok {
		t.Errorf("Dominant() on transparent image = %v, want no colour", rgb)
	}
}

func TestDominantSingleQualifyingColour(t *testing.T) {
	h := NewHistogrammer(everyPixel())
	pixels := append(repeat(nearBlk, 30), red)
	pixels = append(pixels, repeat(transparent, 30)...)

	rgb, ok := h.Dominant(newBuffer(10, pixels))
	if !ok {
		t.Fatal("Dominant() found no colour")
	}
	if want := ToRGB(red); rgb != want {
		t.Errorf("Dominant() = %v, want %v", rgb, want)
	}
}

func TestDominantMinorityBeatsFilteredMajority(t *testing.T) {
	// 60 near-black pixels followed by 40 qualifying pixels, default stride.
	h := NewHistogrammer(DefaultFilterConfig())
	pixels := append(repeat(nearBlk, 60), repeat(red, 40)...)

	rgb, ok := h.Dominant(newBuffer(10, pixels))
	if !ok {
		t.Fatal("Dominant() fell back")
	}
	if rgb.String() != "rgb(200,50,50)" {
		t.Errorf("Dominant() = %s, want rgb(200,50,50)", rgb)
	}
}

func TestDominantTieBreak(t *testing.T) {
	tests := []struct {
		name   string
		pixels []color.NRGBA
		want   color.NRGBA
	}{
		// Equal counts go to the colour that reached the shared count first.
		// For AABB and ABAB that is also the colour seen first; for ABBA and
		// BAAB it is not, and the later colour wins.
		{
			name:   "AABB earlier block wins",
			pixels: []color.NRGBA{red, red, blue, blue},
			want:   red,
		},
		{
			name:   "AAABBB earlier block wins",
			pixels: append(repeat(red, 3), repeat(blue, 3)...),
			want:   red,
		},
		{
			name:   "ABAB interleaved first wins",
			pixels: []color.NRGBA{blue, red, blue, red},
			want:   blue,
		},
		{
			name:   "ABBA second colour reaches two first",
			pixels: []color.NRGBA{red, blue, blue, red},
			want:   blue,
		},
		{
			name:   "BAAB second colour reaches two first",
			pixels: []color.NRGBA{blue, red, red, blue},
			want:   red,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistogrammer(everyPixel())
			img := newBuffer(len(tt.pixels), tt.pixels)

			rgb, ok := h.Dominant(img)
			if !ok {
				t.Fatal("Dominant() found no colour")
			}
			if want := ToRGB(tt.want); rgb != want {
				t.Errorf("Dominant() = %v, want %v", rgb, want)
			}

			ranked := h.Histogram(img).Ranked()
			if len(ranked) != 2 {
				t.Fatalf("Ranked() returned %d candidates, want 2", len(ranked))
			}
			if ranked[0].RGB != rgb {
				t.Errorf("Ranked()[0] = %v disagrees with Dominant() = %v", ranked[0].RGB, rgb)
			}
		})
	}
}

func TestDominantHonoursStride(t *testing.T) {
	// Only indices 0, 5, 10, ... are inspected; blue sits on all of them.
	pixels := make([]color.NRGBA, 50)
	for i := range pixels {
		if i%5 == 0 {
			pixels[i] = blue
		} else {
			pixels[i] = red
		}
	}

	h := NewHistogrammer(DefaultFilterConfig())
	img := newBuffer(10, pixels)
	rgb, ok := h.Dominant(img)
	if !ok || rgb != ToRGB(blue) {
		t.Errorf("Dominant() = %v, %v, want %v", rgb, ok, ToRGB(blue))
	}

	hist := h.Histogram(img)
	if hist.Sampled != 10 {
		t.Errorf("Sampled = %d, want 10", hist.Sampled)
	}
	if hist.Count(ToRGB(red)) != 0 {
		t.Errorf("red was counted %d times, want 0", hist.Count(ToRGB(red)))
	}
}

func TestHistogramCounts(t *testing.T) {
	h := NewHistogrammer(everyPixel())
	pixels := []color.NRGBA{red, nearBlk, red, transparent, blue, red}
	hist := h.Histogram(newBuffer(3, pixels))

	if hist.Sampled != 6 || hist.Accepted != 4 {
		t.Errorf("Sampled/Accepted = %d/%d, want 6/4", hist.Sampled, hist.Accepted)
	}
	if hist.Len() != 2 {
		t.Errorf("Len() = %d, want 2", hist.Len())
	}
	if got := hist.Count(ToRGB(red)); got != 3 {
		t.Errorf("Count(red) = %d, want 3", got)
	}
	if got := hist.Count(ToRGB(nearBlk)); got != 0 {
		t.Errorf("Count(nearBlack) = %d, want 0", got)
	}

	ranked := hist.Ranked()
	if ranked[0].FirstIndex != 0 || ranked[0].ReachedIndex != 5 {
		t.Errorf("red candidate = %+v, want FirstIndex 0 and ReachedIndex 5", ranked[0])
	}
}

func TestDominantSubImage(t *testing.T) {
	full := newBuffer(4, append(repeat(blue, 8), repeat(red, 8)...))
	sub := full.SubImage(image.Rect(0, 2, 4, 4)).(*image.NRGBA)

	rgb, ok := NewHistogrammer(everyPixel()).Dominant(sub)
	if !ok || rgb != ToRGB(red) {
		t.Errorf("Dominant(sub) = %v, %v, want %v", rgb, ok, ToRGB(red))
	}
}

func TestDominantNilImage(t *testing.T) {
	if _, ok := NewHistogrammer(DefaultFilterConfig()).Dominant(nil); ok {
		t.Error("Dominant(nil) reported a colour")
	}
}
