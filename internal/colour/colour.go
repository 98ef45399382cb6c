// Package colour provides dominant colour extraction and colour value types.
package colour

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// RGB represents a colour in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB colour in the format "rgb(r,g,b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// ToRGB converts a color.Color to RGB.
// Alpha is discarded; premultiplied colours are un-premultiplied first.
func ToRGB(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// Notation controls how a Colour renders as a string.
type Notation uint8

const (
	// NotationRGB renders as "rgb(r,g,b)".
	NotationRGB Notation = iota
	// NotationHex renders as "#rrggbb".
	NotationHex
)

// Colour is an immutable colour value. Equality is by component values;
// the notation only affects rendering.
type Colour struct {
	rgb      RGB
	notation Notation
}

// FromRGB returns a Colour rendered in rgb() notation.
func FromRGB(rgb RGB) Colour {
	return Colour{rgb: rgb, notation: NotationRGB}
}

// FromHex returns a Colour rendered in hex notation.
func FromHex(rgb RGB) Colour {
	return Colour{rgb: rgb, notation: NotationHex}
}

// MustParse is like ParseColour but panics on error.
// Intended for package-level defaults.
func MustParse(s string) Colour {
	c, err := ParseColour(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseColour parses "#rgb", "#rrggbb" or "rgb(r,g,b)".
// The returned colour keeps the notation it was written in.
func ParseColour(s string) (Colour, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		rgb, err := parseHex(s[1:])
		if err != nil {
			return Colour{}, err
		}
		return FromHex(rgb), nil
	case strings.HasPrefix(strings.ToLower(s), "rgb(") && strings.HasSuffix(s, ")"):
		rgb, err := parseRGBFunc(s[4 : len(s)-1])
		if err != nil {
			return Colour{}, err
		}
		return FromRGB(rgb), nil
	default:
		return Colour{}, fmt.Errorf("unrecognised colour %q (expected #rrggbb or rgb(r,g,b))", s)
	}
}

func parseHex(hex string) (RGB, error) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("invalid hex colour length: #%s", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex colour #%s: %w", hex, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func parseRGBFunc(body string) (RGB, error) {
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("rgb() needs three components, got %d", len(parts))
	}
	var out [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("invalid rgb() component %q: %w", p, err)
		}
		out[i] = uint8(v)
	}
	return RGB{R: out[0], G: out[1], B: out[2]}, nil
}

// RGB returns the colour components.
func (c Colour) RGB() RGB { return c.rgb }

// Notation returns the render notation.
func (c Colour) Notation() Notation { return c.notation }

// Hex returns the colour as "#rrggbb" regardless of notation.
func (c Colour) Hex() string { return c.rgb.Hex() }

// String renders the colour in its notation.
func (c Colour) String() string {
	if c.notation == NotationHex {
		return c.rgb.Hex()
	}
	return c.rgb.String()
}

// Equal reports whether both colours have the same components.
func (c Colour) Equal(other Colour) bool {
	return c.rgb == other.rgb
}

// RGBA implements color.Color.
func (c Colour) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.rgb.R, G: c.rgb.G, B: c.rgb.B, A: 0xff}.RGBA()
}

// ColourJSON represents a colour in JSON output format.
type ColourJSON struct {
	Value string `json:"value"`
	Hex   string `json:"hex"`
	RGB   RGB    `json:"rgb"`
}

// MarshalJSON renders the colour with all notations.
func (c Colour) MarshalJSON() ([]byte, error) {
	return json.Marshal(ColourJSON{Value: c.String(), Hex: c.Hex(), RGB: c.rgb})
}

// UnmarshalJSON accepts either a colour string or the object form.
func (c *Colour) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseColour(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	var obj ColourJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid colour JSON: %w", err)
	}
	parsed, err := ParseColour(obj.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
