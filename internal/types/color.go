package types

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a row background in the Sheets RGB space (channels 0..1).
// The zero value means no fill.
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

// ParseHexColor parses "#rrggbb".
func ParseHexColor(hex string) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", hex, err)
	}
	return Color{Red: c.R, Green: c.G, Blue: c.B}, nil
}

// MustHex is ParseHexColor for compile-time constants.
func MustHex(hex string) Color {
	c, err := ParseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex renders the color as "#rrggbb".
func (c Color) Hex() string {
	return colorful.Color{R: c.Red, G: c.Green, B: c.Blue}.Clamped().Hex()
}

// IsZero reports whether the row has no background fill.
func (c Color) IsZero() bool {
	return c == Color{}
}

// Matches compares two colors with each channel rounded to one decimal.
// Sheets round-trips colors through 8-bit channels, so exact float equality
// is never reliable.
func (c Color) Matches(o Color) bool {
	return round1(c.Red) == round1(o.Red) &&
		round1(c.Green) == round1(o.Green) &&
		round1(c.Blue) == round1(o.Blue)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
