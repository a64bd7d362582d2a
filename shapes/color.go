package shapes

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gg"
)

// Color is an 8-bit RGBA color, not premultiplied.
type Color struct {
	R, G, B, A uint8
}

var (
	Black       = Color{A: 255}
	White       = Color{R: 255, G: 255, B: 255, A: 255}
	Transparent = Color{}
)

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// ParseColor accepts "#rgb", "#rgba", "#rrggbb" and "#rrggbbaa", with or
// without the leading hash.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3, 4, 6, 8:
	default:
		return Color{}, fmt.Errorf("invalid color %q: unexpected length", s)
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return Color{}, fmt.Errorf("invalid color %q: not hexadecimal", s)
		}
	}
	c := gg.Hex(hex)
	return Color{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}, nil
}

// Hex formats the color as "#rrggbbaa".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c Color) String() string {
	return c.Hex()
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Hex())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("color must be a hex string: %w", err)
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
