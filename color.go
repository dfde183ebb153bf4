package euclase

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/gogpu/euclase/pixel"
)

// ErrColor is returned by ParseColor for malformed input.
var ErrColor = errors.New("euclase: invalid color")

var namedColors = map[string]pixel.RGBA8{
	"transparent": pixel.Transparent,
	"black":       pixel.Black,
	"white":       pixel.White,
	"red":         {R: 255, A: 255},
	"green":       {G: 255, A: 255},
	"blue":        {B: 255, A: 255},
}

// ParseColor parses a paint colour: "#rgb", "#rrggbb", "#rrggbbaa" or one
// of transparent, black, white, red, green and blue.
func ParseColor(s string) (pixel.RGBA8, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	alpha := uint8(255)
	if len(s) == 9 && s[0] == '#' {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return pixel.RGBA8{}, fmt.Errorf("%w %q", ErrColor, s)
		}
		alpha, s = uint8(a), s[:7]
	}
	if len(s) != 4 && len(s) != 7 {
		return pixel.RGBA8{}, fmt.Errorf("%w %q", ErrColor, s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return pixel.RGBA8{}, fmt.Errorf("%w %q: %v", ErrColor, s, err)
	}
	r, g, b := c.RGB255()
	return pixel.RGBA8{R: r, G: g, B: b, A: alpha}, nil
}

// MixColors blends a toward b by t in CIE L*a*b*. Alpha is interpolated
// linearly.
func MixColors(a, b pixel.RGBA8, t float64) pixel.RGBA8 {
	t = min(max(t, 0), 1)
	ca, _ := colorful.MakeColor(opaque(a))
	cb, _ := colorful.MakeColor(opaque(b))
	r, g, bl := ca.BlendLab(cb, t).Clamped().RGB255()
	alpha := float64(a.A) + (float64(b.A)-float64(a.A))*t
	return pixel.RGBA8{R: r, G: g, B: bl, A: uint8(math.Round(alpha))}
}

// opaque drops alpha so MakeColor sees the straight colour.
func opaque(c pixel.RGBA8) pixel.RGBA8 {
	c.A = 255
	return c
}
