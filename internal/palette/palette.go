// SPDX-License-Identifier: MIT
/*
Package palette maps power in dB to display colours by piecewise-linear
interpolation over an ordered anchor table.

Anchors are kept sorted from the loudest threshold to the quietest. Values
above the first anchor or below the last are clamped to that anchor's
colour; nothing is extrapolated.
*/
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
)

// RGB is a 24-bit 0xRRGGBB colour.
type RGB uint32

// RGBA expands the colour to an opaque color.RGBA.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xff}
}

func (c RGB) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// ParseRGB accepts "#rrggbb", "0xrrggbb" or "rrggbb".
func ParseRGB(s string) (RGB, error) {
	h := strings.TrimSpace(s)
	h = strings.TrimPrefix(h, "#")
	h = strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
	if len(h) != 6 {
		return 0, fmt.Errorf("invalid colour '%s': want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid colour '%s': %w", s, err)
	}
	return RGB(v), nil
}

// Anchor pins a colour to a dB threshold.
type Anchor struct {
	Threshold float64
	Color     RGB
}

var (
	ErrNoAnchors         = errors.New("palette needs at least one anchor")
	ErrDuplicateAnchor   = errors.New("palette anchors must have distinct thresholds")
	ErrNotEnoughColors   = errors.New("linear palette needs at least two colours")
	ErrInvalidDBRange    = errors.New("linear palette needs max dB above min dB")
	ErrNonFiniteAnchorDB = errors.New("palette thresholds must be finite")
)

// Palette is immutable and safe for concurrent use.
type Palette struct {
	anchors []Anchor
}

// New builds a palette from anchors given in any order.
func New(anchors ...Anchor) (*Palette, error) {
	if len(anchors) == 0 {
		return nil, ErrNoAnchors
	}
	sorted := make([]Anchor, len(anchors))
	copy(sorted, anchors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold > sorted[j].Threshold
	})
	for i, a := range sorted {
		if math.IsNaN(a.Threshold) || math.IsInf(a.Threshold, 0) {
			return nil, ErrNonFiniteAnchorDB
		}
		if i > 0 && a.Threshold == sorted[i-1].Threshold {
			return nil, fmt.Errorf("%w: %g", ErrDuplicateAnchor, a.Threshold)
		}
	}
	return &Palette{anchors: sorted}, nil
}

// Linear spaces colours evenly from maxDB (first colour) down to minDB
// (last colour).
func Linear(maxDB, minDB float64, colors ...RGB) (*Palette, error) {
	if len(colors) < 2 {
		return nil, ErrNotEnoughColors
	}
	if !(maxDB > minDB) {
		return nil, ErrInvalidDBRange
	}
	step := (maxDB - minDB) / float64(len(colors)-1)
	anchors := make([]Anchor, len(colors))
	for i, c := range colors {
		anchors[i] = Anchor{Threshold: maxDB - float64(i)*step, Color: c}
	}
	// Pin the bottom exactly, avoiding accumulated rounding.
	anchors[len(anchors)-1].Threshold = minDB
	return New(anchors...)
}

// Reference calibration: black at 0 dB and at -160 dB with the colour ramp
// spread over the nine intervals between them.
const (
	DefaultMaxDB = 0.0
	DefaultMinDB = -160.0
)

var DefaultColors = []RGB{
	0x000000, 0x0000e7, 0x0094ff, 0x00ffb8, 0x2eff00,
	0xffff00, 0xff8800, 0xff0000, 0xff007c, 0x000000,
}

// Default returns the reference palette.
func Default() *Palette {
	p, err := Linear(DefaultMaxDB, DefaultMinDB, DefaultColors...)
	if err != nil {
		panic(err)
	}
	return p
}

// Anchors returns a copy of the anchors, loudest first.
func (p *Palette) Anchors() []Anchor {
	out := make([]Anchor, len(p.anchors))
	copy(out, p.anchors)
	return out
}

// Floor returns the colour of the quietest anchor.
func (p *Palette) Floor() color.RGBA {
	return p.anchors[len(p.anchors)-1].Color.RGBA()
}

// Color maps a dB value to a colour.
func (p *Palette) Color(db float64) color.RGBA {
	top := p.anchors[0]
	if db >= top.Threshold {
		return top.Color.RGBA()
	}
	for i := 1; i < len(p.anchors); i++ {
		lo := p.anchors[i]
		if db == lo.Threshold {
			return lo.Color.RGBA()
		}
		if db > lo.Threshold {
			hi := p.anchors[i-1]
			frac := (db - lo.Threshold) / (hi.Threshold - lo.Threshold)
			return interpolate(lo.Color, hi.Color, frac)
		}
	}
	// NaN also lands here.
	return p.Floor()
}

func interpolate(lo, hi RGB, frac float64) color.RGBA {
	a, b := lo.RGBA(), hi.RGBA()
	return color.RGBA{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 0xff,
	}
}

func lerp(lo, hi uint8, frac float64) uint8 {
	return uint8(math.Round(float64(lo) + frac*(float64(hi)-float64(lo))))
}
