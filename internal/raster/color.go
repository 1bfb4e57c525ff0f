// Package raster draws shaded triangles into a micro-pixel framebuffer.
package raster

import "fmt"

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Hex converts 0xRRGGBB.
func Hex(v uint32) Color {
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// Scale multiplies every channel by k, clamped to [0, 255].
func (c Color) Scale(k float64) Color {
	return Color{R: clamp8(float64(c.R) * k), G: clamp8(float64(c.G) * k), B: clamp8(float64(c.B) * k)}
}

// String formats the colour as #rrggbb.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Quantize drops the low bits of each channel so nearby shades compare equal.
func (c Color) Quantize(bits uint) Color {
	mask := uint8(0xff << bits)
	return Color{R: c.R & mask, G: c.G & mask, B: c.B & mask}
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
