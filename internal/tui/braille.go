package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"urban3d/internal/raster"
)

// brailleBuf is a grid of braille cells. Each cell has a dot mask plus the
// colour of its dots and of its background.
type brailleBuf struct {
	w, h int // in cells
	m    [][]uint8
	fg   [][]raster.Color
	bg   [][]raster.Color
}

func newBrailleBuf(w, h int) *brailleBuf {
	b := &brailleBuf{w: w, h: h}
	b.m = make([][]uint8, h)
	b.fg = make([][]raster.Color, h)
	b.bg = make([][]raster.Color, h)
	for i := 0; i < h; i++ {
		b.m[i] = make([]uint8, w)
		b.fg[i] = make([]raster.Color, w)
		b.bg[i] = make([]raster.Color, w)
	}
	return b
}

// dotBit maps a micro-pixel position inside a cell (rx 0..1, ry 0..3) to
// its braille bit.
func dotBit(rx, ry int) uint8 {
	if rx == 0 {
		switch ry {
		case 0:
			return 0x01
		case 1:
			return 0x02
		case 2:
			return 0x04
		case 3:
			return 0x40
		}
	} else {
		switch ry {
		case 0:
			return 0x08
		case 1:
			return 0x10
		case 2:
			return 0x20
		case 3:
			return 0x80
		}
	}
	return 0
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell)
func (b *brailleBuf) setPixel(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= dotBit(mx%2, my%4)
}

func (b *brailleBuf) glyph(x, y int) rune {
	if b.m[y][x] == 0 {
		return ' '
	}
	return rune(0x2800 + int(b.m[y][x]))
}

func (b *brailleBuf) toLines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]rune, b.w)
		for x := 0; x < b.w; x++ {
			row[x] = b.glyph(x, y)
		}
		out[y] = string(row)
	}
	return out
}

type cellStyle struct{ fg, bg raster.Color }

// render emits the buffer with truecolor runs; consecutive cells sharing
// colours are rendered with one style.
func (b *brailleBuf) render() string {
	styles := map[cellStyle]lipgloss.Style{}
	style := func(k cellStyle) lipgloss.Style {
		s, ok := styles[k]
		if !ok {
			s = lipgloss.NewStyle().
				Foreground(lipgloss.Color(k.fg.String())).
				Background(lipgloss.Color(k.bg.String()))
			styles[k] = s
		}
		return s
	}

	lines := make([]string, b.h)
	var sb, run strings.Builder
	for y := 0; y < b.h; y++ {
		sb.Reset()
		run.Reset()
		var cur cellStyle
		for x := 0; x < b.w; x++ {
			k := cellStyle{fg: b.fg[y][x], bg: b.bg[y][x]}
			if b.m[y][x] == 0 {
				k.fg = k.bg
			}
			if x > 0 && k != cur {
				sb.WriteString(style(cur).Render(run.String()))
				run.Reset()
			}
			cur = k
			run.WriteRune(b.glyph(x, y))
		}
		if run.Len() > 0 {
			sb.WriteString(style(cur).Render(run.String()))
		}
		lines[y] = sb.String()
	}
	return strings.Join(lines, "\n")
}
