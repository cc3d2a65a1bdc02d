package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

type dashPattern struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	plotMin             = 0.0
	plotMax             = 100.0
	axisLabelTop        = "100"
	axisLabelMid        = "50"
	axisLabelBottom     = "0"
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var dashPatterns = []dashPattern{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

var seriesColors = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m"}

// brailleCanvas is a grid of braille cells, each holding a 2x4 dot mask.
type brailleCanvas struct {
	width  int
	height int
	cells  [][]uint8
}

func newBrailleCanvas(width, height int) *brailleCanvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &brailleCanvas{width: width, height: height, cells: cells}
}

// set lights the dot at pixel (x, y); pixels are 2 per cell wide and 4 per cell high.
func (c *brailleCanvas) set(x, y int) {
	if x < 0 || y < 0 || x >= c.width*2 || y >= c.height*4 {
		return
	}
	c.cells[y/4][x/2] |= dotBit(x%2, y%4)
}

func (c *brailleCanvas) line(x0, y0, x1, y1 int, dash dashPattern) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if dash.visible(x0) {
			c.set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func dotBit(x, y int) uint8 {
	left := [4]uint8{0x01, 0x02, 0x04, 0x40}
	right := [4]uint8{0x08, 0x10, 0x20, 0x80}
	if x == 0 {
		return left[y]
	}
	return right[y]
}

func (d dashPattern) visible(x int) bool {
	if d.period <= 1 {
		return true
	}
	return absInt(x)%d.period < d.on
}

// PlotSeries renders series on a fixed 0-100 braille plot.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return plotSeries(w, title, series, width, height, false)
}

// PlotSeriesWithColor renders series with optional forced color output.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	return plotSeries(w, title, series, width, height, forceColor)
}

func plotSeries(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	nonEmpty := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	canvases := make([]*brailleCanvas, len(nonEmpty))
	for i, s := range nonEmpty {
		canvas := newBrailleCanvas(width, height)
		dash := dashPatterns[i%len(dashPatterns)]
		values := resampleSeries(s.Values, width)
		prevX, prevY := -1, -1
		for x, v := range values {
			px, py := x*2, valueToRow(v, height*4)
			if prevX < 0 {
				if dash.visible(px) {
					canvas.set(px, py)
				}
			} else {
				canvas.line(prevX, prevY, px, py, dash)
			}
			prevX, prevY = px, py
		}
		canvases[i] = canvas
	}

	useColor := shouldUseColor(w, forceColor)
	var b strings.Builder
	if title != "" {
		b.WriteString(title + "\n")
	}
	for _, s := range nonEmpty {
		last := s.Values[len(s.Values)-1]
		fmt.Fprintf(&b, "%s: last=%.0f avg=%.1f\n", s.Name, last, mean(s.Values))
	}
	labels := axisLabels(height)
	for y := 0; y < height; y++ {
		fmt.Fprintf(&b, "%*s%s", len(axisLabelTop), labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i, c := range canvases {
				if m := c.cells[y][x]; m != 0 {
					mask |= m
					if owner < 0 {
						owner = i
					}
				}
			}
			ch := rune(0x2800 + int(mask))
			if useColor && owner >= 0 {
				b.WriteString(seriesColors[owner%len(seriesColors)])
				b.WriteRune(ch)
				b.WriteString(colorReset)
				continue
			}
			b.WriteRune(ch)
		}
		b.WriteByte('\n')
	}
	b.WriteString(renderLegend(nonEmpty, useColor) + "\n\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := utf8.RuneCountInString(axisLabelTop) + utf8.RuneCountInString(axisSeparator)
	return max(totalWidth-axisWidth, minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func axisLabels(height int) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = axisLabelTop
	if height > 2 {
		labels[height/2] = axisLabelMid
	}
	if height > 1 {
		labels[height-1] = axisLabelBottom
	}
	return labels
}

// resampleSeries stretches or averages values to exactly width points.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := range out {
			start := i * len(values) / width
			end := max((i+1)*len(values)/width, start+1)
			out[i] = mean(values[start:min(end, len(values))])
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(len(values)-1) / float64(width-1)
			idx := int(pos)
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// valueToRow maps a value on the fixed scale to a pixel row, 0 at the top.
func valueToRow(v float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	v = math.Max(plotMin, math.Min(plotMax, v))
	pos := (v - plotMin) / (plotMax - plotMin)
	return int(math.Round((1 - pos) * float64(rows-1)))
}

func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", rune(0x2801), s.Name, dashPatterns[i%len(dashPatterns)].name)
		if useColor {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
