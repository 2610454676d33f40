package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/1broseidon/multiwin/internal/scene"
	"github.com/1broseidon/multiwin/internal/winreg"
)

// Frame is everything needed to draw one screen.
type Frame struct {
	Width   int
	Height  int
	Windows []winreg.Record
	SelfID  int
	Scene   *scene.Scene // optional; adds object markers and local offsets
}

// RenderFrame draws the frame as raw-mode terminal text (CRLF line ends).
func RenderFrame(f Frame) string {
	width := max(f.Width, 20)
	height := max(f.Height, 6)

	var lines []string
	lines = append(lines, truncate(fmt.Sprintf("multiwin  window %d  %d open", f.SelfID, len(f.Windows)), width))

	tableRows := len(f.Windows) + 1
	mapHeight := height - tableRows - 3
	if len(f.Windows) == 0 {
		lines = append(lines, "", "no windows registered")
	} else if mapHeight >= 3 {
		lines = append(lines, renderMap(f, width, mapHeight)...)
	}

	lines = append(lines, renderTable(f, width)...)
	lines = append(lines, "q quit")
	return strings.Join(lines, "\r\n")
}

func renderMap(f Frame, width, height int) []string {
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	minX, minY := math.MaxInt, math.MaxInt
	maxX, maxY := math.MinInt, math.MinInt
	for _, w := range f.Windows {
		minX = min(minX, w.Shape.X)
		minY = min(minY, w.Shape.Y)
		maxX = max(maxX, w.Shape.X+w.Shape.W)
		maxY = max(maxY, w.Shape.Y+w.Shape.H)
	}
	spanW := float64(max(maxX-minX, 1))
	spanH := float64(max(maxY-minY, 1))
	sx := float64(width-1) / spanW
	sy := float64(height-1) / spanH

	project := func(x, y float64) (int, int) {
		col := int(math.Round((x - float64(minX)) * sx))
		row := int(math.Round((y - float64(minY)) * sy))
		return clamp(col, 0, width-1), clamp(row, 0, height-1)
	}

	// Draw others first so this window's border wins where they overlap.
	ordered := make([]winreg.Record, 0, len(f.Windows))
	for _, w := range f.Windows {
		if w.ID != f.SelfID {
			ordered = append(ordered, w)
		}
	}
	for _, w := range f.Windows {
		if w.ID == f.SelfID {
			ordered = append(ordered, w)
		}
	}

	for _, w := range ordered {
		x0, y0 := project(float64(w.Shape.X), float64(w.Shape.Y))
		x1, y1 := project(float64(w.Shape.X+w.Shape.W), float64(w.Shape.Y+w.Shape.H))
		h, v, corner := '-', '|', '+'
		if w.ID == f.SelfID {
			h, v, corner = '=', '#', '#'
		}
		for x := x0; x <= x1; x++ {
			grid[y0][x] = h
			grid[y1][x] = h
		}
		for y := y0; y <= y1; y++ {
			grid[y][x0] = v
			grid[y][x1] = v
		}
		grid[y0][x0], grid[y0][x1], grid[y1][x0], grid[y1][x1] = corner, corner, corner, corner

		label := []rune(fmt.Sprintf("%d", w.ID))
		for i, r := range label {
			if x0+1+i < width && y0+1 < height && x0+1+i < x1 {
				grid[y0+1][x0+1+i] = r
			}
		}
	}

	if f.Scene != nil {
		for _, obj := range f.Scene.Objects() {
			x, y := project(obj.Position.X, obj.Position.Y)
			grid[y][x] = '*'
		}
	}

	out := make([]string, height)
	for i, row := range grid {
		out[i] = strings.TrimRight(string(row), " ")
	}
	return out
}

func renderTable(f Frame, width int) []string {
	lines := []string{truncate(fmt.Sprintf("%4s %7s %7s %6s %6s  %s", "id", "x", "y", "w", "h", "offset"), width)}

	local := map[int]scene.Point{}
	if f.Scene != nil {
		for _, obj := range f.Scene.Objects() {
			local[obj.WindowID] = f.Scene.Local(obj)
		}
	}

	for _, w := range f.Windows {
		offset := "-"
		if p, ok := local[w.ID]; ok {
			offset = fmt.Sprintf("%.0f,%.0f", p.X, p.Y)
		}
		marker := ""
		if w.ID == f.SelfID {
			marker = "  (this window)"
		}
		line := fmt.Sprintf("%4d %7d %7d %6d %6d  %s%s", w.ID, w.Shape.X, w.Shape.Y, w.Shape.W, w.Shape.H, offset, marker)
		lines = append(lines, truncate(line, width))
	}
	return lines
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
