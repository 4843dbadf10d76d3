// internal/tui/canvas.go
//
// Terminal rasterizer for the arena. A character cell is roughly twice as
// tall as it is wide, so each cell carries two vertical "pixels" drawn with
// the upper-half block: the rune's foreground paints the top pixel and its
// background paints the bottom one. That keeps the arena's proportions close
// to the original 960x720 field on any terminal size.

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rebound/internal/config"
	"rebound/internal/geom"
	"rebound/internal/sim"
)

// cell color indexes, in draw priority order (higher wins).
const (
	cellBackground = iota
	cellBoxOne
	cellBoxTwo
	cellBall
)

type canvas struct {
	tuning sim.Tuning
	cols   int // character columns
	rows   int // pixel rows; two per character row
	scale  float64

	styles map[[2]int]lipgloss.Style
}

// newCanvas sizes a canvas so the whole arena fits inside maxCols x maxRows
// character cells while preserving aspect.
func newCanvas(tuning sim.Tuning, display config.Display, maxCols, maxRows int) *canvas {
	pixelRows := maxRows * 2
	scaleX := float64(maxCols) / tuning.ArenaWidth
	scaleY := float64(pixelRows) / tuning.ArenaHeight
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}

	cols := int(tuning.ArenaWidth * scale)
	rows := int(tuning.ArenaHeight * scale)
	if cols < 2 {
		cols = 2
	}
	if rows < 2 {
		rows = 2
	}
	// Pixel rows pair up into character rows.
	if rows%2 != 0 {
		rows++
	}

	colors := [4]lipgloss.Color{
		lipgloss.Color(display.Background),
		lipgloss.Color(display.BoxOne),
		lipgloss.Color(display.BoxTwo),
		lipgloss.Color(display.Ball),
	}
	styles := make(map[[2]int]lipgloss.Style, 16)
	for top := 0; top < 4; top++ {
		for bottom := 0; bottom < 4; bottom++ {
			styles[[2]int{top, bottom}] = lipgloss.NewStyle().
				Foreground(colors[top]).
				Background(colors[bottom])
		}
	}

	return &canvas{
		tuning: tuning,
		cols:   cols,
		rows:   rows,
		scale:  scale,
		styles: styles,
	}
}

// rasterize fills the pixel grid for one frame. Draw order follows the
// original scene: background, box one, box two, ball on top.
func (c *canvas) rasterize(frame sim.Frame) []int {
	grid := make([]int, c.cols*c.rows)

	c.fillRect(grid, frame.Boxes[sim.PlayerOne], cellBoxOne)
	c.fillRect(grid, frame.Boxes[sim.PlayerTwo], cellBoxTwo)
	c.fillCircle(grid, frame.BallPos, c.tuning.BallRadius, cellBall)
	return grid
}

func (c *canvas) fillRect(grid []int, r geom.Rect, color int) {
	x0, y0 := c.toPixel(r.Left(), r.Top())
	x1, y1 := c.toPixel(r.Right(), r.Bottom())
	for py := y0; py <= y1; py++ {
		if py < 0 || py >= c.rows {
			continue
		}
		for px := x0; px <= x1; px++ {
			if px < 0 || px >= c.cols {
				continue
			}
			grid[py*c.cols+px] = color
		}
	}
}

func (c *canvas) fillCircle(grid []int, center geom.Vec2, radius float64, color int) {
	x0, y0 := c.toPixel(center.X-radius, center.Y-radius)
	x1, y1 := c.toPixel(center.X+radius, center.Y+radius)
	for py := y0; py <= y1; py++ {
		if py < 0 || py >= c.rows {
			continue
		}
		for px := x0; px <= x1; px++ {
			if px < 0 || px >= c.cols {
				continue
			}
			// Sample the pixel center in world coordinates.
			wx := (float64(px) + 0.5) / c.scale
			wy := (float64(py) + 0.5) / c.scale
			dx := wx - center.X
			dy := wy - center.Y
			if dx*dx+dy*dy <= radius*radius {
				grid[py*c.cols+px] = color
			}
		}
	}
}

func (c *canvas) toPixel(x, y float64) (int, int) {
	return int(x * c.scale), int(y * c.scale)
}

// render composes the pixel grid into styled half-block lines.
func (c *canvas) render(frame sim.Frame) string {
	grid := c.rasterize(frame)

	var sb strings.Builder
	for row := 0; row < c.rows/2; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		top := grid[(row*2)*c.cols : (row*2+1)*c.cols]
		bottom := grid[(row*2+1)*c.cols : (row*2+2)*c.cols]

		// Batch runs of identical color pairs into one styled write.
		runStart := 0
		for col := 1; col <= c.cols; col++ {
			if col < c.cols && top[col] == top[runStart] && bottom[col] == bottom[runStart] {
				continue
			}
			pair := [2]int{top[runStart], bottom[runStart]}
			sb.WriteString(c.styles[pair].Render(strings.Repeat("▀", col-runStart)))
			runStart = col
		}
	}
	return sb.String()
}
