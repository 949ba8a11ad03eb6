package term

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"

	"dronefield/internal/sim"
)

// Canvas is the drawing surface; tcell.Screen satisfies it.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
}

var (
	styleGround    = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	styleLow       = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHigh      = tcell.StyleDefault.Foreground(tcell.ColorIndianRed)
	styleTree      = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleObjective = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleDrone     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleWreck     = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleHUD       = tcell.StyleDefault.Reverse(true)
)

// Map is a north-up top-down view centred on the drone. North is -Z.
// Terminal cells are about twice as tall as wide, so a row spans two columns'
// worth of metres.
type Map struct {
	Scale      float64 // metres per column
	TreeRadius float64
}

func (m Map) rowScale() float64 { return 2 * m.Scale }

// cell maps a world point to a map cell.
func (m Map) cell(p, centre sim.Vec3, w, h int) (int, int) {
	col := w/2 + int(math.Floor((p.X-centre.X)/m.Scale+0.5))
	row := h/2 + int(math.Floor((p.Z-centre.Z)/m.rowScale()+0.5))
	return col, row
}

// Draw fills every map row (all but the last line) and the HUD line.
func (m Map) Draw(c Canvas, snap sim.Snapshot, obstacles []sim.Obstacle, objective *sim.Vec3, status string) {
	w, h := c.Size()
	if w <= 0 || h <= 0 {
		return
	}
	mapH := h - 1
	centre := snap.Position

	for row := 0; row < mapH; row++ {
		for col := 0; col < w; col++ {
			p := sim.Vec3{
				X: centre.X + float64(col-w/2)*m.Scale,
				Z: centre.Z + float64(row-mapH/2)*m.rowScale(),
			}
			r, style := m.terrain(p, snap.Position.Y, obstacles)
			c.SetContent(col, row, r, nil, style)
		}
	}

	if objective != nil {
		col, row := m.cell(*objective, centre, w, mapH)
		if col >= 0 && col < w && row >= 0 && row < mapH {
			c.SetContent(col, row, '◎', nil, styleObjective)
		}
	}
	if mapH > 0 {
		r, style := droneGlyph(snap)
		c.SetContent(w/2, mapH/2, r, nil, style)
	}

	drawHUD(c, w, h-1, snap, status)
}

// terrain picks the glyph for the ground point p. Buildings taller than the
// drone are highlighted.
func (m Map) terrain(p sim.Vec3, altitude float64, obstacles []sim.Obstacle) (rune, tcell.Style) {
	for _, o := range obstacles {
		switch o.Kind {
		case sim.Building:
			if math.Abs(p.X-o.Center.X) <= o.Extents.X/2 && math.Abs(p.Z-o.Center.Z) <= o.Extents.Z/2 {
				if o.Top() >= altitude {
					return '█', styleHigh
				}
				return '▓', styleLow
			}
		case sim.Tree:
			r := math.Max(m.TreeRadius, o.Extents.X/2)
			if p.HorizontalDistance(o.Center) <= r {
				return '♣', styleTree
			}
		}
	}
	return '·', styleGround
}

func droneGlyph(snap sim.Snapshot) (rune, tcell.Style) {
	if snap.Status == sim.StatusCrashed {
		return 'X', styleWreck
	}
	h := snap.Attitude.Heading()
	switch {
	case math.Abs(h.X) > math.Abs(h.Z) && h.X > 0:
		return '>', styleDrone
	case math.Abs(h.X) > math.Abs(h.Z):
		return '<', styleDrone
	case h.Z > 0:
		return 'v', styleDrone
	default:
		return '^', styleDrone
	}
}

// HUDLine is the one-line readout shown under the map.
func HUDLine(snap sim.Snapshot, status string) string {
	line := fmt.Sprintf(" ALT %5.1fm  SPD %4.1fm/s  THR %3.0f%%  BAT %3.0f%%  HDG %3.0f°",
		snap.Position.Y, snap.Velocity.Length(), snap.Throttle*100, snap.Battery, heading(snap.Attitude.Yaw))
	if snap.HasObjective {
		line += fmt.Sprintf("  OBJ %5.1fm", snap.Distance)
	}
	line += "  " + strings.ToUpper(snap.Status.String())
	if status != "" {
		line += "  " + status
	}
	return line
}

// heading converts yaw to a compass bearing with north along -Z.
func heading(yaw float64) float64 {
	deg := math.Mod(-sim.RadToDeg(yaw), 360)
	if deg <= 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

func drawHUD(c Canvas, w, row int, snap sim.Snapshot, status string) {
	col := 0
	for _, r := range HUDLine(snap, status) {
		if col >= w {
			break
		}
		c.SetContent(col, row, r, nil, styleHUD)
		col++
	}
	for ; col < w; col++ {
		c.SetContent(col, row, ' ', nil, styleHUD)
	}
}
