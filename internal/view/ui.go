//go:build !test
// +build !test

package view

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"dronefield/internal/sim"
)

const uiVertexShader = `#version 410 core
layout(location=0) in vec2 aPos;
layout(location=1) in vec4 aColor;
out vec4 vColor;
void main(){
    gl_Position = vec4(aPos, 0.0, 1.0);
    vColor = aColor;
}` + "\x00"

const uiFragmentShader = `#version 410 core
in vec4 vColor;
out vec4 FragColor;
void main(){
    FragColor = vColor;
}` + "\x00"

// UIRenderer batches 2D coloured rectangles in pixel space.
type UIRenderer struct {
	shader uint32
	vao    uint32
	vbo    uint32
	verts  []float32 // x,y,r,g,b,a per vertex
	scrW   int
	scrH   int
}

func NewUIRenderer() (*UIRenderer, error) {
	shader, err := linkProgram(uiVertexShader, uiFragmentShader)
	if err != nil {
		return nil, err
	}
	u := &UIRenderer{shader: shader}
	gl.GenVertexArrays(1, &u.vao)
	gl.GenBuffers(1, &u.vbo)
	gl.BindVertexArray(u.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, u.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.DYNAMIC_DRAW)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 6*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, 6*4, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)
	return u, nil
}

func (u *UIRenderer) Begin(width, height int) {
	u.scrW, u.scrH = width, height
	u.verts = u.verts[:0]
}

func (u *UIRenderer) Flush() {
	if len(u.verts) == 0 {
		return
	}
	gl.UseProgram(u.shader)
	gl.BindVertexArray(u.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, u.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(u.verts)*4, gl.Ptr(u.verts), gl.DYNAMIC_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(u.verts)/6))
	gl.BindVertexArray(0)
}

func (u *UIRenderer) AddRect(x, y, w, h int, c Color) {
	x0 := u.ndcX(float32(x))
	y0 := u.ndcY(float32(y))
	x1 := u.ndcX(float32(x + w))
	y1 := u.ndcY(float32(y + h))
	u.verts = append(u.verts,
		x0, y0, c.R, c.G, c.B, c.A,
		x1, y0, c.R, c.G, c.B, c.A,
		x1, y1, c.R, c.G, c.B, c.A,
		x0, y0, c.R, c.G, c.B, c.A,
		x1, y1, c.R, c.G, c.B, c.A,
		x0, y1, c.R, c.G, c.B, c.A,
	)
}

// DrawText draws text with the 5x7 font; scale is the size of one font pixel.
func (u *UIRenderer) DrawText(x, y int, text string, scale int, c Color) {
	for _, r := range layoutText(x, y, text, scale) {
		u.AddRect(r.X, r.Y, r.W, r.H, c)
	}
}

func (u *UIRenderer) ndcX(px float32) float32 { return (px/float32(u.scrW))*2 - 1 }

// ndcY flips the top-left pixel origin into NDC.
func (u *UIRenderer) ndcY(py float32) float32 { return 1 - (py/float32(u.scrH))*2 }

// DrawPanel draws the HUD panel in the top-left corner.
func (u *UIRenderer) DrawPanel(p Panel) {
	const (
		scale  = 2
		margin = 12
		line   = 8 * scale
	)
	lines := p.Lines()
	width := 0
	for _, l := range lines {
		if w := textWidth(l, scale); w > width {
			width = w
		}
	}
	u.AddRect(0, 0, width+2*margin, len(lines)*line+2*margin, Color{0, 0, 0, 0.45})

	y := margin
	for i, l := range lines {
		c := Color{0.9, 0.95, 1, 1}
		if i == 0 && p.Snapshot.Status == sim.StatusCrashed {
			c = Color{1, 0.35, 0.3, 1}
		}
		u.DrawText(margin, y, l, scale, c)
		y += line
	}
}
