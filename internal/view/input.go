//go:build !test
// +build !test

package view

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"dronefield/internal/sim"
)

// InputHandler samples the keyboard. Flight controls are read as held keys
// every frame; commands fire once per press.
type InputHandler struct {
	keys        map[glfw.Key]bool
	keyPressed  map[glfw.Key]bool
	scrollDelta float64
}

func NewInputHandler() *InputHandler {
	return &InputHandler{
		keys:       make(map[glfw.Key]bool),
		keyPressed: make(map[glfw.Key]bool),
	}
}

func (i *InputHandler) SetupCallbacks(window *glfw.Window) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		switch action {
		case glfw.Press:
			i.keys[key] = true
			i.keyPressed[key] = true
		case glfw.Release:
			i.keys[key] = false
		}
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		i.scrollDelta += yoff
	})
}

func (i *InputHandler) IsKeyPressed(key glfw.Key) bool { return i.keys[key] }

// WasKeyPressed reports a press once and then clears it.
func (i *InputHandler) WasKeyPressed(key glfw.Key) bool {
	if i.keyPressed[key] {
		i.keyPressed[key] = false
		return true
	}
	return false
}

// Scroll returns and clears the accumulated scroll.
func (i *InputHandler) Scroll() float64 {
	d := i.scrollDelta
	i.scrollDelta = 0
	return d
}

// Intent reads the held flight controls.
func (i *InputHandler) Intent() sim.Intent {
	return sim.Intent{
		Forward:      i.keys[glfw.KeyUp],
		Back:         i.keys[glfw.KeyDown],
		Left:         i.keys[glfw.KeyLeft] || i.keys[glfw.KeyQ],
		Right:        i.keys[glfw.KeyRight] || i.keys[glfw.KeyE],
		YawLeft:      i.keys[glfw.KeyA],
		YawRight:     i.keys[glfw.KeyD],
		ThrottleUp:   i.keys[glfw.KeyW],
		ThrottleDown: i.keys[glfw.KeyS],
	}
}

