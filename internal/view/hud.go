package view

import (
	"fmt"
	"strings"

	"dronefield/internal/sim"
)

// Panel is the HUD content for one frame.
type Panel struct {
	Snapshot sim.Snapshot
	Camera   sim.CameraMode
	Auto     bool
	FPS      float64
	Status   string
}

// Lines renders the panel as the rows drawn by the HUD, top to bottom.
func (p Panel) Lines() []string {
	s := p.Snapshot
	mode := "MANUAL"
	if p.Auto {
		mode = "AUTO"
	}
	lines := []string{
		fmt.Sprintf("%s  %s", strings.ToUpper(s.Status.String()), mode),
		fmt.Sprintf("ALT %.1f M  VS %.1f M/S", s.Position.Y, s.Velocity.Y),
		fmt.Sprintf("SPD %.1f M/S", s.Velocity.Length()),
		fmt.Sprintf("THR %.0f%%  BAT %.0f%%", s.Throttle*100, s.Battery),
		fmt.Sprintf("PITCH %.0f  ROLL %.0f  YAW %.0f",
			sim.RadToDeg(s.Attitude.Pitch), sim.RadToDeg(s.Attitude.Roll), sim.RadToDeg(s.Attitude.Yaw)),
	}
	if s.HasObjective {
		lines = append(lines, fmt.Sprintf("OBJ %.1f M", s.Distance))
	}
	lines = append(lines,
		fmt.Sprintf("CAM %s  FPS %.0f", strings.ToUpper(p.Camera.String()), p.FPS),
	)
	if p.Status != "" {
		lines = append(lines, p.Status)
	}
	return lines
}

// Help is the key reference printed when the viewer starts.
const Help = `W/S - Throttle up/down
A/D - Yaw left/right
Up/Down - Pitch forward/back
Left/Right or Q/E - Roll left/right
P - Toggle autopilot   R - Reset   C - Cycle camera
+/- or scroll - Top-down height   ESC - Quit`
