package term

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"dronefield/internal/sim"
)

// Terminals report presses and auto-repeat but never releases, so a control
// counts as held until no repeat has arrived for the hold window.
const defaultHold = 500 * time.Millisecond

type control int

const (
	ctlForward control = iota
	ctlBack
	ctlLeft
	ctlRight
	ctlYawLeft
	ctlYawRight
	ctlThrottleUp
	ctlThrottleDown
	numControls
)

// Command is a one-shot key action outside the flight controls.
type Command int

const (
	CmdNone Command = iota
	CmdQuit
	CmdReset
	CmdPilot
	CmdCamera
)

// Keys turns key events into held flight controls.
type Keys struct {
	Hold time.Duration
	last [numControls]time.Time
}

func NewKeys() *Keys { return &Keys{Hold: defaultHold} }

// Handle records a key event and returns the command it triggers, if any.
func (k *Keys) Handle(ev *tcell.EventKey, now time.Time) Command {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return CmdQuit
	case tcell.KeyUp:
		k.press(ctlForward, now)
	case tcell.KeyDown:
		k.press(ctlBack, now)
	case tcell.KeyLeft:
		k.press(ctlLeft, now)
	case tcell.KeyRight:
		k.press(ctlRight, now)
	case tcell.KeyRune:
		return k.rune(ev.Rune(), now)
	}
	return CmdNone
}

func (k *Keys) rune(r rune, now time.Time) Command {
	switch r {
	case 'w', 'W':
		k.press(ctlThrottleUp, now)
	case 's', 'S':
		k.press(ctlThrottleDown, now)
	case 'a', 'A':
		k.press(ctlYawLeft, now)
	case 'd', 'D':
		k.press(ctlYawRight, now)
	case 'q', 'Q':
		k.press(ctlLeft, now)
	case 'e', 'E':
		k.press(ctlRight, now)
	case 'r', 'R':
		return CmdReset
	case 'p', 'P':
		return CmdPilot
	case 'c', 'C':
		return CmdCamera
	case 'x', 'X':
		return CmdQuit
	}
	return CmdNone
}

func (k *Keys) press(c control, now time.Time) { k.last[c] = now }

func (k *Keys) held(c control, now time.Time) bool {
	t := k.last[c]
	return !t.IsZero() && now.Sub(t) < k.Hold
}

// Intent is the set of controls held at now.
func (k *Keys) Intent(now time.Time) sim.Intent {
	return sim.Intent{
		Forward:      k.held(ctlForward, now),
		Back:         k.held(ctlBack, now),
		Left:         k.held(ctlLeft, now),
		Right:        k.held(ctlRight, now),
		YawLeft:      k.held(ctlYawLeft, now),
		YawRight:     k.held(ctlYawRight, now),
		ThrottleUp:   k.held(ctlThrottleUp, now),
		ThrottleDown: k.held(ctlThrottleDown, now),
	}
}

// Release drops every held control.
func (k *Keys) Release() { k.last = [numControls]time.Time{} }
