// Package sound plays flight audio: a rotor hum that follows throttle and
// short chimes for crashes and captures.
package sound

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	SampleRate   = beep.SampleRate(44100)
	crashTone    = 220.0
	captureTone  = 880.0
	chimeLength  = 150 * time.Millisecond
	speakerDelay = time.Second / 10
)

// Player owns the speaker. A Player whose speaker failed to open stays silent
// but is still safe to use.
type Player struct {
	mu      sync.Mutex
	enabled bool
}

// Open initialises the speaker. The error is informational: the returned
// Player is always usable.
func Open() (*Player, error) {
	p := &Player{}
	if err := speaker.Init(SampleRate, SampleRate.N(speakerDelay)); err != nil {
		return p, err
	}
	p.enabled = true
	return p, nil
}

func (p *Player) Crash()     { p.tone(crashTone, 2*chimeLength) }
func (p *Player) Objective() { p.tone(captureTone, chimeLength) }

func (p *Player) tone(freq float64, d time.Duration) {
	sine, err := generators.SineTone(SampleRate, freq)
	if err != nil {
		return
	}
	p.Play(beep.Take(SampleRate.N(d), sine))
}

// Play mixes s into the output.
func (p *Player) Play(s beep.Streamer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		speaker.Play(s)
	}
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		speaker.Close()
		p.enabled = false
	}
}
