package sound

import (
	"math"
	"sync"

	"github.com/gopxl/beep"
)

const (
	rotorBlades = 2
	nominalRPM  = 4000.0
	maxRPM      = 8000.0
	hearingDist = 8.0    // metres at which the hum is at half volume
	glide       = 0.0015 // per-sample approach toward new gain and pitch
)

// Rotor is an endless beep.Streamer synthesising the blade-pass hum of the
// drone. Set adjusts it from the game loop while the speaker streams it.
type Rotor struct {
	rate beep.SampleRate

	mu         sync.Mutex
	wantGain   float64
	wantFreq   float64
	gain, freq float64
	phase      float64
}

func NewRotor(rate beep.SampleRate) *Rotor {
	base := bladeFrequency(nominalRPM)
	return &Rotor{rate: rate, wantFreq: base, freq: base}
}

// Set maps throttle in [0, 1] to rotor speed. A body that is not running is
// silent; distance from the listener attenuates the hum.
func (r *Rotor) Set(throttle float64, running bool, distance float64) {
	throttle = math.Min(math.Max(throttle, 0), 1)
	rpm := maxRPM * math.Sqrt(throttle)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.wantGain = rpmGain(rpm, running) / (1 + math.Max(distance, 0)/hearingDist)
	r.wantFreq = bladeFrequency(nominalRPM) * rpmRate(rpm, running)
}

func (r *Rotor) Stream(samples [][2]float64) (n int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range samples {
		r.gain += (r.wantGain - r.gain) * glide
		r.freq += (r.wantFreq - r.freq) * glide
		r.phase += 2 * math.Pi * r.freq / float64(r.rate)
		if r.phase > 4*math.Pi {
			r.phase -= 4 * math.Pi
		}
		v := r.gain * rotorWave(r.phase)
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

func (r *Rotor) Err() error { return nil }

func bladeFrequency(rpm float64) float64 { return rpm / 60 * rotorBlades }

// rotorWave is the blade-pass tone with two harmonics and a slow flutter,
// bounded by 1 in magnitude.
func rotorWave(phase float64) float64 {
	tone := math.Sin(phase) + 0.35*math.Sin(2*phase+0.1) + 0.2*math.Sin(3*phase+0.2)
	flutter := 0.7 + 0.15*math.Sin(phase*0.5)
	return tone * flutter / 1.9
}

func rpmGain(rpm float64, running bool) float64 {
	if !running || rpm <= 1 {
		return 0
	}
	return 0.08 + 0.6*math.Min(rpm/maxRPM, 1)
}

func rpmRate(rpm float64, running bool) float64 {
	if !running || rpm <= 1 {
		return 0.4
	}
	return math.Min(math.Max(rpm/nominalRPM, 0.4), 2.2)
}
