package sound

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stream(r *Rotor, n int) [][2]float64 {
	buf := make([][2]float64, n)
	got, ok := r.Stream(buf)
	if got != n || !ok {
		panic("short stream")
	}
	return buf
}

func peak(buf [][2]float64) float64 {
	m := 0.0
	for _, s := range buf {
		m = math.Max(m, math.Abs(s[0]))
	}
	return m
}

func TestRotorSilentWhenNotRunning(t *testing.T) {
	r := NewRotor(SampleRate)
	r.Set(0.9, false, 0)
	assert.Zero(t, peak(stream(r, 4096)))
	require.NoError(t, r.Err())
}

func TestRotorHumFollowsThrottle(t *testing.T) {
	r := NewRotor(SampleRate)
	r.Set(1, true, 0)
	buf := stream(r, int(SampleRate))

	p := peak(buf)
	assert.Greater(t, p, 0.1)
	assert.LessOrEqual(t, p, 1.0)
	for _, s := range buf {
		require.Equal(t, s[0], s[1])
	}
	assert.InDelta(t, bladeFrequency(nominalRPM)*2, r.freq, 1e-3)
	assert.InDelta(t, 0.68, r.gain, 1e-3)
}

func TestRotorDistanceAttenuates(t *testing.T) {
	near := NewRotor(SampleRate)
	far := NewRotor(SampleRate)
	near.Set(0.5, true, 0)
	far.Set(0.5, true, hearingDist)
	assert.InDelta(t, near.wantGain/2, far.wantGain, 1e-12)
}

func TestRotorRate(t *testing.T) {
	assert.Equal(t, 0.4, rpmRate(100, true))
	assert.Equal(t, 2.0, rpmRate(maxRPM, true))
	assert.Equal(t, 0.4, rpmRate(maxRPM, false))
	assert.Zero(t, rpmGain(maxRPM, false))
	assert.InDelta(t, 0.68, rpmGain(maxRPM, true), 1e-12)
}

func TestRotorWaveBounded(t *testing.T) {
	for i := 0; i < 10000; i++ {
		v := rotorWave(float64(i) * 4 * math.Pi / 10000)
		require.LessOrEqual(t, math.Abs(v), 1.0)
	}
}
