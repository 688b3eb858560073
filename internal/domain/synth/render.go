package synth

import (
	"math"
)

const (
	// peak matches the level of the original notification beep.
	peak = 0.3
	// attack is the fraction of the tone spent ramping in, to avoid clicks.
	attack = 0.01
	// floor is the envelope level at the end of the decay.
	floor = 0.01
)

// Render produces the tone as interleaved stereo float32 little-endian PCM.
func Render(t Tone, sampleRate int) []byte {
	if sampleRate <= 0 || t.Decay <= 0 {
		return nil
	}
	n := int(t.Decay.Seconds() * float64(sampleRate))
	buf := make([]byte, n*8)
	gain := math.Max(0, math.Min(1, t.Gain)) * peak
	if gain == 0 {
		return buf
	}
	for i := 0; i < n; i++ {
		p := float64(i) / float64(n)
		phase := t.Frequency * float64(i) / float64(sampleRate)
		putStereoF32(buf, i, Oscillate(t.Wave, phase)*envelope(p)*gain)
	}
	return buf
}

// envelope is a short linear attack followed by an exponential decay to floor.
func envelope(p float64) float64 {
	if p < attack {
		return p / attack
	}
	return math.Exp(math.Log(floor) * (p - attack) / (1 - attack))
}

// putStereoF32 writes a [-1,1] sample as float32 LE to both stereo channels at frame i.
func putStereoF32(buf []byte, i int, sample float64) {
	v := math.Float32bits(float32(sample))
	for c := 0; c < 2; c++ {
		o := i*8 + c*4
		buf[o] = byte(v)
		buf[o+1] = byte(v >> 8)
		buf[o+2] = byte(v >> 16)
		buf[o+3] = byte(v >> 24)
	}
}
