// Package audio connects the playback controller to a local sound device:
// oto for output, beep for decoding real tracks.
package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"github.com/okian/vibeverse/internal/domain/synth"
)

const (
	channelCount   = 2
	bytesPerSample = 4
	frameBytes     = channelCount * bytesPerSample
	drainPoll      = 10 * time.Millisecond
)

// player is the subset of oto.Player the adapters drive.
type player interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(v float64)
	Err() error
	Close() error
}

// output creates players on a device.
type output interface {
	newPlayer(r io.Reader) player
	sampleRate() int
}

// Device is a float32 stereo oto context.
type Device struct {
	ctx   *oto.Context
	ready chan struct{}
	rate  int
}

// NewDevice opens the system audio device at the given sample rate.
func NewDevice(sampleRate int) (*Device, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	ctx, ready, err := oto.NewContext(sampleRate, channelCount, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	return &Device{ctx: ctx, ready: ready, rate: sampleRate}, nil
}

// Ready reports whether the device finished initialising.
func (d *Device) Ready() bool {
	select {
	case <-d.ready:
		return true
	default:
		return false
	}
}

// PlayTone renders the tone and plays it on a short-lived player. Tones
// arriving before the device is ready are dropped.
func (d *Device) PlayTone(t synth.Tone) {
	if !d.Ready() || t.Gain <= 0 {
		return
	}
	data := synth.Render(t, d.rate)
	if len(data) == 0 {
		return
	}
	go func() {
		p := d.ctx.NewPlayer(&byteReader{data: data})
		p.Play()
		for p.IsPlaying() {
			time.Sleep(drainPoll)
		}
		_ = p.Close()
	}()
}

func (d *Device) newPlayer(r io.Reader) player {
	return d.ctx.NewPlayer(r)
}

func (d *Device) sampleRate() int {
	return d.rate
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
