package audio

import (
	"context"

	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/internal/domain/synth"
	"github.com/okian/vibeverse/internal/playback"
)

// Silent discards tones. Used when audio output is disabled.
type Silent struct{}

// PlayTone implements playback.ToneSink.
func (Silent) PlayTone(synth.Tone) {}

// Unavailable fails every open, so playback falls back to synthesized mode.
type Unavailable struct{}

// Open implements playback.Opener.
func (Unavailable) Open(context.Context, model.Track) (playback.Stream, error) {
	return nil, ErrNoDevice
}

var (
	_ playback.ToneSink = Silent{}
	_ playback.Opener   = Unavailable{}
	_ playback.ToneSink = (*Device)(nil)
	_ playback.Opener   = (*Decoder)(nil)
	_ playback.Stream   = (*stream)(nil)
)
