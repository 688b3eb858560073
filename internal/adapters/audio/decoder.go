package audio

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/internal/playback"
	"github.com/okian/vibeverse/pkg/logger"
)

const resampleQuality = 4

// Decoder opens tracks on a device: fetch, decode, resample, then hand the
// result to a paused player.
type Decoder struct {
	fetcher *Fetcher
	out     output
	log     logger.Logger
}

// NewDecoder creates an opener that plays on d.
func NewDecoder(d *Device, f *Fetcher) *Decoder {
	return newDecoder(d, f)
}

func newDecoder(out output, f *Fetcher) *Decoder {
	if f == nil {
		f = NewFetcher()
	}
	return &Decoder{fetcher: f, out: out, log: logger.Named("audio")}
}

// Open fetches and decodes the track's source. The returned stream is paused.
func (d *Decoder) Open(ctx context.Context, track model.Track) (playback.Stream, error) {
	if track.URL == "" {
		return nil, fmt.Errorf("%w: track %s has no locator", ErrUnsupportedSource, track.ID)
	}
	if dev, ok := d.out.(*Device); ok && !dev.Ready() {
		return nil, ErrDeviceNotReady
	}

	started := time.Now()
	data, ext, err := d.fetcher.Fetch(ctx, track.URL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, format, err := decode(data, ext)
	if err != nil {
		return nil, err
	}
	st := newStream(src, format, d.out)

	d.log.Debug(ctx, "source opened",
		logger.String("track", track.ID),
		logger.Int("bytes", len(data)),
		logger.Int("sample_rate", int(format.SampleRate)),
		logger.Duration("length", format.SampleRate.D(src.Len())),
		logger.Duration("took", time.Since(started)),
	)
	return st, nil
}

type memSource struct {
	*bytes.Reader
}

func (memSource) Close() error { return nil }

func decode(data []byte, ext string) (beep.StreamSeekCloser, beep.Format, error) {
	if ext != ".mp3" && ext != ".wav" {
		ext = sniff(data)
	}

	var (
		src    beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch ext {
	case ".mp3":
		src, format, err = mp3.Decode(memSource{bytes.NewReader(data)})
	case ".wav":
		src, format, err = wav.Decode(bytes.NewReader(data))
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: decode %s: %w", ErrUnsupportedFormat, ext, err)
	}
	return src, format, nil
}

func sniff(data []byte) string {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return ".wav"
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return ".mp3"
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return ".mp3"
	}
	return ""
}
