package synth_test

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/okian/vibeverse/internal/domain/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPatterns(t *testing.T) {
	Convey("Given the pattern table", t, func() {
		all := synth.Patterns()

		Convey("Then every pattern should stay within the reference ranges", func() {
			So(len(all), ShouldBeGreaterThan, 1)
			for _, p := range all {
				So(p.Tempo, ShouldBeBetweenOrEqual, 300*time.Millisecond, 2000*time.Millisecond)
				So(p.Decay, ShouldBeBetweenOrEqual, 500*time.Millisecond, 800*time.Millisecond)
				for _, f := range p.Scale {
					So(f, ShouldBeGreaterThan, 0)
				}
			}
		})

		Convey("When selecting the pattern of a track twice", func() {
			a := synth.ForTrack("chill_1")
			b := synth.ForTrack("chill_1")

			Convey("Then the selection should be stable", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When selecting patterns for many tracks", func() {
			seen := map[string]bool{}
			for i := 0; i < 200; i++ {
				seen[synth.ForTrack(fmt.Sprintf("track_%d", i)).Name] = true
			}

			Convey("Then more than one pattern should be used", func() {
				So(len(seen), ShouldBeGreaterThan, 1)
			})
		})

		Convey("When the copy is modified", func() {
			all[0].Name = "changed"

			Convey("Then the table should be unaffected", func() {
				So(synth.Patterns()[0].Name, ShouldNotEqual, "changed")
			})
		})
	})
}

func TestPatternTone(t *testing.T) {
	Convey("Given a pattern", t, func() {
		p := synth.Patterns()[0]

		Convey("When stepping past the end of the scale", func() {
			Convey("Then tones should cycle through it", func() {
				So(p.Tone(0, 1).Frequency, ShouldEqual, p.Scale[0])
				So(p.Tone(4, 1).Frequency, ShouldEqual, p.Scale[4])
				So(p.Tone(5, 1).Frequency, ShouldEqual, p.Scale[0])
				So(p.Tone(-1, 1).Frequency, ShouldEqual, p.Scale[4])
				So(p.Tone(7, 0.5).Gain, ShouldEqual, 0.5)
				So(p.Tone(7, 0.5).Decay, ShouldEqual, p.Decay)
			})
		})
	})
}

func TestOscillate(t *testing.T) {
	Convey("Given the oscillator shapes", t, func() {
		So(synth.Oscillate(synth.Sine, 0.25), ShouldAlmostEqual, 1, 1e-9)
		So(synth.Oscillate(synth.Square, 0.1), ShouldEqual, 1)
		So(synth.Oscillate(synth.Square, 0.6), ShouldEqual, -1)
		So(synth.Oscillate(synth.Sawtooth, 0.5), ShouldEqual, 0)
		So(synth.Oscillate(synth.Triangle, 0.5), ShouldEqual, 1)
		So(synth.Oscillate(synth.Triangle, 1.0), ShouldEqual, -1)
	})
}

func TestRender(t *testing.T) {
	Convey("Given a tone", t, func() {
		tone := synth.Tone{Frequency: 440, Wave: synth.Sine, Decay: 500 * time.Millisecond, Gain: 1}

		Convey("When rendering at 8 kHz", func() {
			buf := synth.Render(tone, 8000)

			Convey("Then it should hold decay*rate stereo float32 frames", func() {
				So(len(buf), ShouldEqual, 4000*8)
			})

			Convey("Then both channels should match and stay under the peak", func() {
				maxAbs := 0.0
				for i := 0; i < 4000; i++ {
					l := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*8:]))
					r := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*8+4:]))
					So(l, ShouldEqual, r)
					maxAbs = math.Max(maxAbs, math.Abs(float64(l)))
				}
				So(maxAbs, ShouldBeLessThanOrEqualTo, 0.3+1e-6)
				So(maxAbs, ShouldBeGreaterThan, 0.1)
			})

			Convey("Then the tail should have decayed", func() {
				last := math.Float32frombits(binary.LittleEndian.Uint32(buf[3999*8:]))
				So(math.Abs(float64(last)), ShouldBeLessThan, 0.01)
			})
		})

		Convey("When rendering a muted tone", func() {
			tone.Gain = 0
			buf := synth.Render(tone, 8000)

			Convey("Then it should be silence of the same length", func() {
				So(len(buf), ShouldEqual, 4000*8)
				for _, b := range buf {
					if b != 0 {
						So(b, ShouldEqual, 0)
					}
				}
			})
		})

		Convey("When the sample rate is invalid", func() {
			So(synth.Render(tone, 0), ShouldBeNil)
		})
	})
}
