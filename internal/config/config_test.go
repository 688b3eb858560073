package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/vibeverse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.ReadyTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.PlaybackTick(), convey.ShouldEqual, 100*time.Millisecond)
			convey.So(cfg.GameTick(), convey.ShouldEqual, 50*time.Millisecond)
			convey.So(cfg.WSPushInterval(), convey.ShouldEqual, 250*time.Millisecond)
			convey.So(cfg.RemixDelay(), convey.ShouldEqual, 3*time.Second)
			convey.So(cfg.RemixMaxBytes, convey.ShouldEqual, int64(10<<20))
			convey.So(cfg.DefaultVolume, convey.ShouldEqual, 0.8)
			convey.So(cfg.HitWindowStart, convey.ShouldEqual, 80)
			convey.So(cfg.HitWindowEnd, convey.ShouldEqual, 95)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.LeaderboardBackend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		cases := map[string]func(){
			"empty addr":          func() { cfg.Addr = "" },
			"zero sample rate":    func() { cfg.SampleRate = 0 },
			"zero ready timeout":  func() { cfg.ReadyTimeoutMS = 0 },
			"loud volume":         func() { cfg.DefaultVolume = 1.5 },
			"zero beat step":      func() { cfg.BeatStep = 0 },
			"inverted window":     func() { cfg.HitWindowStart, cfg.HitWindowEnd = 95, 80 },
			"window past 100":     func() { cfg.HitWindowEnd = 120 },
			"zero queue":          func() { cfg.EventQueueSize = 0 },
			"zero limit":          func() { cfg.MaxLeaderboardLimit = 0 },
			"unknown backend":     func() { cfg.LeaderboardBackend = "etcd" },
			"redis without addr":  func() { cfg.LeaderboardBackend, cfg.RedisAddr = config.BackendRedis, "" },
			"negative ws refresh": func() { cfg.WSPushIntervalMS = -1 },
			"zero journal cap":    func() { cfg.JournalMaxEntries = 0 },
			"zero remix delay":    func() { cfg.RemixDelayMS = 0 },
			"zero remix upload":   func() { cfg.RemixMaxBytes = 0 },
		}

		for name, mutate := range cases {
			convey.Convey("When the config has "+name, func() {
				mutate()

				convey.Convey("Then validation should fail with ErrInvalidConfig", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the backend is unknown", func() {
			cfg.LeaderboardBackend = "etcd"

			convey.Convey("Then the backend error is reported", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrUnknownBackend), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the redis backend has an address", func() {
			cfg.LeaderboardBackend = config.BackendRedis

			convey.Convey("Then validation should pass", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
