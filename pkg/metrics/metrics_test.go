package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every metric should be registered there", func() {
				So(manager, ShouldNotBeNil)
				manager.playbackStarts.WithLabelValues("real").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_playback_starts_total"], ShouldBeTrue)
				So(names["test_leaderboard_players"], ShouldBeTrue)
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration should panic", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording playback metrics", func() {
			before := testutil.ToFloat64(globalManager.playbackFallbacks.WithLabelValues("timeout"))
			RecordPlaybackFallback("timeout")
			RecordPlaybackStart("synthesized")
			RecordPlaybackOpenLatency(12)
			RecordToneEmitted()

			Convey("Then the fallback counter should move", func() {
				after := testutil.ToFloat64(globalManager.playbackFallbacks.WithLabelValues("timeout"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When recording game metrics", func() {
			hits := testutil.ToFloat64(globalManager.gameHits)
			RecordGameHit(100)
			RecordGameMiss()
			RecordBeatSpawned()
			AddRunningSessions(1)
			AddRunningSessions(-1)

			Convey("Then hits should be counted", func() {
				So(testutil.ToFloat64(globalManager.gameHits)-hits, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.gameSessionsActive), ShouldEqual, 0)
			})
		})

		Convey("When recording pipeline and HTTP metrics", func() {
			So(func() {
				RecordResultSubmitted()
				RecordResultDuplicate()
				UpdateQueueSize(3)
				RecordQueueEnqueueError("full")
				RecordLeaderboardUpdate()
				RecordLeaderboardError()
				UpdateLeaderboardPlayers(7)
				RecordWorkerLatency(1)
				RecordHTTPRequest("tracks", "GET", "200")
				RecordHTTPRequestDuration("tracks", "GET", "200", 2)
				AddWebSocketClients(1)
				AddWebSocketClients(-1)
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.leaderboardPlayers), ShouldEqual, 7)
		})

		Convey("When recording studio metrics", func() {
			before := testutil.ToFloat64(globalManager.remixesGenerated.WithLabelValues("jazz"))
			RecordRemixGenerated("jazz")
			UpdateJournalMemories(4)

			Convey("Then the remix counter and journal gauge should move", func() {
				So(testutil.ToFloat64(globalManager.remixesGenerated.WithLabelValues("jazz"))-before, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.journalMemories), ShouldEqual, 4)
			})
		})
	})
}
