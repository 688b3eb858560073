package scoring_test

import (
	"testing"

	scoring "github.com/okian/vibeverse/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestJudge_Points(t *testing.T) {
	Convey("Given a judge with the reference window", t, func() {
		j := scoring.NewJudge()

		Convey("When a beat is hit at the center", func() {
			points, timing := j.Points(87.5)

			Convey("Then it should earn full points", func() {
				So(points, ShouldEqual, 100)
				So(timing, ShouldEqual, 0)
			})
		})

		Convey("When a beat is hit at either edge", func() {
			early, _ := j.Points(80)
			late, _ := j.Points(95)

			Convey("Then it should earn 25 points", func() {
				So(early, ShouldEqual, 25)
				So(late, ShouldEqual, 25)
			})
		})

		Convey("When a beat is far from the center", func() {
			points, timing := j.Points(70)

			Convey("Then points should be floored at 10", func() {
				So(points, ShouldEqual, 10)
				So(timing, ShouldEqual, 17.5)
			})
		})

		Convey("When checking window bounds", func() {
			So(j.InWindow(79.99), ShouldBeFalse)
			So(j.InWindow(80), ShouldBeTrue)
			So(j.InWindow(95), ShouldBeTrue)
			So(j.InWindow(95.01), ShouldBeFalse)
		})
	})
}

func TestJudge_Accuracy(t *testing.T) {
	Convey("Given a judge", t, func() {
		j := scoring.NewJudge()

		Convey("When a perfect hit lands at full accuracy", func() {
			Convey("Then accuracy should stay capped at 100", func() {
				So(j.AfterHit(100, 100), ShouldEqual, 100)
			})
		})

		Convey("When a weak hit lands", func() {
			Convey("Then accuracy should drop by (points-50)/10", func() {
				So(j.AfterHit(90, 25), ShouldEqual, 87.5)
			})

			Convey("Then accuracy should never go below zero", func() {
				So(j.AfterHit(2, 10), ShouldEqual, 0)
			})
		})

		Convey("When the player misses", func() {
			Convey("Then accuracy should drop by 5 and floor at zero", func() {
				So(j.AfterMiss(100), ShouldEqual, 95)
				So(j.AfterMiss(3), ShouldEqual, 0)
			})
		})
	})
}

func TestJudge_Options(t *testing.T) {
	Convey("Given judge options", t, func() {
		Convey("When a custom window is set", func() {
			j := scoring.NewJudge(scoring.WithWindow(70, 90), scoring.WithMissPenalty(2))

			Convey("Then the center and penalty should follow it", func() {
				So(j.Center(), ShouldEqual, 80)
				So(j.AfterMiss(50), ShouldEqual, 48)
			})
		})

		Convey("When invalid options are given", func() {
			j := scoring.NewJudge(
				scoring.WithWindow(95, 80),
				scoring.WithMissPenalty(-1),
				scoring.WithPoints(10, 50, 1),
			)

			Convey("Then defaults should be kept", func() {
				start, end := j.Window()
				So(start, ShouldEqual, 80)
				So(end, ShouldEqual, 95)
				So(j.AfterMiss(50), ShouldEqual, 45)
				points, _ := j.Points(87.5)
				So(points, ShouldEqual, 100)
			})
		})

		Convey("When rounding points", func() {
			So(scoring.Round(25.5), ShouldEqual, 26)
			So(scoring.Round(99.4), ShouldEqual, 99)
		})
	})
}
