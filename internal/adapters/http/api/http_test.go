package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/vibeverse/internal/adapters/http/api"
	service "github.com/okian/vibeverse/internal/app"
	"github.com/okian/vibeverse/internal/clock"
	"github.com/okian/vibeverse/internal/domain/types"
	"github.com/okian/vibeverse/internal/remix"
)

// failingService breaks the leaderboard reads.
type failingService struct {
	*service.Service
}

func (failingService) TopN(context.Context, int) ([]types.Entry, error) {
	return nil, errors.New("store offline")
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newService(ctx context.Context, start bool) *service.Service {
	svc, err := service.New(service.WithWorkerCount(1))
	So(err, ShouldBeNil)
	if start {
		So(svc.Start(ctx), ShouldBeNil)
	}
	return svc
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func TestAPI_TracksAndStats(t *testing.T) {
	Convey("Given an API over a started service", t, func() {
		ctx := context.Background()
		svc := newService(ctx, true)
		defer svc.Stop(ctx)
		h := api.NewServer(svc).Handler(ctx)

		Convey("When listing tracks by mood", func() {
			w := do(h, http.MethodGet, "/tracks?mood=chill", "")

			Convey("Then only that mood is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				tracks := decode[[]map[string]any](w)
				So(len(tracks), ShouldBeGreaterThan, 0)
				for _, tr := range tracks {
					So(tr["mood"], ShouldEqual, "chill")
				}
			})
		})

		Convey("When listing moods", func() {
			w := do(h, http.MethodGet, "/moods", "")

			Convey("Then every catalog mood is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[[]string](w), ShouldResemble,
					[]string{"chill", "hype", "romantic", "morning", "night", "reflective"})
			})
		})

		Convey("When listing an unknown mood", func() {
			w := do(h, http.MethodGet, "/tracks?mood=grumpy", "")

			Convey("Then an empty list is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When getting tracks by ID", func() {
			ok := do(h, http.MethodGet, "/tracks/hype_1", "")
			missing := do(h, http.MethodGet, "/tracks/nope", "")

			Convey("Then known IDs resolve and unknown IDs are 404", func() {
				So(ok.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]any](ok)["bpm"], ShouldEqual, 171)
				So(missing.Code, ShouldEqual, http.StatusNotFound)
				So(decode[errorBody](missing).Code, ShouldEqual, "not_found")
			})
		})

		Convey("When reading stats and metrics", func() {
			stats := do(h, http.MethodGet, "/stats", "")
			health := do(h, http.MethodGet, "/healthz", "")

			Convey("Then both are served", func() {
				So(stats.Code, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](stats)
				So(body["started"], ShouldEqual, true)
				So(body["tracks"], ShouldEqual, 14)
				So(body["ws_clients"], ShouldEqual, 0)
				So(health.Code, ShouldEqual, http.StatusOK)
				So(health.Body.String(), ShouldContainSubstring, "vibeverse_")
			})
		})

		Convey("When the route or method is unknown", func() {
			notFound := do(h, http.MethodGet, "/nope", "")
			badMethod := do(h, http.MethodDelete, "/tracks", "")

			Convey("Then JSON errors are returned", func() {
				So(notFound.Code, ShouldEqual, http.StatusNotFound)
				So(decode[errorBody](notFound).Code, ShouldEqual, "not_found")
				So(badMethod.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})

		Convey("When the API description is requested", func() {
			w := do(h, http.MethodGet, "/openapi.yaml", "")

			Convey("Then it is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "/game/submit")
			})
		})
	})
}

func TestAPI_Playback(t *testing.T) {
	Convey("Given an API over a headless service", t, func() {
		ctx := context.Background()
		svc := newService(ctx, false)
		defer svc.Stop(ctx)
		h := api.NewServer(svc).Handler(ctx)

		Convey("When nothing is loaded", func() {
			w := do(h, http.MethodGet, "/playback", "")

			Convey("Then the snapshot is stopped without a track", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				snap := decode[map[string]any](w)
				So(snap["status"], ShouldEqual, "stopped")
				So(snap["track"], ShouldBeNil)
			})
		})

		Convey("When a track is played", func() {
			w := do(h, http.MethodPost, "/playback/play", `{"track_id":"chill_1"}`)

			Convey("Then it falls back to synthesized playback", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				snap := decode[map[string]any](w)
				So(snap["status"], ShouldEqual, "playing")
				So(snap["mode"], ShouldEqual, "synthesized")
				So(snap["duration"], ShouldEqual, 180)
			})

			Convey("Then transport requests drive it", func() {
				So(decode[map[string]any](do(h, http.MethodPost, "/playback/pause", ""))["status"], ShouldEqual, "paused")

				seek := decode[map[string]any](do(h, http.MethodPost, "/playback/seek", `{"position":500}`))
				So(seek["position"], ShouldEqual, 180)
				for _, body := range []string{`{"position":1e10}`, `{"position":1e300}`} {
					huge := decode[map[string]any](do(h, http.MethodPost, "/playback/seek", body))
					So(huge["position"], ShouldEqual, 180)
				}

				vol := decode[map[string]any](do(h, http.MethodPost, "/playback/volume", `{"volume":-1}`))
				So(vol["volume"], ShouldEqual, 0)

				So(decode[map[string]any](do(h, http.MethodPost, "/playback/resume", ""))["status"], ShouldEqual, "playing")

				stop := decode[map[string]any](do(h, http.MethodPost, "/playback/stop", ""))
				So(stop["status"], ShouldEqual, "stopped")
				So(stop["position"], ShouldEqual, 0)
			})

			Convey("Then next and previous step through the mood playlist", func() {
				next := decode[map[string]any](do(h, http.MethodPost, "/playback/next", ""))
				So(next["track"].(map[string]any)["id"], ShouldEqual, "chill_2")
				prev := do(h, http.MethodPost, "/playback/previous", "")
				So(prev.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]any](prev)["track"].(map[string]any)["id"], ShouldEqual, "chill_1")
				wrapped := decode[map[string]any](do(h, http.MethodPost, "/playback/previous", ""))
				So(wrapped["track"].(map[string]any)["id"], ShouldEqual, "chill_3")
			})
		})

		Convey("When stepping with nothing loaded", func() {
			w := do(h, http.MethodPost, "/playback/next", "")

			Convey("Then it is a conflict", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decode[errorBody](w).Code, ShouldEqual, "conflict")
			})
		})

		Convey("When requests are malformed", func() {
			cases := map[string]string{
				"/playback/play":   `{"track_id":""}`,
				"/playback/seek":   `{}`,
				"/playback/volume": `not json`,
			}

			Convey("Then they are rejected with 400", func() {
				for path, body := range cases {
					w := do(h, http.MethodPost, path, body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decode[errorBody](w).Code, ShouldEqual, "bad_request")
				}
			})
		})

		Convey("When an unknown track is played", func() {
			w := do(h, http.MethodPost, "/playback/play", `{"track_id":"missing"}`)

			Convey("Then it is 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAPI_GameAndLeaderboard(t *testing.T) {
	Convey("Given an API over a started service", t, func() {
		ctx := context.Background()
		svc := newService(ctx, true)
		defer svc.Stop(ctx)
		h := api.NewServer(svc, api.WithMaxLeaderboardLimit(10)).Handler(ctx)

		Convey("When a session is played and submitted", func() {
			start := do(h, http.MethodPost, "/game/start", `{"player":"ana","track_id":"chill_1"}`)
			again := do(h, http.MethodPost, "/game/start", `{"player":"ana","track_id":"chill_1"}`)
			paused := do(h, http.MethodPost, "/game/pause", `{"paused":true}`)
			hit := do(h, http.MethodPost, "/game/hit", "")
			do(h, http.MethodPost, "/game/pause", `{"paused":false}`)
			early := do(h, http.MethodPost, "/game/submit", "")
			stop := do(h, http.MethodPost, "/game/stop", "")
			submit := do(h, http.MethodPost, "/game/submit", "")
			dup := do(h, http.MethodPost, "/game/submit", "")

			Convey("Then each step reports the session", func() {
				So(start.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]any](start)["state"], ShouldEqual, "running")
				So(again.Code, ShouldEqual, http.StatusConflict)
				So(decode[map[string]any](paused)["paused"], ShouldEqual, true)
				So(hit.Code, ShouldEqual, http.StatusConflict)
				So(early.Code, ShouldEqual, http.StatusConflict)
				So(decode[map[string]any](stop)["state"], ShouldEqual, "idle")
				So(submit.Code, ShouldEqual, http.StatusAccepted)
				So(dup.Code, ShouldEqual, http.StatusConflict)
				So(decode[errorBody](dup).Code, ShouldEqual, "duplicate")
			})

			Convey("Then the player is ranked", func() {
				var rank *httptest.ResponseRecorder
				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) {
					if rank = do(h, http.MethodGet, "/rank/ana", ""); rank.Code == http.StatusOK {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				So(rank.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]any](rank)["rank"], ShouldEqual, 1)

				board := do(h, http.MethodGet, "/leaderboard?limit=5", "")
				So(board.Code, ShouldEqual, http.StatusOK)
				entries := decode[[]map[string]any](board)
				So(len(entries), ShouldEqual, 1)
				So(entries[0]["player"], ShouldEqual, "ana")
			})
		})

		Convey("When the start request is invalid", func() {
			noPlayer := do(h, http.MethodPost, "/game/start", `{"player":" ","track_id":"chill_1"}`)
			noTrack := do(h, http.MethodPost, "/game/start", `{"player":"ana","track_id":"nope"}`)
			noPause := do(h, http.MethodPost, "/game/pause", `{}`)

			Convey("Then it is rejected", func() {
				So(noPlayer.Code, ShouldEqual, http.StatusBadRequest)
				So(noTrack.Code, ShouldEqual, http.StatusNotFound)
				So(noPause.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When nothing was played", func() {
			w := do(h, http.MethodPost, "/game/submit", "")

			Convey("Then there is nothing to submit", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When the leaderboard limit is invalid", func() {
			missing := do(h, http.MethodGet, "/leaderboard", "")
			zero := do(h, http.MethodGet, "/leaderboard?limit=0", "")
			over := do(h, http.MethodGet, "/leaderboard?limit=11", "")

			Convey("Then it is 400", func() {
				So(missing.Code, ShouldEqual, http.StatusBadRequest)
				So(zero.Code, ShouldEqual, http.StatusBadRequest)
				So(over.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](over).Code, ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When ranking an unknown player", func() {
			w := do(h, http.MethodGet, "/rank/nobody", "")

			Convey("Then it is 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the store fails", func() {
			h := api.NewServer(failingService{svc}).Handler(ctx)
			w := do(h, http.MethodGet, "/leaderboard?limit=3", "")

			Convey("Then it is 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode[errorBody](w).Message, ShouldEqual, "store offline")
			})
		})
	})
}

func TestAPI_Journal(t *testing.T) {
	Convey("Given an API over a service", t, func() {
		ctx := context.Background()
		svc := newService(ctx, false)
		defer svc.Stop(ctx)
		h := api.NewServer(svc).Handler(ctx)

		Convey("When a memory is added", func() {
			w := do(h, http.MethodPost, "/memories", `{"title":"First Dance","song":"Perfect","artist":"Ed Sheeran","emotion":"love"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			m := decode[map[string]any](w)
			id := m["id"].(string)

			Convey("Then it can be listed, fetched and deleted", func() {
				So(m["emotion"], ShouldEqual, "love")
				So(m["date"], ShouldNotBeEmpty)

				So(decode[[]map[string]any](do(h, http.MethodGet, "/memories", "")), ShouldHaveLength, 1)
				So(decode[[]map[string]any](do(h, http.MethodGet, "/memories?emotion=joy", "")), ShouldBeEmpty)
				So(decode[map[string]any](do(h, http.MethodGet, "/memories/"+id, ""))["title"], ShouldEqual, "First Dance")

				So(do(h, http.MethodDelete, "/memories/"+id, "").Code, ShouldEqual, http.StatusNoContent)
				So(do(h, http.MethodDelete, "/memories/"+id, "").Code, ShouldEqual, http.StatusNotFound)
				So(do(h, http.MethodGet, "/memories/"+id, "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When memories are invalid", func() {
			cases := map[string]string{
				"missing artist":  `{"title":"t","song":"s"}`,
				"unknown emotion": `{"title":"t","song":"s","artist":"a","emotion":"rage"}`,
				"malformed":       `{"title":`,
			}

			Convey("Then they are rejected with 400", func() {
				for _, body := range cases {
					w := do(h, http.MethodPost, "/memories", body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decode[errorBody](w).Code, ShouldEqual, "bad_request")
				}
				So(do(h, http.MethodGet, "/memories?emotion=rage", "").Code, ShouldEqual, http.StatusBadRequest)
				So(do(h, http.MethodPost, "/memories", `{"title":"t","track_id":"missing"}`).Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When listing emotions", func() {
			emotions := decode[[]string](do(h, http.MethodGet, "/emotions", ""))

			Convey("Then the six emotions are returned", func() {
				So(emotions, ShouldResemble, []string{"joy", "love", "pride", "nostalgia", "peace", "excitement"})
			})
		})
	})
}

// upload posts a multipart remix request.
func upload(h http.Handler, genre string, recording []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	So(mw.WriteField("genre", genre), ShouldBeNil)
	if recording != nil {
		fw, err := mw.CreateFormFile("recording", "voice.webm")
		So(err, ShouldBeNil)
		_, err = fw.Write(recording)
		So(err, ShouldBeNil)
	}
	So(mw.Close(), ShouldBeNil)

	req := httptest.NewRequest(http.MethodPost, "/remix", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAPI_Remix(t *testing.T) {
	Convey("Given an API over a remix lab on a manual clock", t, func() {
		ctx := context.Background()
		clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		lab := remix.New(remix.WithClock(clk), remix.WithMaxBytes(8))
		svc, err := service.New(service.WithRemixLab(lab))
		So(err, ShouldBeNil)
		defer svc.Stop(ctx)
		h := api.NewServer(svc).Handler(ctx)

		Convey("When a recording is uploaded", func() {
			w := upload(h, "afrobeats", []byte("la la"))
			So(w.Code, ShouldEqual, http.StatusAccepted)
			job := decode[map[string]any](w)
			id := job["id"].(string)

			Convey("Then the job is generating until the delay elapses", func() {
				So(job["status"], ShouldEqual, "generating")
				So(job["recording_bytes"], ShouldEqual, 5)

				clk.Advance(remix.DefaultDelay)
				ready := decode[map[string]any](do(h, http.MethodGet, "/remix/"+id, ""))
				So(ready["status"], ShouldEqual, "ready")
				So(ready["beat"], ShouldStartWith, "afrobeats-remix-")
				So(decode[[]map[string]any](do(h, http.MethodGet, "/remix", "")), ShouldHaveLength, 1)
			})
		})

		Convey("When uploads are invalid", func() {
			Convey("Then they are rejected by kind", func() {
				So(upload(h, "polka", []byte("x")).Code, ShouldEqual, http.StatusBadRequest)
				So(upload(h, "jazz", nil).Code, ShouldEqual, http.StatusBadRequest)
				So(upload(h, "jazz", []byte{}).Code, ShouldEqual, http.StatusBadRequest)
				large := upload(h, "jazz", []byte("far too long"))
				So(large.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(decode[errorBody](large).Code, ShouldEqual, "too_large")
				So(do(h, http.MethodPost, "/remix", `{"genre":"jazz"}`).Code, ShouldEqual, http.StatusBadRequest)
				So(do(h, http.MethodGet, "/remix/nope", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When listing genres", func() {
			genres := decode[[]map[string]any](do(h, http.MethodGet, "/remix/genres", ""))

			Convey("Then the six genres are returned", func() {
				So(genres, ShouldHaveLength, 6)
				So(genres[0]["id"], ShouldEqual, "lofi")
			})
		})
	})
}

func TestAPI_NotStarted(t *testing.T) {
	Convey("Given an API over a service that was not started", t, func() {
		ctx := context.Background()
		svc := newService(ctx, false)
		defer svc.Stop(ctx)
		h := api.NewServer(svc).Handler(ctx)

		Convey("Then leaderboard routes are unavailable", func() {
			So(do(h, http.MethodGet, "/leaderboard?limit=3", "").Code, ShouldEqual, http.StatusServiceUnavailable)
			So(do(h, http.MethodGet, "/rank/ana", "").Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestAPI_CORS(t *testing.T) {
	Convey("Given an API restricted to one origin", t, func() {
		ctx := context.Background()
		svc := newService(ctx, false)
		defer svc.Stop(ctx)
		h := api.NewServer(svc, api.WithAllowedOrigins("http://ui.local")).Handler(ctx)

		preflight := func(origin string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodOptions, "/playback/play", http.NoBody)
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			return w
		}

		Convey("Then only that origin is allowed", func() {
			So(preflight("http://ui.local").Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://ui.local")
			So(preflight("http://evil.local").Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
		})
	})
}

func TestAPI_WebSocket(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ctx := context.Background()
		svc := newService(ctx, false)
		defer svc.Stop(ctx)
		srv := api.NewServer(svc, api.WithPushInterval(10*time.Millisecond))
		ts := httptest.NewServer(srv.Handler(ctx))
		defer ts.Close()
		defer srv.Close()

		Convey("When a client connects to /ws", func() {
			_, err := svc.Play(ctx, "hype_2")
			So(err, ShouldBeNil)
			conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			Convey("Then it receives playback and game snapshots", func() {
				var msg struct {
					Playback map[string]any `json:"playback"`
					Game     map[string]any `json:"game"`
				}
				_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				for range 2 {
					So(conn.ReadJSON(&msg), ShouldBeNil)
				}
				So(msg.Playback["mode"], ShouldEqual, "synthesized")
				So(msg.Playback["track"].(map[string]any)["id"], ShouldEqual, "hype_2")
				So(msg.Game["state"], ShouldEqual, "idle")

				w := do(srv.Handler(ctx), http.MethodGet, "/stats", "")
				So(decode[map[string]any](w)["ws_clients"], ShouldEqual, 1)
			})

			Convey("Then closing the server ends the stream", func() {
				srv.Close()
				_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				var err error
				for err == nil {
					_, _, err = conn.ReadMessage()
				}
				So(websocket.IsCloseError(err, websocket.CloseGoingAway), ShouldBeTrue)
			})
		})
	})
}
