// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/okian/vibeverse/internal/adapters/http/swagger"
	"github.com/okian/vibeverse/internal/domain/types"
	"github.com/okian/vibeverse/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	StatsProvider
	TrackDependencies
	PlaybackDependencies
	GameDependencies
	LeaderboardDependencies
	JournalDependencies
	RemixDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	tracksHandler      *TracksHandler
	playbackHandler    *PlaybackHandler
	gameHandler        *GameHandler
	leaderboardHandler *LeaderboardHandler
	journalHandler     *JournalHandler
	remixHandler       *RemixHandler
	wsHandler          *WSHandler

	maxLimit     int
	origins      []string
	pushInterval time.Duration
	logger       logger.Logger

	quit      chan struct{}
	closeOnce sync.Once
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxLimit:     defaultMaxLimit,
		origins:      []string{"*"},
		pushInterval: defaultPushInterval,
		logger:       logger.Named("api"),
		quit:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wsHandler = NewWSHandler(deps, s.pushInterval, s.origins, s.quit, s.logger)
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps, s.wsHandler.Clients)
	s.tracksHandler = NewTracksHandler(deps)
	s.playbackHandler = NewPlaybackHandler(deps)
	s.gameHandler = NewGameHandler(deps)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.journalHandler = NewJournalHandler(deps)
	s.remixHandler = NewRemixHandler(deps)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(ctx context.Context, r *mux.Router) {
	get, post, del := http.MethodGet, http.MethodPost, http.MethodDelete

	s.handle(r, get, "/healthz", "healthz", s.healthHandler.HandleHealth)
	s.handle(r, get, "/stats", "stats", s.statsHandler.HandleStats)

	s.handle(r, get, "/tracks", "tracks", s.tracksHandler.HandleList)
	s.handle(r, get, "/tracks/{id}", "track", s.tracksHandler.HandleGet)
	s.handle(r, get, "/moods", "moods", s.tracksHandler.HandleMoods)

	pb := s.playbackHandler
	s.handle(r, get, "/playback", "playback", pb.HandleGet)
	s.handle(r, post, "/playback/play", "playback_play", pb.HandlePlay)
	s.handle(r, post, "/playback/pause", "playback_pause", pb.HandlePause)
	s.handle(r, post, "/playback/resume", "playback_resume", pb.HandleResume)
	s.handle(r, post, "/playback/stop", "playback_stop", pb.HandleStop)
	s.handle(r, post, "/playback/seek", "playback_seek", pb.HandleSeek)
	s.handle(r, post, "/playback/volume", "playback_volume", pb.HandleVolume)
	s.handle(r, post, "/playback/next", "playback_next", pb.HandleNext)
	s.handle(r, post, "/playback/previous", "playback_previous", pb.HandlePrevious)

	g := s.gameHandler
	s.handle(r, get, "/game", "game", g.HandleGet)
	s.handle(r, post, "/game/start", "game_start", g.HandleStart)
	s.handle(r, post, "/game/pause", "game_pause", g.HandlePause)
	s.handle(r, post, "/game/stop", "game_stop", g.HandleStop)
	s.handle(r, post, "/game/hit", "game_hit", g.HandleHit)
	s.handle(r, post, "/game/reset", "game_reset", g.HandleReset)
	s.handle(r, post, "/game/submit", "game_submit", g.HandleSubmit)

	s.handle(r, get, "/leaderboard", "leaderboard", s.leaderboardHandler.HandleTop)
	s.handle(r, get, "/rank/{player}", "rank", s.leaderboardHandler.HandleRank)

	j := s.journalHandler
	s.handle(r, get, "/emotions", "emotions", j.HandleEmotions)
	s.handle(r, get, "/memories", "memories", j.HandleList)
	s.handle(r, post, "/memories", "memory_add", j.HandleAdd)
	s.handle(r, get, "/memories/{id}", "memory", j.HandleGet)
	s.handle(r, del, "/memories/{id}", "memory_delete", j.HandleDelete)

	rx := s.remixHandler
	s.handle(r, get, "/remix/genres", "remix_genres", rx.HandleGenres)
	s.handle(r, get, "/remix", "remixes", rx.HandleList)
	s.handle(r, post, "/remix", "remix_submit", rx.HandleSubmit)
	s.handle(r, get, "/remix/{id}", "remix", rx.HandleGet)

	r.HandleFunc("/ws", s.wsHandler.HandleWS).Methods(get)

	swagger.Register(ctx, r)
}

// Handler returns the full route tree wrapped in CORS.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := mux.NewRouter()
	s.Register(ctx, r)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// Close ends every open WebSocket push loop.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to its status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", ErrBadRequest, err)
	}
	return nil
}
