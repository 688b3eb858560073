package api

import (
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/pkg/logger"
	"github.com/okian/vibeverse/pkg/metrics"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// SnapshotSource provides the state pushed to WebSocket clients.
type SnapshotSource interface {
	Playback() model.PlaybackSnapshot
	Game() model.GameSnapshot
}

type pushMessage struct {
	Playback model.PlaybackSnapshot `json:"playback"`
	Game     model.GameSnapshot     `json:"game"`
}

// WSHandler pushes playback and game snapshots to WebSocket clients.
type WSHandler struct {
	src      SnapshotSource
	interval time.Duration
	upgrader websocket.Upgrader
	quit     <-chan struct{}
	logger   logger.Logger
	clients  atomic.Int64
}

// NewWSHandler creates a handler pushing every interval until quit is closed.
func NewWSHandler(src SnapshotSource, interval time.Duration, origins []string, quit <-chan struct{}, l logger.Logger) *WSHandler {
	return &WSHandler{
		src:      src,
		interval: interval,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(origins)},
		quit:     quit,
		logger:   l,
	}
}

// HandleWS handles GET /ws requests. Clients only receive; anything they
// send is discarded.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	h.clients.Add(1)
	metrics.AddWebSocketClients(1)
	defer func() {
		h.clients.Add(-1)
		metrics.AddWebSocketClients(-1)
	}()
	h.logger.Debug(r.Context(), "websocket client connected", logger.String("remote", r.RemoteAddr))

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	push := time.NewTicker(h.interval)
	defer push.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := h.push(conn); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-h.quit:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-push.C:
			if err := h.push(conn); err != nil {
				h.logger.Debug(r.Context(), "websocket push failed", logger.Error(err))
				return
			}
		}
	}
}

// Clients returns the number of connected subscribers.
func (h *WSHandler) Clients() int64 {
	return h.clients.Load()
}

func (h *WSHandler) push(conn *websocket.Conn) error {
	msg := pushMessage{Playback: h.src.Playback(), Game: h.src.Game()}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// readLoop drains client frames so control frames are processed, and closes
// closed when the client goes away.
func (h *WSHandler) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func originChecker(origins []string) func(*http.Request) bool {
	if slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
