package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/airsync/internal/app"
)

// TelemetryInterval throttles websocket pushes to about 15 per second.
const TelemetryInterval = 66 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// TelemetryHandler pushes the latest pipeline telemetry to websocket
// clients. Frames produced between pushes are dropped.
type TelemetryHandler struct {
	app      Pipeline
	interval time.Duration
	logger   *zap.Logger
}

// NewTelemetryHandler creates a TelemetryHandler for p.
func NewTelemetryHandler(p Pipeline, logger *zap.Logger) *TelemetryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelemetryHandler{app: p, interval: TelemetryInterval, logger: logger}
}

// latest holds the newest telemetry not yet sent.
type latest struct {
	mu    sync.Mutex
	t     app.Telemetry
	fresh bool
}

func (l *latest) set(t app.Telemetry) {
	l.mu.Lock()
	l.t, l.fresh = t, true
	l.mu.Unlock()
}

func (l *latest) take() (app.Telemetry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.t, l.fresh
	l.fresh = false
	return t, ok
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *TelemetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	var l latest
	unsubscribe := h.app.Observe(l.set)
	defer unsubscribe()

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			t, ok := l.take()
			if !ok {
				continue
			}
			msg, err := json.Marshal(t)
			if err != nil {
				h.logger.Warn("encode telemetry", zap.Error(err))
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
