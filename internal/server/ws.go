package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ayusman/airmouse/internal/app"
	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// sameOrigin accepts clients without an Origin header and pages served from
// the host the request was sent to. Other sites cannot open the event stream.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// EventSource fans out fired-action events.
type EventSource interface {
	Subscribe() (<-chan app.Event, func())
}

// EventsHandler pushes fired actions to WebSocket clients as JSON.
type EventsHandler struct {
	source EventSource
	logger *slog.Logger
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(source EventSource, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{source: source, logger: logger}
}

// ServeHTTP upgrades the connection and streams events until either side closes.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	// A failed read means the client went away; unsubscribing closes events
	// and ends the write loop below.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				unsubscribe()
				return
			}
		}
	}()

	h.logger.Debug("event client connected", "remote", r.RemoteAddr)
	for ev := range events {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.Debug("event client dropped", "remote", r.RemoteAddr, "err", err)
			return
		}
	}
}
