// Package preview mirrors outgoing fan frames to browser clients over
// WebSocket. It exists for bench work: the physical fan sits across
// the room, the preview page sits next to the terminal.
package preview

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Preview is a local debugging surface, not an exposed service.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans frames out to every connected preview client. A client
// that cannot keep up is dropped rather than allowed to stall the
// broadcast.
type Hub struct {
	logger zerolog.Logger
	server *http.Server

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub creates a preview hub serving on addr.
func NewHub(addr string, logger zerolog.Logger) *Hub {
	h := &Hub{
		logger: logger.With().Str("component", "preview").Logger(),
		conns:  make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	mux.Handle("/metrics", promhttp.Handler())
	h.server = &http.Server{Addr: addr, Handler: mux}
	return h
}

// Start listens and serves in the background. The returned error only
// covers listener setup; serve failures are logged.
func (h *Hub) Start() error {
	ln, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return fmt.Errorf("preview: listen %s: %w", h.server.Addr, err)
	}
	h.logger.Info().Str("addr", ln.Addr().String()).Msg("Preview hub listening")

	go func() {
		if err := h.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			h.logger.Error().Err(err).Msg("Preview server stopped")
		}
	}()
	return nil
}

// Addr returns the configured listen address.
func (h *Hub) Addr() string { return h.server.Addr }

// ClientCount returns the number of connected preview clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast sends one PNG-encoded frame to every connected client.
func (h *Hub) Broadcast(pngData []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, pngData); err != nil {
			h.logger.Debug().Err(err).Msg("Dropping slow preview client")
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// Shutdown closes all clients and stops the server.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	for conn := range h.conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
	h.conns = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	return h.server.Shutdown(ctx)
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Preview upgrade failed")
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	count := len(h.conns)
	h.mu.Unlock()
	h.logger.Info().Str("remote", conn.RemoteAddr().String()).
		Int("clients", count).Msg("Preview client connected")

	// Drain reads so close frames and pings are processed; the hub
	// never expects client data.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
			conn.Close()
			h.logger.Info().Str("remote", conn.RemoteAddr().String()).
				Msg("Preview client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
