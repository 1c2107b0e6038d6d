// Package ws serves history requests to local user interfaces over WebSocket.
package ws

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"clipstack/internal/clip"
	"clipstack/internal/router"
)

const (
	// pongWait is how long to wait for a pong before treating the connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	writeWait = 10 * time.Second

	// maxMessageSize bounds one request frame. Captures are limited well below it.
	maxMessageSize = 4 << 20

	sendBufSize = 64
)

// Handler dispatches a decoded request. *router.Router satisfies it.
type Handler interface {
	Handle(ctx context.Context, req router.Request) (*router.Response, bool)
}

// Server upgrades HTTP requests to WebSocket and serves one client per connection.
type Server struct {
	handler    Handler
	logger     clip.Logger
	ratePerMin int
	burst      int
	upgrader   websocket.Upgrader

	mu         sync.Mutex
	clients    map[*client]struct{}
	extensions map[string]bool
}

// NewServer creates a Server. ratePerMin <= 0 disables rate limiting.
func NewServer(handler Handler, logger clip.Logger, ratePerMin, burst int) *Server {
	s := &Server{
		handler:    handler,
		logger:     logger,
		ratePerMin: ratePerMin,
		burst:      burst,
		clients:    make(map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.allowedOrigin,
	}
	return s
}

// ServeHTTP upgrades the connection and blocks until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		s.logger.Warn("websocket upgrade failed", "origin", r.Header.Get("Origin"), "error", err)
		return
	}

	c := &client{
		id:      uuid.NewString(),
		conn:    conn,
		server:  s,
		limiter: newLimiter(s.ratePerMin, s.burst),
		send:    make(chan []byte, sendBufSize),
		done:    make(chan struct{}),
	}
	s.register(c)
	defer s.unregister(c)
	s.logger.Info("websocket client connected", "client", c.id, "remote", r.RemoteAddr)

	go c.writePump()
	c.readPump(r.Context())
	s.logger.Info("websocket client disconnected", "client", c.id)
}

// AllowExtensions restricts extension origins to the given extension ids.
// With no ids, any chrome-extension:// or moz-extension:// origin is accepted.
func (s *Server) AllowExtensions(ids ...string) {
	allowed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			allowed[strings.ToLower(id)] = true
		}
	}
	s.mu.Lock()
	s.extensions = allowed
	s.mu.Unlock()
}

// Count returns the number of connected clients.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close closes every open connection. Hijacked connections are not closed
// by http.Server.Shutdown, so callers invoke Close after it.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.conn.Close()
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

// allowedOrigin accepts requests without an Origin header (non-browser
// clients), allowed extension pages, and pages served from a loopback host.
func (s *Server) allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "chrome-extension", "moz-extension":
		return s.extensionAllowed(u.Host)
	case "http", "https":
		return isLoopback(u.Hostname())
	default:
		return false
	}
}

func (s *Server) extensionAllowed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.extensions) == 0 {
		return true
	}
	return s.extensions[strings.ToLower(id)]
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
