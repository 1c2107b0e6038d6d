package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"clipstack/internal/router"
)

// Envelope is one request frame from a client. Seq is echoed in the reply
// so clients can match responses to requests.
type Envelope struct {
	Seq     int64          `json:"seq"`
	Request router.Request `json:"request"`
}

// Reply is the frame sent back for a handled Envelope.
type Reply struct {
	Seq      int64            `json:"seq"`
	Response *router.Response `json:"response"`
}

// ErrRateLimited is the error text sent when a client exceeds its rate.
const ErrRateLimited = "rate limited"

// client is a single WebSocket connection.
type client struct {
	id      string
	conn    *websocket.Conn
	server  *Server
	limiter *rate.Limiter
	send    chan []byte

	// done is closed when writePump exits; nothing drains send after that.
	done chan struct{}
}

func newLimiter(ratePerMin, burst int) *rate.Limiter {
	if ratePerMin <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 5
	}
	return rate.NewLimiter(rate.Limit(float64(ratePerMin)/60.0), burst)
}

// readPump reads and handles frames in arrival order until the connection
// fails. It closes send on return, which stops writePump.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Warn("websocket read error", "client", c.id, "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		c.handleFrame(ctx, data)
	}
}

// writePump writes queued replies and keepalive pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) handleFrame(ctx context.Context, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.reply(ctx, 0, &router.Response{OK: false, Error: "malformed request: " + err.Error()})
		return
	}

	if !c.limiter.Allow() {
		c.server.logger.Warn("websocket client rate limited", "client", c.id, "type", env.Request.Type)
		c.reply(ctx, env.Seq, &router.Response{OK: false, Error: ErrRateLimited})
		return
	}

	resp, ok := c.server.handler.Handle(ctx, env.Request)
	if !ok {
		return
	}
	c.reply(ctx, env.Seq, resp)
}

// reply queues a reply frame. It waits for room in the send buffer, so a slow
// reader applies backpressure to its own requests instead of losing replies.
// It gives up only when the connection is gone.
func (c *client) reply(ctx context.Context, seq int64, resp *router.Response) bool {
	data, err := json.Marshal(Reply{Seq: seq, Response: resp})
	if err != nil {
		c.server.logger.Error("marshal reply failed", "client", c.id, "error", err)
		return false
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		c.server.logger.Warn("connection closed before reply was sent", "client", c.id, "seq", seq)
		return false
	case <-ctx.Done():
		c.server.logger.Warn("reply abandoned", "client", c.id, "seq", seq, "error", ctx.Err())
		return false
	}
}
