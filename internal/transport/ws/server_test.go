package ws_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"clipstack/internal/clip"
	"clipstack/internal/router"
	"clipstack/internal/testutil"
	"clipstack/internal/transport/ws"
)

// startServer serves a fresh history over WebSocket and returns the ws:// URL.
func startServer(t *testing.T, ratePerMin, burst int) (string, *ws.Server) {
	t.Helper()
	h, _, _ := testutil.NewTestHistory()
	srv := ws.NewServer(router.New(h, clip.NewNopLogger()), clip.NewNopLogger(), ratePerMin, burst)

	hs := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Close()
		hs.Close()
	})
	return "ws" + strings.TrimPrefix(hs.URL, "http"), srv
}

func dial(t *testing.T, wsURL string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, seq int64, req router.Request) {
	t.Helper()
	if err := conn.WriteJSON(ws.Envelope{Seq: seq, Request: req}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) ws.Reply {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var reply ws.Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		t.Fatalf("unmarshal reply %s: %v", data, err)
	}
	return reply
}

func TestServer_CaptureAndList(t *testing.T) {
	wsURL, _ := startServer(t, 0, 0)
	conn := dial(t, wsURL, nil)

	send(t, conn, 1, router.Request{Type: router.TypeCapture, Text: "hello"})
	reply := receive(t, conn)
	if reply.Seq != 1 || !reply.Response.OK {
		t.Fatalf("capture reply = %+v", reply)
	}

	send(t, conn, 2, router.Request{Type: router.TypeList})
	reply = receive(t, conn)
	if reply.Seq != 2 {
		t.Errorf("Seq = %d, want 2", reply.Seq)
	}
	if len(reply.Response.Entries) != 1 || reply.Response.Entries[0].Text != "hello" {
		t.Errorf("entries = %+v, want one hello entry", reply.Response.Entries)
	}
}

func TestServer_UnknownTypeGetsNoReply(t *testing.T) {
	wsURL, _ := startServer(t, 0, 0)
	conn := dial(t, wsURL, nil)

	send(t, conn, 1, router.Request{Type: "BOGUS"})
	send(t, conn, 2, router.Request{Type: router.TypeList})

	reply := receive(t, conn)
	if reply.Seq != 2 {
		t.Errorf("first reply Seq = %d, want 2", reply.Seq)
	}
}

func TestServer_MalformedFrame(t *testing.T) {
	wsURL, _ := startServer(t, 0, 0)
	conn := dial(t, wsURL, nil)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{oops")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	reply := receive(t, conn)
	if reply.Response.OK || !strings.Contains(reply.Response.Error, "malformed") {
		t.Errorf("reply = %+v, want malformed error", reply.Response)
	}
}

func TestServer_RateLimit(t *testing.T) {
	wsURL, _ := startServer(t, 1, 1)
	conn := dial(t, wsURL, nil)

	send(t, conn, 1, router.Request{Type: router.TypeList})
	if reply := receive(t, conn); !reply.Response.OK {
		t.Fatalf("first reply = %+v, want ok", reply.Response)
	}

	send(t, conn, 2, router.Request{Type: router.TypeList})
	reply := receive(t, conn)
	if reply.Seq != 2 || reply.Response.OK || reply.Response.Error != ws.ErrRateLimited {
		t.Errorf("second reply = %+v, want rate limited", reply)
	}
}

func TestServer_OriginCheck(t *testing.T) {
	wsURL, _ := startServer(t, 0, 0)

	tests := []struct {
		origin string
		allow  bool
	}{
		{"chrome-extension://abcdefghijklmnop", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"http://[::1]:8080", true},
		{"https://example.com", false},
		{"file:///tmp/x.html", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			header := http.Header{"Origin": []string{tt.origin}}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
			if conn != nil {
				conn.Close()
			}
			if tt.allow && err != nil {
				t.Errorf("Dial() error = %v, want allowed", err)
			}
			if !tt.allow {
				if err == nil {
					t.Fatal("Dial() succeeded, want rejection")
				}
				if resp == nil || resp.StatusCode != http.StatusForbidden {
					t.Errorf("response = %v, want 403", resp)
				}
			}
		})
	}
}

func TestServer_ExtensionAllowlist(t *testing.T) {
	wsURL, srv := startServer(t, 0, 0)
	srv.AllowExtensions("ourextensionid", " ")

	tests := []struct {
		origin string
		allow  bool
	}{
		{"chrome-extension://ourextensionid", true},
		{"chrome-extension://OurExtensionID", true},
		{"chrome-extension://someotherextension", false},
		{"moz-extension://0b1c2d3e-aaaa-bbbb-cccc-000000000000", false},
		{"http://localhost:3000", true},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{tt.origin}})
			if conn != nil {
				conn.Close()
			}
			if tt.allow && err != nil {
				t.Errorf("Dial() error = %v, want allowed", err)
			}
			if !tt.allow && (resp == nil || resp.StatusCode != http.StatusForbidden) {
				t.Errorf("Dial() response = %v, err = %v; want 403", resp, err)
			}
		})
	}
}

func TestServer_CloseDisconnectsClients(t *testing.T) {
	wsURL, srv := startServer(t, 0, 0)
	conn := dial(t, wsURL, nil)

	send(t, conn, 1, router.Request{Type: router.TypeList})
	receive(t, conn)
	if got := srv.Count(); got != 1 {
		t.Fatalf("Count() = %d, want 1", got)
	}

	srv.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("ReadMessage() succeeded after Close, want error")
	}
}

func TestServer_EveryRequestAnsweredUnderBurst(t *testing.T) {
	wsURL, _ := startServer(t, 0, 0)
	conn := dial(t, wsURL, nil)

	const n = 200
	for seq := int64(1); seq <= n; seq++ {
		send(t, conn, seq, router.Request{Type: router.TypeCapture, Text: fmt.Sprintf("burst %d", seq)})
	}

	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		reply := receive(t, conn)
		if !reply.Response.OK {
			t.Fatalf("reply %d = %+v, want ok", reply.Seq, reply.Response)
		}
		seen[reply.Seq] = true
	}
	if len(seen) != n {
		t.Errorf("got replies for %d distinct seqs, want %d", len(seen), n)
	}
}
