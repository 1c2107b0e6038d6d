package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clipstack/internal/clip"
	"clipstack/internal/router"
)

func newBufferedClient(size int) *client {
	return &client{
		id:     "test",
		server: &Server{logger: clip.NewNopLogger()},
		send:   make(chan []byte, size),
		done:   make(chan struct{}),
	}
}

func TestClient_ReplyWaitsForBufferSpace(t *testing.T) {
	c := newBufferedClient(1)
	ctx := context.Background()

	if !c.reply(ctx, 1, &router.Response{OK: true}) {
		t.Fatal("reply(1) = false with free buffer")
	}

	result := make(chan bool, 1)
	go func() { result <- c.reply(ctx, 2, &router.Response{OK: true}) }()

	select {
	case <-result:
		t.Fatal("reply(2) returned while the buffer was full")
	case <-time.After(50 * time.Millisecond):
	}

	<-c.send
	select {
	case ok := <-result:
		if !ok {
			t.Fatal("reply(2) = false after buffer drained")
		}
	case <-time.After(time.Second):
		t.Fatal("reply(2) still blocked after buffer drained")
	}

	var got Reply
	if err := json.Unmarshal(<-c.send, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Seq != 2 {
		t.Errorf("queued seq = %d, want 2", got.Seq)
	}
}

func TestClient_ReplyGivesUp(t *testing.T) {
	tests := []struct {
		name   string
		cancel func(c *client, cancelCtx context.CancelFunc)
	}{
		{"connection closed", func(c *client, _ context.CancelFunc) { close(c.done) }},
		{"context cancelled", func(_ *client, cancelCtx context.CancelFunc) { cancelCtx() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newBufferedClient(1)
			c.send <- []byte("pending")
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			result := make(chan bool, 1)
			go func() { result <- c.reply(ctx, 7, &router.Response{OK: true}) }()
			tt.cancel(c, cancel)

			select {
			case ok := <-result:
				if ok {
					t.Error("reply() = true, want false")
				}
			case <-time.After(time.Second):
				t.Fatal("reply() did not give up")
			}
		})
	}
}
