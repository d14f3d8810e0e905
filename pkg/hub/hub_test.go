package hub

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/teslashibe/focuson/internal/log"
)

func init() {
	log.SetOutput(io.Discard, "error")
}

func testClient(h *Hub, buf int) *Client {
	c := &Client{hub: h, send: make(chan Message, buf)}
	h.register <- c
	return c
}

func recv(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case m, ok := <-c.send:
		return m, ok
	case <-time.After(time.Second):
		t.Fatal("no message")
		return Message{}, false
	}
}

func TestHubFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := New("test")
	go h.Run(ctx)

	a := testClient(h, 4)
	b := testClient(h, 4)
	if h.ClientCount() != 2 {
		t.Errorf("clients = %d, want 2", h.ClientCount())
	}

	if err := h.BroadcastJSON(map[string]int{"score": 97}); err != nil {
		t.Fatal(err)
	}
	for _, c := range []*Client{a, b} {
		m, _ := recv(t, c)
		if string(m.Data) != `{"score":97}` || m.Type != JSONMessage {
			t.Errorf("message = %s", m.Data)
		}
	}
}

func TestHubReplaysLast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := New("test")
	go h.Run(ctx)

	h.BroadcastJSON("first")
	h.BroadcastJSON("second")

	// Wait for the queue to drain so the late client only sees the replay.
	time.Sleep(20 * time.Millisecond)
	c := testClient(h, 4)
	m, _ := recv(t, c)
	if string(m.Data) != `"second"` {
		t.Errorf("replayed %s, want second", m.Data)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := New("test")
	go h.Run(ctx)

	slow := testClient(h, 1)
	h.BroadcastJSON(1)
	h.BroadcastJSON(2)

	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.ClientCount() != 0 {
		t.Fatalf("clients = %d, want 0", h.ClientCount())
	}

	// First message fit, the second overflowed and closed the channel.
	if _, ok := recv(t, slow); !ok {
		t.Fatal("expected first message")
	}
	if _, ok := recv(t, slow); ok {
		t.Error("expected closed channel")
	}
}

func TestHubStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New("test")
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	c := testClient(h, 1)
	if !h.IsRunning() {
		t.Error("hub should be running")
	}
	cancel()
	<-stopped

	if _, ok := <-c.send; ok {
		t.Error("client channel should be closed on stop")
	}
	if h.IsRunning() {
		t.Error("hub should not be running")
	}
	if _, err := NewClient(h, nil); !errors.Is(err, ErrStopped) {
		t.Errorf("NewClient after stop: %v", err)
	}
}
