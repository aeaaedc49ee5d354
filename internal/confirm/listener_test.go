package confirm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"copybot-go/internal/queue"
)

type recordingSink struct {
	mu    sync.Mutex
	fills []queue.FillConfirmation
}

func (s *recordingSink) ConfirmFill(c queue.FillConfirmation) {
	s.mu.Lock()
	s.fills = append(s.fills, c)
	s.mu.Unlock()
}

func (s *recordingSink) snapshot() []queue.FillConfirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]queue.FillConfirmation, len(s.fills))
	copy(out, s.fills)
	return out
}

func TestListenerForwardsFills(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		messages := []string{
			`{"orderId":"venue-1","venue":"polymarket","filledSize":10,"avgPrice":0.52,"status":"confirmed","timestamp":1700000000000,"txHash":"0xabc"}`,
			`not json`,
			`{"venue":"polymarket","status":"confirmed"}`,
			`{"orderId":"venue-2","venue":"polymarket","filledSize":3,"avgPrice":0.4,"status":"matched","timestamp":1700000001000}`,
		}
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	sink := &recordingSink{}
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	listener := NewListener(url, sink, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.Run(ctx) }()

	deadline := time.After(3 * time.Second)
	for {
		fills := sink.snapshot()
		if len(fills) >= 2 {
			if fills[0].OrderID != "venue-1" || fills[0].Status != queue.ConfirmationConfirmed {
				t.Fatalf("unexpected first fill %+v", fills[0])
			}
			if fills[0].TxHash != "0xabc" || fills[0].FilledSize != 10 {
				t.Fatalf("fill fields mangled: %+v", fills[0])
			}
			if !fills[0].Timestamp.Equal(time.UnixMilli(1700000000000)) {
				t.Fatalf("unexpected timestamp %s", fills[0].Timestamp)
			}
			if fills[1].OrderID != "venue-2" || fills[1].Status != queue.ConfirmationMatched {
				t.Fatalf("unexpected second fill %+v", fills[1])
			}
			// Malformed frames and frames without an order id are skipped.
			if len(fills) > 2 {
				t.Fatalf("expected exactly 2 fills, got %d", len(fills))
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out, got %d fills", len(fills))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestListenerStopsOnContextCancel(t *testing.T) {
	listener := NewListener("ws://127.0.0.1:1/unreachable", &recordingSink{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected context error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}
