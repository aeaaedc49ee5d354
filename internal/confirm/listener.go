// Package confirm streams out-of-band fill confirmations from a venue's
// user-event websocket into the execution queue.
package confirm

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"copybot-go/internal/queue"
)

// Sink receives decoded confirmations; the execution queue satisfies it.
type Sink interface {
	ConfirmFill(confirmation queue.FillConfirmation)
}

type fillEnvelope struct {
	OrderID    string  `json:"orderId"`
	Venue      string  `json:"venue"`
	FilledSize float64 `json:"filledSize"`
	AvgPrice   float64 `json:"avgPrice"`
	Status     string  `json:"status"`
	Timestamp  int64   `json:"timestamp"`
	TxHash     string  `json:"txHash,omitempty"`
}

// Listener maintains a websocket subscription to a venue's fill stream,
// reconnecting with capped exponential backoff.
type Listener struct {
	url  string
	log  zerolog.Logger
	sink Sink
}

// NewListener builds a listener for the given websocket url.
func NewListener(url string, sink Sink, log zerolog.Logger) *Listener {
	return &Listener{url: url, log: log, sink: sink}
}

// Run consumes the stream until the context is canceled.
func (l *Listener) Run(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := l.consumeStream(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Warn().Err(err).Msg("fill stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (l *Listener) consumeStream(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	l.log.Info().Str("url", l.url).Msg("connected fill confirmation stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					l.log.Warn().Err(err).Msg("fill stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env fillEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			l.log.Warn().Err(err).Msg("failed to decode fill event")
			continue
		}
		if env.OrderID == "" {
			l.log.Warn().Msg("fill event without order id")
			continue
		}

		l.sink.ConfirmFill(queue.FillConfirmation{
			OrderID:    env.OrderID,
			Venue:      env.Venue,
			FilledSize: env.FilledSize,
			AvgPrice:   env.AvgPrice,
			Status:     queue.ConfirmationStatus(env.Status),
			Timestamp:  time.UnixMilli(env.Timestamp),
			TxHash:     env.TxHash,
		})
	}
}
