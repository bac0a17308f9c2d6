// Package ingest streams newly observed domain names from a websocket
// feed (certificate-transparency style) into the classifier daemon.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Domain is one newly observed domain from the feed.
type Domain struct {
	Name   string
	Source string
	Ts     time.Time
}

// feedMessage is the wire format pushed by the feed.
type feedMessage struct {
	Domain string `json:"domain"`
	Source string `json:"source,omitempty"`
}

// Stream is a reconnecting websocket consumer of a domain feed.
type Stream struct{ url string }

// NewStream points a stream at a feed URL.
func NewStream(u string) Stream { return Stream{u} }

// Run consumes the feed until ctx is canceled, emitting domains on out.
// Connection failures reconnect with exponential backoff and are
// reported on errs without stopping the stream.
func (s Stream) Run(ctx context.Context, out chan<- Domain, errs chan<- error, ping time.Duration) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.runOnce(ctx, out, ping); err != nil {
				log.Warn().Err(err).Dur("backoff", backoff).Msg("domain feed connection failed, reconnecting")
				select {
				case errs <- fmt.Errorf("stream reconnect: %w", err):
				default:
				}

				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return ctx.Err()
				}

				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			backoff = time.Second
		}
	}
}

func (s Stream) runOnce(ctx context.Context, out chan<- Domain, ping time.Duration) error {
	log.Info().Str("url", s.url).Msg("connecting to domain feed")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	conn.SetReadLimit(256 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	if err := conn.WriteJSON(map[string]any{"op": "subscribe", "ch": "domains"}); err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}

	pingTicker := time.NewTicker(ping)
	defer pingTicker.Stop()

	msgs := make(chan feedMessage, 64)
	readErr := make(chan error, 1)

	go func() {
		for {
			var msg feedMessage
			if err := conn.ReadJSON(&msg); err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return ctx.Err()

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}

		case err := <-readErr:
			return fmt.Errorf("read failed: %w", err)

		case msg := <-msgs:
			d, ok := ParseDomain(msg.Domain)
			if !ok {
				continue
			}
			select {
			case out <- Domain{Name: d, Source: msg.Source, Ts: time.Now()}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// ParseDomain sanity-checks a feed entry, rejecting blanks, wildcards
// and entries with no label structure at all.
func ParseDomain(raw string) (string, bool) {
	d := strings.TrimSpace(strings.ToLower(raw))
	d = strings.TrimPrefix(d, "*.")
	d = strings.TrimSuffix(d, ".")
	if d == "" || !strings.Contains(d, ".") {
		return "", false
	}
	return d, true
}
