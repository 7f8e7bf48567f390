package mintd

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"github.com/0xhanvalen/skaterbirds-nft/core/events"
	"github.com/0xhanvalen/skaterbirds-nft/core/types"
)

type streamMessage struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// eventStream serves ledger events over a websocket.
type eventStream struct {
	feed         *events.Feed
	writeTimeout time.Duration
}

func (s *eventStream) handle(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.feed == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "event stream unavailable")
		return
	}
	filter := strings.TrimSpace(r.URL.Query().Get("type"))
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	// Clients only listen; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	if err := s.stream(ctx, conn, filter); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *eventStream) stream(ctx context.Context, conn *websocket.Conn, filter string) error {
	updates, cancel := s.feed.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if filter != "" && !strings.HasPrefix(evt.Type, filter) {
				continue
			}
			if err := s.write(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

func (s *eventStream) write(ctx context.Context, conn *websocket.Conn, evt *types.Event) error {
	data, err := json.Marshal(streamMessage{Type: evt.Type, Attributes: evt.Attributes})
	if err != nil {
		return err
	}
	timeout := s.writeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	writeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
