package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/unilak/community/internal/format"
	"github.com/unilak/community/internal/models"
)

type changeEvent struct {
	Table string          `json:"table"`
	Event string          `json:"event"`
	ID    json.RawMessage `json:"id"`
}

// realtimeURL turns the API base into the websocket endpoint for one
// thread's responses.
func realtimeURL(base, column, id, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/api/realtime")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	q := url.Values{}
	q.Set("table", models.TableAnnouncementResponses)
	q.Set("filter", column+"=eq."+id)
	if token != "" {
		q.Set("access_token", token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// follow delivers a tick on changed for every change to the thread and
// reconnects with backoff until ctx ends.
func follow(ctx context.Context, endpoint string, changed chan<- struct{}) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			slog.Warn("realtime connect failed", "error", err, "retry_in", backoff.String())
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		stop := context.AfterFunc(ctx, func() { conn.Close() })
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				slog.Debug("realtime closed", "error", err)
				break
			}
			var ev changeEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				slog.Warn("realtime decode failed", "error", err)
				continue
			}
			var id string
			if _, err := format.DecodeOne(ev.ID, &id); err == nil {
				slog.Debug("thread changed", "event", ev.Event, "id", id)
			}
			select {
			case changed <- struct{}{}:
			default:
			}
		}
		stop()
		conn.Close()
	}
}
