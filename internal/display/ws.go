package display

import (
	"context"
	log "log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectDelay = 2 * time.Second
	writeTimeout   = 5 * time.Second
)

// WSPublisher pushes snapshots as JSON to a websocket hub. Only the latest
// snapshot is kept while the hub is unreachable.
type WSPublisher struct {
	url    string
	dialer *websocket.Dialer
	latest chan Snapshot
}

func NewWSPublisher(wsURL string) (*WSPublisher, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	return &WSPublisher{
		url:    u.String(),
		dialer: websocket.DefaultDialer,
		latest: make(chan Snapshot, 1),
	}, nil
}

// Publish never blocks; an unsent older snapshot is replaced.
func (w *WSPublisher) Publish(s Snapshot) {
	for {
		select {
		case w.latest <- s:
			return
		default:
		}
		select {
		case <-w.latest:
		default:
		}
	}
}

// Run delivers snapshots until ctx is done, reconnecting as needed.
func (w *WSPublisher) Run(ctx context.Context) error {
	var conn *websocket.Conn
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	for {
		var snap Snapshot
		select {
		case <-ctx.Done():
			return nil
		case snap = <-w.latest:
		}

		for {
			if conn == nil {
				c, _, err := w.dialer.DialContext(ctx, w.url, nil)
				if err != nil {
					log.Debug("Status hub unreachable", "url", w.url, "err", err)
					if !wait(ctx, reconnectDelay) {
						return nil
					}
					continue
				}
				log.Info("Connected to status hub", "url", w.url)
				conn = c
			}

			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(snap); err != nil {
				log.Warn("Status push failed", "err", err)
				conn.Close()
				conn = nil
				continue
			}
			break
		}
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
