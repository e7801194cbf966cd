package watcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/store/db/postgres"
)

// PostgresFeed subscribes to the NOTIFY channel fed by the job-listing
// triggers.
type PostgresFeed struct {
	listener *pq.Listener
	logger   *slog.Logger
}

// NewPostgresFeed creates a feed against the given DSN. The underlying
// listener reconnects on its own; connection-state changes are logged.
func NewPostgresFeed(dsn string, logger *slog.Logger) *PostgresFeed {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute,
		func(event pq.ListenerEventType, err error) {
			if err != nil {
				logger.Warn("change feed listener event", "event", int(event), "error", err)
			}
		})
	return &PostgresFeed{listener: listener, logger: logger}
}

func (f *PostgresFeed) Subscribe(ctx context.Context) (<-chan Event, error) {
	if err := f.listener.Listen(postgres.ChangeFeedChannel); err != nil && !errors.Is(err, pq.ErrChannelAlreadyOpen) {
		return nil, errors.Wrap(err, "failed to listen on change channel")
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case notification, ok := <-f.listener.Notify:
				if !ok {
					return
				}
				if notification == nil {
					// Reconnect marker; events may have been lost while the
					// connection was down.
					f.logger.Warn("change feed reconnected, notifications may have been dropped")
					continue
				}
				var event Event
				if err := json.Unmarshal([]byte(notification.Extra), &event); err != nil {
					f.logger.Warn("malformed change notification", "payload", notification.Extra, "error", err)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}

func (f *PostgresFeed) Close() error {
	return f.listener.Close()
}

var _ Feed = (*PostgresFeed)(nil)
