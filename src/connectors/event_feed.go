package connectors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"snapshotengine/src/ingest"
)

// Submitter accepts decoded events for application.
type Submitter interface {
	Submit(ctx context.Context, evt ingest.Event) error
}

// EventFeed reads event envelopes from the trading engine's websocket and
// submits them one by one. The connection is re-established with exponential
// backoff until the context ends.
type EventFeed struct {
	Log       *logrus.Entry
	URL       string
	submitter Submitter
	dialer    websocket.Dialer
	minWait   time.Duration
	maxWait   time.Duration
}

func NewEventFeed(log *logrus.Entry, url string, submitter Submitter, config Config) *EventFeed {
	if log == nil {
		log = logrus.WithField("component", "EventFeed")
	}
	if config.FeedReconnectMin <= 0 {
		config.FeedReconnectMin = time.Second
	}
	if config.FeedReconnectMax < config.FeedReconnectMin {
		config.FeedReconnectMax = config.FeedReconnectMin
	}

	return &EventFeed{
		Log:       log,
		URL:       url,
		submitter: submitter,
		dialer: websocket.Dialer{
			HandshakeTimeout: config.FeedHandshakeTimeout,
			Proxy:            http.ProxyFromEnvironment,
		},
		minWait: config.FeedReconnectMin,
		maxWait: config.FeedReconnectMax,
	}
}

// Run consumes the feed until ctx is cancelled.
func (f *EventFeed) Run(ctx context.Context) error {
	wait := f.minWait
	for {
		connected, err := f.consume(ctx)
		if ctx.Err() != nil {
			f.Log.Info("event feed stopped")
			return nil
		}
		if connected {
			wait = f.minWait
		}

		f.Log.WithError(err).WithField("retry_in", wait).Warn("event feed disconnected")
		select {
		case <-ctx.Done():
			f.Log.Info("event feed stopped")
			return nil
		case <-time.After(wait):
		}

		wait *= 2
		if wait > f.maxWait {
			wait = f.maxWait
		}
	}
}

// consume reads one connection until it fails. connected reports whether the
// handshake succeeded.
func (f *EventFeed) consume(ctx context.Context) (connected bool, err error) {
	conn, _, err := f.dialer.DialContext(ctx, f.URL, nil)
	if err != nil {
		return false, fmt.Errorf("ws dial failed: %w", err)
	}
	defer conn.Close()

	// unblock ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	f.Log.WithField("url", f.URL).Info("event feed connected")

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("ws read failed: %w", err)
		}

		evt, err := ingest.DecodeEnvelope(msg)
		if err != nil {
			f.Log.WithError(err).Warn("dropping undecodable message")
			continue
		}

		// errors are logged by the runner, the feed moves on to the next event
		if err := f.submitter.Submit(ctx, evt); err != nil && ctx.Err() != nil {
			return true, ctx.Err()
		}
	}
}
