package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/alarm-assistant/internal/api/ws"
	"github.com/oshokin/alarm-assistant/internal/config"
	"github.com/oshokin/alarm-assistant/internal/logger"
)

// Options controls the notifier connection behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// StreamURL provides an optional notification stream URL override,
	// e.g. ws://alarm.example.com:8080/api/v1/notifications.
	StreamURL string
}

// reconnectDelay is how long the notifier waits before redialing a lost
// server.
const reconnectDelay = 5 * time.Second

// Run subscribes to the notification stream and logs every ringing alarm.
// It reconnects until the context is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "assistant-notifier")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	streamURL := opts.StreamURL
	if streamURL == "" {
		streamURL = defaultStreamURL(cfg.ListenAddress)
	}

	logger.InfoKV(ctx, "Listening for alarms", "stream_url", streamURL)

	for {
		if err = listen(ctx, streamURL); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}

			logger.WarnKV(ctx, "Notification stream lost", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

// listen holds one stream subscription until it fails or the context ends.
func listen(ctx context.Context, streamURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	// Unblock the read loop when the context is canceled.
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	logger.Info(ctx, "Connected to notification stream")

	for {
		var notification ws.Notification
		if err = conn.ReadJSON(&notification); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			return fmt.Errorf("read notification: %w", err)
		}

		announce(ctx, &notification)
	}
}

// announce logs one notification in a human-friendly form.
func announce(ctx context.Context, n *ws.Notification) {
	if n.Type != ws.NotificationTypeAlarmFired || n.Alarm == nil {
		logger.DebugKV(ctx, "Ignoring notification", "type", n.Type)

		return
	}

	logger.Infof(ctx, "ALARM! %q is ringing (scheduled for %s)",
		n.Alarm.Label, n.Alarm.NextTrigger.Format("15:04 on 2006-01-02"))
}

// defaultStreamURL derives the stream URL from the configured listen address.
// A bare ":8080" style address targets the local machine.
func defaultStreamURL(listenAddress string) string {
	host := listenAddress
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}

	return "ws://" + host + "/api/v1/notifications"
}
