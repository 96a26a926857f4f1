package ws

import (
	"context"
	"time"

	"github.com/oshokin/alarm-assistant/internal/domain/alarm"
	"github.com/oshokin/alarm-assistant/internal/logger"
)

// DueChecker yields the alarms that fired since the last call.
type DueChecker interface {
	CheckDue(ctx context.Context) ([]*alarm.Alarm, error)
}

// Broadcaster polls the due check on a fixed cadence and pushes every fired
// alarm to the hub's subscribers.
type Broadcaster struct {
	checker  DueChecker
	hub      *Hub
	interval time.Duration
}

// NewBroadcaster returns a broadcaster polling at the given interval.
func NewBroadcaster(checker DueChecker, hub *Hub, interval time.Duration) *Broadcaster {
	return &Broadcaster{
		checker:  checker,
		hub:      hub,
		interval: interval,
	}
}

// Run polls until the context is cancelled. The due check is idempotent, so
// a failed cycle is logged and retried on the next tick without losing
// alarms.
func (b *Broadcaster) Run(ctx context.Context) {
	logger.Infof(ctx, "notification broadcaster started, poll interval %s", b.interval)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "notification broadcaster stopped")

			return
		case <-ticker.C:
			b.tick(ctx)
		}
	}
}

// tick runs one due check and broadcasts the results.
func (b *Broadcaster) tick(ctx context.Context) {
	due, err := b.checker.CheckDue(ctx)
	if err != nil {
		logger.Errorf(ctx, "due check failed: %v", err)

		return
	}

	for _, a := range due {
		b.hub.Broadcast(ctx, &Notification{
			Type:  NotificationTypeAlarmFired,
			Alarm: a,
		})
	}
}
