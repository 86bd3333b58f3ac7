package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// NotificationChannel selects the delivery mechanism for a notification.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

// Notification is one queued delivery. Send holds the actual dispatch
// closure so callers compose the message at enqueue time and the
// workers stay oblivious to templates.
type Notification struct {
	Channel   NotificationChannel
	Recipient string
	Kind      string
	Send      func(ctx context.Context) error
}

// Notifier fans deliveries out to a fixed worker pool. Notifications
// are queued after the triggering transaction commits, so a failed
// delivery never rolls back ledger state; failures are retried a
// couple of times and then logged and dropped.
type Notifier struct {
	queue   chan Notification
	wg      sync.WaitGroup
	once    sync.Once
	retries int
	backoff time.Duration
}

// NewNotifier starts a notifier with the given number of workers.
func NewNotifier(workers int) *Notifier {
	if workers < 1 {
		workers = 1
	}
	n := &Notifier{
		queue:   make(chan Notification, 256),
		retries: 2,
		backoff: 5 * time.Second,
	}
	for i := 0; i < workers; i++ {
		n.wg.Add(1)
		go n.worker()
	}
	return n
}

// Enqueue submits a notification for delivery. It never blocks the
// caller: when the queue is full the notification is dropped with a
// warning rather than stalling a request.
func (n *Notifier) Enqueue(notification Notification) {
	select {
	case n.queue <- notification:
	default:
		slog.Warn("notification queue full, dropping",
			"channel", notification.Channel, "kind", notification.Kind, "recipient", notification.Recipient)
	}
}

// Close stops accepting notifications and waits for queued deliveries
// to finish.
func (n *Notifier) Close() {
	n.once.Do(func() { close(n.queue) })
	n.wg.Wait()
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for notification := range n.queue {
		n.deliver(notification)
	}
}

func (n *Notifier) deliver(notification Notification) {
	var err error
	for attempt := 0; attempt <= n.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(n.backoff * time.Duration(attempt))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = notification.Send(ctx)
		cancel()
		if err == nil {
			slog.Debug("notification delivered",
				"channel", notification.Channel, "kind", notification.Kind, "recipient", notification.Recipient)
			return
		}
		slog.Warn("notification delivery failed",
			"channel", notification.Channel, "kind", notification.Kind,
			"recipient", notification.Recipient, "attempt", attempt+1, "error", err)
	}
	slog.Error("notification dropped after retries",
		"channel", notification.Channel, "kind", notification.Kind, "recipient", notification.Recipient, "error", err)
}
