package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNotifierDeliversQueuedNotifications(t *testing.T) {
	n := NewNotifier(2)

	var delivered atomic.Int32
	for i := 0; i < 5; i++ {
		n.Enqueue(Notification{
			Channel:   ChannelEmail,
			Recipient: "member@example.com",
			Kind:      "test",
			Send: func(ctx context.Context) error {
				delivered.Add(1)
				return nil
			},
		})
	}
	n.Close()

	if got := delivered.Load(); got != 5 {
		t.Errorf("delivered = %d, want 5", got)
	}
}

func TestNotifierRetriesFailedDelivery(t *testing.T) {
	n := NewNotifier(1)
	n.backoff = time.Millisecond

	var attempts atomic.Int32
	n.Enqueue(Notification{
		Channel:   ChannelSMS,
		Recipient: "+27820000000",
		Kind:      "test",
		Send: func(ctx context.Context) error {
			if attempts.Add(1) < 3 {
				return errors.New("transient failure")
			}
			return nil
		},
	})
	n.Close()

	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestNotifierGivesUpAfterRetries(t *testing.T) {
	n := NewNotifier(1)
	n.backoff = time.Millisecond

	var attempts atomic.Int32
	n.Enqueue(Notification{
		Channel:   ChannelEmail,
		Recipient: "member@example.com",
		Kind:      "test",
		Send: func(ctx context.Context) error {
			attempts.Add(1)
			return errors.New("permanent failure")
		},
	})
	n.Close()

	// Initial attempt plus two retries.
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}
