package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

func collect(t *testing.T, ch <-chan domain.ProgressEvent, n int) []domain.ProgressEvent {
	t.Helper()
	events := make([]domain.ProgressEvent, 0, n)
	for len(events) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %d of %d events", len(events), n)
			}
			events = append(events, ev)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d of %d events", len(events), n)
		}
	}
	return events
}

func TestPublishFansOutToAllSubscribersInOrder(t *testing.T) {
	hub := NewHub(8)

	ch1, cancel1 := hub.Subscribe(context.Background())
	defer cancel1()
	ch2, cancel2 := hub.Subscribe(context.Background())
	defer cancel2()

	hub.Publish(domain.NewProgressEvent("e1", "first"))
	hub.Publish(domain.NewProgressEvent("e1", "second"))

	for _, ch := range []<-chan domain.ProgressEvent{ch1, ch2} {
		events := collect(t, ch, 2)
		if events[0].Message != "first" || events[1].Message != "second" {
			t.Fatalf("unexpected order: %q, %q", events[0].Message, events[1].Message)
		}
	}
}

func TestLateSubscriberGetsNoHistory(t *testing.T) {
	hub := NewHub(8)

	hub.Publish(domain.NewProgressEvent("e1", "before"))

	ch, cancel := hub.Subscribe(context.Background())
	defer cancel()

	hub.Publish(domain.NewProgressEvent("e1", "after"))

	events := collect(t, ch, 1)
	if events[0].Message != "after" {
		t.Fatalf("expected only post-subscription event, got %q", events[0].Message)
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event %q", ev.Message)
	default:
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	drops := 0
	hub := NewHub(1, WithDropCounter(func() { drops++ }))

	ch, cancel := hub.Subscribe(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			hub.Publish(domain.NewProgressEvent("e1", "event"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on slow subscriber")
	}

	if drops != 4 {
		t.Fatalf("expected 4 dropped events for buffer of 1, got %d", drops)
	}
	if got := len(ch); got != 1 {
		t.Fatalf("expected 1 buffered event, got %d", got)
	}
}

func TestCancelClosesChannelAndIsIdempotent(t *testing.T) {
	hub := NewHub(4)

	ch, cancel := hub.Subscribe(context.Background())
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.SubscriberCount())
	}

	// Publishing with no subscribers must not panic.
	hub.Publish(domain.NewProgressEvent("e1", "noop"))
}

func TestContextCancellationUnsubscribes(t *testing.T) {
	hub := NewHub(4)

	ctx, cancelCtx := context.WithCancel(context.Background())
	ch, _ := hub.Subscribe(ctx)
	cancelCtx()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("subscription not removed after context cancellation")
		}
	}
}
