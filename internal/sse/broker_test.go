package sse

import (
	"strings"
	"testing"
	"time"
)

func recvMsg(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	ch := b.Subscribe()
	if n := b.ClientCount(); n != 1 {
		t.Errorf("ClientCount = %d, want 1", n)
	}

	b.Unsubscribe(ch)
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount after unsubscribe = %d, want 0", n)
	}
	if _, ok := <-ch; ok {
		t.Error("channel not closed after unsubscribe")
	}
}

func TestPublishDeliversToAllClients(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(Event{Type: "ping", Data: map[string]string{"k": "v"}})

	for _, ch := range []chan []byte{a, c} {
		msg := recvMsg(t, ch)
		if !strings.Contains(msg, "event: ping") || !strings.Contains(msg, `"k":"v"`) {
			t.Errorf("msg = %q", msg)
		}
	}
}

func TestPublishChangeEmitsEntityEvent(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	ch := b.Subscribe()
	b.PublishChange("note", "created", "n1")

	msg := recvMsg(t, ch)
	if !strings.Contains(msg, "event: note.created") || !strings.Contains(msg, `"id":"n1"`) {
		t.Errorf("msg = %q", msg)
	}
	// First change also flushes the aggregate refresh event.
	msg = recvMsg(t, ch)
	if !strings.Contains(msg, "event: model.changed") {
		t.Errorf("msg = %q", msg)
	}
}

func TestModelChangedThrottled(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	ch := b.Subscribe()

	b.PublishChange("note", "updated", "n1")
	b.PublishChange("note", "updated", "n1")

	var refreshes int
	deadline := time.After(time.Second)
	got := 0
	for got < 3 {
		select {
		case msg := <-ch:
			got++
			if strings.Contains(string(msg), "model.changed") {
				refreshes++
			}
		case <-deadline:
			// Only three events are expected: two entity events plus one
			// throttled refresh.
			if got < 3 {
				t.Fatalf("received %d events", got)
			}
		}
	}
	if refreshes != 1 {
		t.Errorf("model.changed count = %d, want 1", refreshes)
	}
}

func TestCloseShutsDownClients(t *testing.T) {
	b := NewBroker(time.Second)
	ch := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received event after close")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed")
	}

	// Operations on a closed broker are no-ops.
	b.Publish(Event{Type: "late"})
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount after close = %d", n)
	}
}
