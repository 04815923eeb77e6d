package eventbus

import (
	"errors"
	"testing"
)

func TestPublishInvokesSubscribersInOrder(t *testing.T) {
	b := New(nil)
	var order []string
	b.Subscribe("tool.use", func(Event) error { order = append(order, "first"); return nil })
	b.Subscribe("tool.use", func(Event) error { order = append(order, "second"); return nil })
	b.Publish(Event{Name: "tool.use"})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v", order)
	}
}

func TestFailingSubscriberDoesNotBlockOthers(t *testing.T) {
	var failures []error
	b := New(func(event string, err error) { failures = append(failures, err) })

	ranSecond := false
	b.Subscribe("x", func(Event) error { return errors.New("boom") })
	b.Subscribe("x", func(Event) error { ranSecond = true; return nil })
	b.Publish(Event{Name: "x"})

	if !ranSecond {
		t.Fatal("second subscriber should still run")
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure recorded, got %d", len(failures))
	}
}

func TestPanicInSubscriberIsIsolated(t *testing.T) {
	var failures []error
	b := New(func(event string, err error) { failures = append(failures, err) })

	ranSecond := false
	b.Subscribe("x", func(Event) error { panic("kaboom") })
	b.Subscribe("x", func(Event) error { ranSecond = true; return nil })
	b.Publish(Event{Name: "x"})

	if !ranSecond {
		t.Fatal("second subscriber should still run after a panic")
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 recovered failure, got %d", len(failures))
	}
}

func TestDuplicateSubscriptionIsDeduplicated(t *testing.T) {
	b := New(nil)
	calls := 0
	h := func(Event) error { calls++; return nil }
	b.Subscribe("x", h)
	b.Subscribe("x", h)
	b.Publish(Event{Name: "x"})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (deduplicated)", calls)
	}
}

func TestClearAllRemovesSubscribersAndLog(t *testing.T) {
	b := New(nil)
	b.Subscribe("x", func(Event) error { return nil })
	b.Publish(Event{Name: "x"})
	b.ClearAll()
	if len(b.ListEvents()) != 0 {
		t.Fatal("expected empty log after ClearAll")
	}
	calls := 0
	b.Subscribe("x", func(Event) error { calls++; return nil })
	b.Publish(Event{Name: "x"})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
