package eventloop_test

import (
	"context"
	"testing"
	"time"

	"github.com/relab/benor/eventloop"
	"github.com/relab/benor/logging"
)

type testEvent int

func TestHandler(t *testing.T) {
	el := eventloop.New(logging.Nop(), 10)
	c := make(chan testEvent)
	eventloop.Register(el, func(event testEvent) {
		c <- event
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go el.Run(ctx)

	want := testEvent(42)
	el.AddEvent(want)

	var got testEvent
	select {
	case <-ctx.Done():
		t.Fatal("timed out")
	case got = <-c:
	}

	if got != want {
		t.Fatalf("wrong value for event: got: %v, want: %v", got, want)
	}
}

func TestHandlerOrder(t *testing.T) {
	el := eventloop.New(logging.Nop(), 10)
	var order []string
	eventloop.Register(el, func(testEvent) {
		order = append(order, "first")
	})
	eventloop.Register(el, func(testEvent) {
		order = append(order, "second")
	})

	el.AddEvent(testEvent(1))
	if !el.Tick() {
		t.Fatal("expected Tick to handle an event")
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("wrong handler order: got: %v, want: [first second]", order)
	}
}

func TestNoHandler(t *testing.T) {
	el := eventloop.New(logging.Nop(), 10)
	el.AddEvent("unhandled")
	if !el.Tick() {
		t.Error("expected Tick to consume an event without handlers")
	}
	if el.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", el.Pending())
	}
}

func TestDropWhenFull(t *testing.T) {
	el := eventloop.New(logging.Nop(), 2)
	var got []testEvent
	eventloop.Register(el, func(event testEvent) {
		got = append(got, event)
	})

	for i := range 3 {
		if dropped := el.AddEvent(testEvent(i)); dropped != (i == 2) {
			t.Errorf("AddEvent(%d) dropped = %t, want %t", i, dropped, i == 2)
		}
	}
	if el.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", el.Dropped())
	}
	for el.Tick() {
	}

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got events %v, want [1 2]", got)
	}
}

func TestTickEmpty(t *testing.T) {
	el := eventloop.New(logging.Nop(), 1)
	if el.Tick() {
		t.Error("Tick on an empty queue returned true")
	}
}

func TestRunHandlesEveryEvent(t *testing.T) {
	el := eventloop.New(logging.Nop(), 1000)
	const n = 1000
	c := make(chan testEvent, n)
	eventloop.Register(el, func(event testEvent) {
		c <- event
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go el.Run(ctx)

	// events arrive while the loop alternates between handling and waiting
	for i := range n {
		el.AddEvent(testEvent(i))
		if i%10 == 0 {
			time.Sleep(time.Microsecond)
		}
	}
	for i := range n {
		select {
		case got := <-c:
			if got != testEvent(i) {
				t.Fatalf("got event %v, want %v", got, i)
			}
		case <-ctx.Done():
			t.Fatalf("timed out after %d of %d events", i, n)
		}
	}
}
