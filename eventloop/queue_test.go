package eventloop

import (
	"testing"
	"time"
)

func TestPopEmptyQueue(t *testing.T) {
	q := newQueue(1)
	elem, ok := q.pop()
	if elem != nil || ok {
		t.Error("expected q.pop() to return nil, false")
	}
}

func TestPushAndPopWithCapacity1(t *testing.T) {
	q := newQueue(1)
	if _, dropped := q.push("hello"); dropped {
		t.Error("expected first push not to drop anything")
	}

	elem, ok := q.pop()
	if elem.(string) != "hello" || !ok {
		t.Errorf("expected q.pop() to return \"hello\", true")
	}
	if q.len() != 0 {
		t.Errorf("expected q.len() to return 0, got %d", q.len())
	}
}

func TestPushWhenFull(t *testing.T) {
	q := newQueue(1)
	q.push("hello")
	old, dropped := q.push("world")
	if !dropped || old.(string) != "hello" {
		t.Errorf("expected push to drop \"hello\", got %v, %t", old, dropped)
	}

	elem, ok := q.pop()
	if elem.(string) != "world" || !ok {
		t.Errorf("expected q.pop() to return \"world\", true")
	}
}

func TestPushMultiple(t *testing.T) {
	q := newQueue(2)
	q.push("hello")
	q.push("world")

	elem, ok := q.pop()
	if elem.(string) != "hello" || !ok {
		t.Errorf("expected q.pop() to return \"hello\", true")
	}

	elem, ok = q.pop()
	if elem.(string) != "world" || !ok {
		t.Errorf("expected q.pop() to return \"world\", true")
	}
}

func TestLenWhenTailInFrontOfHead(t *testing.T) {
	q := newQueue(2)

	q.push("hello")
	q.push("world")
	q.pop()
	q.push("foo")

	if q.len() != 2 {
		t.Error("expected q.len() to return 2")
	}

	elem, ok := q.pop()
	if elem.(string) != "world" || !ok {
		t.Errorf("expected q.pop() to return \"world\", true")
	}
}

func TestReadyAfterFailedPop(t *testing.T) {
	q := newQueue(4)
	// the consumer found the queue empty and has not yet started waiting
	if _, ok := q.pop(); ok {
		t.Fatal("expected q.pop() on an empty queue to fail")
	}
	q.push(1)

	select {
	case <-q.ready():
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("ready() did not fire, but the queue holds %d entries", q.len())
	}
	if elem, ok := q.pop(); !ok || elem.(int) != 1 {
		t.Errorf("expected q.pop() to return 1, true, got %v, %t", elem, ok)
	}
}

func TestReadyHoldsOneSignal(t *testing.T) {
	q := newQueue(4)
	q.push(1)
	q.push(2)
	<-q.ready()
	select {
	case <-q.ready():
		t.Error("expected a single pending signal for two pushes")
	default:
	}
}
