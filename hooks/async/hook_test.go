package asynchook

import (
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/rescache"
)

func TestDeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []string
	h := New(func(ev rescache.Event) {
		mu.Lock()
		got = append(got, ev.Name)
		mu.Unlock()
	}, 1, 16)

	emit := h.Handler()
	for _, name := range []string{"a", "b", "c"} {
		emit(rescache.Event{Name: name})
	}
	h.Close()

	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("got = %v", got)
	}
}

func TestDropsWhenQueueFull(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	var mu sync.Mutex
	var got []string
	h := New(func(ev rescache.Event) {
		mu.Lock()
		got = append(got, ev.Name)
		mu.Unlock()
		if ev.Name == "a" {
			close(started)
			<-gate
		}
	}, 1, 1)

	emit := h.Handler()
	emit(rescache.Event{Name: "a"})
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never started")
	}
	emit(rescache.Event{Name: "b"}) // fills the queue
	emit(rescache.Event{Name: "c"}) // dropped

	close(gate)
	h.Close()

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got = %v", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := New(func(rescache.Event) {}, 2, 4)
	h.Close()
	h.Close()
}
