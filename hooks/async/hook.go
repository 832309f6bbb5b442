// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/rescache"
//	"github.com/unkn0wn-root/rescache/hooks/async"
//	"github.com/unkn0wn-root/rescache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    ItemEvery:   10, // sample logs: ~every 10th item event
//	    RemoteEvery: 1,  // log every remote change
//	})
//
// hooks := asynchook.New(raw.Handler(), 1, 1000) // 1 worker; queue 1000 events
//
//	off := eng.Events().Subscribe("", hooks.Handler())
//	defer func() {
//	    off()
//	    hooks.Close()
//	}()
//
// The bus calls handlers synchronously on the emitting goroutine, so slow
// observers stall mutations. Wrapping them here moves the work onto worker
// goroutines; when the queue is full, events are dropped rather than the
// mutation delayed.
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/rescache"
)

type Hooks struct {
	inner rescache.Handler
	q     chan rescache.Event
	wg    sync.WaitGroup
	once  sync.Once
}

func New(inner rescache.Handler, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan rescache.Event, qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for ev := range h.q {
				h.inner(ev)
			}
		}()
	}
	return h
}

// Handler returns the enqueueing handler to subscribe on the bus.
// Unsubscribe it before calling Close.
func (h *Hooks) Handler() rescache.Handler {
	return func(ev rescache.Event) {
		select {
		case h.q <- ev:
		default: // drop
		}
	}
}

// Close drains the queue and stops the workers.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}
