// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    StoreErrorEvery: 10, // sample: ~every 10th store error
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	c, _ := kvcache.New(kvcache.Options{
//	    Dialer: redis.Dial,
//	    Hosts:  []provider.Host{{Addr: "127.0.0.1", Port: 6379}},
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/kvcache"
)

// Hooks forwards events to inner on worker goroutines. Events are dropped when
// the queue is full or after Close.
type Hooks struct {
	inner kvcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once

	mu      sync.RWMutex // guards closed against sends on a closed q
	closed  bool
	dropped atomic.Uint64
}

var _ kvcache.Hooks = (*Hooks)(nil)

func New(inner kvcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) ConnectFailed(hosts []string, err error) {
	hosts = slices.Clone(hosts)
	h.try(func() { h.inner.ConnectFailed(hosts, err) })
}
func (h *Hooks) DuplicateHandle() { h.try(func() { h.inner.DuplicateHandle() }) }
func (h *Hooks) EnvelopeMalformed(addr string, err error) {
	h.try(func() { h.inner.EnvelopeMalformed(addr, err) })
}
func (h *Hooks) StoreError(op, addr string, err error) {
	h.try(func() { h.inner.StoreError(op, addr, err) })
}
func (h *Hooks) SerializationRejected(addr string, err error) {
	h.try(func() { h.inner.SerializationRejected(addr, err) })
}
