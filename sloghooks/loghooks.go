package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/kvcache"
	"github.com/unkn0wn-root/kvcache/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	StoreErrorEvery uint64
	MalformedEvery  uint64
	// Optional address redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	storeErrCtr  atomic.Uint64
	malformedCtr atomic.Uint64
}

var _ kvcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(addr string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(addr)
	}
	return util.Redact(addr)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) ConnectFailed(hosts []string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("kvcache.connect_failed",
		"hosts", hosts,
		"err", err)
}

func (h *Hooks) DuplicateHandle() {
	if h.l == nil {
		return
	}
	h.l.Debug("kvcache.duplicate_handle",
		"detail", "concurrent start dialed twice; extra handle closed")
}

func (h *Hooks) EnvelopeMalformed(addr string, err error) {
	if h.l == nil || !sample(h.opts.MalformedEvery, &h.malformedCtr) {
		return
	}
	h.l.Warn("kvcache.envelope_malformed",
		"addr", h.redact(addr),
		"err", err)
}

func (h *Hooks) StoreError(op, addr string, err error) {
	if h.l == nil || !sample(h.opts.StoreErrorEvery, &h.storeErrCtr) {
		return
	}
	h.l.Warn("kvcache.store_error",
		"op", op,
		"addr", h.redact(addr),
		"err", err)
}

func (h *Hooks) SerializationRejected(addr string, err error) {
	if h.l == nil {
		return
	}
	h.l.Info("kvcache.serialization_rejected",
		"addr", h.redact(addr),
		"err", err)
}
