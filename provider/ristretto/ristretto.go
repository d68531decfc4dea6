// Package ristretto keeps records in an in-process Ristretto cache. Records may
// be evicted under memory pressure before their TTL, which a cache tolerates.
package ristretto

import (
	"context"
	"errors"
	"maps"
	"sync"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/kvcache/internal/util"
	pr "github.com/unkn0wn-root/kvcache/provider"
)

// ErrRejected is returned when Ristretto drops a write (admission policy or
// contention on its set buffer).
var ErrRejected = errors.New("ristretto: write rejected")

type entry struct {
	bins pr.Bins
	gen  uint32
}

type Provider struct {
	c *rc.Cache

	// serializes writers so CreateOnly and Remove see a stable record
	mu     sync.Mutex
	closed bool
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // bytes of bin data
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, pr.NewError(pr.ParameterError, errors.New("ristretto: invalid config"))
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxCost,
		BufferItems:        cfg.BufferItems,
		Metrics:            cfg.Metrics,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

// Dial ignores hosts. Options: "num_counters", "max_cost", "buffer_items" (ints)
// and "metrics" (bool).
func Dial(_ context.Context, cfg pr.Config) (pr.Provider, error) {
	counters, err := cfg.IntOption("num_counters", 1e6)
	if err != nil {
		return nil, pr.NewError(pr.ParameterError, err)
	}
	maxCost, err := cfg.IntOption("max_cost", 64<<20)
	if err != nil {
		return nil, pr.NewError(pr.ParameterError, err)
	}
	buffer, err := cfg.IntOption("buffer_items", 64)
	if err != nil {
		return nil, pr.NewError(pr.ParameterError, err)
	}
	metrics, err := cfg.BoolOption("metrics", false)
	if err != nil {
		return nil, pr.NewError(pr.ParameterError, err)
	}
	p, err := New(Config{NumCounters: counters, MaxCost: maxCost, BufferItems: buffer, Metrics: metrics})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func storageKey(addr pr.Address) string {
	return util.StorageKey(addr.Namespace, addr.Set, addr.Key)
}

func (p *Provider) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Provider) Get(_ context.Context, addr pr.Address) (pr.Bins, pr.RecordMeta, error) {
	if p.isClosed() {
		return nil, pr.RecordMeta{}, pr.ErrClosed
	}
	k := storageKey(addr)
	v, ok := p.c.Get(k)
	if !ok {
		return nil, pr.RecordMeta{}, pr.ErrRecordNotFound
	}
	e, ok := v.(entry)
	if !ok {
		// self-heal: drop unexpected entry shape
		p.c.Del(k)
		return nil, pr.RecordMeta{}, pr.ErrRecordNotFound
	}
	meta := pr.RecordMeta{Generation: e.gen}
	if ttl, ok := p.c.GetTTL(k); ok {
		meta.TTL = ttl
	}
	return maps.Clone(e.bins), meta, nil
}

func (p *Provider) Put(_ context.Context, addr pr.Address, bins pr.Bins, meta pr.WriteMeta, policy pr.WritePolicy) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return pr.ErrClosed
	}
	k := storageKey(addr)
	if policy.Exists == pr.CreateOnly {
		if _, ok := p.c.Get(k); ok {
			return pr.ErrRecordExists
		}
	}

	var cost int64
	for name, v := range bins {
		cost += int64(len(name) + len(v))
	}
	ttl := meta.TTL
	if ttl < 0 {
		ttl = 0 // ristretto treats negative TTL as a no-op write
	}
	if !p.c.SetWithTTL(k, entry{bins: maps.Clone(bins), gen: meta.Generation}, cost, ttl) {
		return pr.NewError(pr.ServerError, ErrRejected)
	}
	// sets are applied asynchronously; make this one visible to the next Get
	p.c.Wait()
	return nil
}

func (p *Provider) Remove(_ context.Context, addr pr.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return pr.ErrClosed
	}
	k := storageKey(addr)
	if _, ok := p.c.Get(k); !ok {
		return pr.ErrRecordNotFound
	}
	p.c.Del(k)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.c.Wait()
	p.c.Close()
	return nil
}

// Helper to expose metrics if desired by the application (not part of provider.Provider).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
