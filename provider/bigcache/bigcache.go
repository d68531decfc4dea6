// Package bigcache keeps records in an in-process BigCache. BigCache only knows a
// global LifeWindow, so each record carries its own expiry in the wire frame and
// expired records are treated as absent on read.
package bigcache

import (
	"context"
	"errors"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/kvcache/internal/util"
	"github.com/unkn0wn-root/kvcache/internal/wire"
	pr "github.com/unkn0wn-root/kvcache/provider"
)

type Provider struct {
	c   *bc.BigCache
	now func() time.Time

	mu     sync.Mutex // serializes writers and Close
	closed bool
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration // upper bound on any record's life; 0 => 24h
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = 24 * time.Hour
	}
	conf := bc.DefaultConfig(life)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	conf.Verbose = false
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, now: time.Now}, nil
}

// Dial ignores hosts. Options: "life_window", "clean_window" (durations),
// "max_entries_in_window", "max_entry_size", "hard_max_cache_size_mb" (ints).
func Dial(ctx context.Context, cfg pr.Config) (pr.Provider, error) {
	var c Config
	var err error
	if c.LifeWindow, err = cfg.DurationOption("life_window", 0); err != nil {
		return nil, pr.NewError(pr.ParameterError, err)
	}
	if c.CleanWindow, err = cfg.DurationOption("clean_window", 0); err != nil {
		return nil, pr.NewError(pr.ParameterError, err)
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"max_entries_in_window", &c.MaxEntriesInWindow},
		{"max_entry_size", &c.MaxEntrySize},
		{"hard_max_cache_size_mb", &c.HardMaxCacheSizeMB},
	}
	for _, o := range ints {
		n, err := cfg.IntOption(o.name, 0)
		if err != nil {
			return nil, pr.NewError(pr.ParameterError, err)
		}
		*o.dst = int(n)
	}
	// the cache outlives the dial context; Close stops its cleaner
	p, err := New(context.WithoutCancel(ctx), c)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func storageKey(addr pr.Address) string {
	return util.StorageKey(addr.Namespace, addr.Set, addr.Key)
}

// load returns the live record at k. Expired records are deleted and reported
// as not found.
func (p *Provider) load(k string) (wire.Record, error) {
	b, err := p.c.Get(k)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return wire.Record{}, pr.ErrRecordNotFound
	}
	if err != nil {
		return wire.Record{}, pr.NewError(pr.ServerError, err)
	}
	rec, err := wire.DecodeRecord(b)
	if err != nil {
		// self-heal: drop unreadable frames
		_ = p.c.Delete(k)
		return wire.Record{}, pr.ErrRecordNotFound
	}
	if rec.Expired(p.now().UnixMilli()) {
		_ = p.c.Delete(k)
		return wire.Record{}, pr.ErrRecordNotFound
	}
	return rec, nil
}

func (p *Provider) Get(_ context.Context, addr pr.Address) (pr.Bins, pr.RecordMeta, error) {
	if p.isClosed() {
		return nil, pr.RecordMeta{}, pr.ErrClosed
	}
	rec, err := p.load(storageKey(addr))
	if err != nil {
		return nil, pr.RecordMeta{}, err
	}
	meta := pr.RecordMeta{Generation: rec.Gen}
	if rec.ExpiresAt != 0 {
		meta.TTL = time.UnixMilli(rec.ExpiresAt).Sub(p.now())
	}
	return rec.Bins, meta, nil
}

func (p *Provider) Put(_ context.Context, addr pr.Address, bins pr.Bins, meta pr.WriteMeta, policy pr.WritePolicy) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return pr.ErrClosed
	}
	k := storageKey(addr)
	if policy.Exists == pr.CreateOnly {
		if _, err := p.load(k); err == nil {
			return pr.ErrRecordExists
		} else if !pr.IsNotFound(err) {
			return err
		}
	}

	rec := wire.Record{Gen: meta.Generation, Bins: bins}
	if meta.TTL > 0 {
		rec.ExpiresAt = p.now().Add(meta.TTL).UnixMilli()
	}
	b, err := wire.EncodeRecord(rec)
	if err != nil {
		return pr.NewError(pr.ParameterError, err)
	}
	if err := p.c.Set(k, b); err != nil {
		return pr.NewError(pr.ServerError, err)
	}
	return nil
}

func (p *Provider) Remove(_ context.Context, addr pr.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return pr.ErrClosed
	}
	k := storageKey(addr)
	if _, err := p.load(k); err != nil {
		return err
	}
	if err := p.c.Delete(k); err != nil {
		if errors.Is(err, bc.ErrEntryNotFound) {
			return pr.ErrRecordNotFound
		}
		return pr.NewError(pr.ServerError, err)
	}
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.c.Close()
}

func (p *Provider) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
