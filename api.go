package kvcache

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/unkn0wn-root/kvcache/codec"
	pr "github.com/unkn0wn-root/kvcache/provider"
)

// Cache is the generic cache-store contract the Adapter implements.
type Cache interface {
	Start(ctx context.Context) error
	Stop()
	IsReady() bool
	ValidateSegmentName(name string) error

	// Get returns (nil, nil) on a miss.
	Get(ctx context.Context, key Key) (*Envelope, error)
	Set(ctx context.Context, key Key, value any, ttl time.Duration) error
	Drop(ctx context.Context, key Key) error
}

var _ Cache = (*Adapter)(nil)

// Options configure an Adapter. Only Dialer is required; others have defaults.
type Options struct {
	// Required
	Dialer pr.Dialer // establishes the store handle on Start

	Hosts        []pr.Host      // nil => 127.0.0.1:3000
	Segment      string         // default segment (set); "" => "test"
	Partition    string         // default namespace; "" => "test"
	StoreOptions map[string]any // passed to Dialer unmodified (e.g. "password", "path")

	Codec        codec.Codec[any] // item codec; nil => codec.JSON
	MaxItemBytes int              // > 0 wraps Codec in codec.Limit
	Logger       Logger           // nil => NopLogger
	Hooks        Hooks            // nil => NopHooks
	Clock        func() time.Time // nil => time.Now; stamps Envelope.Stored
}

// config is the immutable view of Options taken at construction.
type config struct {
	hosts        []pr.Host
	segment      string
	partition    string
	storeOptions map[string]any
}

func (c config) providerConfig() pr.Config {
	return pr.Config{
		Hosts:     slices.Clone(c.hosts),
		Namespace: c.partition,
		Set:       c.segment,
		Options:   maps.Clone(c.storeOptions),
	}
}

// New builds an Adapter. It does not connect; call Start.
func New(opts Options) (*Adapter, error) {
	if opts.Dialer == nil {
		return nil, ErrNoDialer
	}

	cfg := config{
		hosts:        slices.Clone(opts.Hosts),
		segment:      coalesce(opts.Segment, defaultSegment),
		partition:    coalesce(opts.Partition, defaultPartition),
		storeOptions: maps.Clone(opts.StoreOptions),
	}
	if len(cfg.hosts) == 0 {
		cfg.hosts = defaultHosts()
	}

	a := &Adapter{
		cfg:   cfg,
		codec: coalesce[codec.Codec[any]](opts.Codec, codec.JSON[any]{}),
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
		hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
		now:   opts.Clock,
	}
	if opts.MaxItemBytes > 0 {
		a.codec = codec.Limit[any]{Inner: a.codec, Max: opts.MaxItemBytes}
	}
	if a.now == nil {
		a.now = defaultClock
	}
	a.conn = newConnection(opts.Dialer, cfg.providerConfig(), a.log, a.hooks)
	return a, nil
}
