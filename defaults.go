package kvcache

import (
	"time"

	pr "github.com/unkn0wn-root/kvcache/provider"
)

const (
	defaultSegment   = "test"
	defaultPartition = "test"
)

func defaultHosts() []pr.Host {
	return []pr.Host{{Addr: "127.0.0.1", Port: 3000}}
}

func defaultClock() time.Time { return time.Now() }

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
