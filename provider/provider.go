// Package provider defines the store client contract used by kvcache.
//
// A Provider addresses records by a three-part Address (namespace, set, key) and
// stores them as named bins. Implementations MUST report a missing record with an
// error matching ErrRecordNotFound (see Error) so the cache can tell a miss apart
// from a failure. Bin values are opaque bytes; providers must return exactly what
// was written.
//
// TTL contract: WriteMeta.TTL <= 0 means "no expiry". Anything positive is the
// lifetime of the record measured from the write.
package provider

import (
	"context"
	"net"
	"strconv"
	"time"
)

// Address locates one record.
type Address struct {
	Namespace string
	Set       string
	Key       string
}

// Valid reports whether all three parts are non-empty.
func (a Address) Valid() bool {
	return a.Namespace != "" && a.Set != "" && a.Key != ""
}

func (a Address) String() string {
	return a.Namespace + "/" + a.Set + "/" + a.Key
}

// Bins are the named values of a record.
type Bins map[string][]byte

// Has reports whether the bin is present (an empty value still counts).
func (b Bins) Has(name string) bool {
	_, ok := b[name]
	return ok
}

// WriteMeta is record-level metadata attached to a write.
type WriteMeta struct {
	TTL        time.Duration // <= 0 => no expiry
	Generation uint32
}

// RecordMeta is record-level metadata reported on a read.
type RecordMeta struct {
	Generation uint32
	TTL        time.Duration // remaining lifetime; 0 => no expiry
}

// ExistsPolicy controls what a write does when the record already exists.
type ExistsPolicy uint8

const (
	// CreateOrReplace overwrites unconditionally (all previous bins are dropped).
	CreateOrReplace ExistsPolicy = iota
	// CreateOnly fails with ErrRecordExists when the record is already present.
	CreateOnly
)

func (p ExistsPolicy) String() string {
	switch p {
	case CreateOrReplace:
		return "create_or_replace"
	case CreateOnly:
		return "create_only"
	default:
		return "unknown(" + strconv.Itoa(int(p)) + ")"
	}
}

// WritePolicy is passed to every Put.
type WritePolicy struct {
	Exists ExistsPolicy
}

// Provider is a store client handle. Must be safe for concurrent use.
type Provider interface {
	// Get returns the bins and metadata of a record, or an error matching
	// ErrRecordNotFound when no live record exists at addr.
	Get(ctx context.Context, addr Address) (Bins, RecordMeta, error)

	// Put writes bins at addr according to policy.
	Put(ctx context.Context, addr Address, bins Bins, meta WriteMeta, policy WritePolicy) error

	// Remove deletes the record at addr. A missing record is reported as
	// ErrRecordNotFound.
	Remove(ctx context.Context, addr Address) error

	// Close releases the handle. Operations after Close fail with ErrClosed.
	Close(ctx context.Context) error
}

// Host is one cluster entry point.
type Host struct {
	Addr string
	Port int
}

func (h Host) String() string {
	return net.JoinHostPort(h.Addr, strconv.Itoa(h.Port))
}

// Config is what a Dialer receives. Options carries store-specific settings
// unmodified from the caller.
type Config struct {
	Hosts     []Host
	Namespace string // default namespace of the caller
	Set       string // default set of the caller
	Options   map[string]any
}

// Dialer establishes a live Provider handle.
type Dialer func(ctx context.Context, cfg Config) (Provider, error)
