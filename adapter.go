package kvcache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/kvcache/codec"
	pr "github.com/unkn0wn-root/kvcache/provider"
)

// Adapter implements Cache on top of a provider.Provider. The zero value is not
// usable; construct with New.
type Adapter struct {
	cfg   config
	conn  *connection
	codec codec.Codec[any]
	log   Logger
	hooks Hooks
	now   func() time.Time
}

// Start connects to the store. It is a no-op when already connected.
func (a *Adapter) Start(ctx context.Context) error { return a.conn.start(ctx) }

// Stop closes the handle. Safe to call repeatedly and with operations in flight.
func (a *Adapter) Stop() { a.conn.stop() }

func (a *Adapter) IsReady() bool { return a.conn.ready() }

func (a *Adapter) ValidateSegmentName(name string) error { return ValidateSegmentName(name) }

// Get returns the envelope stored under key, or (nil, nil) when there is none.
// A nil key is treated as a miss.
func (a *Adapter) Get(ctx context.Context, key Key) (*Envelope, error) {
	h := a.conn.current()
	if h == nil {
		return nil, ErrNotStarted
	}
	if key == nil {
		return nil, nil
	}
	addr, err := a.resolve(key)
	if err != nil {
		return nil, err
	}

	bins, meta, err := h.Get(ctx, addr)
	if err != nil {
		if pr.IsNotFound(err) {
			return nil, nil
		}
		a.storeFailed("get", addr, err)
		return nil, &OpError{Op: "get", Addr: addr, Kind: ErrRead, Err: err}
	}

	env, err := decodeEnvelope(a.codec, bins, meta)
	if err != nil {
		a.hooks.EnvelopeMalformed(addr.String(), err)
		f := opFields("get", addr)
		f["err"] = err
		a.log.Warn("malformed envelope", f)
		return nil, &OpError{Op: "get", Addr: addr, Kind: ErrEnvelopeMalformed, Err: err}
	}
	return env, nil
}

// Set stores value under key, overwriting any previous record. ttl is handed to
// the store as record expiry unchanged (<= 0 => no expiry).
func (a *Adapter) Set(ctx context.Context, key Key, value any, ttl time.Duration) error {
	h := a.conn.current()
	if h == nil {
		return ErrNotStarted
	}
	addr, err := a.resolve(key)
	if err != nil {
		return err
	}

	env := newEnvelope(addr.Key, value, a.now(), ttl)
	if err := checkSerializable(env); err != nil {
		return a.rejectValue(addr, err)
	}
	bins, err := encodeEnvelope(a.codec, env)
	if err != nil {
		return a.rejectValue(addr, err)
	}

	err = h.Put(ctx, addr, bins,
		pr.WriteMeta{TTL: ttl, Generation: 1},
		pr.WritePolicy{Exists: pr.CreateOrReplace},
	)
	if err != nil {
		a.storeFailed("set", addr, err)
		return &OpError{Op: "set", Addr: addr, Kind: ErrWrite, Err: err}
	}
	return nil
}

// Drop removes the record under key. Every store error, including a missing
// record, is reported as ErrDelete; use errors.Is(err, provider.ErrRecordNotFound)
// to treat a missing record as success.
func (a *Adapter) Drop(ctx context.Context, key Key) error {
	h := a.conn.current()
	if h == nil {
		return ErrNotStarted
	}
	addr, err := a.resolve(key)
	if err != nil {
		return err
	}
	if err := h.Remove(ctx, addr); err != nil {
		a.storeFailed("drop", addr, err)
		return &OpError{Op: "drop", Addr: addr, Kind: ErrDelete, Err: err}
	}
	return nil
}

func (a *Adapter) storeFailed(op string, addr pr.Address, err error) {
	a.hooks.StoreError(op, addr.String(), err)
	f := opFields(op, addr)
	f["err"] = err
	f["code"] = pr.CodeOf(err).String()
	a.log.Error("store operation failed", f)
}

func (a *Adapter) rejectValue(addr pr.Address, err error) error {
	a.hooks.SerializationRejected(addr.String(), err)
	f := opFields("set", addr)
	f["err"] = err
	a.log.Debug("value rejected before write", f)
	return &OpError{Op: "set", Addr: addr, Kind: ErrSerialization, Err: err}
}
