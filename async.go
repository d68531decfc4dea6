package kvcache

import (
	"context"
	"time"
)

// Continuation-style variants. Each runs the operation on a new goroutine and
// reports through cb, which is never invoked on the caller's stack; calling
// StartAsync twice back-to-back therefore cannot re-enter the caller. A nil cb
// makes the call fire-and-forget.

func (a *Adapter) StartAsync(ctx context.Context, cb func(error)) {
	go func() {
		err := a.Start(ctx)
		if cb != nil {
			cb(err)
		}
	}()
}

func (a *Adapter) GetAsync(ctx context.Context, key Key, cb func(*Envelope, error)) {
	go func() {
		env, err := a.Get(ctx, key)
		if cb != nil {
			cb(env, err)
		}
	}()
}

func (a *Adapter) SetAsync(ctx context.Context, key Key, value any, ttl time.Duration, cb func(error)) {
	go func() {
		err := a.Set(ctx, key, value, ttl)
		if cb != nil {
			cb(err)
		}
	}()
}

func (a *Adapter) DropAsync(ctx context.Context, key Key, cb func(error)) {
	go func() {
		err := a.Drop(ctx, key)
		if cb != nil {
			cb(err)
		}
	}()
}
