package kvcache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func wait[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("callback not invoked")
	}
	var zero T
	return zero
}

type getResult struct {
	env *Envelope
	err error
}

func TestAsyncRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t, newMemProvider(), nil)
	t.Cleanup(a.Stop)

	started := make(chan error, 1)
	a.StartAsync(ctx, func(err error) { started <- err })
	if err := wait(t, started); err != nil {
		t.Fatalf("StartAsync: %v", err)
	}

	set := make(chan error, 1)
	a.SetAsync(ctx, ID("k"), "123", time.Minute, func(err error) { set <- err })
	if err := wait(t, set); err != nil {
		t.Fatalf("SetAsync: %v", err)
	}

	got := make(chan getResult, 1)
	a.GetAsync(ctx, ID("k"), func(env *Envelope, err error) { got <- getResult{env, err} })
	r := wait(t, got)
	if r.err != nil || r.env == nil || r.env.Item != "123" {
		t.Fatalf("GetAsync: %+v", r)
	}

	dropped := make(chan error, 1)
	a.DropAsync(ctx, ID("k"), func(err error) { dropped <- err })
	if err := wait(t, dropped); err != nil {
		t.Fatalf("DropAsync: %v", err)
	}
	a.DropAsync(ctx, ID("k"), func(err error) { dropped <- err })
	if err := wait(t, dropped); !errors.Is(err, ErrDelete) {
		t.Fatalf("second DropAsync: expected ErrDelete, got %v", err)
	}
}

func TestAsyncNotStarted(t *testing.T) {
	a := newTestAdapter(t, newMemProvider(), nil)
	got := make(chan getResult, 1)
	a.GetAsync(context.Background(), ID("k"), func(env *Envelope, err error) { got <- getResult{env, err} })
	if r := wait(t, got); !errors.Is(r.err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %+v", r)
	}
}

func TestStartAsyncTwiceBackToBack(t *testing.T) {
	a := newTestAdapter(t, newMemProvider(), nil)
	t.Cleanup(a.Stop)

	done := make(chan error, 2)
	a.StartAsync(context.Background(), func(err error) { done <- err })
	a.StartAsync(context.Background(), func(err error) { done <- err })
	for i := 0; i < 2; i++ {
		if err := wait(t, done); err != nil {
			t.Fatalf("StartAsync #%d: %v", i, err)
		}
	}
	if !a.IsReady() {
		t.Fatalf("expected ready")
	}
}

func TestAsyncNilCallback(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	a := startedAdapter(t, mp, nil)

	a.SetAsync(ctx, ID("k"), "v", time.Minute, nil)
	deadline := time.Now().Add(2 * time.Second)
	for mp.puts.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if mp.puts.Load() != 1 {
		t.Fatalf("fire-and-forget set did not run")
	}
}
