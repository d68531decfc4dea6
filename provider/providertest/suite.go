// Package providertest is a conformance suite every provider.Provider passes.
package providertest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pr "github.com/unkn0wn-root/kvcache/provider"
)

// Harness builds fresh providers for the suite.
type Harness struct {
	// New returns an empty, open provider. The suite closes it.
	New func(t *testing.T) pr.Provider
	// Advance moves the store's clock forward. nil => time.Sleep.
	Advance func(t *testing.T, d time.Duration)
}

func (h Harness) advance(t *testing.T, d time.Duration) {
	if h.Advance != nil {
		h.Advance(t, d)
		return
	}
	time.Sleep(d)
}

var (
	addrA = pr.Address{Namespace: "ns", Set: "set", Key: "a"}
	addrB = pr.Address{Namespace: "ns", Set: "set", Key: "b"}
)

func sampleBins() pr.Bins {
	return pr.Bins{
		"primaryKey": []byte("a"),
		"item":       []byte(`{"n":1}`),
		"stored":     []byte("1700000000000"),
		"ttl":        []byte("60"),
	}
}

var replace = pr.WritePolicy{Exists: pr.CreateOrReplace}

// Run executes the suite.
func Run(t *testing.T, h Harness) {
	open := func(t *testing.T) pr.Provider {
		p := h.New(t)
		t.Cleanup(func() { _ = p.Close(context.Background()) })
		return p
	}

	t.Run("get_missing", func(t *testing.T) {
		p := open(t)
		_, _, err := p.Get(context.Background(), addrA)
		assert.ErrorIs(t, err, pr.ErrRecordNotFound)
	})

	t.Run("put_get", func(t *testing.T) {
		ctx := context.Background()
		p := open(t)
		require.NoError(t, p.Put(ctx, addrA, sampleBins(), pr.WriteMeta{TTL: time.Minute, Generation: 1}, replace))

		bins, meta, err := p.Get(ctx, addrA)
		require.NoError(t, err)
		assert.Equal(t, sampleBins(), bins)
		assert.Equal(t, uint32(1), meta.Generation)
		assert.Greater(t, meta.TTL, time.Duration(0))
		assert.LessOrEqual(t, meta.TTL, time.Minute)
	})

	t.Run("empty_bin_value", func(t *testing.T) {
		ctx := context.Background()
		p := open(t)
		require.NoError(t, p.Put(ctx, addrA, pr.Bins{"item": {}, "stored": []byte("1")}, pr.WriteMeta{Generation: 1}, replace))

		bins, _, err := p.Get(ctx, addrA)
		require.NoError(t, err)
		assert.True(t, bins.Has("item"))
		assert.Empty(t, bins["item"])
	})

	t.Run("no_ttl", func(t *testing.T) {
		ctx := context.Background()
		p := open(t)
		for _, ttl := range []time.Duration{0, -time.Second} {
			require.NoError(t, p.Put(ctx, addrA, sampleBins(), pr.WriteMeta{TTL: ttl, Generation: 1}, replace))
			_, meta, err := p.Get(ctx, addrA)
			require.NoError(t, err, "ttl=%v", ttl)
			assert.Zero(t, meta.TTL, "ttl=%v", ttl)
		}
	})

	t.Run("replace_drops_old_bins", func(t *testing.T) {
		ctx := context.Background()
		p := open(t)
		require.NoError(t, p.Put(ctx, addrA, sampleBins(), pr.WriteMeta{Generation: 1}, replace))
		require.NoError(t, p.Put(ctx, addrA, pr.Bins{"item": []byte("2")}, pr.WriteMeta{Generation: 1}, replace))

		bins, _, err := p.Get(ctx, addrA)
		require.NoError(t, err)
		assert.Equal(t, pr.Bins{"item": []byte("2")}, bins)
	})

	t.Run("create_only", func(t *testing.T) {
		ctx := context.Background()
		p := open(t)
		only := pr.WritePolicy{Exists: pr.CreateOnly}
		require.NoError(t, p.Put(ctx, addrA, sampleBins(), pr.WriteMeta{Generation: 1}, only))
		err := p.Put(ctx, addrA, pr.Bins{"item": []byte("x")}, pr.WriteMeta{Generation: 1}, only)
		assert.ErrorIs(t, err, pr.ErrRecordExists)

		bins, _, err := p.Get(ctx, addrA)
		require.NoError(t, err)
		assert.Equal(t, sampleBins(), bins)
	})

	t.Run("remove", func(t *testing.T) {
		ctx := context.Background()
		p := open(t)
		require.NoError(t, p.Put(ctx, addrA, sampleBins(), pr.WriteMeta{Generation: 1}, replace))
		require.NoError(t, p.Put(ctx, addrB, sampleBins(), pr.WriteMeta{Generation: 1}, replace))

		require.NoError(t, p.Remove(ctx, addrA))
		_, _, err := p.Get(ctx, addrA)
		assert.ErrorIs(t, err, pr.ErrRecordNotFound)
		_, _, err = p.Get(ctx, addrB)
		assert.NoError(t, err, "sibling record must survive")

		assert.ErrorIs(t, p.Remove(ctx, addrA), pr.ErrRecordNotFound)
	})

	t.Run("address_isolation", func(t *testing.T) {
		ctx := context.Background()
		p := open(t)
		require.NoError(t, p.Put(ctx, addrA, sampleBins(), pr.WriteMeta{Generation: 1}, replace))

		for _, other := range []pr.Address{
			{Namespace: "other", Set: "set", Key: "a"},
			{Namespace: "ns", Set: "other", Key: "a"},
			{Namespace: "ns:set", Set: "a", Key: "a"},
		} {
			_, _, err := p.Get(ctx, other)
			assert.ErrorIs(t, err, pr.ErrRecordNotFound, "%s", other)
		}
	})

	t.Run("expiry", func(t *testing.T) {
		ctx := context.Background()
		p := open(t)
		require.NoError(t, p.Put(ctx, addrA, sampleBins(), pr.WriteMeta{TTL: 100 * time.Millisecond, Generation: 1}, replace))
		_, _, err := p.Get(ctx, addrA)
		require.NoError(t, err)

		h.advance(t, 250*time.Millisecond)

		_, _, err = p.Get(ctx, addrA)
		assert.ErrorIs(t, err, pr.ErrRecordNotFound)
		assert.ErrorIs(t, p.Remove(ctx, addrA), pr.ErrRecordNotFound)
	})

	t.Run("closed", func(t *testing.T) {
		ctx := context.Background()
		p := h.New(t)
		require.NoError(t, p.Close(ctx))
		assert.NoError(t, p.Close(ctx), "Close must be idempotent")

		_, _, err := p.Get(ctx, addrA)
		assert.ErrorIs(t, err, pr.ErrClosed)
		assert.ErrorIs(t, p.Put(ctx, addrA, sampleBins(), pr.WriteMeta{}, replace), pr.ErrClosed)
		assert.ErrorIs(t, p.Remove(ctx, addrA), pr.ErrClosed)
	})
}
