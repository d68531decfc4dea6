package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pr "github.com/unkn0wn-root/kvcache/provider"
	"github.com/unkn0wn-root/kvcache/provider/providertest"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, pr.Config) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return mr, pr.Config{Hosts: []pr.Host{{Addr: mr.Host(), Port: port}}}
}

func TestConformance(t *testing.T) {
	var mr *miniredis.Miniredis
	providertest.Run(t, providertest.Harness{
		New: func(t *testing.T) pr.Provider {
			var cfg pr.Config
			mr, cfg = newTestRedis(t)
			p, err := Dial(context.Background(), cfg)
			require.NoError(t, err)
			return p
		},
		Advance: func(_ *testing.T, d time.Duration) { mr.FastForward(d) },
	})
}

func TestNewNilClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestDialUnreachable(t *testing.T) {
	mr, cfg := newTestRedis(t)
	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Dial(ctx, cfg)
	assert.Error(t, err)
}

func TestDialNoHosts(t *testing.T) {
	_, err := Dial(context.Background(), pr.Config{})
	assert.ErrorIs(t, err, pr.ErrParameter)
}

func TestDialWithPassword(t *testing.T) {
	mr, cfg := newTestRedis(t)
	mr.RequireAuth("s3cret")

	_, err := Dial(context.Background(), cfg)
	assert.Error(t, err, "missing password must fail the ping")

	cfg.Options = map[string]any{"password": "s3cret"}
	p, err := Dial(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, p.Close(context.Background()))
}

func TestRecordLayout(t *testing.T) {
	ctx := context.Background()
	mr, cfg := newTestRedis(t)
	p, err := Dial(ctx, cfg)
	require.NoError(t, err)
	defer p.Close(ctx)

	addr := pr.Address{Namespace: "app", Set: "users", Key: "1"}
	require.NoError(t, p.Put(ctx, addr, pr.Bins{"item": []byte(`"x"`)}, pr.WriteMeta{TTL: 30 * time.Second, Generation: 1},
		pr.WritePolicy{Exists: pr.CreateOrReplace}))

	k := "app:users:1"
	assert.True(t, mr.Exists(k))
	assert.Equal(t, `"x"`, mr.HGet(k, "item"))
	assert.Equal(t, "1", mr.HGet(k, genField))
	assert.Equal(t, 30*time.Second, mr.TTL(k))

	d, err := p.(*Redis).TTLOf(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestReservedBinName(t *testing.T) {
	ctx := context.Background()
	_, cfg := newTestRedis(t)
	p, err := Dial(ctx, cfg)
	require.NoError(t, err)
	defer p.Close(ctx)

	err = p.Put(ctx, pr.Address{Namespace: "n", Set: "s", Key: "k"}, pr.Bins{genField: []byte("9")}, pr.WriteMeta{},
		pr.WritePolicy{Exists: pr.CreateOrReplace})
	assert.ErrorIs(t, err, pr.ErrParameter)
}

func TestSharedClientNotClosed(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	p, err := New(Config{Client: client})
	require.NoError(t, err)
	require.NoError(t, p.Close(ctx))
	assert.NoError(t, client.Ping(ctx).Err(), "provider must not close a client it does not own")
}
