// Package redis stores records as Redis hashes: one hash per address, one field
// per bin, plus a reserved generation field. Record TTL maps to PEXPIRE.
package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/kvcache/internal/util"
	pr "github.com/unkn0wn-root/kvcache/provider"
)

// genField holds the record generation. Bin names may not start with '@'.
const genField = "@gen"

var ErrNilClient = errors.New("redis provider: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

// Dial builds an owned client from cfg.Hosts and pings it.
// Options: "username", "password" (strings), "db" (int).
func Dial(ctx context.Context, cfg pr.Config) (pr.Provider, error) {
	if len(cfg.Hosts) == 0 {
		return nil, pr.NewError(pr.ParameterError, errors.New("redis: no hosts"))
	}
	addrs := make([]string, len(cfg.Hosts))
	for i, h := range cfg.Hosts {
		addrs[i] = h.String()
	}
	username, err := cfg.StringOption("username", "")
	if err != nil {
		return nil, pr.NewError(pr.ParameterError, err)
	}
	password, err := cfg.StringOption("password", "")
	if err != nil {
		return nil, pr.NewError(pr.ParameterError, err)
	}
	db, err := cfg.IntOption("db", 0)
	if err != nil {
		return nil, pr.NewError(pr.ParameterError, err)
	}

	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:    addrs,
		Username: username,
		Password: password,
		DB:       int(db),
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Redis{rdb: rdb, closeClient: true}, nil
}

func storageKey(addr pr.Address) string {
	return util.StorageKey(addr.Namespace, addr.Set, addr.Key)
}

func (p *Redis) Get(ctx context.Context, addr pr.Address) (pr.Bins, pr.RecordMeta, error) {
	k := storageKey(addr)
	var (
		all *goredis.MapStringStringCmd
		ttl *goredis.DurationCmd
	)
	_, err := p.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		all = pipe.HGetAll(ctx, k)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return nil, pr.RecordMeta{}, mapErr(err)
	}
	fields := all.Val()
	if len(fields) == 0 {
		return nil, pr.RecordMeta{}, pr.ErrRecordNotFound
	}

	var meta pr.RecordMeta
	bins := make(pr.Bins, len(fields))
	for name, v := range fields {
		if name == genField {
			g, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return nil, pr.RecordMeta{}, pr.NewError(pr.ServerError, err)
			}
			meta.Generation = uint32(g)
			continue
		}
		bins[name] = []byte(v)
	}
	if d := ttl.Val(); d > 0 {
		meta.TTL = d
	}
	return bins, meta, nil
}

func (p *Redis) Put(ctx context.Context, addr pr.Address, bins pr.Bins, meta pr.WriteMeta, policy pr.WritePolicy) error {
	values := make([]any, 0, 2*len(bins)+2)
	for name, v := range bins {
		if name == "" || strings.HasPrefix(name, "@") {
			return pr.NewError(pr.ParameterError, errors.New("redis: reserved bin name "+strconv.Quote(name)))
		}
		values = append(values, name, v)
	}
	values = append(values, genField, strconv.FormatUint(uint64(meta.Generation), 10))

	k := storageKey(addr)
	write := func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, values...)
		if meta.TTL > 0 {
			pipe.PExpire(ctx, k, meta.TTL)
		}
		return nil
	}

	switch policy.Exists {
	case pr.CreateOrReplace:
		_, err := p.rdb.TxPipelined(ctx, write)
		return mapErr(err)
	case pr.CreateOnly:
		err := p.rdb.Watch(ctx, func(tx *goredis.Tx) error {
			n, err := tx.Exists(ctx, k).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return pr.ErrRecordExists
			}
			_, err = tx.TxPipelined(ctx, write)
			return err
		}, k)
		if errors.Is(err, goredis.TxFailedErr) {
			// someone wrote the key between WATCH and EXEC
			return pr.ErrRecordExists
		}
		return mapErr(err)
	default:
		return pr.NewError(pr.ParameterError, errors.New("redis: unknown exists policy "+policy.Exists.String()))
	}
}

func (p *Redis) Remove(ctx context.Context, addr pr.Address) error {
	n, err := p.rdb.Del(ctx, storageKey(addr)).Result()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return pr.ErrRecordNotFound
	}
	return nil
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func mapErr(err error) error {
	var pe *pr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &pe):
		return err
	case errors.Is(err, goredis.ErrClosed):
		return pr.NewError(pr.ClientClosed, err)
	default:
		return pr.NewError(pr.ServerError, err)
	}
}

// TTLOf is a convenience for tests and tooling: remaining lifetime of addr, 0 when
// the record has none or does not exist.
func (p *Redis) TTLOf(ctx context.Context, addr pr.Address) (time.Duration, error) {
	d, err := p.rdb.PTTL(ctx, storageKey(addr)).Result()
	if err != nil {
		return 0, mapErr(err)
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}
