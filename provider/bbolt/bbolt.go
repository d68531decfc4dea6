// Package bbolt persists records in an embedded bbolt file. Each namespace is a
// top-level bucket, each set a nested bucket, and each record a wire-framed value.
// Expiry is checked on read; expired records are removed lazily.
package bbolt

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/unkn0wn-root/kvcache/internal/wire"
	pr "github.com/unkn0wn-root/kvcache/provider"
)

const defaultPath = "kvcache.db"

type Provider struct {
	db  *bbolt.DB
	now func() time.Time

	mu     sync.RWMutex
	closed bool
}

var _ pr.Provider = (*Provider)(nil)

// New wraps an open database. The provider owns db and closes it on Close.
func New(db *bbolt.DB) *Provider {
	return &Provider{db: db, now: time.Now}
}

// Dial opens (or creates) the file named by the "path" option, default
// "kvcache.db". Hosts are ignored. "timeout" bounds waiting for the file lock.
func Dial(_ context.Context, cfg pr.Config) (pr.Provider, error) {
	path, err := cfg.StringOption("path", defaultPath)
	if err != nil {
		return nil, pr.NewError(pr.ParameterError, err)
	}
	timeout, err := cfg.DurationOption("timeout", time.Second)
	if err != nil {
		return nil, pr.NewError(pr.ParameterError, err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

var errExpired = errors.New("bbolt: record expired")

// read decodes the record at addr inside tx. Missing buckets and keys are
// ErrRecordNotFound; a live-but-expired record returns errExpired.
func (p *Provider) read(tx *bbolt.Tx, addr pr.Address) (wire.Record, error) {
	b := setBucket(tx, addr)
	if b == nil {
		return wire.Record{}, pr.ErrRecordNotFound
	}
	raw := b.Get([]byte(addr.Key))
	if raw == nil {
		return wire.Record{}, pr.ErrRecordNotFound
	}
	// raw is only valid for the life of tx
	rec, err := wire.DecodeRecord(bytes.Clone(raw))
	if err != nil {
		return wire.Record{}, pr.NewError(pr.ServerError, err)
	}
	if rec.Expired(p.now().UnixMilli()) {
		return wire.Record{}, errExpired
	}
	return rec, nil
}

func setBucket(tx *bbolt.Tx, addr pr.Address) *bbolt.Bucket {
	ns := tx.Bucket([]byte(addr.Namespace))
	if ns == nil {
		return nil
	}
	return ns.Bucket([]byte(addr.Set))
}

func (p *Provider) Get(_ context.Context, addr pr.Address) (pr.Bins, pr.RecordMeta, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, pr.RecordMeta{}, pr.ErrClosed
	}

	var rec wire.Record
	err := p.db.View(func(tx *bbolt.Tx) error {
		var err error
		rec, err = p.read(tx, addr)
		return err
	})
	if errors.Is(err, errExpired) {
		return nil, pr.RecordMeta{}, pr.ErrRecordNotFound
	}
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
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return pr.ErrClosed
	}

	rec := wire.Record{Gen: meta.Generation, Bins: bins}
	if meta.TTL > 0 {
		rec.ExpiresAt = p.now().Add(meta.TTL).UnixMilli()
	}
	raw, err := wire.EncodeRecord(rec)
	if err != nil {
		return pr.NewError(pr.ParameterError, err)
	}

	return p.db.Update(func(tx *bbolt.Tx) error {
		if policy.Exists == pr.CreateOnly {
			if _, err := p.read(tx, addr); err == nil {
				return pr.ErrRecordExists
			}
		}
		ns, err := tx.CreateBucketIfNotExists([]byte(addr.Namespace))
		if err != nil {
			return pr.NewError(pr.ServerError, err)
		}
		set, err := ns.CreateBucketIfNotExists([]byte(addr.Set))
		if err != nil {
			return pr.NewError(pr.ServerError, err)
		}
		if err := set.Put([]byte(addr.Key), raw); err != nil {
			return pr.NewError(pr.ServerError, err)
		}
		return nil
	})
}

// Remove deletes the record. An expired record is deleted too but reported as
// ErrRecordNotFound, matching what Get would have said.
func (p *Provider) Remove(_ context.Context, addr pr.Address) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return pr.ErrClosed
	}

	var expired bool
	err := p.db.Update(func(tx *bbolt.Tx) error {
		_, err := p.read(tx, addr)
		switch {
		case errors.Is(err, errExpired):
			expired = true
		case err != nil:
			return err
		}
		if err := setBucket(tx, addr).Delete([]byte(addr.Key)); err != nil {
			return pr.NewError(pr.ServerError, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if expired {
		return pr.ErrRecordNotFound
	}
	return nil
}

// Close closes the database. Idempotent.
func (p *Provider) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
