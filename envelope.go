package kvcache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/unkn0wn-root/kvcache/codec"
	pr "github.com/unkn0wn-root/kvcache/provider"
)

// Bin names of an envelope record.
const (
	BinPrimaryKey = "primaryKey"
	BinItem       = "item"
	BinStored     = "stored"
	BinTTL        = "ttl"
)

// Envelope is the stored form of a cached value.
type Envelope struct {
	PrimaryKey string `json:"primaryKey"`
	Item       any    `json:"item"`
	Stored     int64  `json:"stored"` // unix ms of the write
	TTL        int64  `json:"ttl"`    // seconds; positive fractions round up

	// Read-side metadata reported by the store. Zero on envelopes not read back.
	Generation uint32        `json:"generation,omitempty"`
	Expires    time.Duration `json:"expires,omitempty"` // remaining lifetime; 0 => none/unknown
}

// StoredAt returns the write time.
func (e *Envelope) StoredAt() time.Time {
	return time.UnixMilli(e.Stored)
}

// Expired reports whether now is past Stored+TTL. A TTL <= 0 never expires here;
// the store's own expiry is authoritative and this is only a secondary check.
func (e *Envelope) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return !now.Before(e.StoredAt().Add(time.Duration(e.TTL) * time.Second))
}

func newEnvelope(id string, value any, stored time.Time, ttl time.Duration) *Envelope {
	return &Envelope{
		PrimaryKey: id,
		Item:       value,
		Stored:     stored.UnixMilli(),
		TTL:        ttlSeconds(ttl),
	}
}

// ttlSeconds rounds a positive ttl up to whole seconds so a sub-second TTL never
// becomes 0 (no expiry). Zero and negative values pass through truncated.
func ttlSeconds(ttl time.Duration) int64 {
	if ttl > 0 {
		return int64((ttl + time.Second - 1) / time.Second)
	}
	return int64(ttl / time.Second)
}

// checkSerializable fails on values no codec can store faithfully: cycles,
// channels, funcs, NaN. encoding/json detects cycles instead of recursing forever,
// which is what makes this safe to run before handing the value to any codec.
func checkSerializable(env *Envelope) error {
	if _, err := json.Marshal(env); err != nil {
		return err
	}
	return nil
}

func encodeEnvelope(c codec.Codec[any], env *Envelope) (pr.Bins, error) {
	item, err := c.Encode(env.Item)
	if err != nil {
		return nil, err
	}
	return pr.Bins{
		BinPrimaryKey: []byte(env.PrimaryKey),
		BinItem:       item,
		BinStored:     strconv.AppendInt(nil, env.Stored, 10),
		BinTTL:        strconv.AppendInt(nil, env.TTL, 10),
	}, nil
}

// decodeEnvelope validates the record shape. Any structural problem is reported as
// a plain error; the caller classifies it as ErrEnvelopeMalformed.
func decodeEnvelope(c codec.Codec[any], bins pr.Bins, meta pr.RecordMeta) (*Envelope, error) {
	if !bins.Has(BinItem) {
		return nil, fmt.Errorf("missing %q bin", BinItem)
	}
	if !bins.Has(BinStored) {
		return nil, fmt.Errorf("missing %q bin", BinStored)
	}
	stored, err := strconv.ParseInt(string(bins[BinStored]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad %q bin: %w", BinStored, err)
	}
	var ttl int64
	if raw, ok := bins[BinTTL]; ok && len(raw) > 0 {
		if ttl, err = strconv.ParseInt(string(raw), 10, 64); err != nil {
			return nil, fmt.Errorf("bad %q bin: %w", BinTTL, err)
		}
	}
	item, err := c.Decode(bins[BinItem])
	if err != nil {
		return nil, fmt.Errorf("decode %q bin: %w", BinItem, err)
	}
	return &Envelope{
		PrimaryKey: string(bins[BinPrimaryKey]),
		Item:       item,
		Stored:     stored,
		TTL:        ttl,
		Generation: meta.Generation,
		Expires:    meta.TTL,
	}, nil
}
