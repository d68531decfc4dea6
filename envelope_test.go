package kvcache

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/kvcache/codec"
	pr "github.com/unkn0wn-root/kvcache/provider"
)

func TestEnvelopeEncodeDecode(t *testing.T) {
	c := codec.JSON[any]{}
	stored := time.UnixMilli(1_000)
	env := newEnvelope("id", map[string]any{"k": "v"}, stored, 90*time.Second)

	bins, err := encodeEnvelope(c, env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, b := range []string{BinPrimaryKey, BinItem, BinStored, BinTTL} {
		if !bins.Has(b) {
			t.Fatalf("missing bin %q", b)
		}
	}

	got, err := decodeEnvelope(c, bins, pr.RecordMeta{Generation: 3, TTL: time.Minute})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PrimaryKey != "id" || got.Stored != 1_000 || got.TTL != 90 {
		t.Fatalf("envelope = %+v", got)
	}
	if got.Generation != 3 || got.Expires != time.Minute {
		t.Fatalf("read metadata not carried: %+v", got)
	}
	if m, ok := got.Item.(map[string]any); !ok || m["k"] != "v" {
		t.Fatalf("item = %#v", got.Item)
	}
}

func TestEnvelopeTTLRoundsUpToSeconds(t *testing.T) {
	cases := []struct {
		ttl  time.Duration
		want int64
	}{
		{500 * time.Millisecond, 1},
		{time.Nanosecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{90 * time.Second, 90},
		{0, 0},
		{-time.Second, -1},
	}
	for _, tc := range cases {
		if env := newEnvelope("id", 1, time.Now(), tc.ttl); env.TTL != tc.want {
			t.Fatalf("ttl %v: got %d, want %d", tc.ttl, env.TTL, tc.want)
		}
	}

	base := time.UnixMilli(10_000)
	env := newEnvelope("id", 1, base, 1500*time.Millisecond)
	if env.Expired(base.Add(1200 * time.Millisecond)) {
		t.Fatalf("expired before the rounded ttl elapsed")
	}
	if !env.Expired(base.Add(2 * time.Second)) {
		t.Fatalf("not expired after the rounded ttl")
	}
}

func TestEnvelopeExpired(t *testing.T) {
	base := time.UnixMilli(10_000)
	env := &Envelope{Stored: base.UnixMilli(), TTL: 5}

	if env.Expired(base.Add(4 * time.Second)) {
		t.Fatalf("should be live before ttl")
	}
	if !env.Expired(base.Add(5 * time.Second)) {
		t.Fatalf("should be expired at stored+ttl")
	}
	if (&Envelope{Stored: 0, TTL: 0}).Expired(time.Now()) {
		t.Fatalf("ttl 0 never expires")
	}
	if !env.StoredAt().Equal(base) {
		t.Fatalf("StoredAt = %v", env.StoredAt())
	}
}

func TestDecodeEnvelopeErrors(t *testing.T) {
	c := codec.JSON[any]{}
	cases := []struct {
		name string
		bins pr.Bins
		want string
	}{
		{"no_item", pr.Bins{BinStored: []byte("1")}, `missing "item"`},
		{"no_stored", pr.Bins{BinItem: []byte("1")}, `missing "stored"`},
		{"bad_stored", pr.Bins{BinItem: []byte("1"), BinStored: []byte("x")}, `bad "stored"`},
		{"bad_ttl", pr.Bins{BinItem: []byte("1"), BinStored: []byte("1"), BinTTL: []byte("1.5")}, `bad "ttl"`},
		{"bad_item", pr.Bins{BinItem: []byte("{"), BinStored: []byte("1")}, `decode "item"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeEnvelope(c, tc.bins, pr.RecordMeta{})
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v want substring %q", err, tc.want)
			}
		})
	}
}

func TestCheckSerializable(t *testing.T) {
	if err := checkSerializable(newEnvelope("a", []any{1, "x"}, time.Now(), 0)); err != nil {
		t.Fatalf("plain value rejected: %v", err)
	}
	type loop struct{ Self *loop }
	l := &loop{}
	l.Self = l
	if err := checkSerializable(newEnvelope("a", l, time.Now(), 0)); err == nil {
		t.Fatalf("cycle accepted")
	}
	if err := checkSerializable(newEnvelope("a", func() {}, time.Now(), 0)); err == nil {
		t.Fatalf("func accepted")
	}
}

func TestEncodeEnvelopeCodecError(t *testing.T) {
	_, err := encodeEnvelope(codec.Adapt[[]byte](codec.Bytes{}), newEnvelope("a", "not bytes", time.Now(), 0))
	var te *codec.TypeError
	if !errors.As(err, &te) {
		t.Fatalf("expected *codec.TypeError, got %v", err)
	}
}
