package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// CBOR stores items as CBOR. Build it with NewCBOR or MustCBOR; the zero value
// has no modes and panics on use.
//
// Decoding is strict about what a stored item may look like: maps held in an
// interface come back as map[string]any, a map that repeats a key is rejected
// with *cbor.DupMapKeyError instead of keeping the last value, and deterministic
// codecs also refuse indefinite-length items, which canonical encoders never emit.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[any] = CBOR[any]{}

// NewCBOR builds a CBOR codec. With deterministic set, items are written in RFC 8949
// core deterministic form, so equal items hash equal; otherwise map order is left to
// the runtime. Times are written as RFC 3339 strings either way.
func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	do := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
	}
	if deterministic {
		eo = cbor.CoreDetEncOptions()
		do.IndefLength = cbor.IndefLengthForbidden
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, fmt.Errorf("codec: cbor encode mode: %w", err)
	}
	dm, err := do.DecMode()
	if err != nil {
		return CBOR[V]{}, fmt.Errorf("codec: cbor decode mode: %w", err)
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is NewCBOR for package-level codecs; it panics if the modes are invalid.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	if err := c.dec.Unmarshal(b, &v); err != nil {
		var zero V
		return zero, err
	}
	return v, nil
}
