package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack is a Codec that serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use.
//
// Struct fields are named by their `json` tag (falling back to `msgpack`), so an
// item stored as msgpack has the same field names it would have as JSON. Decoding
// into any keeps integer widths (int8, int64, ...) instead of widening to float64,
// and maps come back as map[string]any. Keys of map[string]any, map[string]string
// and map[string]bool values (nested ones included) are written sorted, so equal
// JSON-shaped items encode to equal bytes. Other map types keep Go's random order.
type Msgpack[V any] struct{}

var _ Codec[any] = Msgpack[any]{}

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	dec.SetMapDecoder(func(d *msgpack.Decoder) (any, error) {
		return d.DecodeMap()
	})
	err := dec.Decode(&v)
	return v, err
}
