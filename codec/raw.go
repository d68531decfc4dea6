package codec

// Bytes is an identity codec for []byte values. Encode/Decode return the
// input unchanged.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String is a trivial codec for Go string values. Encode converts to []byte,
// and Decode converts back to string. By convention this assumes UTF-8 and
// performs no validation.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }

// Adapt lifts a typed codec to Codec[any]. Encode fails when the item is not a V;
// use it to store e.g. raw []byte items through Bytes.
func Adapt[V any](inner Codec[V]) Codec[any] { return adapted[V]{inner: inner} }

type adapted[V any] struct{ inner Codec[V] }

func (a adapted[V]) Encode(v any) ([]byte, error) {
	tv, ok := v.(V)
	if !ok {
		var zero V
		return nil, &TypeError{Want: zero, Got: v}
	}
	return a.inner.Encode(tv)
}

func (a adapted[V]) Decode(b []byte) (any, error) {
	return a.inner.Decode(b)
}
