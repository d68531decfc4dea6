package codec

// Codec encodes/decodes values V to []byte for storage.
// The cache stores items through a Codec[any]; every codec in this package can be
// instantiated with V = any.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
