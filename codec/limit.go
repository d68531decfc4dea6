package codec

import "fmt"

// Limit wraps another codec to enforce a maximum payload size on both sides.
// If Max <= 0, size limiting is disabled.
//
// Encode rejects oversized items before they reach the store; Decode protects
// against oversized/malicious records coming from a shared store.
type Limit[V any] struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner Codec[V]
	// Max is the maximum permitted encoded length in bytes.
	Max int
}

func (c Limit[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.Max > 0 && len(b) > c.Max {
		return nil, fmt.Errorf("payload too large: %d > %d", len(b), c.Max)
	}
	return b, nil
}

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.Max > 0 && len(b) > c.Max {
		var zero V
		return zero, fmt.Errorf("payload too large: %d > %d", len(b), c.Max)
	}
	return c.Inner.Decode(b)
}
