package codec

import (
	"fmt"
	"strings"
)

// ByName returns the Codec[any] registered under name: json, msgpack, cbor,
// cbor-det (deterministic CBOR) or proto.
func ByName(name string) (Codec[any], error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "json":
		return JSON[any]{}, nil
	case "msgpack":
		return Msgpack[any]{}, nil
	case "cbor", "cbor-det":
		c, err := NewCBOR[any](n == "cbor-det")
		if err != nil {
			return nil, err
		}
		return c, nil
	case "proto", "protobuf":
		return StructValue{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}
