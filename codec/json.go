package codec

import "encoding/json"

// JSON is the default item codec. With V = any, decoded objects come back as
// map[string]any and numbers as float64.
type JSON[V any] struct{}

var _ Codec[any] = JSON[any]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
