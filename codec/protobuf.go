package codec

import (
	"encoding/json"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type Protobuf[T proto.Message] struct {
	new func() T // constructor for a concrete message (e.g., func() *mypb.User { return &mypb.User{} })
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}
func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}

// StructValue stores arbitrary JSON-shaped items as a protobuf google.protobuf.Value.
// Items are normalized through JSON first, so structs become objects and numbers
// come back as float64, same as the JSON codec.
type StructValue struct{}

var _ Codec[any] = StructValue{}

var valueCodec = NewProtobuf(func() *structpb.Value { return &structpb.Value{} })

func (StructValue) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var norm any
	if err := json.Unmarshal(raw, &norm); err != nil {
		return nil, err
	}
	pv, err := structpb.NewValue(norm)
	if err != nil {
		return nil, err
	}
	return valueCodec.Encode(pv)
}

func (StructValue) Decode(b []byte) (any, error) {
	pv, err := valueCodec.Decode(b)
	if err != nil {
		return nil, err
	}
	return pv.AsInterface(), nil
}
