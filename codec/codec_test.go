package codec

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func jsonShaped() any {
	return map[string]any{
		"name":  "Ada",
		"age":   float64(36),
		"tags":  []any{"a", "b"},
		"admin": true,
		"none":  nil,
	}
}

func TestJSONShapedRoundTrip(t *testing.T) {
	cases := map[string]Codec[any]{
		"json":  JSON[any]{},
		"proto": StructValue{},
		"cbor":  MustCBOR[any](false),
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			in := jsonShaped()
			b, err := c.Encode(in)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			out, err := c.Decode(b)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if name == "cbor" {
				// CBOR keeps integers; compare the parts that are representation-stable.
				m := out.(map[string]any)
				if m["name"] != "Ada" || m["admin"] != true {
					t.Fatalf("cbor round trip: %#v", out)
				}
				return
			}
			if !reflect.DeepEqual(in, out) {
				t.Fatalf("round trip mismatch:\n in=%#v\nout=%#v", in, out)
			}
		})
	}
}

func TestMsgpackString(t *testing.T) {
	c := Msgpack[any]{}
	b, err := c.Encode("123")
	if err != nil {
		t.Fatal(err)
	}
	v, err := c.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if v != "123" {
		t.Fatalf("got %#v", v)
	}
}

func TestCBORDeterministic(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	in := map[string]int{"b": 2, "a": 1, "c": 3}
	first, err := c.Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		b, _ := c.Encode(in)
		if !bytes.Equal(first, b) {
			t.Fatalf("deterministic encoding changed between runs")
		}
	}
}

func TestCBORRejectsDuplicateKeys(t *testing.T) {
	// {"a": 1, "a": 2}
	dup := []byte{0xa2, 0x61, 'a', 0x01, 0x61, 'a', 0x02}
	for _, det := range []bool{false, true} {
		_, err := MustCBOR[any](det).Decode(dup)
		var de *cbor.DupMapKeyError
		if !errors.As(err, &de) {
			t.Fatalf("deterministic=%v: want DupMapKeyError, got %v", det, err)
		}
	}
}

func TestCBORIndefiniteLength(t *testing.T) {
	// {_ "a": 1}
	indef := []byte{0xbf, 0x61, 'a', 0x01, 0xff}
	v, err := MustCBOR[any](false).Decode(indef)
	if err != nil {
		t.Fatalf("preferred codec: %v", err)
	}
	if m, ok := v.(map[string]any); !ok || len(m) != 1 {
		t.Fatalf("got %#v", v)
	}
	if _, err := MustCBOR[any](true).Decode(indef); err == nil {
		t.Fatalf("deterministic codec accepted an indefinite-length map")
	}
}

func TestStructValueRejectsUnencodable(t *testing.T) {
	if _, err := (StructValue{}).Encode(make(chan int)); err == nil {
		t.Fatalf("expected error for channel item")
	}
}

func TestLimit(t *testing.T) {
	c := Limit[any]{Inner: JSON[any]{}, Max: 8}
	if _, err := c.Encode("short"); err != nil {
		t.Fatalf("small item should encode: %v", err)
	}
	if _, err := c.Encode(strings.Repeat("x", 32)); err == nil {
		t.Fatalf("oversized item should fail on encode")
	}
	if _, err := c.Decode([]byte(`"` + strings.Repeat("x", 32) + `"`)); err == nil {
		t.Fatalf("oversized payload should fail on decode")
	}

	off := Limit[any]{Inner: JSON[any]{}}
	if _, err := off.Encode(strings.Repeat("x", 1024)); err != nil {
		t.Fatalf("Max=0 disables the limit: %v", err)
	}
}

func TestAdapt(t *testing.T) {
	c := Adapt[[]byte](Bytes{})
	b, err := c.Encode([]byte("raw"))
	if err != nil || string(b) != "raw" {
		t.Fatalf("encode: %q %v", b, err)
	}
	v, err := c.Decode([]byte("raw"))
	if err != nil || !bytes.Equal(v.([]byte), []byte("raw")) {
		t.Fatalf("decode: %#v %v", v, err)
	}

	_, err = c.Encode("not bytes")
	var te *TypeError
	if !errors.As(err, &te) {
		t.Fatalf("expected TypeError, got %v", err)
	}
}

func TestByName(t *testing.T) {
	for _, n := range []string{"", "json", "JSON", "msgpack", "cbor", "cbor-det", "proto"} {
		if _, err := ByName(n); err != nil {
			t.Fatalf("ByName(%q): %v", n, err)
		}
	}
	if _, err := ByName("xml"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}

func TestMsgpackUsesJSONTags(t *testing.T) {
	type user struct {
		Name  string `json:"name"`
		Email string `json:"email_address"`
	}
	b, err := Msgpack[any]{}.Encode(user{Name: "ada", Email: "a@x"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Msgpack[any]{}.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := out.(map[string]any)
	if !ok || m["name"] != "ada" || m["email_address"] != "a@x" {
		t.Fatalf("json tag names not used: %#v", out)
	}
}

func TestMsgpackSortedKeys(t *testing.T) {
	c := Msgpack[any]{}
	item := func() any {
		return map[string]any{
			"z": 1,
			"a": map[string]any{"y": "1", "b": "2", "k": "3"},
			"m": map[string]string{"q": "x", "c": "y", "h": "z"},
		}
	}
	first, err := c.Encode(item())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		b, err := c.Encode(item())
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, b) {
			t.Fatalf("msgpack map encoding not stable")
		}
	}
}
