package kvcache

import (
	"errors"
	"testing"
)

func TestParseKey(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want Key
	}{
		{"nil", nil, nil},
		{"string", "abc", ID("abc")},
		{"id", ID("abc"), ID("abc")},
		{"ref", Ref{Segment: "s", ID: "1"}, Ref{Segment: "s", ID: "1"}},
		{"ref_ptr", &Ref{Namespace: "n", ID: "1"}, Ref{Namespace: "n", ID: "1"}},
		{"map_string", map[string]string{"segment": "s", "id": "x"}, Ref{Segment: "s", ID: "x"}},
		{"map_any", map[string]any{"namespace": "n", "segment": "s", "id": "x"}, Ref{Namespace: "n", Segment: "s", ID: "x"}},
		{"map_any_nil_field", map[string]any{"segment": nil, "id": "x"}, Ref{ID: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseKey(tc.in)
			if err != nil {
				t.Fatalf("ParseKey(%#v): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseKey(%#v) = %#v want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseKeyRejects(t *testing.T) {
	bad := []any{
		[]string{"a", "b"},
		[2]string{"a", "b"},
		[]any{},
		42,
		true,
		(*Ref)(nil),
		map[string]any{"id": 7},
		map[string]any{"segment": []string{"x"}, "id": "a"},
	}
	for _, in := range bad {
		if _, err := ParseKey(in); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("ParseKey(%#v): expected ErrInvalidKey, got %v", in, err)
		}
	}
}

func TestResolveDefaults(t *testing.T) {
	a, err := New(Options{Dialer: dialerFor(newMemProvider(), nil), Partition: "p", Segment: "s"})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		key  Key
		want string
	}{
		{ID("k"), "p/s/k"},
		{Ref{ID: "k"}, "p/s/k"},
		{Ref{Segment: "x", ID: "k"}, "p/x/k"},
		{Ref{Namespace: "n", Segment: "x", ID: "k"}, "n/x/k"},
		{&Ref{Namespace: "n", ID: "k"}, "n/s/k"},
	}
	for _, tc := range cases {
		addr, err := a.resolve(tc.key)
		if err != nil {
			t.Fatalf("resolve(%#v): %v", tc.key, err)
		}
		if addr.String() != tc.want {
			t.Fatalf("resolve(%#v) = %s want %s", tc.key, addr, tc.want)
		}
	}
}

func TestResolveDefaultPartitionAndSegment(t *testing.T) {
	a, _ := New(Options{Dialer: dialerFor(newMemProvider(), nil)})
	addr, err := a.resolve(ID("k"))
	if err != nil || addr.String() != "test/test/k" {
		t.Fatalf("resolve = %v, %v", addr, err)
	}
}
