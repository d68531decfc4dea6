package kvcache

import (
	"fmt"
	"reflect"

	pr "github.com/unkn0wn-root/kvcache/provider"
)

// Key identifies a cached item. It is either an ID (bare identifier placed under the
// configured partition and segment) or a Ref (explicit triple; empty Namespace or
// Segment fall back to the configured defaults).
type Key interface {
	isKey()
}

// ID is a bare identifier.
type ID string

// Ref is a structured key.
type Ref struct {
	Namespace string `json:"namespace,omitempty"`
	Segment   string `json:"segment,omitempty"`
	ID        string `json:"id"`
}

func (ID) isKey()  {}
func (Ref) isKey() {}

// ParseKey turns a loosely-typed key (for example one decoded from JSON) into a Key.
// Accepted: nil (absent key, returns nil), string, ID, Ref, *Ref, map[string]string
// and map[string]any with optional "namespace"/"segment" and an "id". Slices,
// arrays, numbers, bools and everything else are ErrInvalidKey.
func ParseKey(v any) (Key, error) {
	switch k := v.(type) {
	case nil:
		return nil, nil
	case string:
		return ID(k), nil
	case ID:
		return k, nil
	case Ref:
		return k, nil
	case *Ref:
		if k == nil {
			return nil, invalidKey("nil *Ref")
		}
		return *k, nil
	case map[string]string:
		return Ref{Namespace: k["namespace"], Segment: k["segment"], ID: k["id"]}, nil
	case map[string]any:
		return refFromMap(k)
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return nil, invalidKey("array keys are not supported")
	default:
		return nil, invalidKey(fmt.Sprintf("unsupported key type %T", v))
	}
}

func refFromMap(m map[string]any) (Key, error) {
	var r Ref
	for field, dst := range map[string]*string{
		"namespace": &r.Namespace,
		"segment":   &r.Segment,
		"id":        &r.ID,
	} {
		raw, ok := m[field]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return nil, invalidKey(fmt.Sprintf("field %q must be a string, got %T", field, raw))
		}
		*dst = s
	}
	return r, nil
}

// resolve maps a Key onto a store address using the configured defaults.
func (a *Adapter) resolve(k Key) (pr.Address, error) {
	var addr pr.Address
	switch key := k.(type) {
	case ID:
		addr = pr.Address{Namespace: a.cfg.partition, Set: a.cfg.segment, Key: string(key)}
	case Ref:
		addr = pr.Address{
			Namespace: coalesce(key.Namespace, a.cfg.partition),
			Set:       coalesce(key.Segment, a.cfg.segment),
			Key:       key.ID,
		}
	case *Ref:
		if key == nil {
			return pr.Address{}, invalidKey("nil *Ref")
		}
		return a.resolve(*key)
	case nil:
		return pr.Address{}, invalidKey("missing key")
	default:
		return pr.Address{}, invalidKey(fmt.Sprintf("unsupported key type %T", k))
	}
	if addr.Key == "" {
		return pr.Address{}, invalidKey("missing id")
	}
	if !addr.Valid() {
		return pr.Address{}, invalidKey("empty namespace or segment")
	}
	return addr, nil
}
