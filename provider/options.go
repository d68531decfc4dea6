package provider

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
)

// Option readers for Config.Options. Values may come from Go callers (typed) or from
// config files / env (strings), so each accepts both.

// StringOption returns Options[name] or def when absent.
func (c Config) StringOption(name, def string) (string, error) {
	v, ok := c.Options[name]
	if !ok || v == nil {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("provider: option %q: %w", name, err)
	}
	return s, nil
}

// IntOption returns Options[name] as int64 or def when absent. Booleans and
// floats with a fractional part are rejected rather than coerced.
func (c Config) IntOption(name string, def int64) (int64, error) {
	v, ok := c.Options[name]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case bool:
		return 0, fmt.Errorf("provider: option %q: want integer, got %T", name, v)
	case float32:
		if n != float32(math.Trunc(float64(n))) {
			return 0, fmt.Errorf("provider: option %q: %v is not an integer", name, n)
		}
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("provider: option %q: %v is not an integer", name, n)
		}
	}
	i, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("provider: option %q: %w", name, err)
	}
	return i, nil
}

// BoolOption returns Options[name] as a bool or def when absent. Strings such
// as "true", "1" or "false" are accepted.
func (c Config) BoolOption(name string, def bool) (bool, error) {
	v, ok := c.Options[name]
	if !ok || v == nil {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("provider: option %q: %w", name, err)
	}
	return b, nil
}

// DurationOption returns Options[name] as a duration or def when absent.
// Strings are parsed with time.ParseDuration; integers are seconds.
func (c Config) DurationOption(name string, def time.Duration) (time.Duration, error) {
	v, ok := c.Options[name]
	if !ok || v == nil {
		return def, nil
	}
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		pd, err := time.ParseDuration(d)
		if err != nil {
			return 0, fmt.Errorf("provider: option %q: %w", name, err)
		}
		return pd, nil
	default:
		// cast.ToDurationE reads bare integers as nanoseconds.
		n, err := c.IntOption(name, 0)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * time.Second, nil
	}
}
