package kvcache

import (
	"errors"
	"fmt"

	pr "github.com/unkn0wn-root/kvcache/provider"
)

var (
	ErrNotStarted         = errors.New("kvcache: connection not started")
	ErrInvalidKey         = errors.New("kvcache: invalid key")
	ErrInvalidSegmentName = errors.New("kvcache: invalid segment name")
	ErrEnvelopeMalformed  = errors.New("kvcache: bad envelope content")
	ErrSerialization      = errors.New("kvcache: value is not serializable")
	ErrConnection         = errors.New("kvcache: connection failed")
	ErrRead               = errors.New("kvcache: error getting result")
	ErrWrite              = errors.New("kvcache: error writing data")
	ErrDelete             = errors.New("kvcache: error dropping item")
	ErrNoDialer           = errors.New("kvcache: dialer is required")
)

// OpError reports a failed get/set/drop against a resolved address.
// Kind is one of ErrRead, ErrWrite, ErrDelete, ErrEnvelopeMalformed or
// ErrSerialization; Err is the underlying cause (store or codec error).
// Both are reachable through errors.Is / errors.As.
type OpError struct {
	Op   string
	Addr pr.Address
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Addr, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Segment name failure reasons.
const (
	ReasonEmpty    = "empty string"
	ReasonNullByte = "includes null character"
)

// SegmentNameError unwraps to ErrInvalidSegmentName.
type SegmentNameError struct {
	Name   string
	Reason string
}

func (e *SegmentNameError) Error() string {
	return fmt.Sprintf("kvcache: invalid segment name %q: %s", e.Name, e.Reason)
}

func (e *SegmentNameError) Unwrap() error { return ErrInvalidSegmentName }

func invalidKey(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidKey, reason)
}
