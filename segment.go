package kvcache

import "strings"

// ValidateSegmentName returns nil for a non-empty name without NUL bytes and a
// *SegmentNameError otherwise.
func ValidateSegmentName(name string) error {
	if name == "" {
		return &SegmentNameError{Name: name, Reason: ReasonEmpty}
	}
	if strings.IndexByte(name, 0) >= 0 {
		return &SegmentNameError{Name: name, Reason: ReasonNullByte}
	}
	return nil
}
