package codec

import "fmt"

// TypeError is returned by Adapt codecs when an item has the wrong dynamic type.
type TypeError struct {
	Want any
	Got  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("codec: want %T, got %T", e.Want, e.Got)
}
