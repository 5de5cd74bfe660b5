package cube

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrFormat      = errors.New("unrecognised format")
	ErrShape       = errors.New("shape mismatch")
	ErrBounds      = errors.New("window out of bounds")
	ErrEmptyInput  = errors.New("empty input")
	ErrInvalidMode = errors.New("invalid mode")
	ErrUnsupported = errors.New("unsupported")
)

// BoundsError reports the window bound that falls outside the raster.
type BoundsError struct {
	Bound string
	Value int
	Limit int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%v: %s=%d (limit %d)", ErrBounds, e.Bound, e.Value, e.Limit)
}

func (e *BoundsError) Unwrap() error { return ErrBounds }
