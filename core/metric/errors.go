package metric

import "errors"

var (
	// ErrIncompatibleKinds is returned when two values of different kinds are combined.
	ErrIncompatibleKinds = errors.New("incompatible metric kinds")

	// ErrIndexOutOfRange signals a bucket/count desynchronization inside a Histogram.
	ErrIndexOutOfRange = errors.New("histogram index out of range")
)
