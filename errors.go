package bulkverify

import (
	"errors"
	"fmt"
)

var (
	// ErrInputBounds is returned when the address list is empty or over the mode's limit.
	// The concrete error is a *BoundsError.
	ErrInputBounds = errors.New("bulkverify: address count out of bounds")

	// ErrInternal is returned when the pipeline breaks one of its own guarantees,
	// for example a verdict slot left unfilled.
	ErrInternal = errors.New("bulkverify: internal error")

	// ErrInvalidOptions is returned by Validate* when a builder option could not be applied.
	ErrInvalidOptions = errors.New("bulkverify: invalid options")
)

// Delivery modes, as reported in BoundsError.
const (
	ModeBatch  = "batch"
	ModeStream = "stream"
)

// BoundsError describes a rejected request size.
type BoundsError struct {
	Mode  string
	Count int
	Min   int
	Max   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("bulkverify: %s accepts %d to %d addresses, got %d", e.Mode, e.Min, e.Max, e.Count)
}

// Is makes errors.Is(err, ErrInputBounds) hold for any *BoundsError.
func (e *BoundsError) Is(target error) bool {
	return target == ErrInputBounds
}

func checkBounds(mode string, count, limit int) error {
	if count < 1 || count > limit {
		return &BoundsError{Mode: mode, Count: count, Min: 1, Max: limit}
	}
	return nil
}
