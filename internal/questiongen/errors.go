package questiongen

import (
	"errors"
	"fmt"
)

// ErrParse means a model reply yielded no usable candidates.
var ErrParse = errors.New("no questions in model reply")

// ErrShortfall means fewer candidates survived validation than were
// requested and the batch was padded with synthesized items.
var ErrShortfall = errors.New("validated questions short of target")

// ShortfallError records how many padded items a batch needed.
type ShortfallError struct {
	Valid  int
	Target int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("%v: %d of %d", ErrShortfall, e.Valid, e.Target)
}

func (e *ShortfallError) Is(target error) bool { return target == ErrShortfall }

// Padded returns the number of synthesized items added.
func (e *ShortfallError) Padded() int { return e.Target - e.Valid }
