package clock

import (
	"time"

	internalclock "github.com/SmitUplenchwar2687/Rewind/internal/clock"
)

// Clock abstracts time for capture timestamps and replay waits.
type Clock = internalclock.Clock

// Real delegates to the standard time package.
type Real = internalclock.Real

// Virtual is a manually driven clock for deterministic timing tests.
type Virtual = internalclock.Virtual

func NewReal() Real {
	return internalclock.NewReal()
}

// NewVirtual creates a virtual clock starting at the given time.
func NewVirtual(start time.Time) *Virtual {
	return internalclock.NewVirtual(start)
}
