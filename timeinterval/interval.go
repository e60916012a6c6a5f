// Package timeinterval implements the half-open wall-clock interval used by
// the rate series, battery simulator, and schedule compiler.
package timeinterval

import (
	"fmt"
	"time"

	"github.com/cepro/battsched/coreerr"
)

// Interval is a half-open range [Start, End) over IANA-zone-aware wall-clock
// timestamps. Start must be strictly before End.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New constructs an Interval, returning coreerr.ErrInvalidInput if start is
// not strictly before end.
func New(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("%w: interval start %s not before end %s", coreerr.ErrInvalidInput, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Contains reports whether t falls in [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Overlaps reports whether iv and other share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// WithStart returns a copy of iv with Start replaced, failing if the result
// would be empty or inverted.
func (iv Interval) WithStart(start time.Time) (Interval, error) {
	if !start.Before(iv.End) {
		return Interval{}, fmt.Errorf("%w: new start %s not before end %s", coreerr.ErrIntervalOutOfBounds, start, iv.End)
	}
	return Interval{Start: start, End: iv.End}, nil
}

// WithEnd returns a copy of iv with End replaced, failing if the result
// would be empty or inverted.
func (iv Interval) WithEnd(end time.Time) (Interval, error) {
	if !iv.Start.Before(end) {
		return Interval{}, fmt.Errorf("%w: new end %s not after start %s", coreerr.ErrIntervalOutOfBounds, end, iv.Start)
	}
	return Interval{Start: iv.Start, End: end}, nil
}

// TrimToNow returns iv with its Start raised to now when now falls strictly
// inside iv, otherwise iv unchanged. Used once per optimiser run to keep the
// first interval from starting in the past.
func (iv Interval) TrimToNow(now time.Time) Interval {
	if iv.Contains(now) && now.After(iv.Start) {
		trimmed, err := iv.WithStart(now)
		if err != nil {
			return iv
		}
		return trimmed
	}
	return iv
}
