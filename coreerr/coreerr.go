// Package coreerr defines the sentinel error kinds raised by the optimiser
// core (battery, efficiency, optimizer, quantum, rates, timeinterval) and the
// tariff provider.
package coreerr

import "errors"

var (
	// ErrEmptyForecast is returned when a rate sequence contains no points
	// overlapping the requested horizon.
	ErrEmptyForecast = errors.New("coreerr: empty forecast")

	// ErrNoSolution is returned when every path through the optimiser
	// violates the battery's minimum-residual floor.
	ErrNoSolution = errors.New("coreerr: no solution satisfies residual floor")

	// ErrInsufficientData is returned when the efficiency estimator is
	// given fewer than one measurement pair.
	ErrInsufficientData = errors.New("coreerr: insufficient data for estimate")

	// ErrInvalidEstimate is returned when a fitted efficiency parameter is
	// non-finite or outside its valid range.
	ErrInvalidEstimate = errors.New("coreerr: invalid efficiency estimate")

	// ErrInvalidInput is returned on precondition breaches: negative power
	// limits, zero quantum, empty working-mode set, ill-ordered intervals.
	ErrInvalidInput = errors.New("coreerr: invalid input")

	// ErrIntervalOutOfBounds is returned when an interval is trimmed
	// (timeinterval.Interval.WithStart/WithEnd) past its own end.
	ErrIntervalOutOfBounds = errors.New("coreerr: interval out of bounds")
)
